package postgres

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/referral-api/pkg/metrics"
)

func TestRepoMetricsRecordsOperations(t *testing.T) {
	m := metrics.NewMetrics("postgres_repo_test")
	rm := newRepoMetrics("worker", m)

	done := rm.track("delete")
	done()
	done = rm.track("delete")
	done()

	got := testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("worker", "delete"))
	assert.Equal(t, 2.0, got)
}

func TestRepoMetricsNilMetricsIsNoop(t *testing.T) {
	rm := newRepoMetrics("worker", nil)

	assert.NotPanics(t, func() {
		rm.track("get")()
	})
}

// Worker and doctor removal is a hard delete: patients and consultations keep
// the deleted principal's id. Foreign keys on those columns would make the
// delete fail whenever dependent rows exist, so the schema must not carry any.
func TestSchemaAllowsDanglingPrincipalReferences(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "..", "scripts", "schema.sql"))
	require.NoError(t, err)
	schema := string(raw)

	for _, column := range []string{"registered_by", "submitted_by", "assigned_doctor"} {
		constrained := regexp.MustCompile(column + `\s+UUID[^,]*REFERENCES`)
		assert.False(t, constrained.MatchString(schema),
			"%s must not carry a foreign key", column)
	}
}
