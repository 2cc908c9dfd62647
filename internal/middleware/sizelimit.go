package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carelink/referral-api/pkg/httputil"
)

// SizeLimit caps request bodies at maxBytes. Paths listed in except are left
// alone; multipart upload routes register their own SizeLimit with a larger
// ceiling instead of the engine-wide one.
func SizeLimit(maxBytes int64, except ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(except))
	for _, path := range except {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, httputil.Response{
				Status:  "error",
				Message: "request body too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
