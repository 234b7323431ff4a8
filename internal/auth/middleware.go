package auth

import (
	"github.com/gin-gonic/gin"
)

// ctxKeyPrincipal is the Gin context key under which the principal is stored.
// The plain "userID" key is also set so request logging and rate limiting can
// pick up the identity without importing this package.
const ctxKeyPrincipal = "principal"

// Middleware resolves the principal once per request and stashes it in the
// Gin context. Requests without a principal proceed untouched; handlers
// decide whether anonymous access is acceptable (read endpoints are public,
// every write path is not).
func Middleware(res Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, ok := res.Resolve(c.Request); ok {
			c.Set(ctxKeyPrincipal, p)
			c.Set("userID", p.ID)
		}
		c.Next()
	}
}

// FromContext returns the principal stashed by Middleware, if any.
func FromContext(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(ctxKeyPrincipal)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok && p.ID != ""
}
