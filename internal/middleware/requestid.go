package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request identifier in and out of the service.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key the identifier is stored under.
	RequestIDKey = "request_id"

	// maxRequestIDLength bounds how much caller-supplied identifier we are
	// willing to echo into logs and responses.
	maxRequestIDLength = 64
)

// RequestIDMiddleware tags every request with an identifier, echoed back in
// the X-Request-ID response header and stored under RequestIDKey for the
// logging middleware.
//
// An identifier supplied by the caller (gateway, load balancer) is reused
// only if it passes usableRequestID; anything else is replaced with a fresh
// UUID v4. The value ends up verbatim in log lines, so an unvalidated header
// would be a log injection vector.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !usableRequestID(id) {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}

// usableRequestID accepts non-empty identifiers up to maxRequestIDLength
// made of alphanumerics, '-', '_', and '.'. This covers UUIDs and the ID
// formats common gateways emit.
func usableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		ch := id[i]
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_' || ch == '.':
		default:
			return false
		}
	}
	return true
}
