package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

// identityMiddleware extracts the caller's user id from a bearer token.
// When required is false a missing or invalid token leaves the request
// anonymous instead of rejecting it.
func identityMiddleware(secret string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFrom(c.GetHeader("Authorization"))
		if raw == "" {
			if required {
				unauthorized(c)
				return
			}
			c.Next()
			return
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			if required {
				unauthorized(c)
				return
			}
			c.Next()
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			if required {
				unauthorized(c)
				return
			}
			c.Next()
			return
		}

		c.Set(identityKey, sub)
		c.Next()
	}
}

// tokenFrom strips the scheme prefix from an Authorization header. Both
// "Token" and "Bearer" schemes are accepted.
func tokenFrom(header string) string {
	for _, scheme := range []string{"Token ", "Bearer "} {
		if strings.HasPrefix(header, scheme) {
			return strings.TrimSpace(strings.TrimPrefix(header, scheme))
		}
	}
	return ""
}

// callerID returns the authenticated user id, or "" for anonymous calls
func callerID(c *gin.Context) string {
	v, ok := c.Get(identityKey)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"errors": gin.H{"token": []string{"missing or invalid"}},
	})
}
