package webserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ballotcast/ballotcast/src/api/storage"
)

func issueJWT(userID uint64, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": userID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString(secret)
}

func parseUID(tokenStr string, secret []byte) (uint64, bool) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return 0, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	uid, ok := claims["uid"].(float64)
	if !ok || uid <= 0 {
		return 0, false
	}
	return uint64(uid), true
}

func JWTMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		uid, ok := parseUID(h[7:], secret)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("uid", uid)
		c.Next()
	}
}

// OptionalJWT sets the caller identity when a valid token is present but
// never rejects the request.
func OptionalJWT(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if strings.HasPrefix(h, "Bearer ") {
			if uid, ok := parseUID(h[7:], secret); ok {
				c.Set("uid", uid)
			}
		}
		c.Next()
	}
}

func currentUID(c *gin.Context) uint64 {
	v, ok := c.Get("uid")
	if !ok {
		return 0
	}
	uid, _ := v.(uint64)
	return uid
}

// RoleMiddleware resolves the caller's role from its profile and requires it
// to be one of the given roles. The profile role column is the single source
// of truth.
func RoleMiddleware(store storage.Store, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := store.GetProfile(c.Request.Context(), currentUID(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"err": "access denied"})
			return
		}
		if !profile.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"err": "account disabled"})
			return
		}
		for _, role := range roles {
			if profile.Role == role {
				c.Set("role", profile.Role)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"err": "access denied"})
	}
}
