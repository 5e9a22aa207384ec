package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/edugrid/gradecore-backend/internal/model"
	"github.com/edugrid/gradecore-backend/internal/response"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"
)

// Claims is the JWT payload issued by the identity service. Role is a
// closed enum; tokens carrying anything else are rejected outright.
type Claims struct {
	UserID string     `json:"uid"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken validates a signed token string and returns its claims.
func ParseToken(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if _, err := model.ParseRole(string(claims.Role)); err != nil {
		return nil, err
	}
	return claims, nil
}

// RequireAuth validates a JWT from the Authorization header and stores
// its claims in the context.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := bearerClaims(c, secret)
		if err != nil {
			abortToken(c, err)
			return
		}
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// RequireRole restricts a route to the given roles. Must run after
// RequireAuth.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		response.AbortFail(c, http.StatusForbidden, roleDeniedCode(roles))
	}
}

// roleDeniedCode picks the denial code for a role mismatch. The specific
// codes apply only when the allowed set is unambiguous about which side
// of the exam the caller must be on.
func roleDeniedCode(roles []model.Role) response.ErrCode {
	if len(roles) == 1 && roles[0] == model.RoleStudent {
		return response.ErrStudentAccessOnly
	}
	if len(roles) == 0 {
		return response.ErrForbidden
	}
	for _, role := range roles {
		if !role.CanManageExams() {
			return response.ErrForbidden
		}
	}
	return response.ErrLecturerAccessOnly
}

// RequireWSAuth validates a JWT from the query param ?token=...
// Used for WebSocket upgrade requests, where headers are unavailable.
func RequireWSAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		claims, err := ParseToken(tokenStr, secret)
		if err != nil {
			abortToken(c, err)
			return
		}
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

func bearerClaims(c *gin.Context, secret string) (*Claims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, jwt.ErrTokenMalformed
	}
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, jwt.ErrTokenMalformed
	}
	return ParseToken(tokenStr, secret)
}

func abortToken(c *gin.Context, err error) {
	if errors.Is(err, jwt.ErrTokenExpired) {
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenExpired)
		return
	}
	response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
}
