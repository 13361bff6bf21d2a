package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/AcMongue/gestion-pfe-sub000/pkg/jwt"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/response"
)

// Context keys set by middleware.JWTAuth.
const (
	CtxUserID       = "user_id"
	CtxRole         = "role"
	CtxDepartmentID = "department_id"
	CtxClaims       = "claims"
)

// MustGetUserID extracts the authenticated user id. On failure it writes a
// 401 and returns false; the caller returns immediately.
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "authentication required")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "authentication required")
		return "", false
	}
	return s, true
}

// GetClaims the parsed access token, nil when the route is not authenticated.
func GetClaims(c *gin.Context) *jwt.Claims {
	v, exists := c.Get(CtxClaims)
	if !exists {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}
