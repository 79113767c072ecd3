// Package httpkit provides HTTP utilities including tenant identity extraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantContext identifies the tenant and acting user for one request.
// The core trusts it as already authorized; handlers pass it down explicitly
// instead of reaching for framework globals.
type TenantContext struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
}

// GetTenant extracts the TenantContext from a Gin context.
// The second return value is false when the tenant middleware did not run.
func GetTenant(c *gin.Context) (TenantContext, bool) {
	tenantValue, tenantOK := c.Get(ContextTenantIDKey)
	userValue, userOK := c.Get(ContextUserIDKey)
	if !tenantOK || !userOK {
		return TenantContext{}, false
	}

	tenantID, ok := tenantValue.(uuid.UUID)
	if !ok {
		return TenantContext{}, false
	}
	userID, ok := userValue.(uuid.UUID)
	if !ok {
		return TenantContext{}, false
	}

	return TenantContext{TenantID: tenantID, UserID: userID}, true
}

// MustGetTenant extracts the TenantContext or aborts with 401.
// Returns false when the request was aborted.
func MustGetTenant(c *gin.Context) (TenantContext, bool) {
	tc, ok := GetTenant(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return TenantContext{}, false
	}
	return tc, true
}
