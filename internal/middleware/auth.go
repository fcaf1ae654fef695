package middleware

import (
	"strings"
	"telehealth-server/internal/config"
	"telehealth-server/internal/models"
	"telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Identity is the authenticated caller, resolved once per request. The role
// tag determines which profile table ProfileID points into; admins carry no
// profile.
type Identity struct {
	UserID    string
	Role      models.Role
	ProfileID string
}

// IsDoctor reports whether the caller is the doctor with the given profile id.
func (i Identity) IsDoctor(doctorID string) bool {
	return i.Role == models.RoleDoctor && i.ProfileID == doctorID
}

// IsPatient reports whether the caller is the patient with the given profile id.
func (i Identity) IsPatient(patientID string) bool {
	return i.Role == models.RolePatient && i.ProfileID == patientID
}

// AuthMiddleware creates a middleware for JWT authentication.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		tokenString := parts[1]
		claims, err := utils.ValidateToken(tokenString, cfg.JWTSecret)
		if err != nil {
			utils.Unauthorized(c, "Invalid token: "+err.Error())
			c.Abort()
			return
		}

		// Set user information in context for downstream handlers
		c.Set("userID", claims.UserID)
		c.Set("userRole", claims.Role)

		c.Next()
	}
}

// IdentityMiddleware resolves the caller's role-linked profile row once and
// stores the tagged identity in the context. Must run after AuthMiddleware.
func IdentityMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserIDFromContext(c)
		if !ok {
			utils.Unauthorized(c, "User not authenticated")
			c.Abort()
			return
		}
		role, _ := GetUserRoleFromContext(c)

		ident := Identity{UserID: userID, Role: role}

		var err error
		switch role {
		case models.RoleDoctor:
			var doctor models.Doctor
			err = db.Where("user_id = ?", userID).First(&doctor).Error
			ident.ProfileID = doctor.ID
		case models.RolePatient:
			var patient models.Patient
			err = db.Where("user_id = ?", userID).First(&patient).Error
			ident.ProfileID = patient.ID
		case models.RoleHospital:
			var hospital models.Hospital
			err = db.Where("user_id = ?", userID).First(&hospital).Error
			ident.ProfileID = hospital.ID
		case models.RoleAdmin:
			// Admins act on the account alone.
		}

		if err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.Forbidden(c, "No "+string(role)+" profile linked to this account")
			} else {
				utils.InternalServerError(c, "Database error resolving profile: "+err.Error())
			}
			c.Abort()
			return
		}

		c.Set("identity", ident)
		c.Next()
	}
}

// RoleAuthMiddleware creates a middleware for role-based authorization.
// It should be used *after* AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("userRole")
		if !exists {
			utils.InternalServerError(c, "User role not found in context. AuthMiddleware might be missing.")
			c.Abort()
			return
		}

		role, ok := userRole.(models.Role)
		if !ok {
			utils.InternalServerError(c, "User role in context is not of expected type.")
			c.Abort()
			return
		}

		isAllowed := false
		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				isAllowed = true
				break
			}
		}

		if !isAllowed {
			utils.Forbidden(c, "You do not have permission to access this resource.")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetIdentity returns the resolved caller identity from the context.
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, exists := c.Get("identity")
	if !exists {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}

// Helper function to get user ID from context
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		return "", false
	}
	idStr, ok := userID.(string)
	return idStr, ok
}

// Helper function to get user role from context
func GetUserRoleFromContext(c *gin.Context) (models.Role, bool) {
	userRole, exists := c.Get("userRole")
	if !exists {
		return "", false
	}
	role, ok := userRole.(models.Role)
	return role, ok
}
