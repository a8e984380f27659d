package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/campusmerch/campusmerch-backend/pkg/enums"
)

// User is a storefront account. Role and affiliation drive buyer-specific
// pricing; both may be unset for anonymous or unconfigured accounts.
// Accounts are never deleted, only marked inactive.
type User struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email       string             `gorm:"column:email;not null;uniqueIndex"`
	Name        string             `gorm:"column:name;not null"`
	Role        *enums.Role        `gorm:"column:role;type:text"`
	Affiliation *enums.Affiliation `gorm:"column:affiliation;type:text"`
	IsStaff     bool               `gorm:"column:is_staff;not null;default:false"`
	IsActive    bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
