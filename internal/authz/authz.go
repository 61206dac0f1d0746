package authz

import (
	"context"

	"gorm.io/gorm"

	"github.com/chronoline/booking-api/internal/models"
)

// Authorizer answers "may this actor create an override booking for this
// merchant". The booking core never inspects roles itself.
type Authorizer interface {
	MayOverride(ctx context.Context, actorID uint, merchantID uint) (bool, error)
}

// RoleAuthorizer grants override authority to owners and managers.
type RoleAuthorizer struct {
	db *gorm.DB
}

func NewRoleAuthorizer(db *gorm.DB) *RoleAuthorizer {
	return &RoleAuthorizer{db: db}
}

func (a *RoleAuthorizer) MayOverride(
	ctx context.Context,
	actorID uint,
	merchantID uint,
) (bool, error) {

	var staff models.Staff
	if err := a.db.WithContext(ctx).
		Where("id = ? AND merchant_id = ?", actorID, merchantID).
		First(&staff).Error; err != nil {
		return false, err
	}

	if !staff.Active {
		return false, nil
	}

	return staff.Role == "owner" || staff.Role == "manager", nil
}

var _ Authorizer = (*RoleAuthorizer)(nil)
