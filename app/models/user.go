package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	ROLE_USER       = "user"
	ROLE_ADMIN      = "admin"
	STATUS_ACTIVE   = "active"
	STATUS_DISABLED = "disabled"
)

// Plan tiers. A user's PlanTier is a cache of their subscription state and is
// only written by billing.
const (
	PlanFree = "FREE"
	PlanPro  = "PRO"
)

type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"type:varchar(150)" json:"name" validate:"max=150"`
	Email            string     `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,max=200"`
	AvatarURL        string     `gorm:"type:varchar(255);default:null" json:"avatar_url" validate:"max=255"`
	Role             string     `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status           string     `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active disabled"`
	StripeCustomerID *string    `gorm:"uniqueIndex;type:varchar(191);default:null" json:"-"`
	PlanTier         string     `gorm:"type:varchar(8);not null;default:'FREE';index" json:"plan_tier" validate:"oneof=FREE PRO"`
	LastLoginAt      *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// NewUser builds an active FREE user from an identity provider profile.
func NewUser(name, email, avatarURL string) (*User, error) {
	u := &User{
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		AvatarURL: avatarURL,
		Role:      ROLE_USER,
		Status:    STATUS_ACTIVE,
		PlanTier:  PlanFree,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

// IsPro reports whether the cached plan tier grants PRO features
func (u *User) IsPro() bool {
	return u.PlanTier == PlanPro
}

// CustomerID returns the linked Stripe customer id or "" when none is linked.
func (u *User) CustomerID() string {
	if u.StripeCustomerID == nil {
		return ""
	}
	return *u.StripeCustomerID
}

// DisplayName falls back to the email address for users without a name
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
