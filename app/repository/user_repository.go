package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/Urlsy/app/models"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindOrCreateByIdentity resolves the provider identity to a user. A known
// provider account wins, then a user with the same email, otherwise a new
// FREE user is created. The provider account link is created when missing.
func (r *userRepository) FindOrCreateByIdentity(ctx context.Context, identity Identity) (*models.User, error) {
	if identity.Provider == "" || identity.ProviderUserID == "" {
		return nil, fmt.Errorf("identity provider and subject are required")
	}

	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pa models.ProviderAccount
		res := tx.Where("provider = ? AND provider_user_id = ?", identity.Provider, identity.ProviderUserID).First(&pa)
		if res.Error == nil {
			return tx.First(&user, pa.UserID).Error
		}
		if !errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return res.Error
		}

		email := strings.ToLower(strings.TrimSpace(identity.Email))
		if email == "" {
			return fmt.Errorf("identity %s/%s has no email", identity.Provider, identity.ProviderUserID)
		}

		err := tx.Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created, err := models.NewUser(identity.Name, email, identity.AvatarURL)
			if err != nil {
				return err
			}
			if err := tx.Create(created).Error; err != nil {
				return err
			}
			user = *created
		case err != nil:
			return err
		}

		return tx.Create(&models.ProviderAccount{
			UserID:         user.ID,
			Provider:       identity.Provider,
			ProviderUserID: identity.ProviderUserID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}

// Count returns the total number of users
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}
