package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Repositories bundles all repositories bound to one connection or transaction
type Repositories struct {
	db    *gorm.DB
	User  UserRepository
	Link  LinkRepository
	Click ClickRepository
	Usage UsageRepository
}

// NewRepositories creates all repositories on the given connection
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:    db,
		User:  NewUserRepository(db),
		Link:  NewLinkRepository(db),
		Click: NewClickRepository(db),
		Usage: NewUsageRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single database transaction.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// DB returns the underlying connection
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetLinkRepository returns the link repository instance
func (f *Factory) GetLinkRepository() LinkRepository {
	return f.GetRepositories().Link
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
