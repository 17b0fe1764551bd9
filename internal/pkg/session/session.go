package session

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
	"github.com/ManuelReschke/Urlsy/internal/pkg/usercontext"
)

const sessionExpiration = 30 * 24 * time.Hour

var sessionStore *session.Store

// NewSessionStore keeps web sessions in Redis database 1 (the cache uses DB 0).
func NewSessionStore(cfg config.CacheConfig, secure bool) *session.Store {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		port = 6379
	}

	storage := redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     port,
		Password: cfg.Password,
		Database: 1,
		Reset:    false,
	})

	sessionStore = session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: "Lax",
		Expiration:     sessionExpiration,
		KeyLookup:      "cookie:session_id",
	})

	return sessionStore
}

// SetSessionStore replaces the process wide store. Tests pass an in-memory
// session.New() store.
func SetSessionStore(store *session.Store) {
	sessionStore = store
}

// Login regenerates the session id and stores the signed-in user.
func Login(c *fiber.Ctx, userID uint, username string) error {
	sess, err := get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}

	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, userID)
	sess.Set(usercontext.KeyUsername, username)
	return sess.Save()
}

// Logout destroys the session and its storage entry
func Logout(c *fiber.Ctx) error {
	sess, err := get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}

// UserID returns the signed-in user id of the session, or 0.
func UserID(c *fiber.Ctx) uint {
	sess, err := get(c)
	if err != nil {
		return 0
	}
	if auth, ok := sess.Get(usercontext.AuthKey).(bool); !ok || !auth {
		return 0
	}

	switch v := sess.Get(usercontext.KeyUserID).(type) {
	case uint:
		return v
	case int:
		if v > 0 {
			return uint(v)
		}
	case int64:
		if v > 0 {
			return uint(v)
		}
	}
	return 0
}

// SetSessionValue stores a key-value pair in the user's individual session
func SetSessionValue(c *fiber.Ctx, key string, value string) error {
	sess, err := get(c)
	if err != nil {
		return err
	}

	sess.Set(key, value)
	return sess.Save()
}

// GetSessionValue retrieves a value by key from the user's individual session
func GetSessionValue(c *fiber.Ctx, key string) string {
	sess, err := get(c)
	if err != nil {
		return ""
	}

	if strValue, ok := sess.Get(key).(string); ok {
		return strValue
	}
	return ""
}

func get(c *fiber.Ctx) (*session.Session, error) {
	if sessionStore == nil {
		return nil, fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}
