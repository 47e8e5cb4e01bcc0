package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PennyFox/internal/pkg/env"
)

// NewSessionStore keeps sessions in the Redis instance behind cacheClient,
// one database above the cache. A nil client falls back to fiber's memory storage.
func NewSessionStore(cacheClient *goredis.Client) *session.Store {
	cfg := session.Config{
		CookieHTTPOnly: true,
		CookieSecure:   env.GetEnvBool("SESSION_COOKIE_SECURE", !env.IsDev()),
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		Expiration:     env.GetEnvDuration("SESSION_TTL", 24*time.Hour),
		KeyLookup:      "cookie:pennyfox_session",
	}
	if cacheClient == nil {
		return session.New(cfg)
	}

	host := "localhost"
	port := 6379
	opts := cacheClient.Options()
	if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	cfg.Storage = redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: opts.Password,
		Database: opts.DB + 1,
		Reset:    false,
	})
	return session.New(cfg)
}

// SetValues writes the pairs into the caller's session and saves it.
func SetValues(store *session.Store, c *fiber.Ctx, values map[string]interface{}) error {
	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	for k, v := range values {
		sess.Set(k, v)
	}
	return sess.Save()
}

// Destroy removes the caller's session.
func Destroy(store *session.Store, c *fiber.Ctx) error {
	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	return sess.Destroy()
}

// UserID returns the user id stored in the session, or 0.
func UserID(store *session.Store, c *fiber.Ctx) uint {
	sess, err := store.Get(c)
	if err != nil {
		return 0
	}
	switch v := sess.Get(KeyUserID).(type) {
	case uint:
		return v
	case int:
		return uint(v)
	case uint64:
		return uint(v)
	case float64:
		return uint(v)
	}
	return 0
}

// KeyUserID is the session field holding the signed-in user.
const KeyUserID = "user_id"
