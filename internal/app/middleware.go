package app

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/xid"

	"arkana/internal/admin"
	"arkana/internal/handlers"
	"arkana/internal/relay"
	"arkana/internal/store"
	u "arkana/internal/utils"
)

var errNotAdmin = errors.New("admin session required")

// RegisterMiddleware attaches global middleware to the app
func RegisterMiddleware(app *fiber.App, cfg u.Config, storage fiber.Storage, tokens *admin.Tokens) {
	app.Use(recover.New())

	origins := "*"
	if len(cfg.Server.AllowedOrigins) > 0 {
		origins = strings.Join(cfg.Server.AllowedOrigins, ",")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	app.Use(healthcheck.New(healthcheck.Config{
		ReadinessProbe: func(c *fiber.Ctx) bool {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx, storage); err != nil {
				u.Warn("Storage not ready", "driver", cfg.Storage.Driver, "error", err)
				return false
			}
			return true
		},
	}))

	app.Use(sessionMiddleware(tokens))

	app.Use(func(c *fiber.Ctx) error {
		requestID, _ := c.Locals("requestid").(string)
		u.Info("Incoming request", "method", c.Method(), "path", c.Path(), "request_id", requestID)
		return c.Next()
	})
}

// sessionMiddleware names every browser with a signed cookie. Missing or
// invalid cookies are replaced by a fresh client id.
func sessionMiddleware(tokens *admin.Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := tokens.Parse(c.Cookies(admin.CookieName))
		if err != nil {
			id = admin.NewClientID()
			token, err := tokens.Issue(id)
			if err != nil {
				return err
			}
			c.Cookie(&fiber.Cookie{
				Name:     admin.CookieName,
				Value:    token,
				Path:     "/",
				Expires:  time.Now().Add(tokens.TTL()),
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
			// Same request handlers see the new id right away.
			c.Request().Header.SetCookie(admin.CookieName, token)
		}
		c.Locals(handlers.LocalClientID, id)
		return c.Next()
	}
}

// requireAdmin admits only browsers whose admin flag is set. API callers get
// a JSON 401, pages are sent to the login prompt.
func requireAdmin(tokens *admin.Tokens, gate *admin.Gate) fiber.Handler {
	return keyauth.New(keyauth.Config{
		KeyLookup:  "cookie:" + admin.CookieName,
		ContextKey: "session_token",
		Validator: func(c *fiber.Ctx, key string) (bool, error) {
			id, err := tokens.Parse(key)
			if err != nil {
				return false, err
			}
			if !gate.Load(id).Admin {
				return false, errNotAdmin
			}
			return true, nil
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Keyauth can call ErrorHandler with a nil error.
			if err == nil {
				err = errNotAdmin
			}
			u.Warn("Admin access denied", "path", c.Path(), "error", err)
			if wantsJSON(c) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": fiber.Map{
						"code":    fiber.StatusUnauthorized,
						"message": errNotAdmin.Error(),
					},
				})
			}
			return c.Redirect("/?login=1#precios", fiber.StatusSeeOther)
		},
	})
}

// relayLimiter caps budget submissions per visitor. Posts carrying the site's
// relay token were already counted on /presupuesto and pass through.
func relayLimiter(cfg u.Config, storage fiber.Storage, relayToken string) fiber.Handler {
	if cfg.Relay.RateLimit <= 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	return limiter.New(limiter.Config{
		Max:               cfg.Relay.RateLimit,
		Expiration:        cfg.Relay.RateInterval,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           storage,
		Next: func(c *fiber.Ctx) bool {
			got := c.Get(relay.RelayTokenHeader)
			return relayToken != "" && got != "" &&
				subtle.ConstantTimeCompare([]byte(got), []byte(relayToken)) == 1
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return "relay-limit:" + handlers.ClientHash(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			u.Warn("Rate limit exceeded", "user", handlers.ClientHash(c), "path", c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    fiber.StatusTooManyRequests,
					"message": "Too Many Requests",
				},
			})
		},
	})
}

func monitorHandler() fiber.Handler {
	return monitor.New(monitor.Config{Title: "Arkana"})
}
