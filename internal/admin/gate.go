package admin

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	u "arkana/internal/utils"
)

// The gate only hides the catalog editor from casual visitors. The password
// is compared verbatim and is visible to anyone who reads the configuration;
// it is not an access control mechanism.

const (
	flagPrefix = "photography-admin:"

	// LoginFailedMessage is shown next to the password field after a mismatch.
	LoginFailedMessage = "Contraseña incorrecta"
	// PricingAnchor is where the page scrolls after a successful login.
	PricingAnchor = "#precios"
)

// Session is the admin state of one browser.
type Session struct {
	ClientID      string `json:"-"`
	Admin         bool   `json:"isAdmin"`
	PromptVisible bool   `json:"showLogin"`
	Error         string `json:"error,omitempty"`
	ScrollTo      string `json:"scrollTo,omitempty"`
}

// Gate checks the admin password and keeps the per-browser admin flag in
// storage, so the flag survives reloads and restarts.
type Gate struct {
	storage  fiber.Storage
	password string
}

func NewGate(storage fiber.Storage, password string) *Gate {
	return &Gate{storage: storage, password: password}
}

func flagKey(clientID string) string {
	return flagPrefix + clientID
}

// Load reads the admin flag of clientID. Unreadable storage counts as logged
// out.
func (g *Gate) Load(clientID string) Session {
	s := Session{ClientID: clientID}
	if clientID == "" {
		return s
	}
	raw, err := g.storage.Get(flagKey(clientID))
	if err != nil {
		u.Warn("Admin flag read failed", "client", clientID, "err", err)
		return s
	}
	s.Admin = string(raw) == "true"
	return s
}

// Toggle logs an admin out, or opens the login prompt for everyone else.
func (g *Gate) Toggle(s Session) (Session, error) {
	if s.Admin {
		return g.Logout(s)
	}
	s.PromptVisible = true
	s.Error = ""
	return s, nil
}

// AttemptLogin compares password with the configured one. On a match the flag
// is persisted and the prompt closes; otherwise the session is returned with
// the failure message and the flag untouched.
func (g *Gate) AttemptLogin(s Session, password string) (Session, bool, error) {
	if password != g.password {
		s.Error = LoginFailedMessage
		s.PromptVisible = true
		s.ScrollTo = ""
		u.Info("Admin login rejected", "client", s.ClientID)
		return s, false, nil
	}
	if err := g.storage.Set(flagKey(s.ClientID), []byte("true"), 0); err != nil {
		return s, false, fmt.Errorf("persist admin flag: %w", err)
	}
	s.Admin = true
	s.PromptVisible = false
	s.Error = ""
	s.ScrollTo = PricingAnchor
	u.Info("Admin login", "client", s.ClientID)
	return s, true, nil
}

// Logout clears the admin flag and persists it.
func (g *Gate) Logout(s Session) (Session, error) {
	if err := g.storage.Set(flagKey(s.ClientID), []byte("false"), 0); err != nil {
		return s, fmt.Errorf("persist admin flag: %w", err)
	}
	s.Admin = false
	s.PromptVisible = false
	s.Error = ""
	s.ScrollTo = ""
	u.Info("Admin logout", "client", s.ClientID)
	return s, nil
}
