package admin

import (
	"errors"
	"testing"
	"time"

	memoryStorage "github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "arkana!77"

func TestGate_StartsLoggedOut(t *testing.T) {
	g := NewGate(memoryStorage.New(), testPassword)
	s := g.Load("c1")
	assert.False(t, s.Admin)
	assert.False(t, s.PromptVisible)
}

func TestGate_LoginPersistsFlag(t *testing.T) {
	mem := memoryStorage.New()
	g := NewGate(mem, testPassword)

	s, ok, err := g.AttemptLogin(g.Load("c1"), testPassword)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, s.Admin)
	assert.False(t, s.PromptVisible)
	assert.Equal(t, PricingAnchor, s.ScrollTo)

	raw, err := mem.Get("photography-admin:c1")
	require.NoError(t, err)
	assert.Equal(t, "true", string(raw))

	// a fresh gate over the same storage sees the flag, like a page reload
	assert.True(t, NewGate(mem, testPassword).Load("c1").Admin)
	assert.False(t, g.Load("c2").Admin)
}

func TestGate_WrongPasswordLeavesFlag(t *testing.T) {
	mem := memoryStorage.New()
	g := NewGate(mem, testPassword)

	for _, pw := range []string{"", "ARKANA!77", " arkana!77", "arkana!77 "} {
		s, ok, err := g.AttemptLogin(g.Load("c1"), pw)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.False(t, s.Admin)
		assert.True(t, s.PromptVisible)
		assert.Equal(t, "Contraseña incorrecta", s.Error)
	}
	raw, _ := mem.Get("photography-admin:c1")
	assert.Nil(t, raw)
}

func TestGate_WrongPasswordKeepsExistingAdmin(t *testing.T) {
	g := NewGate(memoryStorage.New(), testPassword)
	_, _, err := g.AttemptLogin(g.Load("c1"), testPassword)
	require.NoError(t, err)

	_, ok, err := g.AttemptLogin(g.Load("c1"), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, g.Load("c1").Admin)
}

func TestGate_ToggleAndLogout(t *testing.T) {
	g := NewGate(memoryStorage.New(), testPassword)

	s, err := g.Toggle(g.Load("c1"))
	require.NoError(t, err)
	assert.True(t, s.PromptVisible)
	assert.False(t, s.Admin)

	s, _, err = g.AttemptLogin(s, testPassword)
	require.NoError(t, err)

	s, err = g.Toggle(s)
	require.NoError(t, err)
	assert.False(t, s.Admin)
	assert.False(t, s.PromptVisible)
	assert.False(t, g.Load("c1").Admin)
}

type brokenStorage struct{ *memoryStorage.Storage }

func (brokenStorage) Get(string) ([]byte, error)              { return nil, errors.New("down") }
func (brokenStorage) Set(string, []byte, time.Duration) error { return errors.New("down") }

func TestGate_StorageFailures(t *testing.T) {
	g := NewGate(brokenStorage{memoryStorage.New()}, testPassword)

	assert.False(t, g.Load("c1").Admin)
	_, ok, err := g.AttemptLogin(Session{ClientID: "c1"}, testPassword)
	assert.Error(t, err)
	assert.False(t, ok)
	_, err = g.Logout(Session{ClientID: "c1", Admin: true})
	assert.Error(t, err)
}
