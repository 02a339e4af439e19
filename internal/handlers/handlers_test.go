package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arkana/internal/domain"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.ErrCategoryNotFound:   fiber.StatusNotFound,
		domain.ErrTierNotFound:       fiber.StatusNotFound,
		domain.ErrCategoryExists:     fiber.StatusConflict,
		domain.ErrLastCategory:       fiber.StatusConflict,
		domain.ErrNoDraft:            fiber.StatusConflict,
		domain.ErrInvalidCategoryKey: fiber.StatusBadRequest,
		domain.ErrUnknownTierField:   fiber.StatusBadRequest,
		fmt.Errorf("disk full"):      fiber.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}

func TestAsFiberErrorKeepsInternalErrors(t *testing.T) {
	plain := fmt.Errorf("boom")
	assert.Same(t, plain, asFiberError(plain))

	var fe *fiber.Error
	require.ErrorAs(t, asFiberError(domain.ErrLastCategory), &fe)
	assert.Equal(t, fiber.StatusConflict, fe.Code)
}

func TestEditorErrorCodes(t *testing.T) {
	assert.Equal(t, "last", editorErrorCode(domain.ErrLastCategory))
	assert.Equal(t, "exists", editorErrorCode(fmt.Errorf("x: %w", domain.ErrCategoryExists)))
	assert.Equal(t, "tier", editorErrorCode(domain.ErrUnknownTierField))
	assert.Equal(t, "failed", editorErrorCode(fmt.Errorf("other")))
	for _, code := range []string{"notfound", "exists", "invalid", "last", "nodraft", "tier", "failed"} {
		assert.NotEmpty(t, editorErrors[code], code)
	}
}

func TestClientHashDependsOnUserAgent(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(ClientHash(c))
	})

	hash := func(ua string) string {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", ua)
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	a, b := hash("agent-a"), hash("agent-b")
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, hash("agent-a"))
}

func TestClientIDWithoutSession(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if ClientID(c) != "" {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		c.Locals(LocalClientID, "abc")
		return c.SendString(ClientID(c))
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
