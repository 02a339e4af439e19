package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"arkana/internal/domain"
)

// Sender submits a budget request to the relay endpoint and returns the
// message id reported back.
type Sender interface {
	Send(ctx context.Context, req domain.BudgetRequest) (string, error)
}

// StatusError is a non-2xx answer from the relay endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay responded %d: %s", e.Code, e.Body)
}

// RelayTokenHeader carries the token that marks a post from the site's own
// budget form.
const RelayTokenHeader = "X-Relay-Token"

// HTTPSender posts JSON to Endpoint with fiber's client. A non-empty Token is
// sent in RelayTokenHeader.
type HTTPSender struct {
	Endpoint string
	Token    string
}

func NewHTTPSender(endpoint string) *HTTPSender {
	return &HTTPSender{Endpoint: endpoint}
}

func (s *HTTPSender) Send(ctx context.Context, req domain.BudgetRequest) (string, error) {
	a := fiber.Post(s.Endpoint).JSON(req)
	if s.Token != "" {
		a.Set(RelayTokenHeader, s.Token)
	}
	if deadline, ok := ctx.Deadline(); ok {
		a.Timeout(time.Until(deadline))
	}
	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("relay request: %w", errs[0])
	}
	if code < 200 || code > 299 {
		return "", &StatusError{Code: code, Body: string(body)}
	}
	var out struct {
		Success   bool   `json:"success"`
		MessageID string `json:"messageId"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &out); err != nil {
			return "", fmt.Errorf("relay response: %w", err)
		}
	}
	return out.MessageID, nil
}
