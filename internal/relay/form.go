package relay

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"arkana/internal/domain"
	u "arkana/internal/utils"
)

// Notice texts shown under the budget form.
const (
	SuccessNotice = "¡Gracias! Tu solicitud fue enviada. Te responderemos a la brevedad."
	ErrorNotice   = "No pudimos enviar tu solicitud. Por favor, intentá nuevamente en unos minutos."
)

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

type Notice struct {
	Kind NoticeKind
	Text string
}

// Form is the budget request form state of one visitor.
type Form struct {
	mu         sync.Mutex
	fields     domain.BudgetRequest
	submitting bool
	notice     *Notice
}

func NewForm(fields domain.BudgetRequest) *Form {
	return &Form{fields: fields}
}

func (f *Form) Fields() domain.BudgetRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// SetFields replaces the form contents while no submission is pending.
func (f *Form) SetFields(fields domain.BudgetRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return domain.ErrSubmissionInFlight
	}
	f.fields = fields
	return nil
}

// Submitting reports whether a submission is pending; the submit control is
// disabled meanwhile.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

func (f *Form) Notice() *Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notice == nil {
		return nil
	}
	n := *f.notice
	return &n
}

// Submit validates the fields and hands them to s. Missing fields fail
// without contacting s. On success the fields are cleared; on failure they
// are kept and the detail is logged.
func (f *Form) Submit(ctx context.Context, s Sender) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return domain.ErrSubmissionInFlight
	}
	if missing := f.fields.MissingFields(); len(missing) > 0 {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrMissingFields, strings.Join(missing, ", "))
	}
	f.submitting = true
	f.notice = nil
	req := f.fields
	f.mu.Unlock()

	id, err := s.Send(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		u.Error("Budget request failed", "error", err, "servicio", req.Servicio)
		f.notice = &Notice{Kind: NoticeError, Text: ErrorNotice}
		return err
	}
	u.Info("Budget request sent", "servicio", req.Servicio, "message_id", id)
	f.fields = domain.BudgetRequest{}
	f.notice = &Notice{Kind: NoticeSuccess, Text: SuccessNotice}
	return nil
}

// InFlight tracks clients with a pending submission.
type InFlight struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{pending: make(map[string]struct{})}
}

// Acquire marks key as submitting and reports false if it already was.
func (g *InFlight) Acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.pending[key]; ok {
		return false
	}
	g.pending[key] = struct{}{}
	return true
}

func (g *InFlight) Release(key string) {
	g.mu.Lock()
	delete(g.pending, key)
	g.mu.Unlock()
}
