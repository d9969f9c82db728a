package ui

import (
	"context"
	"errors"
	"sync"

	"adminpanel/internal/client"
)

type Phase int

const (
	PhaseClosed Phase = iota
	PhaseEditingNew
	PhaseEditingExisting
)

func (p Phase) String() string {
	switch p {
	case PhaseEditingNew:
		return "editing-new"
	case PhaseEditingExisting:
		return "editing-existing"
	default:
		return "closed"
	}
}

var (
	ErrModalClosed    = errors.New("form modal is closed")
	ErrSubmitInFlight = errors.New("a submit is already in flight")
)

// Saver persists the fields of a form and returns the server's confirmation.
type Saver[F any] interface {
	Create(ctx context.Context, fields F) (string, error)
	Update(ctx context.Context, id uint, fields F) (string, error)
}

// FormSchema describes how a record type maps onto form fields.
type FormSchema[R, F any] struct {
	Noun  string
	Blank func() F
	Seed  func(record R) (uint, F)
}

// FormModal is the create/edit dialog. At most one submit runs at a time, and
// a failed submit leaves the dialog open with the fields as typed.
type FormModal[R, F any] struct {
	mu         sync.Mutex
	phase      Phase
	submitting bool
	recordID   uint
	fields     F
	errors     map[string]string

	schema   FormSchema[R, F]
	saver    Saver[F]
	notifier *Notifier
	onSaved  func(ctx context.Context)
}

func NewFormModal[R, F any](schema FormSchema[R, F], saver Saver[F], notifier *Notifier) *FormModal[R, F] {
	return &FormModal[R, F]{
		schema:   schema,
		saver:    saver,
		notifier: notifier,
		fields:   schema.Blank(),
	}
}

// OnSaved registers the callback run after every successful submit.
func (m *FormModal[R, F]) OnSaved(fn func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSaved = fn
}

func (m *FormModal[R, F]) OpenNew() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitting {
		return false
	}
	m.phase = PhaseEditingNew
	m.recordID = 0
	m.fields = m.schema.Blank()
	m.errors = nil
	return true
}

// OpenExisting seeds the fields from record. Each call re-seeds.
func (m *FormModal[R, F]) OpenExisting(record R) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitting {
		return false
	}
	m.phase = PhaseEditingExisting
	m.recordID, m.fields = m.schema.Seed(record)
	m.errors = nil
	return true
}

// Close is refused while a submit is in flight; a submit cannot be aborted.
func (m *FormModal[R, F]) Close() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitting {
		return false
	}
	m.reset()
	return true
}

// Edit applies fn to the local fields. It is ignored while closed or submitting.
func (m *FormModal[R, F]) Edit(fn func(fields *F)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseClosed || m.submitting {
		return false
	}
	fn(&m.fields)
	return true
}

func (m *FormModal[R, F]) Submit(ctx context.Context) error {
	m.mu.Lock()
	if m.phase == PhaseClosed {
		m.mu.Unlock()
		return ErrModalClosed
	}
	if m.submitting {
		m.mu.Unlock()
		return ErrSubmitInFlight
	}
	m.submitting = true
	isNew := m.phase == PhaseEditingNew
	id := m.recordID
	fields := m.fields
	m.mu.Unlock()

	var (
		message string
		err     error
	)
	if isNew {
		message, err = m.saver.Create(ctx, fields)
	} else {
		message, err = m.saver.Update(ctx, id, fields)
	}

	m.mu.Lock()
	m.submitting = false
	if err != nil {
		m.errors = fieldErrors(err)
		m.mu.Unlock()
		m.notifier.Error(failureMessage(isNew, m.schema.Noun))
		return err
	}
	m.reset()
	onSaved := m.onSaved
	m.mu.Unlock()

	m.notifier.Success(message)
	if onSaved != nil {
		onSaved(ctx)
	}
	return nil
}

func (m *FormModal[R, F]) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *FormModal[R, F]) Submitting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitting
}

func (m *FormModal[R, F]) Fields() F {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fields
}

func (m *FormModal[R, F]) RecordID() uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordID
}

// Errors returns the field errors reported by the last failed submit.
func (m *FormModal[R, F]) Errors() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.errors))
	for k, v := range m.errors {
		out[k] = v
	}
	return out
}

func (m *FormModal[R, F]) reset() {
	m.phase = PhaseClosed
	m.recordID = 0
	m.fields = m.schema.Blank()
	m.errors = nil
}

func fieldErrors(err error) map[string]string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Fields
	}
	return nil
}

func failureMessage(isNew bool, noun string) string {
	if isNew {
		return "Failed to create " + noun + "."
	}
	return "Failed to update " + noun + "."
}
