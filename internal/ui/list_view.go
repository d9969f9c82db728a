package ui

import (
	"context"
	"errors"
	"sync"

	"adminpanel/internal/client"
)

var ErrRowNotFound = errors.New("record is not on the current page")

type Source[R any] interface {
	List(ctx context.Context, page int) (*client.Page[R], error)
	Delete(ctx context.Context, id uint) (string, error)
}

// Layout turns records into table rows.
type Layout[R any] struct {
	Noun    string
	Headers []string
	Empty   string
	ID      func(record R) uint
	Row     func(record R) []string
}

// ListView owns the current page and the form modal used to edit its rows.
// Rows change only after the server confirms a mutation and the page is
// fetched again.
type ListView[R, F any] struct {
	mu      sync.Mutex
	page    *client.Page[R]
	current int

	source   Source[R]
	layout   Layout[R]
	modal    *FormModal[R, F]
	notifier *Notifier
}

func NewListView[R, F any](source Source[R], layout Layout[R], modal *FormModal[R, F], notifier *Notifier) *ListView[R, F] {
	v := &ListView[R, F]{
		current:  1,
		source:   source,
		layout:   layout,
		modal:    modal,
		notifier: notifier,
	}
	modal.OnSaved(func(ctx context.Context) {
		_ = v.Refresh(ctx)
	})
	return v
}

func (v *ListView[R, F]) Load(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	result, err := v.source.List(ctx, page)
	if err != nil {
		v.notifier.Error("Failed to load " + v.layout.Noun + "s.")
		return err
	}

	v.mu.Lock()
	v.page = result
	v.current = page
	v.mu.Unlock()
	return nil
}

func (v *ListView[R, F]) Refresh(ctx context.Context) error {
	v.mu.Lock()
	page := v.current
	v.mu.Unlock()
	return v.Load(ctx, page)
}

func (v *ListView[R, F]) Headers() []string {
	return v.layout.Headers
}

// Rows renders the current page, or a single placeholder row when it is empty.
func (v *ListView[R, F]) Rows() [][]string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.page == nil || len(v.page.Data) == 0 {
		return [][]string{{v.layout.Empty}}
	}
	rows := make([][]string, 0, len(v.page.Data))
	for _, record := range v.page.Data {
		rows = append(rows, v.layout.Row(record))
	}
	return rows
}

func (v *ListView[R, F]) Page() (current, last int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page == nil {
		return v.current, 1
	}
	return v.current, v.page.LastPage
}

func (v *ListView[R, F]) Modal() *FormModal[R, F] {
	return v.modal
}

func (v *ListView[R, F]) New() bool {
	return v.modal.OpenNew()
}

// Edit opens the modal seeded with the row carrying id.
func (v *ListView[R, F]) Edit(id uint) error {
	v.mu.Lock()
	var (
		record R
		found  bool
	)
	if v.page != nil {
		for _, candidate := range v.page.Data {
			if v.layout.ID(candidate) == id {
				record, found = candidate, true
				break
			}
		}
	}
	v.mu.Unlock()

	if !found {
		return ErrRowNotFound
	}
	v.modal.OpenExisting(record)
	return nil
}

func (v *ListView[R, F]) Delete(ctx context.Context, id uint) error {
	message, err := v.source.Delete(ctx, id)
	if err != nil {
		v.notifier.Error("Failed to delete " + v.layout.Noun + ".")
		return err
	}
	v.notifier.Success(message)
	// A failed refetch reports itself through Load; the delete still stands.
	_ = v.Refresh(ctx)
	return nil
}
