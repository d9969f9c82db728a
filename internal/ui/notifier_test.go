package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierPublishesAndAutoDismisses(t *testing.T) {
	n := NewNotifier(30*time.Millisecond, 4)

	note := n.Success("User created successfully!")
	assert.Equal(t, KindSuccess, note.Kind)

	select {
	case got := <-n.Events():
		assert.Equal(t, note.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}

	require.Len(t, n.Active(), 1)
	assert.Eventually(t, func() bool { return len(n.Active()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestNotifierNeverBlocksWithoutReader(t *testing.T) {
	n := NewNotifier(time.Minute, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			n.Error("Failed to create post.")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publishing blocked")
	}

	active := n.Active()
	assert.Len(t, active, 10)
	for i := 1; i < len(active); i++ {
		assert.Greater(t, active[i].ID, active[i-1].ID)
	}
}

func TestNotifierDismiss(t *testing.T) {
	n := NewNotifier(time.Minute, 0)
	first := n.Success("one")
	n.Success("two")

	n.Dismiss(first.ID)
	active := n.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "two", active[0].Message)
}
