package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheelcontrol/internal/protocol"
)

func TestRunDaemon_ReducesEventsAndPublishes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.DiscardHandler)
	events := make(chan Event, 8)
	broadcasts := make(chan StateBroadcast, 32)
	state := NewDaemonState(DaemonStateConfig{
		Wheel: instantConfig(),
		Icons: []string{"a", "b", "c"},
	})
	fx := NewEffects(logger, HooksConfig{}, events)

	done := make(chan error, 1)
	go func() {
		done <- runDaemon(ctx, events, state, ReducerConfig{}, 100, fx, broadcasts, logger)
	}()

	events <- protocol.SelectIndex{Index: 2}

	waitForSelection := func(index int) {
		t.Helper()
		deadline := time.After(time.Second)
		for {
			select {
			case b := <-broadcasts:
				if end, ok := b.(BroadcastSelectionEnded); ok && end.Index == index {
					assert.Equal(t, "c", end.Icon)
					return
				}
			case <-deadline:
				t.Fatalf("timeout waiting for selection %d", index)
			}
		}
	}
	waitForSelection(2)

	reply := make(chan StateSnapshot, 1)
	events <- RequestStateSnapshot{Reply: reply}
	select {
	case snap := <-reply:
		assert.Equal(t, 2, snap.Wheel.Selected)
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for snapshot")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("daemon did not stop")
	}
}

func TestRunDaemon_StopsWhenEventsClosed(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	events := make(chan Event)
	state := NewDaemonState(DaemonStateConfig{Wheel: instantConfig()})

	done := make(chan error, 1)
	go func() {
		done <- runDaemon(context.Background(), events, state, ReducerConfig{}, 50, NewEffects(logger, HooksConfig{}, nil), nil, logger)
	}()
	close(events)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("daemon did not stop")
	}
}
