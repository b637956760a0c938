package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheelcontrol/internal/protocol"
	"wheelcontrol/wheel"
)

// These tests exercise the hub (fanout, skipped positions, eviction) and the
// broadcaster without a real websocket server. Renderers have a nil conn.

// newTestHub returns a hub with small buffers for deterministic tests.
func newTestHub(t *testing.T, sendBuf int, broadcastBuf int) *Hub {
	t.Helper()
	return NewHub(slog.Default(), HubConfig{
		SendBuf:      sendBuf,
		BroadcastBuf: broadcastBuf,
	})
}

func newTestRenderer(hub *Hub, name string, buf int) *renderer {
	r := &renderer{
		hub:        hub,
		queue:      make(chan []byte, buf),
		remoteAddr: name,
		logger:     slog.Default(),
	}
	hub.add(r)
	return r
}

// nextFrame reads the next frame the broadcaster handed to the hub.
func nextFrame(t *testing.T, hub *Hub, what string) outboundFrame {
	t.Helper()
	select {
	case f := <-hub.frames:
		return f
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for %s", what)
		return outboundFrame{}
	}
}

func TestHub_BroadcastDeliveredToAllRenderers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := newTestHub(t, 4, 8)

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()

	c1 := newTestRenderer(hub, "c1", 4)
	c2 := newTestRenderer(hub, "c2", 4)

	msg := []byte(`{"type":"selection_ended","data":{"index":2,"icon":"music"}}`)

	// BroadcastBytes may drop when the hub queue is momentarily full; push
	// directly for deterministic delivery.
	hub.frames <- outboundFrame{payload: msg}

	for _, c := range []*renderer{c1, c2} {
		select {
		case got := <-c.queue:
			if string(got) != string(msg) {
				t.Fatalf("%s got %q, want %q", c.remoteAddr, string(got), string(msg))
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("timeout waiting for %s to receive broadcast", c.remoteAddr)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for hub to stop")
	}
	if n := hub.ClientCount(); n != 0 {
		t.Fatalf("expected all renderers closed on shutdown, got %d", n)
	}
}

func TestHub_BehindRendererDisconnectedOnStateChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := newTestHub(t, 1, 8)

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()

	slow := newTestRenderer(hub, "slow", 1)
	fast := newTestRenderer(hub, "fast", 8)

	// Simulate a stuck renderer.
	slow.queue <- []byte(`"already queued"`)

	msg := []byte(`{"type":"selection_ended","data":{"index":1,"icon":"radio"}}`)
	hub.frames <- outboundFrame{payload: msg}

	select {
	case got := <-fast.queue:
		if string(got) != string(msg) {
			t.Fatalf("fast renderer got %q, want %q", string(got), string(msg))
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for fast renderer to receive broadcast")
	}

	// Drain the pre-filled message, then expect the queue to be closed.
	select {
	case <-slow.queue:
	default:
	}

	waitUntil(t, 750*time.Millisecond, func() bool {
		select {
		case _, ok := <-slow.queue:
			return !ok
		default:
			return false
		}
	}, "expected slow queue to be closed")
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_BehindRendererSkipsPositions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := newTestHub(t, 1, 8)
	go hub.Run(ctx)

	slow := newTestRenderer(hub, "slow", 1)
	slow.queue <- []byte(`"already queued"`)

	hub.broadcastPosition([]byte(`{"type":"frame","data":{"position":1.5,"phase":"snapping"}}`))
	hub.broadcastPosition([]byte(`{"type":"frame","data":{"position":1.75,"phase":"snapping"}}`))

	waitUntil(t, 500*time.Millisecond, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return slow.skipped == 2
	}, "expected both positions skipped")
	assert.Equal(t, 1, hub.ClientCount(), "skipping positions keeps the renderer connected")

	// Once caught up it gets the next position.
	assert.Equal(t, `"already queued"`, string(<-slow.queue))
	hub.broadcastPosition([]byte(`{"type":"frame","data":{"position":2,"phase":"idle"}}`))
	select {
	case got := <-slow.queue:
		assert.JSONEq(t, `{"type":"frame","data":{"position":2,"phase":"idle"}}`, string(got))
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for position after catching up")
	}
}

func TestHub_DeliverOnlyToConnectedRenderers(t *testing.T) {
	hub := newTestHub(t, 1, 8)
	r := newTestRenderer(hub, "r", 1)

	assert.True(t, hub.deliver(r, []byte(`"state_init"`)))
	assert.False(t, hub.deliver(r, []byte(`"again"`)), "queue full")

	hub.disconnect(r, "test")
	assert.False(t, hub.deliver(r, []byte(`"late"`)), "disconnected renderer")
	assert.Equal(t, 0, hub.ClientCount())
}

func TestRunBroadcaster_CoalescesBurstsAndKeepsOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := newTestHub(t, 4, 16)
	src := make(chan StateBroadcast)

	done := make(chan struct{})
	go func() {
		defer close(done)
		RunBroadcaster(ctx, hub, src, slog.Default())
	}()

	src <- BroadcastRotationStarted{PreviousIndex: 0}
	src <- BroadcastRotationUpdated{Position: 0.2}
	src <- BroadcastRotationUpdated{Position: 0.4}
	src <- BroadcastRotationUpdated{Position: 0.6}
	src <- BroadcastSelectionEnded{Index: 1, Icon: "b"}

	want := []struct {
		typ  string
		data string
	}{
		{protocol.MsgRotationStarted, `{"previous_index":0}`},
		{protocol.MsgRotationUpdated, `{"position":0.6}`},
		{protocol.MsgSelectionEnded, `{"index":1,"icon":"b"}`},
	}
	for _, w := range want {
		f := nextFrame(t, hub, w.typ)
		var msg protocol.Message
		require.NoError(t, json.Unmarshal(f.payload, &msg))
		assert.Equal(t, w.typ, msg.Type)
		assert.JSONEq(t, w.data, string(msg.Data))
		assert.NotNil(t, msg.Ts)
		assert.Equal(t, w.typ == protocol.MsgRotationUpdated, f.lossy)
	}

	close(src)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("broadcaster did not stop after source closed")
	}
}

func TestRunBroadcaster_FlushesAfterWindow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := newTestHub(t, 4, 16)
	src := make(chan StateBroadcast)
	go RunBroadcaster(ctx, hub, src, slog.Default())

	src <- BroadcastFrame{Position: 2.25, Phase: "snapping"}

	f := nextFrame(t, hub, "coalesced frame")
	var msg protocol.Message
	require.NoError(t, json.Unmarshal(f.payload, &msg))
	assert.Equal(t, protocol.MsgFrame, msg.Type)
	assert.JSONEq(t, `{"position":2.25,"phase":"snapping"}`, string(msg.Data))
	assert.True(t, f.lossy)
}

func TestStateInitPayload(t *testing.T) {
	s := NewDaemonState(DaemonStateConfig{
		Wheel:        instantConfig(),
		Icons:        []string{"music", "", "radio"},
		InitialIndex: 2,
		IconStates:   map[int]wheel.Visibility{1: wheel.Disabled},
		Appearance:   protocol.Appearance{BorderColor: "#fff"},
	})
	s.Locked = true

	got := stateInitPayload(s.Snapshot())

	require.NotNil(t, got.Selected)
	assert.Equal(t, 2, *got.Selected)
	assert.Equal(t, 2.0, got.Position)
	assert.Equal(t, "idle", got.Phase)
	assert.True(t, got.Locked)
	assert.True(t, got.Cycling)
	assert.Equal(t, "#fff", got.Appearance.BorderColor)
	assert.Equal(t, []protocol.SlotInfo{
		{Index: 0, Icon: "music", State: "normal"},
		{Index: 1, Icon: "", State: "disabled"},
		{Index: 2, Icon: "radio", State: "normal"},
	}, got.Slots)

	empty := stateInitPayload(NewDaemonState(DaemonStateConfig{Wheel: instantConfig()}).Snapshot())
	assert.Nil(t, empty.Selected)
	assert.Empty(t, empty.Slots)
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout: %s", msg)
}
