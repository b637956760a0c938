package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffects_RunSelectHookExportsSelection(t *testing.T) {
	out := filepath.Join(t.TempDir(), "hook.out")
	fx := NewEffects(slog.New(slog.DiscardHandler), HooksConfig{
		OnSelect:  `printf '%s %s' "$WHEEL_INDEX" "$WHEEL_ICON" > ` + out,
		TimeoutMS: 5000,
	}, nil)

	fx.Run(context.Background(), CmdRunSelectHook{Index: 2, Icon: "music"})
	fx.Wait()

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "2 music", string(b))
}

func TestEffects_FailingHookReportsEffectFailed(t *testing.T) {
	report := make(chan Event, 1)
	fx := NewEffects(slog.New(slog.DiscardHandler), HooksConfig{OnSelect: "exit 3", TimeoutMS: 5000}, report)

	cmd := CmdRunSelectHook{Index: 0, Icon: "a"}
	fx.Run(context.Background(), cmd)
	fx.Wait()

	select {
	case ev := <-report:
		failed, ok := ev.(EffectFailed)
		require.True(t, ok, "got %T", ev)
		assert.Equal(t, cmd, failed.Command)
		assert.Error(t, failed.Err)
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for EffectFailed")
	}
}

func TestEffects_HookTimesOut(t *testing.T) {
	report := make(chan Event, 1)
	fx := NewEffects(slog.New(slog.DiscardHandler), HooksConfig{OnSelect: "sleep 5", TimeoutMS: 50}, report)

	fx.Run(context.Background(), CmdRunSelectHook{Index: 1, Icon: "b"})
	fx.Wait()

	select {
	case ev := <-report:
		assert.ErrorContains(t, ev.(EffectFailed).Err, "timed out")
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for EffectFailed")
	}
}

func TestEffects_NoHookConfiguredIsNoop(t *testing.T) {
	report := make(chan Event, 1)
	fx := NewEffects(slog.New(slog.DiscardHandler), HooksConfig{}, report)

	fx.Run(context.Background(), CmdRunSelectHook{Index: 1, Icon: "b"})
	fx.Wait()
	assert.Empty(t, report)
}

func TestEffects_PublishSnapshotNeverBlocks(t *testing.T) {
	fx := NewEffects(slog.New(slog.DiscardHandler), HooksConfig{}, nil)

	reply := make(chan StateSnapshot, 1)
	fx.Run(context.Background(), CmdPublishStateSnapshot{Reply: reply, Snapshot: StateSnapshot{Locked: true}})
	fx.Run(context.Background(), CmdPublishStateSnapshot{Reply: reply, Snapshot: StateSnapshot{}})

	got := <-reply
	assert.True(t, got.Locked, "second snapshot is dropped, not queued")
}
