package main

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheelcontrol/internal/protocol"
)

// fakeDaemon accepts connections on a unix socket, records every line and
// answers with resp.
func fakeDaemon(t *testing.T, resp protocol.IPCResponse) (string, <-chan string) {
	t.Helper()

	dir, err := os.MkdirTemp("", "wctl")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	socket := filepath.Join(dir, "s.sock")

	ln, err := net.Listen("unix", socket)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	lines := make(chan string, 8)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				sc := bufio.NewScanner(conn)
				for sc.Scan() {
					lines <- sc.Text()
					_ = json.NewEncoder(conn).Encode(resp)
				}
			}()
		}
	}()
	return socket, lines
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func nextLine(t *testing.T, lines <-chan string) string {
	t.Helper()
	select {
	case l := <-lines:
		return l
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for event line")
		return ""
	}
}

func TestWheelCtl_SendsEvents(t *testing.T) {
	socket, lines := fakeDaemon(t, protocol.IPCResponse{Status: protocol.StatusOK})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"select animated", []string{"select", "3", "-a"}, `{"type":"select_index","data":{"index":3,"animated":true}}`},
		{"negative turn", []string{"turn", "--", "-2"}, `{"type":"rotary_turn","data":{"steps":-2}}`},
		{"icons with placeholder", []string{"icons", "music", "-", "radio"}, `{"type":"set_icons","data":{"icons":["music","","radio"]}}`},
		{"drag update", []string{"drag", "update", "150"}, `{"type":"drag_update","data":{"offset_px":150}}`},
		{"drag end", []string{"drag", "end"}, `{"type":"drag_end"}`},
		{"icon state", []string{"icon-state", "2", "hidden"}, `{"type":"set_icon_state","data":{"index":2,"state":"hidden"}}`},
		{"unlock", []string{"unlock"}, `{"type":"set_rotation_lock","data":{"locked":false}}`},
		{"hold left", []string{"hold", "left"}, `{"type":"rotate_held","data":{"direction":-1}}`},
		{"release", []string{"release"}, `{"type":"rotate_release"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, run(t, append([]string{"--socket", socket}, tt.args...)...))
			assert.JSONEq(t, tt.want, nextLine(t, lines))
		})
	}
}

func TestWheelCtl_RejectsBadArguments(t *testing.T) {
	socket, _ := fakeDaemon(t, protocol.IPCResponse{Status: protocol.StatusOK})

	assert.Error(t, run(t, "--socket", socket, "select", "three"))
	assert.Error(t, run(t, "--socket", socket, "turn", "0"))
	assert.Error(t, run(t, "--socket", socket, "icon-state", "1", "faded"))
	assert.Error(t, run(t, "--socket", socket, "hold", "up"))
}

func TestWheelCtl_ReportsDaemonError(t *testing.T) {
	socket, _ := fakeDaemon(t, protocol.IPCResponse{Status: protocol.StatusError, Error: "event queue full"})

	err := run(t, "--socket", socket, "lock")
	assert.ErrorContains(t, err, "event queue full")
}

func TestWheelCtl_SocketFromConfigFile(t *testing.T) {
	socket, lines := fakeDaemon(t, protocol.IPCResponse{Status: protocol.StatusOK})

	cfg := filepath.Join(t.TempDir(), "wheeld.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("ipc:\n  socket_path: "+socket+"\nwheel:\n  cycling: true\n"), 0o644))

	require.NoError(t, run(t, "--config", cfg, "lock"))
	assert.JSONEq(t, `{"type":"set_rotation_lock","data":{"locked":true}}`, nextLine(t, lines))
}

func TestWheelCtl_SocketFromEnvironment(t *testing.T) {
	socket, lines := fakeDaemon(t, protocol.IPCResponse{Status: protocol.StatusOK})
	t.Setenv("WHEEL_IPC_SOCKET_PATH", socket)

	require.NoError(t, run(t, "drag", "begin"))
	assert.JSONEq(t, `{"type":"drag_begin"}`, nextLine(t, lines))
}
