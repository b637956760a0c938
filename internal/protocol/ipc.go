package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// DefaultSocketPath is where the daemon listens unless configured otherwise.
const DefaultSocketPath = "/tmp/wheelcontrol.sock"

// IPC protocol: line-delimited JSON.
//   - client sends: {"type": "event_name", "data": {...}}
//   - daemon replies: {"status": "ok"} or {"status": "error", "error": "msg"}

// IPCResponse is the daemon's reply to one event line.
type IPCResponse struct {
	Status string `json:"status"`          // "ok" or "error"
	Error  string `json:"error,omitempty"` // set when Status == "error"
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// SendEvent delivers ev to the daemon over its unix socket and waits for the
// reply. A daemon-side rejection is returned as an error.
func SendEvent(ctx context.Context, socketPath string, ev Event) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	}

	data, err := MarshalEvent(ev)
	if err != nil {
		return err
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("send event: %w", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != StatusOK {
		return fmt.Errorf("ipc error: %s", resp.Error)
	}
	return nil
}
