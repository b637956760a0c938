package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	"wheelcontrol/internal/logging"
	"wheelcontrol/internal/protocol"
)

// runIPCServer serves the line-delimited JSON event protocol on a unix
// socket until ctx is canceled.
func runIPCServer(ctx context.Context, socketPath string, events chan<- Event, logger *slog.Logger) error {
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0o666); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logCtx := logging.PackageCtx("ipc")
	logger.InfoContext(logCtx, "IPC listening", "socket", socketPath)

	// Closing the listener unblocks Accept.
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				logger.DebugContext(logCtx, "IPC listener closed")
				return nil
			}
			logger.ErrorContext(logCtx, "IPC accept error", "error", err)
			continue
		}
		go handleIPCConnection(ctx, conn, events, logger)
	}
}

// handleIPCConnection answers every line on conn with an IPCResponse.
func handleIPCConnection(ctx context.Context, conn net.Conn, events chan<- Event, logger *slog.Logger) {
	defer conn.Close()

	logCtx := logging.AppendCtx(logging.PackageCtx("ipc"), slog.String("remote_addr", conn.RemoteAddr().String()))
	logger.DebugContext(logCtx, "IPC connection")

	// Unblock the scanner on shutdown.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	reply := func(resp protocol.IPCResponse) {
		if err := encoder.Encode(resp); err != nil {
			logger.ErrorContext(logCtx, "IPC failed to send response", "error", err)
		}
	}

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		logger.DebugContext(logCtx, "IPC received", "line", string(line))

		ev, err := protocol.UnmarshalEvent(line)
		if err != nil {
			reply(protocol.IPCResponse{Status: protocol.StatusError, Error: fmt.Sprintf("parse event: %v", err)})
			continue
		}

		select {
		case events <- ev:
			reply(protocol.IPCResponse{Status: protocol.StatusOK})
		default:
			reply(protocol.IPCResponse{Status: protocol.StatusError, Error: "event queue full"})
		}
	}

	logger.DebugContext(logCtx, "IPC connection closed")
}
