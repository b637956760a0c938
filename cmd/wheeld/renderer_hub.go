package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Renderers draw the wheel from the state stream. Every renderer gets its
// own outbound queue. Position messages only matter until the next one
// arrives, so a renderer that is behind skips them. Losing a state change
// (selection, icons, lock) would leave it drawing the wrong wheel, so a
// renderer that cannot take one is disconnected and has to reconnect for a
// fresh state_init.

const (
	rendererWriteWait  = 5 * time.Second
	rendererPongWait   = 30 * time.Second
	rendererPingPeriod = 20 * time.Second

	defaultRendererQueue = 32
	defaultHubQueue      = 128
)

// outboundFrame is one serialized WS message. Lossy frames may be skipped
// for renderers whose queue is full.
type outboundFrame struct {
	payload []byte
	lossy   bool
}

type HubConfig struct {
	// SendBuf is the per-renderer queue size. Zero means 32.
	SendBuf int

	// BroadcastBuf is the hub's inbound queue size. Zero means 128.
	BroadcastBuf int
}

// Hub fans state messages out to connected renderers.
type Hub struct {
	logger *slog.Logger

	frames chan outboundFrame

	mu        sync.Mutex
	renderers map[*renderer]struct{}

	queueLen int
}

func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	queueLen := cfg.SendBuf
	if queueLen <= 0 {
		queueLen = defaultRendererQueue
	}
	hubLen := cfg.BroadcastBuf
	if hubLen <= 0 {
		hubLen = defaultHubQueue
	}
	return &Hub{
		logger:    logger,
		frames:    make(chan outboundFrame, hubLen),
		renderers: make(map[*renderer]struct{}),
		queueLen:  queueLen,
	}
}

// Run fans out frames until ctx is canceled. On exit every renderer is
// disconnected. add, deliver and disconnect are safe from any goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("renderer hub started")
	for {
		select {
		case <-ctx.Done():
			h.disconnectAll()
			h.logger.Info("renderer hub stopped")
			return

		case f := <-h.frames:
			h.fanOut(f)
		}
	}
}

func (h *Hub) add(r *renderer) {
	h.mu.Lock()
	h.renderers[r] = struct{}{}
	n := len(h.renderers)
	h.mu.Unlock()
	h.logger.Info("renderer connected", "remote_addr", r.remoteAddr, "renderers", n)
}

// deliver queues msg for r alone. It reports false when r is gone or its
// queue is full.
func (h *Hub) deliver(r *renderer, msg []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.renderers[r]; !ok {
		return false
	}
	select {
	case r.queue <- msg:
		return true
	default:
		return false
	}
}

func (h *Hub) fanOut(f outboundFrame) {
	var behind []*renderer
	h.mu.Lock()
	for r := range h.renderers {
		select {
		case r.queue <- f.payload:
		default:
			if f.lossy {
				r.skipped++
				continue
			}
			behind = append(behind, r)
		}
	}
	h.mu.Unlock()

	for _, r := range behind {
		h.disconnect(r, "queue full")
	}
}

// ClientCount returns the number of connected renderers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.renderers)
}

func (h *Hub) disconnectAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for r := range h.renderers {
		r.close()
		delete(h.renderers, r)
	}
}

func (h *Hub) disconnect(r *renderer, reason string) {
	h.mu.Lock()
	_, ok := h.renderers[r]
	delete(h.renderers, r)
	n := len(h.renderers)
	h.mu.Unlock()

	if !ok {
		return
	}
	r.close()
	h.logger.Info("renderer disconnected",
		"remote_addr", r.remoteAddr,
		"reason", reason,
		"skipped_positions", r.skipped,
		"renderers", n)
}

// BroadcastBytes queues a serialized state message for every renderer. It
// never blocks; the message is dropped when the hub queue is full.
func (h *Hub) BroadcastBytes(msg []byte) { h.publish(outboundFrame{payload: msg}) }

// broadcastPosition queues a message that renderers may skip when behind.
func (h *Hub) broadcastPosition(msg []byte) { h.publish(outboundFrame{payload: msg, lossy: true}) }

func (h *Hub) publish(f outboundFrame) {
	select {
	case h.frames <- f:
	default:
		h.logger.Warn("renderer hub queue full, dropping message", "bytes", len(f.payload), "lossy", f.lossy)
	}
}

// renderer is one connected WS consumer. conn is nil in hub tests.
type renderer struct {
	hub        *Hub
	conn       *websocket.Conn
	queue      chan []byte
	remoteAddr string
	logger     *slog.Logger

	closeOnce sync.Once
	skipped   int // guarded by hub.mu
}

func newRenderer(hub *Hub, conn *websocket.Conn, remoteAddr string, logger *slog.Logger) *renderer {
	n := defaultRendererQueue
	if hub != nil && hub.queueLen > 0 {
		n = hub.queueLen
	}
	return &renderer{
		hub:        hub,
		conn:       conn,
		queue:      make(chan []byte, n),
		remoteAddr: remoteAddr,
		logger:     logger,
	}
}

// close drops the connection and ends the write loop.
func (r *renderer) close() {
	r.closeOnce.Do(func() {
		if r.conn != nil {
			_ = r.conn.Close()
		}
		close(r.queue)
	})
}

func (r *renderer) logStop(loop string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		r.logger.Info("renderer closed connection", "remote_addr", r.remoteAddr, "loop", loop, "code", ce.Code, "reason", ce.Text)
		return
	}
	r.logger.Info("renderer connection lost", "remote_addr", r.remoteAddr, "loop", loop, "error", err)
}

// writeLoop sends queued messages and keepalive pings. It ends when the
// queue is closed or a write fails.
func (r *renderer) writeLoop() {
	ping := time.NewTicker(rendererPingPeriod)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-r.queue:
			_ = r.conn.SetWriteDeadline(time.Now().Add(rendererWriteWait))
			if !ok {
				_ = r.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := r.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				r.logStop("write", err)
				return
			}
		case <-ping.C:
			_ = r.conn.SetWriteDeadline(time.Now().Add(rendererWriteWait))
			if err := r.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				r.logStop("write", err)
				return
			}
		}
	}
}

// readLoop keeps control frames flowing. Renderers have nothing to say, so
// data messages are discarded. A read error disconnects the renderer.
func (r *renderer) readLoop() {
	_ = r.conn.SetReadDeadline(time.Now().Add(rendererPongWait))
	r.conn.SetPongHandler(func(string) error {
		return r.conn.SetReadDeadline(time.Now().Add(rendererPongWait))
	})
	for {
		if _, _, err := r.conn.ReadMessage(); err != nil {
			r.logStop("read", err)
			break
		}
	}
	if r.hub != nil {
		r.hub.disconnect(r, "gone")
	}
}
