package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"

	"wheelcontrol/internal/logging"
	"wheelcontrol/internal/protocol"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// readInputEvents reads input events from r until it fails or ctx is done.
func readInputEvents(ctx context.Context, r io.Reader, events chan<- inputEvent) error {
	evSize := binary.Size(inputEvent{})
	buf := make([]byte, evSize)
	reader := bytes.NewReader(buf)

	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}

		reader.Reset(buf)
		var ev inputEvent
		if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
			// Skip malformed events
			continue
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// inputTranslator turns raw evdev events into daemon events. It tracks the
// pointer button and held direction keys across events.
type inputTranslator struct {
	pxPerCount float64

	dragging bool
	held     map[uint16]bool
}

func newInputTranslator(pxPerCount float64) *inputTranslator {
	if !(pxPerCount > 0) {
		pxPerCount = defaultDragPxPerCount
	}
	return &inputTranslator{pxPerCount: pxPerCount, held: make(map[uint16]bool)}
}

func (t *inputTranslator) translate(ev inputEvent) []Event {
	switch ev.Type {
	case EV_KEY:
		return t.key(ev.Code, ev.Value)

	case EV_REL:
		switch ev.Code {
		case REL_X:
			if t.dragging && ev.Value != 0 {
				return []Event{protocol.DragMove{DeltaPx: float64(ev.Value) * t.pxPerCount}}
			}
		case REL_DIAL, REL_WHEEL:
			if ev.Value != 0 {
				return []Event{protocol.RotaryTurn{Steps: int(ev.Value)}}
			}
		}
	}
	return nil
}

func (t *inputTranslator) key(code uint16, value int32) []Event {
	switch code {
	case BTN_LEFT:
		switch value {
		case evValuePress:
			if !t.dragging {
				t.dragging = true
				return []Event{protocol.DragBegin{}}
			}
		case evValueRelease:
			if t.dragging {
				t.dragging = false
				return []Event{protocol.DragEnd{}}
			}
		}

	case KEY_LEFT, KEY_RIGHT, KEY_UP, KEY_DOWN:
		dir := 1
		if code == KEY_LEFT || code == KEY_UP {
			dir = -1
		}
		switch value {
		case evValuePress, evValueRepeat:
			t.held[code] = true
			return []Event{protocol.RotateHeld{Direction: dir}}
		case evValueRelease:
			delete(t.held, code)
			if len(t.held) == 0 {
				return []Event{protocol.RotateRelease{}}
			}
		}
	}
	return nil
}

// runInput opens the devices, translates their events and forwards them to
// the daemon until ctx is canceled or a device fails.
func runInput(ctx context.Context, devices []string, pxPerCount float64, out chan<- Event, logger *slog.Logger) error {
	logCtx := logging.PackageCtx("input")

	files := make([]*os.File, 0, len(devices))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()
	for _, dev := range devices {
		f, err := os.Open(ExpandPath(dev))
		if err != nil {
			return fmt.Errorf("open input device %s: %w", dev, err)
		}
		files = append(files, f)
		logger.InfoContext(logCtx, "reading input device", "device", dev)
	}

	raw := make(chan inputEvent, defaultEventQueueDepth)
	readErr := make(chan error, 1)
	go func() { readErr <- readDevices(ctx, files, raw) }()

	tr := newInputTranslator(pxPerCount)
	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("input: %w", err)

		case ev := <-raw:
			for _, e := range tr.translate(ev) {
				select {
				case out <- e:
				case <-ctx.Done():
					return nil
				default:
					logger.WarnContext(logCtx, "event queue full, dropping input event", "type", e.EventType())
				}
			}
		}
	}
}
