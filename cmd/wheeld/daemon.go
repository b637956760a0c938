package main

import (
	"context"
	"log/slog"
	"time"
)

// runDaemon is the reducer-driven daemon loop. It:
//   - receives Events from IPC, input devices and the WS server
//   - emits Tick events at tickHz
//   - reduces events into (state, commands, broadcasts)
//   - executes commands through fx and forwards broadcasts without blocking
//
// It owns state exclusively and returns when ctx is canceled or events is
// closed.
func runDaemon(
	ctx context.Context,
	events <-chan Event,
	state *DaemonState,
	cfg ReducerConfig,
	tickHz int,
	fx *Effects,
	broadcasts chan<- StateBroadcast,
	logger *slog.Logger,
) error {
	if state == nil {
		logger.Error("daemon state is nil")
		return nil
	}
	if tickHz <= 0 {
		tickHz = defaultTickHz
	}

	ticker := time.NewTicker(time.Second / time.Duration(tickHz))
	defer ticker.Stop()
	lastTick := time.Now()

	var eventQueue []Event
	var cmdQueue []Command

	publish := func(bcs []StateBroadcast) {
		if broadcasts == nil {
			return
		}
		for _, b := range bcs {
			select {
			case broadcasts <- b:
			default:
				logger.Warn("broadcast queue full, dropping state broadcast")
			}
		}
	}

	flushEvents := func() {
		for len(eventQueue) > 0 {
			ev := eventQueue[0]
			eventQueue = eventQueue[1:]

			rr := Reduce(state, ev, cfg)
			if rr.State != nil {
				state = rr.State
			}
			cmdQueue = append(cmdQueue, rr.Commands...)
			publish(rr.Broadcasts)
		}
	}

	flushCommands := func() {
		for len(cmdQueue) > 0 {
			cmd := cmdQueue[0]
			cmdQueue = cmdQueue[1:]
			fx.Run(ctx, cmd)
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			return nil

		case ev, ok := <-events:
			if !ok {
				logger.Info("daemon stopping (events channel closed)")
				return nil
			}
			logger.Debug("event", "type", ev.EventType())
			eventQueue = append(eventQueue, TimedEvent{Event: ev, At: time.Now()})
			flushEvents()
			flushCommands()

		case now := <-ticker.C:
			dt := now.Sub(lastTick).Seconds()
			lastTick = now
			eventQueue = append(eventQueue, Tick{Now: now, Dt: dt})
			flushEvents()
			flushCommands()
		}
	}
}
