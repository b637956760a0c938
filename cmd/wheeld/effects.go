package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// Effects executes reducer-emitted Commands. It is allowed to perform I/O but
// never calls Reduce; failures come back to the daemon loop as EffectFailed
// events through report.
type Effects struct {
	logger *slog.Logger

	hookCommand string
	hookTimeout time.Duration

	// report feeds EffectFailed back into the daemon's event channel. Sends
	// are non-blocking.
	report chan<- Event

	wg sync.WaitGroup
}

// NewEffects builds the effects runner. hookCommand may be empty.
func NewEffects(logger *slog.Logger, hooks HooksConfig, report chan<- Event) *Effects {
	return &Effects{
		logger:      logger,
		hookCommand: hooks.OnSelect,
		hookTimeout: time.Duration(hooks.TimeoutMS) * time.Millisecond,
		report:      report,
	}
}

// Run executes cmd. Hooks run in the background bound to ctx; Wait blocks
// until they finish.
func (fx *Effects) Run(ctx context.Context, cmd Command) {
	switch c := cmd.(type) {
	case CmdPublishStateSnapshot:
		if c.Reply == nil {
			fx.logger.Warn("state snapshot requested with nil reply channel")
			return
		}
		// Never block the daemon loop on a requester.
		select {
		case c.Reply <- c.Snapshot:
		default:
			fx.logger.Warn("state snapshot reply channel not ready; dropping snapshot")
		}

	case CmdRunSelectHook:
		if fx.hookCommand == "" {
			return
		}
		fx.wg.Add(1)
		go func() {
			defer fx.wg.Done()
			if err := fx.runSelectHook(ctx, c); err != nil {
				fx.logger.Warn("on_select hook failed", "error", err, "index", c.Index, "icon", c.Icon)
				fx.fail(cmd, err)
			}
		}()

	default:
		fx.logger.Warn("unknown command type", "command", cmd.String())
		fx.fail(cmd, errUnknownCommand{cmd: cmd})
	}
}

// Wait blocks until background hooks have returned.
func (fx *Effects) Wait() { fx.wg.Wait() }

func (fx *Effects) runSelectHook(ctx context.Context, c CmdRunSelectHook) error {
	timeout := fx.hookTimeout
	if timeout <= 0 {
		timeout = defaultHookTimeoutMS * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", fx.hookCommand)
	// Children of the shell may keep the output pipe open after it is killed.
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(),
		"WHEEL_INDEX="+strconv.Itoa(c.Index),
		"WHEEL_ICON="+c.Icon,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("hook timed out after %s", timeout)
		}
		return fmt.Errorf("hook: %w (output: %q)", err, truncate(out, 256))
	}
	fx.logger.Debug("on_select hook ran", "index", c.Index, "icon", c.Icon)
	return nil
}

func (fx *Effects) fail(cmd Command, err error) {
	if fx.report == nil {
		return
	}
	select {
	case fx.report <- EffectFailed{Command: cmd, Err: err, At: time.Now()}:
	default:
		fx.logger.Warn("event queue full, dropping effect failure", "command", cmd.String())
	}
}

type errUnknownCommand struct {
	cmd Command
}

func (e errUnknownCommand) Error() string { return "unknown command: " + e.cmd.String() }

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
