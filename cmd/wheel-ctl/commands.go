package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"wheelcontrol/internal/protocol"
)

// placeholderIcon stands for an empty slot on the command line.
const placeholderIcon = "-"

// contextWithTimeout bounds ctx by d; d <= 0 means no deadline.
func contextWithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func newDragCmd(c *client) *cobra.Command {
	dragCmd := &cobra.Command{
		Use:   "drag",
		Short: "Drive a drag gesture step by step",
	}
	dragCmd.AddCommand(
		&cobra.Command{
			Use:   "begin",
			Short: "Start a drag at the current position",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.send(cmd, protocol.DragBegin{})
			},
		},
		&cobra.Command{
			Use:   "update OFFSET_PX",
			Short: "Set the total drag translation in pixels",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				px, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("invalid offset %q: %w", args[0], err)
				}
				return c.send(cmd, protocol.DragUpdate{OffsetPx: px})
			},
		},
		&cobra.Command{
			Use:   "move DELTA_PX",
			Short: "Add a relative drag sample in pixels",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				px, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("invalid delta %q: %w", args[0], err)
				}
				return c.send(cmd, protocol.DragMove{DeltaPx: px})
			},
		},
		&cobra.Command{
			Use:   "end",
			Short: "Release the drag and let the wheel snap",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.send(cmd, protocol.DragEnd{})
			},
		},
	)
	return dragCmd
}

func newSelectCmd(c *client) *cobra.Command {
	var animated bool
	selectCmd := &cobra.Command{
		Use:   "select INDEX",
		Short: "Select a slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}
			return c.send(cmd, protocol.SelectIndex{Index: i, Animated: animated})
		},
	}
	selectCmd.Flags().BoolVarP(&animated, "animated", "a", false, "Animate to the slot")
	return selectCmd
}

func newIconsCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "icons [ICON...]",
		Short: "Replace the slot set",
		Long:  `Replace the slot set. "` + placeholderIcon + `" stands for an empty slot; no arguments clears the wheel.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			icons := make([]string, len(args))
			for i, a := range args {
				if a != placeholderIcon {
					icons[i] = a
				}
			}
			return c.send(cmd, protocol.SetIcons{Icons: icons})
		},
	}
}

func newIconStateCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:       "icon-state INDEX normal|disabled|hidden",
		Short:     "Change the visibility of one slot",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"normal", "disabled", "hidden"},
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}
			ev := protocol.SetIconState{Index: i, State: args[1]}
			if err := ev.Validate(); err != nil {
				return err
			}
			return c.send(cmd, ev)
		},
	}
}

func newLockCmd(c *client, locked bool) *cobra.Command {
	use, short := "lock", "Stop drags from rotating the wheel"
	if !locked {
		use, short = "unlock", "Let drags rotate the wheel again"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.send(cmd, protocol.SetRotationLock{Locked: locked})
		},
	}
}

func newTurnCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "turn STEPS",
		Short: "Simulate rotary encoder detents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid steps %q: %w", args[0], err)
			}
			ev := protocol.RotaryTurn{Steps: steps}
			if err := ev.Validate(); err != nil {
				return err
			}
			return c.send(cmd, ev)
		},
	}
}

func newHoldCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:       "hold left|right",
		Short:     "Report a held direction key (repeat to keep rotating)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"left", "right"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir int
			switch args[0] {
			case "left":
				dir = -1
			case "right":
				dir = 1
			default:
				return fmt.Errorf("direction must be left or right, got %q", args[0])
			}
			return c.send(cmd, protocol.RotateHeld{Direction: dir})
		},
	}
}

func newReleaseCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "release",
		Short: "Release held direction keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.send(cmd, protocol.RotateRelease{})
		},
	}
}
