package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"wheelcontrol/internal/protocol"
)

const socketKey = "ipc.socket_path"

// client carries the resolved settings shared by every subcommand.
type client struct {
	v       *viper.Viper
	cfgFile string
	timeout time.Duration
}

// newRootCmd builds the command tree. Socket resolution order: --socket,
// WHEEL_IPC_SOCKET_PATH, ipc.socket_path from --config, then the default.
func newRootCmd() *cobra.Command {
	c := &client{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "wheel-ctl",
		Short: "Control a running wheel daemon",
		Long: `wheel-ctl sends one event to wheeld over its unix socket and waits for
the daemon to accept it. Negative numbers must follow "--", for example
"wheel-ctl turn -- -2".`,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "wheeld config file to read ipc.socket_path from")
	pf.String("socket", protocol.DefaultSocketPath, "Unix domain socket path of the daemon")
	pf.DurationVar(&c.timeout, "timeout", 5*time.Second, "How long to wait for the daemon")

	c.v.SetDefault(socketKey, protocol.DefaultSocketPath)
	c.v.SetEnvPrefix("wheel")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()
	cobra.CheckErr(c.v.BindPFlag(socketKey, pf.Lookup("socket")))

	rootCmd.AddCommand(
		newDragCmd(c),
		newSelectCmd(c),
		newIconsCmd(c),
		newIconStateCmd(c),
		newLockCmd(c, true),
		newLockCmd(c, false),
		newTurnCmd(c),
		newHoldCmd(c),
		newReleaseCmd(c),
	)
	return rootCmd
}

func (c *client) loadConfig(_ *cobra.Command, _ []string) error {
	if c.cfgFile == "" {
		return nil
	}
	c.v.SetConfigFile(c.cfgFile)
	c.v.SetConfigType("yaml")
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", c.cfgFile, err)
	}
	return nil
}

func (c *client) socket() string { return c.v.GetString(socketKey) }

// send delivers ev and prints nothing on success.
func (c *client) send(cmd *cobra.Command, ev protocol.Event) error {
	ctx, cancel := contextWithTimeout(cmd.Context(), c.timeout)
	defer cancel()
	if err := protocol.SendEvent(ctx, c.socket(), ev); err != nil {
		return fmt.Errorf("%s: %w", ev.EventType(), err)
	}
	return nil
}
