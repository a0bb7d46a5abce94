package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipvault/clipvault/internal/ipc"
	"github.com/clipvault/clipvault/internal/message"
)

func newSelectCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "select <id>",
		Short: "Put a history entry back on the clipboard",
		Long: `Places the chosen history entry onto the Clipboard selection and
refreshes its recency. Requires a running daemon: only the daemon owns
the clipboard.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			if !ipc.IsRunning() {
				return fmt.Errorf("no clipvault daemon running (socket %s)", ipc.SocketPath())
			}
			_, err = daemonRequest(&message.Request{Type: message.TypeSelect, ID: id})
			return err
		},
	}

	addConfigFlag(cmd)
	return cmd
}
