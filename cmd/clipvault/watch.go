package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipvault/clipvault/internal/ipc"
	"github.com/clipvault/clipvault/internal/message"
	"github.com/clipvault/clipvault/internal/wire"
)

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream history changes from the running daemon",
		Long: `Subscribes to the daemon's change feed and prints one line per history
change (item-added, item-removed, cleared) until interrupted. Requires
a running daemon.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, _ []string) error {
			setupLogging(v)
			return runWatch()
		},
	}
	addLoggingFlags(cmd)
	addConfigFlag(cmd)
	return cmd
}

func runWatch() error {
	if !ipc.IsRunning() {
		return fmt.Errorf("no daemon listening on %s", ipc.SocketPath())
	}
	conn, err := ipc.Dial()
	if err != nil {
		return fmt.Errorf("dial daemon: %w", err)
	}
	wc := wire.New(conn)
	defer wc.Close()

	if err := wc.WriteRequest(&message.Request{Type: message.TypeSubscribe}); err != nil {
		return err
	}
	wc.SetReadDeadline(requestTimeout)
	resp, err := wc.ReadResponse()
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("subscribe: %s", resp.Error)
	}

	// The feed is open-ended from here on.
	wc.SetReadDeadline(0)
	for {
		ev, err := wc.ReadEvent()
		if err != nil {
			return fmt.Errorf("daemon went away: %w", err)
		}
		switch ev.Name {
		case message.EventItemAdded:
			fmt.Printf("%s\t%d\t%s\n", ev.Name, ev.Item.ID, ev.Item.Label)
		case message.EventItemRemoved:
			fmt.Printf("%s\t%d\n", ev.Name, ev.ID)
		default:
			fmt.Println(ev.Name)
		}
	}
}
