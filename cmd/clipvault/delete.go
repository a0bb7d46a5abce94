package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipvault/clipvault/internal/ipc"
	"github.com/clipvault/clipvault/internal/message"
)

func newDeleteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete one history entry",
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			if ipc.IsRunning() {
				_, err := daemonRequest(&message.Request{Type: message.TypeDelete, ID: id})
				return err
			}
			store, err := openStore(v)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()
			return store.Remove(context.Background(), id)
		},
	}

	addDBFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func newClearCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "clear",
		Short:   "Delete the entire clipboard history",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			if ipc.IsRunning() {
				_, err := daemonRequest(&message.Request{Type: message.TypeClear})
				return err
			}
			store, err := openStore(v)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()
			return store.Clear(context.Background())
		},
	}

	cmd.Flags().Bool("yes", false, "confirm deletion")
	addDBFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}
