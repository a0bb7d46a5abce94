package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipvault/clipvault/internal/ipc"
	"github.com/clipvault/clipvault/internal/message"
	"github.com/clipvault/clipvault/internal/settings"
)

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clipboard history, most recent first",
		Long: `Lists stored history entries, most recent first.

If a daemon is running the request goes over the IPC socket; otherwise
the history database is opened directly.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runList(v, "") },
	}

	cmd.Flags().Int("limit", 0, "maximum entries to show (default: history-size setting)")
	addDBFlag(cmd)
	addConfigFlag(cmd)

	return cmd
}

func newSearchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "search <query>",
		Short:   "Search clipboard history by substring",
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, args []string) error { return runList(v, args[0]) },
	}

	cmd.Flags().Int("limit", 0, "maximum entries to show (default: history-size setting)")
	addDBFlag(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runList(v *viper.Viper, query string) error {
	limit := v.GetInt("limit")
	if limit <= 0 {
		limit = v.GetInt(settings.KeyHistorySize)
	}

	if ipc.IsRunning() {
		resp, err := daemonRequest(&message.Request{Type: message.TypeList, Query: query, Limit: limit})
		if err != nil {
			return err
		}
		printItems(resp.Items)
		return nil
	}

	store, err := openStore(v)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	items, err := store.Search(context.Background(), query, limit)
	if err != nil {
		return err
	}
	wireItems := make([]message.Item, 0, len(items))
	for _, it := range items {
		wireItems = append(wireItems, message.FromItem(it, false))
	}
	printItems(wireItems)
	return nil
}
