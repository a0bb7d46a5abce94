package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipvault/clipvault/internal/ipc"
	"github.com/clipvault/clipvault/internal/message"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Show daemon state and history size",
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runStatus(v) },
	}

	cmd.Flags().Bool("json", false, "output raw JSON")
	addDBFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}

func runStatus(v *viper.Viper) error {
	jsonOut := v.GetBool("json")

	if ipc.IsRunning() {
		resp, err := daemonRequest(&message.Request{Type: message.TypeStatus})
		if err != nil {
			return err
		}
		if jsonOut {
			enc, _ := json.MarshalIndent(resp, "", "  ")
			fmt.Println(string(enc))
			return nil
		}
		fmt.Printf("daemon:   running (%s)\n", ipc.SocketPath())
		fmt.Printf("version:  %s\n", resp.Version)
		fmt.Printf("backend:  %s\n", resp.Backend)
		fmt.Printf("database: %s\n", resp.DBPath)
		fmt.Printf("items:    %d\n", resp.Count)
		if resp.Hidden {
			fmt.Println("popup:    hidden on start")
		}
		return nil
	}

	store, err := openStore(v)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	count, err := store.Count(context.Background())
	if err != nil {
		return err
	}
	if jsonOut {
		enc, _ := json.MarshalIndent(map[string]any{
			"daemon": false, "count": count, "db_path": store.Path(),
		}, "", "  ")
		fmt.Println(string(enc))
		return nil
	}
	fmt.Println("daemon:   not running")
	fmt.Printf("database: %s\n", store.Path())
	fmt.Printf("items:    %d\n", count)
	return nil
}
