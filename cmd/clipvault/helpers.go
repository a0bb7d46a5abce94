package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/viper"

	"github.com/clipvault/clipvault/internal/history"
	"github.com/clipvault/clipvault/internal/ipc"
	"github.com/clipvault/clipvault/internal/message"
	"github.com/clipvault/clipvault/internal/wire"
)

const requestTimeout = 5 * time.Second

// daemonRequest sends one request to the running daemon over the IPC
// socket and returns the response. A response carrying an error is
// surfaced as a Go error.
func daemonRequest(req *message.Request) (*message.Response, error) {
	conn, err := ipc.Dial()
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	wc := wire.New(conn)
	defer wc.Close()

	if err := wc.WriteRequest(req); err != nil {
		return nil, err
	}
	wc.SetReadDeadline(requestTimeout)
	resp, err := wc.ReadResponse()
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !resp.OK {
		return nil, errors.New(resp.Error)
	}
	return resp, nil
}

// openStore opens the history database directly, used when no daemon is
// running.
func openStore(v *viper.Viper) (*history.Store, error) {
	path := v.GetString("db")
	if path == "" {
		path = history.DefaultPath()
	}
	return history.Open(path)
}

// printItems renders history entries as an aligned table.
func printItems(items []message.Item) {
	if len(items) == 0 {
		fmt.Println("history is empty")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tSOURCE\tLABEL")
	for _, it := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			it.ID, it.CapturedAt.Local().Format("2006-01-02 15:04:05"), it.Source, it.Label)
	}
	_ = w.Flush()
}
