package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipvault/clipvault/internal/controller"
	"github.com/clipvault/clipvault/internal/history"
	"github.com/clipvault/clipvault/internal/ipc"
	"github.com/clipvault/clipvault/internal/message"
	"github.com/clipvault/clipvault/internal/monitor"
	"github.com/clipvault/clipvault/internal/selection"
	"github.com/clipvault/clipvault/internal/settings"
	"github.com/clipvault/clipvault/internal/wire"
)

func newServeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the clipboard history daemon",
		Long: `Starts the clipvault daemon: watches the Clipboard (and optionally
Primary) selection, persists captured content to the history database,
and serves the presentation API on a local Unix socket.

Config file search order:
  /etc/clipvault/clipvault.toml
  $HOME/.config/clipvault/clipvault.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPVAULT_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runServe(v) },
	}

	f := cmd.Flags()
	f.Bool("hidden", false, "start with the history popup hidden (presentation hint only)")
	f.Int(settings.KeyHistorySize, 100, "maximum number of items returned by list/search")
	f.Bool(settings.KeyUsePrimary, false, "capture the Primary (mouse) selection too")
	f.Bool(settings.KeySyncSelections, false, "mirror each selection onto the other")
	f.Bool(settings.KeySaveImages, true, "capture image content")
	f.Bool(settings.KeySaveFiles, true, "capture copied file lists")
	f.Bool(settings.KeyKeepContent, false, "re-assert the last stored item when a selection is emptied")
	f.String(settings.KeyExcludePattern, "", "regular expression; matching text is never captured")
	addDBFlag(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

// daemon bundles everything the IPC handlers need.
type daemon struct {
	store   *history.Store
	ctrl    *controller.Controller
	backend selection.Backend
	bcast   *ipc.Broadcaster
	v       *viper.Viper
}

func runServe(v *viper.Viper) error {
	setupLogging(v)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := v.GetString("db")
	if dbPath == "" {
		dbPath = history.DefaultPath()
	}
	store, err := history.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	// Store changes are pushed to subscribed IPC connections so the
	// presentation layer can refresh without polling.
	bcast := ipc.NewBroadcaster()
	store.SetListener(bcast)

	backend := selection.New()
	defer backend.Close()

	mon := monitor.New(backend, v)
	ctrl := controller.New(store, backend, mon, v)
	go ctrl.Run(ctx)

	if err := mon.Start(ctx); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}
	defer mon.Stop()

	slog.Info("clipvault daemon started",
		"version", Version,
		"db", dbPath,
		"backend", backend.Name(),
		"primary", v.GetBool(settings.KeyUsePrimary),
		"hidden", v.GetBool("hidden"),
	)

	d := &daemon{store: store, ctrl: ctrl, backend: backend, bcast: bcast, v: v}

	// Presentation API socket.
	ipcLn, err := ipc.Listen()
	if err != nil {
		slog.Warn("IPC socket unavailable, capture-only mode", "err", err)
	} else {
		slog.Info("IPC socket listening", "path", ipc.SocketPath())
		go func() {
			<-ctx.Done()
			_ = ipcLn.Close()
		}()
		go serveIPC(ctx, ipcLn, d)
	}

	<-ctx.Done()
	slog.Info("clipvault daemon stopping")
	return nil
}

func serveIPC(ctx context.Context, ln net.Listener, d *daemon) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go handleIPCConn(ctx, conn, d)
	}
}

func handleIPCConn(ctx context.Context, conn net.Conn, d *daemon) {
	wc := wire.New(conn)
	defer wc.Close()

	for {
		req, err := wc.ReadRequest()
		if err != nil {
			return
		}
		if req.Type == message.TypeSubscribe {
			// The connection turns into a one-way event feed.
			d.streamEvents(ctx, wc)
			return
		}
		if err := wc.WriteResponse(d.handle(ctx, req)); err != nil {
			slog.Warn("IPC write failed", "err", err)
			return
		}
	}
}

// streamEvents acknowledges a SUBSCRIBE request and then pushes one
// event line per history change until the client disconnects or the
// daemon shuts down.
func (d *daemon) streamEvents(ctx context.Context, wc *wire.Conn) {
	events, cancel := d.bcast.Subscribe()
	defer cancel()

	if err := wc.WriteResponse(&message.Response{OK: true}); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if err := wc.WriteEvent(&ev); err != nil {
				return
			}
		}
	}
}

// handle executes one presentation request. Store access runs on the
// controller's event loop so it never overlaps a capture event.
func (d *daemon) handle(ctx context.Context, req *message.Request) *message.Response {
	switch req.Type {
	case message.TypeList:
		limit := req.Limit
		if limit <= 0 {
			limit = d.v.GetInt(settings.KeyHistorySize)
		}
		var resp message.Response
		err := d.ctrl.Do(ctx, func(ctx context.Context) error {
			items, err := d.store.Search(ctx, req.Query, limit)
			if err != nil {
				return err
			}
			resp.Items = make([]message.Item, 0, len(items))
			for _, it := range items {
				resp.Items = append(resp.Items, message.FromItem(it, false))
			}
			return nil
		})
		if err != nil {
			return message.Errorf("list: %v", err)
		}
		resp.OK = true
		return &resp

	case message.TypeGet:
		var resp message.Response
		err := d.ctrl.Do(ctx, func(ctx context.Context) error {
			it, err := d.store.Get(ctx, req.ID)
			if err != nil {
				return err
			}
			resp.Items = []message.Item{message.FromItem(it, true)}
			return nil
		})
		if err != nil {
			return message.Errorf("get %d: %v", req.ID, err)
		}
		resp.OK = true
		return &resp

	case message.TypeSelect:
		if err := d.ctrl.Do(ctx, func(ctx context.Context) error {
			return d.ctrl.SelectItem(ctx, req.ID)
		}); err != nil {
			return message.Errorf("select %d: %v", req.ID, err)
		}
		return &message.Response{OK: true}

	case message.TypeDelete:
		if err := d.ctrl.Do(ctx, func(ctx context.Context) error {
			return d.ctrl.DeleteItem(ctx, req.ID)
		}); err != nil {
			return message.Errorf("delete %d: %v", req.ID, err)
		}
		return &message.Response{OK: true}

	case message.TypeClear:
		if err := d.ctrl.Do(ctx, func(ctx context.Context) error {
			return d.ctrl.ClearHistory(ctx)
		}); err != nil {
			return message.Errorf("clear: %v", err)
		}
		return &message.Response{OK: true}

	case message.TypeStatus:
		var count int
		err := d.ctrl.Do(ctx, func(ctx context.Context) error {
			var err error
			count, err = d.store.Count(ctx)
			return err
		})
		if err != nil {
			return message.Errorf("status: %v", err)
		}
		return &message.Response{
			OK:      true,
			Count:   count,
			DBPath:  d.store.Path(),
			Backend: d.backend.Name(),
			Hidden:  d.v.GetBool("hidden"),
			Version: Version,
		}

	default:
		return message.Errorf("unknown request type %q", req.Type)
	}
}
