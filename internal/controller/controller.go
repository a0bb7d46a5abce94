// Package controller wires the selection monitor to the history store:
// every captured item is persisted, selections are optionally mirrored
// onto each other, and emptied selections optionally get the most
// recent stored content re-asserted so nothing is lost when the owning
// process exits. User intents from the presentation layer (select,
// delete, clear) enter here as well.
package controller

import (
	"context"
	"errors"
	"log/slog"

	"github.com/clipvault/clipvault/internal/history"
	"github.com/clipvault/clipvault/internal/item"
	"github.com/clipvault/clipvault/internal/monitor"
	"github.com/clipvault/clipvault/internal/selection"
	"github.com/clipvault/clipvault/internal/settings"
)

// Controller consumes monitor events serially and applies user intents.
// No failure here terminates the process: every error is logged and the
// loop keeps going.
type Controller struct {
	store    *history.Store
	backend  selection.Backend
	mon      *monitor.Monitor
	settings settings.Settings
	intents  chan intent
}

type intent struct {
	fn   func(context.Context) error
	done chan error
}

// New wires a controller. The settings view is read per event, so
// preference changes take effect without a restart.
func New(store *history.Store, backend selection.Backend, mon *monitor.Monitor, s settings.Settings) *Controller {
	return &Controller{
		store:    store,
		backend:  backend,
		mon:      mon,
		settings: s,
		intents:  make(chan intent, 16),
	}
}

// Run consumes monitor events until ctx is done. It is the single
// event loop: store writes and selection writes happen only here and
// never overlap.
func (c *Controller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.mon.Events():
			switch ev.Kind {
			case monitor.KindItem:
				c.onItemReceived(ctx, ev.Item)
			case monitor.KindEmptied:
				c.onSelectionEmptied(ctx, ev.Selection)
			}
		case in := <-c.intents:
			in.done <- in.fn(ctx)
		}
	}
}

// Do runs fn on the event loop and waits for its result. User intents
// and presentation queries enter through here, so they never overlap a
// capture event or each other.
func (c *Controller) Do(ctx context.Context, fn func(context.Context) error) error {
	in := intent{fn: fn, done: make(chan error, 1)}
	select {
	case c.intents <- in:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-in.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) onItemReceived(ctx context.Context, it *item.Item) {
	id, added, err := c.store.Upsert(ctx, it)
	if err != nil {
		slog.Error("persist failed", "label", it.Label, "err", err)
	} else {
		slog.Debug("item persisted", "id", id, "added", added, "source", it.Source)
	}

	// One-shot echo onto the opposite selection. The monitor's own
	// lastSeen suppression on the mirrored selection stops the echo
	// from bouncing back.
	if c.settings.GetBool(settings.KeySyncSelections) {
		c.writeItem(it.Source.Other(), it)
	}
}

func (c *Controller) onSelectionEmptied(ctx context.Context, sel item.Source) {
	if !c.settings.GetBool(settings.KeyKeepContent) {
		return
	}
	last, err := c.store.Latest(ctx)
	if err != nil {
		if !errors.Is(err, history.ErrNotFound) {
			slog.Error("fetch latest failed", "err", err)
		}
		return
	}
	slog.Debug("restoring emptied selection", "selection", sel, "label", last.Label)
	c.writeItem(sel, last)
}

// SelectItem handles a "select from history" intent: the chosen item is
// placed on the Clipboard selection and its recency refreshed.
func (c *Controller) SelectItem(ctx context.Context, id int64) error {
	it, err := c.store.Get(ctx, id)
	if err != nil {
		return err
	}
	c.writeItem(item.SourceClipboard, it)
	if _, _, err := c.store.Upsert(ctx, it); err != nil {
		return err
	}
	return nil
}

// DeleteItem handles a "delete from history" intent.
func (c *Controller) DeleteItem(ctx context.Context, id int64) error {
	return c.store.Remove(ctx, id)
}

// ClearHistory handles a "clear history" intent. Confirmation is the
// presentation layer's concern.
func (c *Controller) ClearHistory(ctx context.Context) error {
	return c.store.Clear(ctx)
}

func (c *Controller) writeItem(sel item.Source, it *item.Item) {
	var err error
	switch it.Type {
	case item.TypeImage:
		err = c.backend.WriteImage(sel, it.Image)
	default:
		// Text and file lists are written in text form.
		err = c.backend.WriteText(sel, it.Text)
	}
	if err != nil {
		slog.Warn("selection write failed", "selection", sel, "err", err)
	}
}
