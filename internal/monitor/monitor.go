// Package monitor watches ownership changes on the Clipboard and
// Primary selections, filters and deduplicates what it sees, and emits
// canonical capture events. All notification handling is serialized on
// one goroutine, so per-selection state is never touched concurrently.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"

	"github.com/clipvault/clipvault/internal/item"
	"github.com/clipvault/clipvault/internal/selection"
	"github.com/clipvault/clipvault/internal/settings"
)

// Kind discriminates monitor events.
type Kind int

const (
	// KindItem carries a newly captured item.
	KindItem Kind = iota
	// KindEmptied signals that a selection lost its content entirely.
	KindEmptied
)

// Event is a canonical capture event.
type Event struct {
	Kind      Kind
	Item      *item.Item  // KindItem only
	Selection item.Source // selection the event originated from
}

// ErrAlreadyRunning is returned by Start when monitoring is active.
var ErrAlreadyRunning = errors.New("monitor: already running")

// Monitor observes both selections through a backend and emits Events.
type Monitor struct {
	backend  selection.Backend
	settings settings.Settings

	// lastSeen holds the digest last observed per selection; it is only
	// touched while the event loop is down or from the loop itself.
	lastSeen map[item.Source]string

	events chan Event

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{} // closed when the event loop exits
}

// New returns a stopped Monitor reading preferences from s.
func New(backend selection.Backend, s settings.Settings) *Monitor {
	return &Monitor{
		backend:  backend,
		settings: s,
		lastSeen: make(map[item.Source]string),
		events:   make(chan Event, 64),
	}
}

// Events returns the event stream. The channel is never closed.
func (m *Monitor) Events() <-chan Event { return m.events }

// Start begins monitoring. It performs one synchronous check of the
// Clipboard selection (only) to seed state, then consumes ownership-
// change notifications until ctx is done or Stop is called. Returns
// ErrAlreadyRunning while the event loop is still up; once the loop
// has wound down (Stop, or cancelled context), Start brings up a new
// one.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loopAlive() {
		return ErrAlreadyRunning
	}

	// Capture whatever is on the clipboard right now. The event loop is
	// not running yet, so this is safely synchronous; on a restart the
	// lastSeen digests make an unchanged clipboard a no-op.
	m.handleChange(item.SourceClipboard)

	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.loop(ctx, m.done)
	slog.Info("selection monitor started", "backend", m.backend.Name())
	return nil
}

// Stop shuts the event loop down and waits for it to exit. Stop is
// idempotent; Start may be called again afterwards.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	slog.Info("selection monitor stopped")
}

// loopAlive reports whether the event loop goroutine is still running.
// Callers hold m.mu.
func (m *Monitor) loopAlive() bool {
	if m.done == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case sel := <-m.backend.Watch():
			m.handleChange(sel)
		}
	}
}

// handleChange runs the capture pipeline for one ownership change.
// Content is queried with priority file-list > image > text > empty.
// Disabled content kinds and excluded text are dropped without touching
// lastSeen, so a later re-enable can still capture the same content.
func (m *Monitor) handleChange(sel item.Source) {
	if sel == item.SourcePrimary && !m.settings.GetBool(settings.KeyUsePrimary) {
		return
	}

	content, err := m.backend.Read(sel)
	if err != nil {
		slog.Warn("selection query failed", "selection", sel, "err", err)
		return
	}

	switch {
	case len(content.URIs) > 0:
		if !m.settings.GetBool(settings.KeySaveFiles) {
			return
		}
		it, err := item.NewFiles(content.URIs, sel)
		if err != nil {
			return
		}
		m.deliver(sel, it)

	case len(content.Image) > 0:
		if !m.settings.GetBool(settings.KeySaveImages) {
			return
		}
		m.deliver(sel, item.NewImage(content.Image, sel))

	case content.Text != "":
		if m.excluded(content.Text) {
			return
		}
		it, err := item.NewText(content.Text, sel)
		if err != nil {
			return
		}
		m.deliver(sel, it)

	default:
		m.events <- Event{Kind: KindEmptied, Selection: sel}
	}
}

// deliver suppresses consecutive duplicates per selection and emits the
// item.
func (m *Monitor) deliver(sel item.Source, it *item.Item) {
	if it.Digest == m.lastSeen[sel] {
		return
	}
	m.lastSeen[sel] = it.Digest
	m.events <- Event{Kind: KindItem, Item: it, Selection: sel}
}

// excluded reports whether text matches the configured exclusion
// pattern. An invalid pattern is treated as absent, never fatal.
func (m *Monitor) excluded(text string) bool {
	pat := m.settings.GetString(settings.KeyExcludePattern)
	if pat == "" {
		return false
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		slog.Warn("invalid exclude-pattern ignored", "pattern", pat, "err", err)
		return false
	}
	return re.MatchString(text)
}
