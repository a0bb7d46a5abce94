package selection

import (
	"bytes"
	"log/slog"
	"time"

	"golang.design/x/clipboard"

	"github.com/clipvault/clipvault/internal/item"
)

const pollInterval = 250 * time.Millisecond

// systemBackend reads the desktop clipboard through
// golang.design/x/clipboard. The library exposes a single clipboard
// channel, so Primary reads come back empty and Primary writes are
// dropped on platforms where the library has no separate primary
// selection; change notifications are produced by polling, matching the
// X11/Wayland situation where no portable ownership-change event exists.
type systemBackend struct {
	watchCh  chan item.Source
	done     chan struct{}
	lastText []byte
	lastImg  []byte
}

// New returns the system clipboard backend, or a headless no-op backend
// when the display environment is unavailable. clipboard.Init is called
// here rather than in init() so that CLI sub-commands (list, status,
// delete) never touch the display.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return &headlessBackend{watchCh: make(chan item.Source)}
	}
	b := &systemBackend{
		watchCh: make(chan item.Source, 1),
		done:    make(chan struct{}),
	}
	go b.poll()
	return b
}

func (b *systemBackend) Name() string { return "system clipboard (poll)" }

func (b *systemBackend) poll() {
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			text := clipboard.Read(clipboard.FmtText)
			img := clipboard.Read(clipboard.FmtImage)
			if !bytes.Equal(text, b.lastText) || !bytes.Equal(img, b.lastImg) {
				b.lastText = text
				b.lastImg = img
				select {
				case b.watchCh <- item.SourceClipboard:
				default:
				}
			}
		}
	}
}

func (b *systemBackend) Read(sel item.Source) (Content, error) {
	if sel != item.SourceClipboard {
		return Content{}, nil
	}
	var c Content
	if img := clipboard.Read(clipboard.FmtImage); len(img) > 0 {
		c.Image = img
		return c, nil
	}
	if text := clipboard.Read(clipboard.FmtText); len(text) > 0 {
		c.Text = string(text)
	}
	return c, nil
}

func (b *systemBackend) WriteText(sel item.Source, text string) error {
	if sel != item.SourceClipboard {
		return nil
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (b *systemBackend) WriteImage(sel item.Source, png []byte) error {
	if sel != item.SourceClipboard {
		return nil
	}
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}

func (b *systemBackend) Watch() <-chan item.Source { return b.watchCh }
func (b *systemBackend) Close()                    { close(b.done) }
