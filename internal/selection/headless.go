package selection

import "github.com/clipvault/clipvault/internal/item"

// headlessBackend is a no-op backend for environments without a display
// server (headless Linux servers, containers, etc.). It never produces
// Watch events and silently discards writes.
type headlessBackend struct {
	watchCh chan item.Source
}

func (b *headlessBackend) Name() string                         { return "headless (no-op)" }
func (b *headlessBackend) Read(item.Source) (Content, error)    { return Content{}, nil }
func (b *headlessBackend) WriteText(item.Source, string) error  { return nil }
func (b *headlessBackend) WriteImage(item.Source, []byte) error { return nil }
func (b *headlessBackend) Watch() <-chan item.Source            { return b.watchCh }
func (b *headlessBackend) Close()                               {}
