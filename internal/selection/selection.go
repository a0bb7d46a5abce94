// Package selection abstracts the two clipboard channels (the explicit
// Clipboard and the mouse-driven Primary selection) behind a Backend
// interface. The system backend is built on golang.design/x/clipboard
// with polling change detection; a headless no-op backend is used when
// no display is available, and a Memory backend backs the tests.
package selection

import "github.com/clipvault/clipvault/internal/item"

// Content is the result of querying a selection. Query priority is
// files > image > text: a consumer inspects the fields in that order
// and treats an all-empty Content as an emptied selection.
type Content struct {
	URIs  []string
	Image []byte // PNG-encoded
	Text  string
}

// Empty reports whether the selection held nothing we can capture.
func (c Content) Empty() bool {
	return len(c.URIs) == 0 && len(c.Image) == 0 && c.Text == ""
}

// Backend is the interface all selection implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current content of the given selection.
	// An empty Content (not an error) means the selection holds nothing.
	Read(sel item.Source) (Content, error)

	// WriteText asserts text onto the given selection. File lists are
	// written in their newline-joined text form.
	WriteText(sel item.Source, text string) error

	// WriteImage asserts a PNG image onto the given selection.
	WriteImage(sel item.Source, png []byte) error

	// Watch returns a channel carrying ownership-change notifications:
	// one value per change, identifying the selection that changed. The
	// channel is never closed. Backends without native change
	// notification implement this by polling.
	Watch() <-chan item.Source

	// Close releases any resources held by the backend.
	Close()
}
