// Package item defines the clipboard content model: typed items with a
// content-addressed digest used as the deduplication key everywhere else
// in the system. Digests are pure functions of (type, payload) — source
// and capture time never influence them — and are persisted alongside the
// payload, so reconstructed items keep their original fingerprint.
package item

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"path"
	"strings"
	"time"
)

// Type identifies the content variant of an item.
type Type int

const (
	TypeText Type = iota
	TypeImage
	TypeFiles
)

// Source identifies which selection an item was captured from.
type Source int

const (
	SourceClipboard Source = iota
	SourcePrimary
)

// Other returns the opposite selection, used when mirroring.
func (s Source) Other() Source {
	if s == SourceClipboard {
		return SourcePrimary
	}
	return SourceClipboard
}

func (s Source) String() string {
	if s == SourcePrimary {
		return "primary"
	}
	return "clipboard"
}

// labelMax is the maximum number of visible characters in a label.
const labelMax = 50

// ErrEmptyContent is returned by constructors given nothing to capture.
var ErrEmptyContent = errors.New("item: empty content")

// Item is a single clipboard history entry. Items are immutable after
// construction except for ID assignment by the store and timestamp
// touches on re-capture.
type Item struct {
	ID     int64
	Type   Type
	Source Source

	// Text holds the payload for TypeText, and the newline-joined URI
	// list for TypeFiles (which keeps file items searchable and lets
	// them be written back to a selection as text).
	Text   string
	Image  []byte // PNG-encoded, TypeImage only
	Width  int
	Height int
	URIs   []string

	Digest     string
	Label      string
	CapturedAt time.Time
}

// NewText builds a text item. The text must be non-empty.
func NewText(text string, source Source) (*Item, error) {
	if text == "" {
		return nil, ErrEmptyContent
	}
	return &Item{
		Type:       TypeText,
		Source:     source,
		Text:       text,
		Digest:     FingerprintText(text),
		Label:      makeLabel(text),
		CapturedAt: time.Now(),
	}, nil
}

// NewImage builds an image item from PNG-encoded bytes. Dimensions are
// read from the image header; if the bytes cannot be decoded the
// dimensions stay zero. NewImage never fails: with no encoded bytes the
// digest falls back to the dimension string.
func NewImage(png []byte, source Source) *Item {
	var w, h int
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(png)); err == nil {
		w, h = cfg.Width, cfg.Height
	}
	return &Item{
		Type:       TypeImage,
		Source:     source,
		Image:      png,
		Width:      w,
		Height:     h,
		Digest:     FingerprintImage(png, w, h),
		Label:      fmt.Sprintf("[Image %dx%d]", w, h),
		CapturedAt: time.Now(),
	}
}

// NewFiles builds a file-list item from URIs, order preserved. The list
// must be non-empty.
func NewFiles(uris []string, source Source) (*Item, error) {
	if len(uris) == 0 {
		return nil, ErrEmptyContent
	}
	var label string
	if len(uris) == 1 {
		label = fmt.Sprintf("[File: %s]", path.Base(uris[0]))
	} else {
		label = fmt.Sprintf("[%d files]", len(uris))
	}
	return &Item{
		Type:       TypeFiles,
		Source:     source,
		Text:       strings.Join(uris, "\n"),
		URIs:       uris,
		Digest:     FingerprintFiles(uris),
		Label:      label,
		CapturedAt: time.Now(),
	}, nil
}

// Equal reports content equality: two items are equal iff their digests
// match.
func Equal(a, b *Item) bool {
	return a != nil && b != nil && a.Digest == b.Digest
}

// makeLabel normalizes text for display: newlines and tabs become
// spaces, runs of spaces collapse, the result is trimmed and truncated
// to labelMax visible characters with an ellipsis.
func makeLabel(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		switch r {
		case '\n', '\r', '\t':
			r = ' '
		}
		if r == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		b.WriteRune(r)
	}
	s := strings.TrimSpace(b.String())

	runes := []rune(s)
	if len(runes) > labelMax {
		return string(runes[:labelMax-3]) + "..."
	}
	return s
}
