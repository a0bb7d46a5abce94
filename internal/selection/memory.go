package selection

import (
	"sync"

	"github.com/clipvault/clipvault/internal/item"
)

// Memory is an in-process Backend holding independent Clipboard and
// Primary contents. It backs the tests and fully supports file-list
// content; ownership-change notifications are raised explicitly with
// Offer/Empty or implicitly by writes.
type Memory struct {
	mu      sync.Mutex
	content map[item.Source]Content
	watchCh chan item.Source
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		content: make(map[item.Source]Content),
		watchCh: make(chan item.Source, 16),
	}
}

func (m *Memory) Name() string { return "in-memory" }

func (m *Memory) Read(sel item.Source) (Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content[sel], nil
}

func (m *Memory) WriteText(sel item.Source, text string) error {
	m.Offer(sel, Content{Text: text})
	return nil
}

func (m *Memory) WriteImage(sel item.Source, png []byte) error {
	m.Offer(sel, Content{Image: png})
	return nil
}

func (m *Memory) Watch() <-chan item.Source { return m.watchCh }
func (m *Memory) Close()                    {}

// Offer places content on a selection and raises an ownership-change
// notification, as if another process had taken the selection.
func (m *Memory) Offer(sel item.Source, c Content) {
	m.mu.Lock()
	m.content[sel] = c
	m.mu.Unlock()
	m.watchCh <- sel
}

// Empty clears a selection and raises an ownership-change notification,
// as if the owning process had exited.
func (m *Memory) Empty(sel item.Source) {
	m.Offer(sel, Content{})
}
