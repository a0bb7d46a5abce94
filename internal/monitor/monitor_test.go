package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clipvault/clipvault/internal/item"
	"github.com/clipvault/clipvault/internal/selection"
	"github.com/clipvault/clipvault/internal/settings"
)

func defaultSettings() settings.Static {
	return settings.Static{
		settings.KeyUsePrimary: true,
		settings.KeySaveImages: true,
		settings.KeySaveFiles:  true,
	}
}

// startMonitor starts a monitor over an in-memory backend and drains
// the synchronous seed check of the (empty) clipboard.
func startMonitor(t *testing.T, st settings.Settings) (*Monitor, *selection.Memory) {
	t.Helper()
	mem := selection.NewMemory()
	m := New(mem, st)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, m.Start(ctx))
	seed := recvEvent(t, m)
	require.Equal(t, KindEmptied, seed.Kind)
	return m, mem
}

func recvEvent(t *testing.T, m *Monitor) Event {
	t.Helper()
	select {
	case ev := <-m.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for monitor event")
		return Event{}
	}
}

func requireNoEvent(t *testing.T, m *Monitor) {
	t.Helper()
	select {
	case ev := <-m.Events():
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCaptureAndSuppressDuplicates(t *testing.T) {
	t.Parallel()
	m, mem := startMonitor(t, defaultSettings())

	mem.Offer(item.SourceClipboard, selection.Content{Text: "hello"})
	ev := recvEvent(t, m)
	require.Equal(t, KindItem, ev.Kind)
	require.Equal(t, "hello", ev.Item.Text)
	require.Equal(t, item.SourceClipboard, ev.Item.Source)

	// Same content again: suppressed.
	mem.Offer(item.SourceClipboard, selection.Content{Text: "hello"})
	requireNoEvent(t, m)

	mem.Offer(item.SourceClipboard, selection.Content{Text: "world"})
	ev = recvEvent(t, m)
	require.Equal(t, "world", ev.Item.Text)
}

func TestPerSelectionLastSeen(t *testing.T) {
	t.Parallel()
	m, mem := startMonitor(t, defaultSettings())

	// The same text on the other selection is a distinct observation.
	mem.Offer(item.SourceClipboard, selection.Content{Text: "same"})
	require.Equal(t, item.SourceClipboard, recvEvent(t, m).Item.Source)

	mem.Offer(item.SourcePrimary, selection.Content{Text: "same"})
	require.Equal(t, item.SourcePrimary, recvEvent(t, m).Item.Source)
}

func TestPrimaryDisabled(t *testing.T) {
	t.Parallel()
	st := defaultSettings()
	st[settings.KeyUsePrimary] = false
	m, mem := startMonitor(t, st)

	mem.Offer(item.SourcePrimary, selection.Content{Text: "ignored"})
	requireNoEvent(t, m)

	mem.Offer(item.SourceClipboard, selection.Content{Text: "captured"})
	require.Equal(t, "captured", recvEvent(t, m).Item.Text)
}

func TestExcludePattern(t *testing.T) {
	t.Parallel()
	st := defaultSettings()
	st[settings.KeyExcludePattern] = "^secret"
	m, mem := startMonitor(t, st)

	mem.Offer(item.SourceClipboard, selection.Content{Text: "secret-token"})
	requireNoEvent(t, m)

	mem.Offer(item.SourceClipboard, selection.Content{Text: "not-secret"})
	require.Equal(t, "not-secret", recvEvent(t, m).Item.Text)
}

func TestInvalidExcludePatternIgnored(t *testing.T) {
	t.Parallel()
	st := defaultSettings()
	st[settings.KeyExcludePattern] = "("
	m, mem := startMonitor(t, st)

	// A pattern that does not compile acts as no filter at all.
	mem.Offer(item.SourceClipboard, selection.Content{Text: "anything"})
	require.Equal(t, "anything", recvEvent(t, m).Item.Text)
}

func TestContentToggles(t *testing.T) {
	t.Parallel()
	st := defaultSettings()
	st[settings.KeySaveImages] = false
	st[settings.KeySaveFiles] = false
	m, mem := startMonitor(t, st)

	mem.Offer(item.SourceClipboard, selection.Content{URIs: []string{"/a.txt"}})
	requireNoEvent(t, m)
	mem.Offer(item.SourceClipboard, selection.Content{Image: []byte("png-bytes")})
	requireNoEvent(t, m)

	// Text still flows.
	mem.Offer(item.SourceClipboard, selection.Content{Text: "still works"})
	require.Equal(t, "still works", recvEvent(t, m).Item.Text)
}

func TestFilePriorityOverText(t *testing.T) {
	t.Parallel()
	m, mem := startMonitor(t, defaultSettings())

	// A selection carrying both URIs and a text rendering is a file
	// list.
	mem.Offer(item.SourceClipboard, selection.Content{
		URIs: []string{"/a.txt", "/b.txt"},
		Text: "/a.txt /b.txt",
	})
	ev := recvEvent(t, m)
	require.Equal(t, item.TypeFiles, ev.Item.Type)
	require.Equal(t, "[2 files]", ev.Item.Label)
}

func TestDistinctFileLists(t *testing.T) {
	t.Parallel()
	m, mem := startMonitor(t, defaultSettings())

	mem.Offer(item.SourceClipboard, selection.Content{URIs: []string{"/a.txt"}})
	one := recvEvent(t, m).Item
	require.Equal(t, "[File: a.txt]", one.Label)

	mem.Offer(item.SourceClipboard, selection.Content{URIs: []string{"/a.txt", "/b.txt"}})
	two := recvEvent(t, m).Item
	require.Equal(t, "[2 files]", two.Label)
	require.NotEqual(t, one.Digest, two.Digest)
}

func TestSelectionEmptied(t *testing.T) {
	t.Parallel()
	m, mem := startMonitor(t, defaultSettings())

	mem.Offer(item.SourceClipboard, selection.Content{Text: "going away"})
	recvEvent(t, m)

	mem.Empty(item.SourceClipboard)
	ev := recvEvent(t, m)
	require.Equal(t, KindEmptied, ev.Kind)
	require.Equal(t, item.SourceClipboard, ev.Selection)
}

func TestStopSuppressesEvents(t *testing.T) {
	t.Parallel()
	m, mem := startMonitor(t, defaultSettings())

	m.Stop()
	mem.Offer(item.SourceClipboard, selection.Content{Text: "while stopped"})
	requireNoEvent(t, m)
}

func TestRestartAfterStop(t *testing.T) {
	t.Parallel()
	m, mem := startMonitor(t, defaultSettings())

	m.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))
	require.Equal(t, KindEmptied, recvEvent(t, m).Kind) // restart seed

	mem.Offer(item.SourceClipboard, selection.Content{Text: "after restart"})
	ev := recvEvent(t, m)
	require.Equal(t, KindItem, ev.Kind)
	require.Equal(t, "after restart", ev.Item.Text)
}

func TestRestartAfterContextCancelled(t *testing.T) {
	t.Parallel()
	mem := selection.NewMemory()
	m := New(mem, defaultSettings())

	ctx1, cancel1 := context.WithCancel(context.Background())
	require.NoError(t, m.Start(ctx1))
	require.Equal(t, KindEmptied, recvEvent(t, m).Kind)
	cancel1()

	// The old loop winds down asynchronously; once it has, Start must
	// bring up a fresh one instead of reporting success over a dead loop.
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	require.Eventually(t, func() bool {
		return m.Start(ctx2) == nil
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, KindEmptied, recvEvent(t, m).Kind) // restart seed

	mem.Offer(item.SourceClipboard, selection.Content{Text: "second life"})
	require.Equal(t, "second life", recvEvent(t, m).Item.Text)
}

func TestStartSeedsFromClipboard(t *testing.T) {
	t.Parallel()
	mem := selection.NewMemory()
	mem.Offer(item.SourceClipboard, selection.Content{Text: "pre-existing"})
	// Primary content must not be seeded.
	mem.Offer(item.SourcePrimary, selection.Content{Text: "primary stuff"})
	// Drain the two notifications the offers queued; Start must find
	// the content by its own synchronous check.
	<-mem.Watch()
	<-mem.Watch()

	m := New(mem, defaultSettings())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))

	ev := recvEvent(t, m)
	require.Equal(t, KindItem, ev.Kind)
	require.Equal(t, "pre-existing", ev.Item.Text)
	requireNoEvent(t, m)

	require.ErrorIs(t, m.Start(ctx), ErrAlreadyRunning)
}
