package history

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipvault/clipvault/internal/item"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func textItem(t *testing.T, text string) *item.Item {
	t.Helper()
	it, err := item.NewText(text, item.SourceClipboard)
	require.NoError(t, err)
	return it
}

type recorder struct {
	added   []int64
	removed []int64
	cleared int
}

func (r *recorder) ItemAdded(it *item.Item) { r.added = append(r.added, it.ID) }
func (r *recorder) ItemRemoved(id int64)    { r.removed = append(r.removed, id) }
func (r *recorder) Cleared()                { r.cleared++ }

func TestUpsertDeduplicates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	first := textItem(t, "hello")
	id1, added, err := s.Upsert(ctx, first)
	require.NoError(t, err)
	require.True(t, added)
	require.Equal(t, id1, first.ID)

	second := textItem(t, "hello")
	id2, added, err := s.Upsert(ctx, second)
	require.NoError(t, err)
	require.False(t, added)
	require.Equal(t, id1, id2)
	require.False(t, second.CapturedAt.Before(first.CapturedAt))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestListOrderingAndLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	for _, text := range []string{"one", "two", "three"} {
		_, _, err := s.Upsert(ctx, textItem(t, text))
		require.NoError(t, err)
	}

	// Most recent first; equal timestamps fall back to id descending.
	items, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "three", items[0].Text)
	require.Equal(t, "two", items[1].Text)
	require.Equal(t, "one", items[2].Text)
	for i := 1; i < len(items); i++ {
		require.False(t, items[i-1].CapturedAt.Before(items[i].CapturedAt))
	}

	items, err = s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestTouchMovesToTop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	oldest := textItem(t, "old")
	_, _, err := s.Upsert(ctx, oldest)
	require.NoError(t, err)
	_, _, err = s.Upsert(ctx, textItem(t, "new"))
	require.NoError(t, err)

	// Push both rows into the past so the touch lands on a strictly
	// newer second.
	_, err = s.db.ExecContext(ctx, `UPDATE items SET captured_at = captured_at - 60`)
	require.NoError(t, err)

	// Re-capturing "old" touches it back to the top without a new row.
	_, added, err := s.Upsert(ctx, textItem(t, "old"))
	require.NoError(t, err)
	require.False(t, added)

	items, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "old", items[0].Text)
}

func TestSearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	_, _, err := s.Upsert(ctx, textItem(t, "hello world"))
	require.NoError(t, err)
	_, _, err = s.Upsert(ctx, textItem(t, "goodbye"))
	require.NoError(t, err)
	files, err := item.NewFiles([]string{"/home/u/notes.txt"}, item.SourceClipboard)
	require.NoError(t, err)
	_, _, err = s.Upsert(ctx, files)
	require.NoError(t, err)

	items, err := s.Search(ctx, "hello", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "hello world", items[0].Text)

	// File items match on their URI text and on the label.
	items, err = s.Search(ctx, "notes.txt", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, item.TypeFiles, items[0].Type)
	items, err = s.Search(ctx, "[File:", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// Empty query behaves as List.
	items, err = s.Search(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, items, 3)

	items, err = s.Search(ctx, "nothing-matches", 0)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestSearchLiteralWildcards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	_, _, err := s.Upsert(ctx, textItem(t, "100% sure"))
	require.NoError(t, err)
	_, _, err = s.Upsert(ctx, textItem(t, "100 percent"))
	require.NoError(t, err)

	// % and _ are matched literally, not as LIKE wildcards.
	items, err := s.Search(ctx, "100%", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "100% sure", items[0].Text)
}

func TestRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	it := textItem(t, "doomed")
	id, _, err := s.Upsert(ctx, it)
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, id))
	items, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, items)

	require.ErrorIs(t, s.Remove(ctx, id), ErrNotFound)

	// A new capture of the same content gets a fresh id.
	id2, added, err := s.Upsert(ctx, textItem(t, "doomed"))
	require.NoError(t, err)
	require.True(t, added)
	require.NotEqual(t, id, id2)
}

func TestClearAndListener(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	rec := &recorder{}
	s.SetListener(rec)

	id, _, err := s.Upsert(ctx, textItem(t, "a"))
	require.NoError(t, err)
	_, _, err = s.Upsert(ctx, textItem(t, "b"))
	require.NoError(t, err)
	require.Len(t, rec.added, 2)

	// A touch is not an add.
	_, _, err = s.Upsert(ctx, textItem(t, "a"))
	require.NoError(t, err)
	require.Len(t, rec.added, 2)

	require.NoError(t, s.Remove(ctx, id))
	require.Equal(t, []int64{id}, rec.removed)

	require.NoError(t, s.Clear(ctx))
	require.Equal(t, 1, rec.cleared)

	items, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestImageRoundtrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	img := image.NewRGBA(image.Rect(0, 0, 5, 4))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	it := item.NewImage(buf.Bytes(), item.SourcePrimary)
	id, added, err := s.Upsert(ctx, it)
	require.NoError(t, err)
	require.True(t, added)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, item.TypeImage, got.Type)
	require.Equal(t, item.SourcePrimary, got.Source)
	require.Equal(t, buf.Bytes(), got.Image)
	require.Equal(t, 5, got.Width)
	require.Equal(t, 4, got.Height)
	// The persisted digest is reused, not recomputed.
	require.Equal(t, it.Digest, got.Digest)
	require.Equal(t, it.Label, got.Label)
}

func TestGetByDigestAndLatest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Latest(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	it := textItem(t, "needle")
	_, _, err = s.Upsert(ctx, it)
	require.NoError(t, err)

	got, err := s.GetByDigest(ctx, it.Digest)
	require.NoError(t, err)
	require.Equal(t, "needle", got.Text)

	_, err = s.GetByDigest(ctx, "no-such-digest")
	require.ErrorIs(t, err, ErrNotFound)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, it.Digest, latest.Digest)

	_, err = s.Get(ctx, 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	it := textItem(t, "persisted")
	_, _, err = s.Upsert(ctx, it)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	items, err := s2.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "persisted", items[0].Text)
	require.Equal(t, it.Digest, items[0].Digest)
}
