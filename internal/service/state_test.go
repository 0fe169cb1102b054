package service

import (
	"testing"
	"time"

	"github.com/magnusfroste/notton/internal/domain"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noteIDs(notes []domain.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func newNotes(ids ...string) *collection[domain.Note] {
	c := newCollection(domain.NoteID, domain.Note.Clone, true)
	items := make([]domain.Note, 0, len(ids))
	for _, id := range ids {
		items = append(items, domain.NewNote(id, "u1", nil, testEpoch))
	}
	c.replace(items)
	return c
}

func TestCollectionSwap(t *testing.T) {
	tests := []struct {
		name   string
		ids    []string
		oldID  string
		newID  string
		expect []string
	}{
		{"in place", []string{"a", "temp-1", "b"}, "temp-1", "s1", []string{"a", "s1", "b"}},
		{"old id gone", []string{"a", "b"}, "temp-1", "s1", []string{"s1", "a", "b"}},
		{"server id already fetched", []string{"s1", "a", "temp-1"}, "temp-1", "s1", []string{"a", "s1"}},
		{"same id", []string{"a", "b"}, "b", "b", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newNotes(tt.ids...)
			c.swap(tt.oldID, domain.NewNote(tt.newID, "u1", nil, testEpoch))
			assert.Equal(t, tt.expect, noteIDs(c.snapshot()))
		})
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c := newNotes("a")
	snap := c.snapshot()
	snap[0].Title = "changed"
	got, ok := c.get("a")
	require.True(t, ok)
	assert.Empty(t, got.Title)
}

func TestApplyOptimisticRollback(t *testing.T) {
	t.Run("update restores prior value", func(t *testing.T) {
		c := newNotes("a", "b", "c")
		res, err := applyOptimistic(c, "b", func(cur domain.Note, found bool) (domain.Note, bool, error) {
			require.True(t, found)
			cur.Title = "edited"
			return cur, true, nil
		})
		require.NoError(t, err)
		got, _ := c.get("b")
		assert.Equal(t, "edited", got.Title)

		res.Rollback()
		got, _ = c.get("b")
		assert.Empty(t, got.Title)
	})

	t.Run("removal restores position", func(t *testing.T) {
		c := newNotes("a", "b", "c")
		res, err := applyOptimistic(c, "b", func(cur domain.Note, _ bool) (domain.Note, bool, error) {
			return cur, false, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, noteIDs(c.snapshot()))
		res.Rollback()
		assert.Equal(t, []string{"a", "b", "c"}, noteIDs(c.snapshot()))
	})

	t.Run("insert is undone", func(t *testing.T) {
		c := newNotes("a")
		res, err := applyOptimistic(c, "new", func(domain.Note, bool) (domain.Note, bool, error) {
			return domain.NewNote("new", "u1", nil, testEpoch), true, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"new", "a"}, noteIDs(c.snapshot()))
		res.Rollback()
		assert.Equal(t, []string{"a"}, noteIDs(c.snapshot()))
	})

	t.Run("mutate error changes nothing", func(t *testing.T) {
		c := newNotes("a")
		_, err := applyOptimistic(c, "a", func(cur domain.Note, _ bool) (domain.Note, bool, error) {
			return cur, false, errors.New("no")
		})
		assert.Error(t, err)
		assert.Equal(t, []string{"a"}, noteIDs(c.snapshot()))
	})
}

func TestApplyEachRollback(t *testing.T) {
	c := newCollection(domain.NoteID, domain.Note.Clone, true)
	c.replace([]domain.Note{
		domain.NewNote("a", "u1", strPtr("f1"), testEpoch),
		domain.NewNote("b", "u1", nil, testEpoch),
		domain.NewNote("c", "u1", strPtr("f1"), testEpoch),
	})
	changed, undo := applyEach(c, func(n domain.Note) (domain.Note, bool) {
		if !n.InFolder("f1") {
			return n, false
		}
		n.FolderID = nil
		return n, true
	})
	assert.Len(t, changed, 2)
	for _, n := range c.snapshot() {
		assert.Nil(t, n.FolderID)
	}
	undo()
	got, _ := c.get("c")
	require.NotNil(t, got.FolderID)
	assert.Equal(t, "f1", *got.FolderID)
}

func TestSortPending(t *testing.T) {
	t0 := testEpoch
	ops := []domain.PendingOperation{
		{ID: "n2", Change: domain.NoteDelete{}, Timestamp: t0.Add(time.Second)},
		{ID: "n1", Change: domain.NoteDelete{}, Timestamp: t0},
		{ID: "f1", Change: domain.FolderDelete{}, Timestamp: t0},
	}
	sortPending(ops)
	assert.Equal(t, []string{"f1", "n1", "n2"}, []string{ops[0].ID, ops[1].ID, ops[2].ID})
}

func TestOverlayNotes(t *testing.T) {
	cached := []domain.Note{
		domain.NewNote("a", "u1", strPtr("f1"), testEpoch),
		domain.NewNote("b", "u1", nil, testEpoch),
	}
	draft1 := domain.NewNote("temp-1", "u1", nil, testEpoch)
	draft2 := domain.NewNote("temp-2", "u1", nil, testEpoch)
	ops := []domain.PendingOperation{
		{ID: "temp-1", Change: domain.NoteCreate{Note: draft1}},
		{ID: "temp-2", Change: domain.NoteCreate{Note: draft2}},
		{ID: "b", Change: domain.NoteUpdate{Patch: domain.NotePatch{Title: strPtr("edited")}}},
		{ID: "f1", Change: domain.FolderDelete{}},
		{ID: "missing", Change: domain.NoteUpdate{Patch: domain.NotePatch{Title: strPtr("x")}}},
	}

	out := overlayNotes(cached, ops)
	assert.Equal(t, []string{"temp-2", "temp-1", "a", "b"}, noteIDs(out))
	assert.Nil(t, out[2].FolderID)
	assert.Equal(t, "edited", out[3].Title)
	assert.NotNil(t, cached[0].FolderID, "input is not modified")

	out = overlayNotes(cached, []domain.PendingOperation{{ID: "a", Change: domain.NoteDelete{}}})
	assert.Equal(t, []string{"b"}, noteIDs(out))
}

func TestOverlayFolders(t *testing.T) {
	fetched := []domain.Folder{
		{ID: domain.FolderAllID, IsSystem: true},
		{ID: "f1", Name: "Work"},
		{ID: "f2", Name: "Home"},
	}
	ops := []domain.PendingOperation{
		{ID: "f1", Change: domain.FolderUpdate{Patch: domain.FolderPatch{Name: strPtr("Job")}}},
		{ID: "f2", Change: domain.FolderDelete{}},
		{ID: "temp-f", Change: domain.FolderCreate{Folder: domain.Folder{ID: "temp-f", Name: "New"}}},
	}
	out := overlayFolders(fetched, ops)
	require.Len(t, out, 2)
	assert.Equal(t, "Job", out[0].Name)
	assert.Equal(t, "temp-f", out[1].ID)
}
