package dao

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/internal/model"
	"github.com/magnusfroste/notton/pkg/writequeue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestStore(t *testing.T) *LocalStore {
	t.Helper()
	wq := writequeue.New(nil, zap.NewNop())
	t.Cleanup(func() { _ = wq.Shutdown(context.Background()) })

	store, err := OpenLocalStore(DatabaseConfig{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "cache", "notton.db"),
	}, wq, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNotesCollection(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	notes := store.Notes()

	t0 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	folder := "f1"
	a := domain.NewNote("a", "u1", &folder, t0)
	a.Title = "first"
	b := domain.NewNote("b", "u1", nil, t0.Add(time.Hour))
	other := domain.NewNote("c", "u2", nil, t0)

	notes.Put(ctx, a, "u1")
	notes.Put(ctx, b, "u1")
	notes.Put(ctx, other, "u2")

	got := notes.GetAll(ctx, "u1")
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID, "newest first")
	assert.Equal(t, "first", got[1].Title)
	require.NotNil(t, got[1].FolderID)
	assert.Equal(t, "f1", *got[1].FolderID)
	assert.True(t, got[1].CreatedAt.Equal(t0), "timestamps are stored as given")

	a.Title = "renamed"
	notes.Put(ctx, a, "u1")
	got = notes.GetAll(ctx, "u1")
	require.Len(t, got, 2)
	assert.Equal(t, "renamed", got[1].Title)

	notes.Delete(ctx, "a", "u1")
	notes.Delete(ctx, "missing", "u1")
	assert.Len(t, notes.GetAll(ctx, "u1"), 1)

	notes.Replace(ctx, []domain.Note{a}, "u1")
	got = notes.GetAll(ctx, "u1")
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	notes.Clear(ctx, "u1")
	assert.Empty(t, notes.GetAll(ctx, "u1"))
	assert.Len(t, notes.GetAll(ctx, "u2"), 1, "other users are untouched")
}

func TestFoldersCollectionOrder(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	t0 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	store.Folders().Replace(ctx, []domain.Folder{
		{ID: "late", Name: "Late", Icon: "folder", CreatedAt: t0.Add(time.Hour), UpdatedAt: t0},
		{ID: "early", Name: "Early", Icon: "folder", CreatedAt: t0, UpdatedAt: t0},
	}, "u1")

	got := store.Folders().GetAll(ctx, "u1")
	require.Len(t, got, 2)
	assert.Equal(t, "early", got[0].ID)
	assert.Equal(t, "late", got[1].ID)
}

func TestPendingCollectionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	pending := store.Pending()

	t0 := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	title := "offline title"
	deleted := t0.Add(time.Minute)
	note := domain.NewNote("temp-1", "u1", nil, t0)
	note.Title = "draft"

	ops := []domain.PendingOperation{
		{ID: "temp-1", Change: domain.NoteCreate{Note: note}, Timestamp: t0},
		{ID: "n2", Change: domain.NoteUpdate{Patch: domain.NotePatch{Title: &title, Deletion: &domain.Deletion{IsDeleted: true, DeletedAt: &deleted}}}, Timestamp: t0.Add(time.Second), Revision: 2, Attempts: 1, LastError: "boom"},
		{ID: "n3", Change: domain.NoteDelete{}, Timestamp: t0.Add(2 * time.Second)},
		{ID: "f1", Change: domain.FolderUpdate{Patch: domain.FolderPatch{Name: &title}}, Timestamp: t0.Add(3 * time.Second)},
	}
	for _, op := range ops {
		pending.Put(ctx, op, "u1")
	}

	got := pending.GetAll(ctx, "u1")
	require.Len(t, got, len(ops))

	create, ok := got[0].Change.(domain.NoteCreate)
	require.True(t, ok)
	assert.Equal(t, "draft", create.Note.Title)

	update, ok := got[1].Change.(domain.NoteUpdate)
	require.True(t, ok)
	assert.Equal(t, title, *update.Patch.Title)
	assert.Nil(t, update.Patch.Content)
	require.NotNil(t, update.Patch.Deletion)
	assert.True(t, update.Patch.Deletion.DeletedAt.Equal(deleted))
	assert.Equal(t, 2, got[1].Revision)
	assert.Equal(t, 1, got[1].Attempts)
	assert.Equal(t, "boom", got[1].LastError)
	assert.Equal(t, "u1", got[1].UserID)

	assert.Equal(t, domain.NoteDelete{}, got[2].Change)
	assert.IsType(t, domain.FolderUpdate{}, got[3].Change)
}

func TestPendingCollectionSkipsCorruptRows(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	store.Pending().Put(ctx, domain.PendingOperation{ID: "ok", Change: domain.NoteDelete{}, Timestamp: time.Now()}, "u1")
	require.NoError(t, store.Dao().DB().Create(&model.PendingOperation{
		ID: "bad", UserID: "u1", EntityType: "tag", Action: "create", Payload: "{}", Timestamp: time.Now(),
	}).Error)

	raw, err := NewPendingCollection(store.Dao()).GetAll(ctx, "u1")
	assert.Error(t, err)
	assert.Len(t, raw, 1)

	got := store.Pending().GetAll(ctx, "u1")
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].ID)
}

func TestBestEffortSwallowsFailures(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	require.NoError(t, store.Close())

	assert.NotPanics(t, func() {
		store.Notes().Put(ctx, domain.NewNote("a", "u1", nil, time.Now()), "u1")
		store.Notes().Clear(ctx, "u1")
	})
	got := store.Notes().GetAll(ctx, "u1")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestChangeCodecRejectsUnknown(t *testing.T) {
	_, err := decodeChange(domain.EntityNote, "archive", "{}")
	assert.Error(t, err)

	_, err = pendingToModel(domain.PendingOperation{ID: "x"}, "u1")
	assert.Error(t, err)
}

func TestNewDialector(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DatabaseConfig
		wantErr bool
	}{
		{name: "sqlite needs path", cfg: DatabaseConfig{Type: "sqlite"}, wantErr: true},
		{name: "mysql", cfg: DatabaseConfig{Type: "mysql", UserName: "u", Password: "p", Host: "localhost:3306", Name: "notton"}},
		{name: "postgres dsn", cfg: DatabaseConfig{Type: "postgres", DSN: "postgres://u:p@localhost/notton"}},
		{name: "unknown", cfg: DatabaseConfig{Type: "oracle"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := newDialector(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, d)
		})
	}
	assert.Equal(t, "a.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", sqliteDSN("a.db"))
	assert.Equal(t, "a.db?mode=ro", sqliteDSN("a.db?mode=ro"))
}
