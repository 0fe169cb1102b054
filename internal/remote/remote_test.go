package remote

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/magnusfroste/notton/internal/dao"
	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/internal/model"
	"github.com/magnusfroste/notton/pkg/code"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(dao.DatabaseConfig{
		Type:        "sqlite",
		Path:        filepath.Join(t.TempDir(), "remote.db"),
		AutoMigrate: true,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNoteRepository(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	require.NoError(t, s.Ping(ctx))

	draft := domain.NewNote("temp-1", "u1", nil, time.Now())
	draft.Title = "hello"
	created, err := s.Notes.Create(ctx, &draft, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, "temp-1", created.ID)
	assert.False(t, domain.IsTempID(created.ID))
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, "hello", created.Title)

	_, err = s.Notes.Create(ctx, &domain.Note{Title: "other user"}, "u2")
	require.NoError(t, err)

	list, err := s.Notes.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	body := "body"
	updated, err := s.Notes.Update(ctx, created.ID, domain.NotePatch{Content: &body}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Title)
	assert.Equal(t, "body", updated.Content)

	at := time.Now().UTC()
	trashed, err := s.Notes.Update(ctx, created.ID, domain.SoftDeletePatch(at), "u1")
	require.NoError(t, err)
	assert.True(t, trashed.IsDeleted)
	assert.NotNil(t, trashed.DeletedAt)

	restored, err := s.Notes.Update(ctx, created.ID, domain.RestorePatch(), "u1")
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Nil(t, restored.DeletedAt)

	_, err = s.Notes.Update(ctx, created.ID, domain.NotePatch{Content: &body}, "u2")
	assert.ErrorIs(t, err, code.ErrorNoteNotFound, "rows are scoped by user")
	assert.False(t, domain.IsUnreachable(err))

	require.NoError(t, s.Notes.Delete(ctx, created.ID, "u1"))
	require.NoError(t, s.Notes.Delete(ctx, created.ID, "u1"), "deleting a missing note succeeds")
	list, err = s.Notes.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFolderDeleteDetachesNotes(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	folder, err := s.Folders.Create(ctx, &domain.Folder{Name: "Work"}, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFolderIcon, folder.Icon)

	note, err := s.Notes.Create(ctx, &domain.Note{Title: "in folder", FolderID: &folder.ID}, "u1")
	require.NoError(t, err)
	require.NotNil(t, note.FolderID)

	name := "Projects"
	renamed, err := s.Folders.Update(ctx, folder.ID, domain.FolderPatch{Name: &name}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Projects", renamed.Name)

	require.NoError(t, s.Folders.Delete(ctx, folder.ID, "u1"))

	folders, err := s.Folders.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, folders)

	notes, err := s.Notes.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Nil(t, notes[0].FolderID)

	_, err = s.Folders.Update(ctx, folder.ID, domain.FolderPatch{Name: &name}, "u1")
	assert.ErrorIs(t, err, code.ErrorFolderNotFound)
}

func TestIsUnreachable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "bad conn", err: driver.ErrBadConn, want: true},
		{name: "net error", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: true},
		{name: "pg connection failure", err: &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, want: true},
		{name: "pg admin shutdown", err: &pgconn.PgError{Code: pgerrcode.AdminShutdown}, want: true},
		{name: "pg unique violation", err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, want: false},
		{name: "plain", err: errors.New("constraint failed"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnreachable(tt.err))
			assert.Equal(t, tt.want, domain.IsUnreachable(wrapError("op", tt.err)))
		})
	}
	assert.NoError(t, wrapError("op", nil))
}

func TestToDomainCopiesRow(t *testing.T) {
	folder := "f1"
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	row := &model.Note{
		ID: "n1", UserID: "u1", Title: "t", Content: "c",
		FolderID: &folder, IsDeleted: true, DeletedAt: &at, CreatedAt: at, UpdatedAt: at,
	}

	n, err := toDomain[domain.Note](row)
	require.NoError(t, err)
	assert.Equal(t, domain.Note{
		ID: "n1", UserID: "u1", Title: "t", Content: "c",
		FolderID: &folder, IsDeleted: true, DeletedAt: &at, CreatedAt: at, UpdatedAt: at,
	}, *n)

	folder = "changed"
	assert.Equal(t, "f1", *n.FolderID, "pointer fields are not shared with the row")
}
