package service

import (
	"strings"
	"testing"
	"time"

	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderListStartsWithSystemFolders(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.engine.Start(h.ctx))
	_, err := h.folders.Create(h.ctx, FolderInput{Name: "Work"})
	require.NoError(t, err)
	_, err = h.folders.Create(h.ctx, FolderInput{Name: "Home", Icon: "home"})
	require.NoError(t, err)

	list, err := h.folders.List(h.ctx)
	require.NoError(t, err)
	require.Len(t, list.Folders, 4)
	assert.Equal(t, domain.FolderAllID, list.Folders[0].ID)
	assert.Equal(t, domain.FolderTrashID, list.Folders[1].ID)
	assert.Equal(t, "u1", list.Folders[0].UserID)
	assert.Equal(t, "Work", list.Folders[2].Name)
	assert.Equal(t, domain.DefaultFolderIcon, list.Folders[2].Icon)
	assert.Equal(t, "home", list.Folders[3].Icon)
	assert.False(t, list.Loading)
}

func TestFolderCreateValidation(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.engine.Start(h.ctx))

	tests := []struct {
		name string
		in   FolderInput
		ok   bool
	}{
		{"blank name", FolderInput{Name: "   "}, false},
		{"name too long", FolderInput{Name: strings.Repeat("x", 256)}, false},
		{"icon too long", FolderInput{Name: "a", Icon: strings.Repeat("i", 65)}, false},
		{"trimmed name", FolderInput{Name: "  Ideas  "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := h.folders.Create(h.ctx, tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, code.ErrorInvalidParams)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Ideas", f.Name)
		})
	}
	assert.Equal(t, 1, len(h.rFolder.rows))
}

func TestSystemFoldersAreReadOnly(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.engine.Start(h.ctx))

	_, err := h.folders.Update(h.ctx, domain.FolderTrashID, domain.FolderPatch{Name: strPtr("Bin")})
	assert.ErrorIs(t, err, code.ErrorSystemFolder)
	assert.ErrorIs(t, h.folders.Delete(h.ctx, domain.FolderAllID), code.ErrorSystemFolder)

	n, err := h.notes.Create(h.ctx, nil)
	require.NoError(t, err)
	_, err = h.notes.Update(h.ctx, n.ID, domain.MovePatch(strPtr(domain.FolderTrashID)))
	assert.ErrorIs(t, err, code.ErrorSystemFolder)
}

func TestFolderRenameOnlineAndRejected(t *testing.T) {
	h := newHarness(t, true)
	require.NoError(t, h.engine.Start(h.ctx))
	f, err := h.folders.Create(h.ctx, FolderInput{Name: "Work"})
	require.NoError(t, err)
	assert.Equal(t, "folder-1", f.ID)

	renamed, err := h.folders.Update(h.ctx, f.ID, domain.FolderPatch{Name: strPtr(" Job ")})
	require.NoError(t, err)
	assert.Equal(t, "Job", renamed.Name)
	row, _ := h.rFolder.row(f.ID)
	assert.Equal(t, "Job", row.Name)

	h.rFolder.fail(errRejected)
	_, err = h.folders.Update(h.ctx, f.ID, domain.FolderPatch{Name: strPtr("Other")})
	assert.ErrorIs(t, err, code.ErrorFolderUpdateFailed)
	list, _ := h.folders.List(h.ctx)
	assert.Equal(t, "Job", list.Folders[2].Name)
	require.Len(t, h.notices.all(), 1)

	_, err = h.folders.Update(h.ctx, "missing", domain.FolderPatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, code.ErrorFolderNotFound)
}

func TestFolderDeleteDetachesNotes(t *testing.T) {
	h := newHarness(t, true)
	h.rFolder.rows["f1"] = domain.Folder{ID: "f1", UserID: "u1", Name: "Work", CreatedAt: testEpoch}
	h.seedNote("n1", "in folder", strPtr("f1"), time.Hour)
	h.seedNote("n2", "loose", nil, 2*time.Hour)
	require.NoError(t, h.engine.Start(h.ctx))

	require.NoError(t, h.folders.Delete(h.ctx, "f1"))
	n, err := h.notes.Get(h.ctx, "n1")
	require.NoError(t, err)
	assert.Nil(t, n.FolderID)
	_, ok := h.rFolder.row("f1")
	assert.False(t, ok)
	row, _ := h.rNotes.row("n1")
	assert.Nil(t, row.FolderID)
	assert.Equal(t, 2, len(h.local.notes.GetAll(h.ctx, "u1")))
	for _, cached := range h.local.notes.GetAll(h.ctx, "u1") {
		assert.Nil(t, cached.FolderID)
	}
}

func TestFolderDeleteRollbackRestoresNotes(t *testing.T) {
	h := newHarness(t, true)
	h.rFolder.rows["f1"] = domain.Folder{ID: "f1", UserID: "u1", Name: "Work", CreatedAt: testEpoch}
	h.seedNote("n1", "in folder", strPtr("f1"), time.Hour)
	require.NoError(t, h.engine.Start(h.ctx))

	h.rFolder.fail(errOffline)
	err := h.folders.Delete(h.ctx, "f1")
	assert.ErrorIs(t, err, code.ErrorFolderDeleteFailed)
	assert.Equal(t, int32(1), h.monitor.failures.Load())

	inFolder, err := h.notes.InFolder(h.ctx, "f1")
	require.NoError(t, err)
	assert.Len(t, inFolder, 1)
	cached := h.local.notes.GetAll(h.ctx, "u1")
	require.Len(t, cached, 1)
	require.NotNil(t, cached[0].FolderID)
	assert.Equal(t, "f1", *cached[0].FolderID)
	list, _ := h.folders.List(h.ctx)
	assert.Len(t, list.Folders, 3)
}

func TestOfflineFolderCreateThenDeleteLeavesNothing(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.engine.Start(h.ctx))

	f, err := h.folders.Create(h.ctx, FolderInput{Name: "Scratch"})
	require.NoError(t, err)
	n, err := h.notes.Create(h.ctx, &f.ID)
	require.NoError(t, err)
	require.NoError(t, h.folders.Delete(h.ctx, f.ID))

	ops := h.engine.PendingOperations()
	require.Len(t, ops, 1)
	create, ok := ops[0].Change.(domain.NoteCreate)
	require.True(t, ok)
	assert.Nil(t, create.Note.FolderID, "queued note leaves the deleted folder")

	got, err := h.notes.Get(h.ctx, n.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FolderID)

	h.monitor.online.Store(true)
	res, err := h.engine.Drain(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Empty(t, h.rFolder.rows)
	assert.Equal(t, 1, h.rNotes.count())
}

func TestQueuedFolderRenameFoldsIntoCreate(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, h.engine.Start(h.ctx))
	f, err := h.folders.Create(h.ctx, FolderInput{Name: "Draft"})
	require.NoError(t, err)
	_, err = h.folders.Update(h.ctx, f.ID, domain.FolderPatch{Name: strPtr("Final")})
	require.NoError(t, err)

	ops := h.engine.PendingOperations()
	require.Len(t, ops, 1)
	assert.Equal(t, "Final", ops[0].Change.(domain.FolderCreate).Folder.Name)

	h.monitor.online.Store(true)
	_, err = h.engine.Drain(h.ctx)
	require.NoError(t, err)
	row, ok := h.rFolder.row("folder-1")
	require.True(t, ok)
	assert.Equal(t, "Final", row.Name)

	list, _ := h.folders.List(h.ctx)
	require.Len(t, list.Folders, 3)
	assert.Equal(t, "folder-1", list.Folders[2].ID)
}
