package service

import (
	"sort"

	"github.com/magnusfroste/notton/internal/domain"
)

// sortPending orders operations for replay: by first enqueue time, folders
// before notes at equal times so a note never waits on an unsent folder
func sortPending(ops []domain.PendingOperation) {
	sort.SliceStable(ops, func(i, j int) bool {
		if !ops[i].Timestamp.Equal(ops[j].Timestamp) {
			return ops[i].Timestamp.Before(ops[j].Timestamp)
		}
		if ops[i].EntityType() != ops[j].EntityType() {
			return ops[i].EntityType() == domain.EntityFolder
		}
		return ops[i].ID < ops[j].ID
	})
}

// overlayNotes applies queued operations on top of notes so offline edits
// stay visible until they are replayed
// overlayNotes 将待同步操作叠加到笔记列表上
func overlayNotes(notes []domain.Note, ops []domain.PendingOperation) []domain.Note {
	out := make([]domain.Note, 0, len(notes))
	index := make(map[string]int, len(notes))
	for _, n := range notes {
		index[n.ID] = len(out)
		out = append(out, n.Clone())
	}

	var created []domain.Note
	removed := make(map[string]bool)
	for _, op := range ops {
		switch c := op.Change.(type) {
		case domain.NoteCreate:
			if _, ok := index[op.ID]; !ok {
				created = append(created, c.Note.Clone())
			}
		case domain.NoteUpdate:
			if i, ok := index[op.ID]; ok {
				out[i] = c.Patch.Apply(out[i])
			}
		case domain.NoteDelete:
			removed[op.ID] = true
		case domain.FolderDelete:
			for i := range out {
				if out[i].InFolder(op.ID) {
					out[i].FolderID = nil
				}
			}
		}
	}

	// 离线创建的笔记排在最前，最新创建的在前
	result := make([]domain.Note, 0, len(created)+len(out))
	for i := len(created) - 1; i >= 0; i-- {
		result = append(result, created[i])
	}
	for _, n := range out {
		if !removed[n.ID] {
			result = append(result, n)
		}
	}
	return result
}

// overlayFolders 将待同步操作叠加到文件夹列表上
func overlayFolders(folders []domain.Folder, ops []domain.PendingOperation) []domain.Folder {
	out := make([]domain.Folder, 0, len(folders))
	index := make(map[string]int, len(folders))
	for _, f := range folders {
		if f.IsSystem || domain.IsSystemFolderID(f.ID) {
			continue
		}
		index[f.ID] = len(out)
		out = append(out, f)
	}

	removed := make(map[string]bool)
	for _, op := range ops {
		switch c := op.Change.(type) {
		case domain.FolderCreate:
			if _, ok := index[op.ID]; !ok {
				index[op.ID] = len(out)
				out = append(out, c.Folder)
			}
		case domain.FolderUpdate:
			if i, ok := index[op.ID]; ok {
				out[i] = c.Patch.Apply(out[i])
			}
		case domain.FolderDelete:
			removed[op.ID] = true
		}
	}

	result := out[:0]
	for _, f := range out {
		if !removed[f.ID] {
			result = append(result, f)
		}
	}
	return result
}
