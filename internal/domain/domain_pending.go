package domain

import "time"

// EntityType 待同步操作的实体类型
type EntityType string

const (
	EntityNote   EntityType = "note"
	EntityFolder EntityType = "folder"
)

// Action 待同步操作类型
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change is the payload of a pending operation. The set of variants is
// closed: NoteCreate, NoteUpdate, NoteDelete, FolderCreate, FolderUpdate,
// FolderDelete.
type Change interface {
	EntityType() EntityType
	Action() Action
	change()
}

// NoteCreate carries the full note created while offline
type NoteCreate struct{ Note Note }

// NoteUpdate carries the accumulated patch of a note
type NoteUpdate struct{ Patch NotePatch }

// NoteDelete permanently deletes a note
type NoteDelete struct{}

// FolderCreate carries the full folder created while offline
type FolderCreate struct{ Folder Folder }

// FolderUpdate carries the accumulated patch of a folder
type FolderUpdate struct{ Patch FolderPatch }

// FolderDelete deletes a folder
type FolderDelete struct{}

func (NoteCreate) EntityType() EntityType   { return EntityNote }
func (NoteUpdate) EntityType() EntityType   { return EntityNote }
func (NoteDelete) EntityType() EntityType   { return EntityNote }
func (FolderCreate) EntityType() EntityType { return EntityFolder }
func (FolderUpdate) EntityType() EntityType { return EntityFolder }
func (FolderDelete) EntityType() EntityType { return EntityFolder }

func (NoteCreate) Action() Action   { return ActionCreate }
func (NoteUpdate) Action() Action   { return ActionUpdate }
func (NoteDelete) Action() Action   { return ActionDelete }
func (FolderCreate) Action() Action { return ActionCreate }
func (FolderUpdate) Action() Action { return ActionUpdate }
func (FolderDelete) Action() Action { return ActionDelete }

func (NoteCreate) change()   {}
func (NoteUpdate) change()   {}
func (NoteDelete) change()   {}
func (FolderCreate) change() {}
func (FolderUpdate) change() {}
func (FolderDelete) change() {}

// PendingOperation 待同步操作，按实体 ID 唯一
type PendingOperation struct {
	// ID 目标实体 ID
	ID     string
	UserID string
	Change Change
	// Timestamp 首次入队时间，决定重放顺序
	Timestamp time.Time
	// Revision 每次合并后递增，用于识别重放期间被改写的操作
	Revision  int
	Attempts  int
	LastError string
}

func (op PendingOperation) EntityType() EntityType { return op.Change.EntityType() }

func (op PendingOperation) Action() Action { return op.Change.Action() }

// Coalesce folds next into the operation already queued for the same
// entity. It returns the operation to store, or keep=false when both cancel
// out and nothing must be stored.
//
//	create + update → create with the patch applied
//	create + delete → nothing
//	update + update → merged update
//	update + delete → delete
//	otherwise       → next
func Coalesce(prev *PendingOperation, next PendingOperation) (op PendingOperation, keep bool) {
	if prev == nil || prev.ID != next.ID {
		return next, true
	}

	merged := next
	merged.Timestamp = prev.Timestamp
	merged.Revision = prev.Revision + 1
	merged.Attempts = 0
	merged.LastError = ""

	switch p := prev.Change.(type) {
	case NoteCreate:
		switch n := next.Change.(type) {
		case NoteUpdate:
			merged.Change = NoteCreate{Note: n.Patch.Apply(p.Note)}
			return merged, true
		case NoteDelete:
			return PendingOperation{}, false
		}
	case NoteUpdate:
		switch n := next.Change.(type) {
		case NoteUpdate:
			merged.Change = NoteUpdate{Patch: p.Patch.Merge(n.Patch)}
			return merged, true
		case NoteDelete:
			return merged, true
		}
	case FolderCreate:
		switch n := next.Change.(type) {
		case FolderUpdate:
			merged.Change = FolderCreate{Folder: n.Patch.Apply(p.Folder)}
			return merged, true
		case FolderDelete:
			return PendingOperation{}, false
		}
	case FolderUpdate:
		switch n := next.Change.(type) {
		case FolderUpdate:
			merged.Change = FolderUpdate{Patch: p.Patch.Merge(n.Patch)}
			return merged, true
		case FolderDelete:
			return merged, true
		}
	}

	next.Revision = prev.Revision + 1
	return next, true
}
