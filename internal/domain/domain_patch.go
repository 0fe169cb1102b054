package domain

import "time"

// FolderRef sets a note's folder. A nil ID moves the note out of every folder.
type FolderRef struct {
	ID *string `json:"id"`
}

// Deletion is the soft delete pair. DeletedAt is set iff IsDeleted.
type Deletion struct {
	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// NotePatch is a partial note update. Nil fields are left untouched.
// NotePatch 笔记的部分更新，nil 字段不修改
type NotePatch struct {
	Title     *string    `json:"title,omitempty"`
	Content   *string    `json:"content,omitempty"`
	Folder    *FolderRef `json:"folder,omitempty"`
	Deletion  *Deletion  `json:"deletion,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// SoftDeletePatch moves a note to the trash at the given time
func SoftDeletePatch(at time.Time) NotePatch {
	return NotePatch{Deletion: &Deletion{IsDeleted: true, DeletedAt: &at}}
}

// RestorePatch brings a note back from the trash
func RestorePatch() NotePatch {
	return NotePatch{Deletion: &Deletion{IsDeleted: false}}
}

// MovePatch sets the folder of a note, nil clears it
func MovePatch(folderID *string) NotePatch {
	return NotePatch{Folder: &FolderRef{ID: folderID}}
}

// FullNotePatch carries every user editable field of n
func FullNotePatch(n Note) NotePatch {
	title, content := n.Title, n.Content
	p := NotePatch{
		Title:    &title,
		Content:  &content,
		Folder:   &FolderRef{ID: n.FolderID},
		Deletion: &Deletion{IsDeleted: n.IsDeleted, DeletedAt: n.DeletedAt},
	}
	if n.IsDeleted && n.DeletedAt == nil {
		at := n.UpdatedAt
		p.Deletion.DeletedAt = &at
	}
	return p
}

// IsEmpty reports whether the patch changes nothing
func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Folder == nil && p.Deletion == nil && p.UpdatedAt == nil
}

// Merge returns p overlaid with next; fields set in next win
// Merge 合并补丁，next 中设置的字段优先
func (p NotePatch) Merge(next NotePatch) NotePatch {
	out := p
	if next.Title != nil {
		out.Title = next.Title
	}
	if next.Content != nil {
		out.Content = next.Content
	}
	if next.Folder != nil {
		out.Folder = next.Folder
	}
	if next.Deletion != nil {
		out.Deletion = next.Deletion
	}
	if next.UpdatedAt != nil {
		out.UpdatedAt = next.UpdatedAt
	}
	return out
}

// Apply returns n with the patch applied
// Apply 将补丁应用到笔记上
func (p NotePatch) Apply(n Note) Note {
	out := n.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Content != nil {
		out.Content = *p.Content
	}
	if p.Folder != nil {
		out.FolderID = p.Folder.ID
	}
	if p.Deletion != nil {
		out.IsDeleted = p.Deletion.IsDeleted
		out.DeletedAt = nil
		if p.Deletion.IsDeleted {
			at := out.UpdatedAt
			if p.Deletion.DeletedAt != nil {
				at = *p.Deletion.DeletedAt
			}
			out.DeletedAt = &at
		}
	}
	if p.UpdatedAt != nil {
		out.UpdatedAt = *p.UpdatedAt
	}
	return out
}

// Columns renders the patch as a column map for the remote store
func (p NotePatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Content != nil {
		cols["content"] = *p.Content
	}
	if p.Folder != nil {
		cols["folder_id"] = p.Folder.ID
	}
	if p.Deletion != nil {
		cols["is_deleted"] = p.Deletion.IsDeleted
		if p.Deletion.IsDeleted {
			cols["deleted_at"] = p.Deletion.DeletedAt
		} else {
			cols["deleted_at"] = nil
		}
	}
	if p.UpdatedAt != nil {
		cols["updated_at"] = *p.UpdatedAt
	}
	return cols
}

// FolderPatch is a partial folder update
type FolderPatch struct {
	Name *string `json:"name,omitempty"`
	Icon *string `json:"icon,omitempty"`
}

func (p FolderPatch) IsEmpty() bool {
	return p.Name == nil && p.Icon == nil
}

func (p FolderPatch) Merge(next FolderPatch) FolderPatch {
	out := p
	if next.Name != nil {
		out.Name = next.Name
	}
	if next.Icon != nil {
		out.Icon = next.Icon
	}
	return out
}

func (p FolderPatch) Apply(f Folder) Folder {
	out := f
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Icon != nil {
		out.Icon = *p.Icon
	}
	return out
}

func (p FolderPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Icon != nil {
		cols["icon"] = *p.Icon
	}
	return cols
}
