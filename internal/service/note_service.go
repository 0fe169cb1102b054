package service

import (
	"context"

	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/pkg/code"

	"github.com/sahilm/fuzzy"
)

// NoteList 笔记列表与加载状态
type NoteList struct {
	Notes   []domain.Note
	Loading bool
}

// NoteService 笔记门面，供界面层使用
type NoteService interface {
	// List 返回当前内存中的全部笔记
	List(ctx context.Context) (NoteList, error)
	// InFolder filters by folder: "all" is every live note, "trash" every
	// soft-deleted note, any other id the live notes of that folder
	InFolder(ctx context.Context, folderID string) ([]domain.Note, error)
	// Search 按标题模糊搜索未删除的笔记
	Search(ctx context.Context, query string) ([]domain.Note, error)
	Get(ctx context.Context, id string) (domain.Note, error)
	// Create 创建空白笔记，folderID 为 nil 或系统文件夹时不归属任何文件夹
	Create(ctx context.Context, folderID *string) (domain.Note, error)
	// Import 以给定标题与内容创建笔记
	Import(ctx context.Context, title, content string, folderID *string) (domain.Note, error)
	Update(ctx context.Context, id string, patch domain.NotePatch) (domain.Note, error)
	// SoftDelete 移入回收站
	SoftDelete(ctx context.Context, id string) (domain.Note, error)
	// Restore 从回收站恢复
	Restore(ctx context.Context, id string) (domain.Note, error)
	// PermanentDelete 永久删除
	PermanentDelete(ctx context.Context, id string) error
}

type noteService struct {
	e *SyncEngine
}

// NewNoteService 创建笔记服务
func NewNoteService(e *SyncEngine) NoteService {
	return &noteService{e: e}
}

func (s *noteService) List(ctx context.Context) (NoteList, error) {
	if _, err := s.e.currentUser(ctx); err != nil {
		return NoteList{Notes: []domain.Note{}}, err
	}
	return NoteList{Notes: s.e.notes.snapshot(), Loading: s.e.Loading()}, nil
}

func (s *noteService) InFolder(ctx context.Context, folderID string) ([]domain.Note, error) {
	if _, err := s.e.currentUser(ctx); err != nil {
		return nil, err
	}
	out := []domain.Note{}
	for _, n := range s.e.notes.snapshot() {
		var match bool
		switch folderID {
		case domain.FolderAllID:
			match = !n.IsDeleted
		case domain.FolderTrashID:
			match = n.IsDeleted
		default:
			match = !n.IsDeleted && n.InFolder(folderID)
		}
		if match {
			out = append(out, n)
		}
	}
	return out, nil
}

// noteTitles adapts notes to fuzzy.Source
type noteTitles []domain.Note

func (t noteTitles) String(i int) string { return t[i].Title }

func (t noteTitles) Len() int { return len(t) }

func (s *noteService) Search(ctx context.Context, query string) ([]domain.Note, error) {
	live, err := s.InFolder(ctx, domain.FolderAllID)
	if err != nil || query == "" {
		return live, err
	}
	matches := fuzzy.FindFrom(query, noteTitles(live))
	out := make([]domain.Note, 0, len(matches))
	for _, m := range matches {
		out = append(out, live[m.Index])
	}
	return out, nil
}

func (s *noteService) Get(ctx context.Context, id string) (domain.Note, error) {
	if _, err := s.e.currentUser(ctx); err != nil {
		return domain.Note{}, err
	}
	n, ok := s.e.notes.get(id)
	if !ok {
		return domain.Note{}, code.ErrorNoteNotFound.Clone().WithDetails(id)
	}
	return n, nil
}

func (s *noteService) Create(ctx context.Context, folderID *string) (domain.Note, error) {
	uid, err := s.e.currentUser(ctx)
	if err != nil {
		return domain.Note{}, err
	}
	note := domain.NewNote(domain.NewTempID(), uid, s.e.resolveID(userFolder(folderID)), s.e.now())
	return s.create(ctx, uid, note, code.ErrorNoteCreateFailed)
}

func (s *noteService) Import(ctx context.Context, title, content string, folderID *string) (domain.Note, error) {
	uid, err := s.e.currentUser(ctx)
	if err != nil {
		return domain.Note{}, err
	}
	note := domain.NewNote(domain.NewTempID(), uid, s.e.resolveID(userFolder(folderID)), s.e.now())
	note.Title = title
	note.Content = content
	return s.create(ctx, uid, note, code.ErrorNoteImportFailed)
}

// userFolder maps system folder views to no folder
func userFolder(id *string) *string {
	if id == nil || *id == "" || domain.IsSystemFolderID(*id) {
		return nil
	}
	return cloneID(id)
}

func (s *noteService) create(ctx context.Context, uid string, note domain.Note, failure *code.Code) (domain.Note, error) {
	e := s.e
	res, err := applyOptimistic(e.notes, note.ID, func(domain.Note, bool) (domain.Note, bool, error) {
		return note, true, nil
	})
	if err != nil {
		return domain.Note{}, err
	}
	e.local.Notes().Put(ctx, note, uid)

	var created *domain.Note
	queued, err := e.commit(ctx, uid, mutation{
		change:  domain.NoteCreate{Note: note},
		id:      note.ID,
		refs:    folderRefs(note.FolderID),
		failure: failure,
		remote: func(rctx context.Context) error {
			var err error
			created, err = e.remoteN.Create(rctx, &note, uid)
			return err
		},
		rollback: func() {
			res.Rollback()
			e.local.Notes().Delete(ctx, note.ID, uid)
		},
	})
	if err != nil {
		return domain.Note{}, err
	}
	if queued {
		return note, nil
	}

	// 创建在途期间的修改随 id 迁移到服务端 id
	return e.adoptNote(ctx, uid, note.ID, *created), nil
}

func folderRefs(id *string) []string {
	if id == nil {
		return nil
	}
	return []string{*id}
}

func (s *noteService) Update(ctx context.Context, id string, patch domain.NotePatch) (domain.Note, error) {
	uid, err := s.e.currentUser(ctx)
	if err != nil {
		return domain.Note{}, err
	}
	if f := patch.Folder; f != nil && f.ID != nil && domain.IsSystemFolderID(*f.ID) {
		return domain.Note{}, code.ErrorSystemFolder.Clone().WithDetails(*f.ID)
	}
	if f := patch.Folder; f != nil && f.ID != nil {
		patch.Folder = &domain.FolderRef{ID: s.e.resolveID(f.ID)}
	}
	return s.update(ctx, uid, id, patch, code.ErrorNoteUpdateFailed)
}

func (s *noteService) SoftDelete(ctx context.Context, id string) (domain.Note, error) {
	uid, err := s.e.currentUser(ctx)
	if err != nil {
		return domain.Note{}, err
	}
	return s.update(ctx, uid, id, domain.SoftDeletePatch(s.e.now()), code.ErrorNoteDeleteFailed)
}

func (s *noteService) Restore(ctx context.Context, id string) (domain.Note, error) {
	uid, err := s.e.currentUser(ctx)
	if err != nil {
		return domain.Note{}, err
	}
	return s.update(ctx, uid, id, domain.RestorePatch(), code.ErrorNoteRestoreFailed)
}

// update stamps updated_at, applies patch optimistically and commits it
func (s *noteService) update(ctx context.Context, uid, id string, patch domain.NotePatch, failure *code.Code) (domain.Note, error) {
	e := s.e
	now := e.now()
	patch.UpdatedAt = &now

	res, err := applyOptimistic(e.notes, id, func(cur domain.Note, found bool) (domain.Note, bool, error) {
		if !found {
			return cur, false, code.ErrorNoteNotFound.Clone().WithDetails(id)
		}
		return patch.Apply(cur), true, nil
	})
	if err != nil {
		return domain.Note{}, err
	}
	e.local.Notes().Put(ctx, res.After, uid)

	refs := []string{id}
	if patch.Folder != nil && patch.Folder.ID != nil {
		refs = append(refs, *patch.Folder.ID)
	}
	_, err = e.commit(ctx, uid, mutation{
		change:  domain.NoteUpdate{Patch: patch},
		id:      id,
		refs:    refs,
		failure: failure,
		remote: func(rctx context.Context) error {
			_, err := e.remoteN.Update(rctx, id, patch, uid)
			return err
		},
		rollback: func() {
			res.Rollback()
			e.local.Notes().Put(ctx, res.Prior, uid)
		},
	})
	if err != nil {
		return domain.Note{}, err
	}
	return res.After, nil
}

func (s *noteService) PermanentDelete(ctx context.Context, id string) error {
	uid, err := s.e.currentUser(ctx)
	if err != nil {
		return err
	}
	e := s.e

	res, err := applyOptimistic(e.notes, id, func(cur domain.Note, found bool) (domain.Note, bool, error) {
		if !found {
			return cur, false, code.ErrorNoteNotFound.Clone().WithDetails(id)
		}
		return cur, false, nil
	})
	if err != nil {
		return err
	}
	e.local.Notes().Delete(ctx, id, uid)

	_, err = e.commit(ctx, uid, mutation{
		change:  domain.NoteDelete{},
		id:      id,
		refs:    []string{id},
		failure: code.ErrorNoteDeleteFailed,
		remote: func(rctx context.Context) error {
			return e.remoteN.Delete(rctx, id, uid)
		},
		rollback: func() {
			res.Rollback()
			e.local.Notes().Put(ctx, res.Prior, uid)
		},
	})
	return err
}
