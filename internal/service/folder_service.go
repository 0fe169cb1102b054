package service

import (
	"context"
	"strings"

	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/pkg/code"
)

// FolderList 文件夹列表与加载状态
type FolderList struct {
	Folders []domain.Folder
	Loading bool
}

// FolderInput 创建文件夹参数
type FolderInput struct {
	Name string `validate:"required,max=255"`
	Icon string `validate:"omitempty,max=64"`
}

// FolderService 文件夹门面
type FolderService interface {
	// List returns the system folders followed by user folders by creation time
	List(ctx context.Context) (FolderList, error)
	Create(ctx context.Context, in FolderInput) (domain.Folder, error)
	Update(ctx context.Context, id string, patch domain.FolderPatch) (domain.Folder, error)
	// Delete removes the folder; its notes stay and leave the folder
	Delete(ctx context.Context, id string) error
}

type folderService struct {
	e        *SyncEngine
	validate *inputValidator
}

// NewFolderService 创建文件夹服务
func NewFolderService(e *SyncEngine) FolderService {
	return &folderService{e: e, validate: newInputValidator()}
}

func (s *folderService) List(ctx context.Context) (FolderList, error) {
	uid, err := s.e.currentUser(ctx)
	if err != nil {
		return FolderList{Folders: []domain.Folder{}}, err
	}
	system := domain.SystemFolders()
	out := make([]domain.Folder, 0, len(system)+s.e.folders.len())
	for _, f := range system {
		f.UserID = uid
		out = append(out, f)
	}
	out = append(out, s.e.folders.snapshot()...)
	return FolderList{Folders: out, Loading: s.e.Loading()}, nil
}

func (s *folderService) Create(ctx context.Context, in FolderInput) (domain.Folder, error) {
	uid, err := s.e.currentUser(ctx)
	if err != nil {
		return domain.Folder{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return domain.Folder{}, err
	}
	if in.Icon == "" {
		in.Icon = domain.DefaultFolderIcon
	}

	e := s.e
	now := e.now()
	folder := domain.Folder{
		ID:        domain.NewTempID(),
		UserID:    uid,
		Name:      in.Name,
		Icon:      in.Icon,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := applyOptimistic(e.folders, folder.ID, func(domain.Folder, bool) (domain.Folder, bool, error) {
		return folder, true, nil
	})
	if err != nil {
		return domain.Folder{}, err
	}
	e.local.Folders().Put(ctx, folder, uid)

	var created *domain.Folder
	queued, err := e.commit(ctx, uid, mutation{
		change:  domain.FolderCreate{Folder: folder},
		id:      folder.ID,
		failure: code.ErrorFolderCreateFailed,
		remote: func(rctx context.Context) error {
			var err error
			created, err = e.remoteF.Create(rctx, &folder, uid)
			return err
		},
		rollback: func() {
			res.Rollback()
			e.local.Folders().Delete(ctx, folder.ID, uid)
		},
	})
	if err != nil {
		return domain.Folder{}, err
	}
	if queued {
		return folder, nil
	}

	// 创建在途期间引用临时 id 的笔记与队列操作改指服务端 id
	return e.adoptFolder(ctx, uid, folder.ID, *created), nil
}

func (s *folderService) Update(ctx context.Context, id string, patch domain.FolderPatch) (domain.Folder, error) {
	uid, err := s.e.currentUser(ctx)
	if err != nil {
		return domain.Folder{}, err
	}
	if domain.IsSystemFolderID(id) {
		return domain.Folder{}, code.ErrorSystemFolder.Clone().WithDetails(id)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := s.validate.Var(name, "required,max=255"); err != nil {
			return domain.Folder{}, err
		}
		patch.Name = &name
	}

	e := s.e
	res, err := applyOptimistic(e.folders, id, func(cur domain.Folder, found bool) (domain.Folder, bool, error) {
		if !found {
			return cur, false, code.ErrorFolderNotFound.Clone().WithDetails(id)
		}
		next := patch.Apply(cur)
		next.UpdatedAt = e.now()
		return next, true, nil
	})
	if err != nil {
		return domain.Folder{}, err
	}
	e.local.Folders().Put(ctx, res.After, uid)

	_, err = e.commit(ctx, uid, mutation{
		change:  domain.FolderUpdate{Patch: patch},
		id:      id,
		refs:    []string{id},
		failure: code.ErrorFolderUpdateFailed,
		remote: func(rctx context.Context) error {
			_, err := e.remoteF.Update(rctx, id, patch, uid)
			return err
		},
		rollback: func() {
			res.Rollback()
			e.local.Folders().Put(ctx, res.Prior, uid)
		},
	})
	if err != nil {
		return domain.Folder{}, err
	}
	return res.After, nil
}

func (s *folderService) Delete(ctx context.Context, id string) error {
	uid, err := s.e.currentUser(ctx)
	if err != nil {
		return err
	}
	if domain.IsSystemFolderID(id) {
		return code.ErrorSystemFolder.Clone().WithDetails(id)
	}

	e := s.e
	res, err := applyOptimistic(e.folders, id, func(cur domain.Folder, found bool) (domain.Folder, bool, error) {
		if !found {
			return cur, false, code.ErrorFolderNotFound.Clone().WithDetails(id)
		}
		return cur, false, nil
	})
	if err != nil {
		return err
	}
	e.local.Folders().Delete(ctx, id, uid)

	// 文件夹内的笔记移出文件夹
	detached, restoreNotes := applyEach(e.notes, func(n domain.Note) (domain.Note, bool) {
		if !n.InFolder(id) {
			return n, false
		}
		n.FolderID = nil
		return n, true
	})
	for _, n := range detached {
		e.local.Notes().Put(ctx, n, uid)
	}

	_, err = e.commit(ctx, uid, mutation{
		change:  domain.FolderDelete{},
		id:      id,
		refs:    []string{id},
		failure: code.ErrorFolderDeleteFailed,
		remote: func(rctx context.Context) error {
			return e.remoteF.Delete(rctx, id, uid)
		},
		rollback: func() {
			res.Rollback()
			restoreNotes()
			e.local.Folders().Put(ctx, res.Prior, uid)
			for _, n := range detached {
				folderID := id
				n.FolderID = &folderID
				e.local.Notes().Put(ctx, n, uid)
			}
		},
	})
	if err != nil {
		return err
	}

	// 队列中引用该文件夹的笔记操作同样移出
	e.mu.Lock()
	e.remapFolderLocked(ctx, uid, id, nil)
	e.mu.Unlock()
	return nil
}
