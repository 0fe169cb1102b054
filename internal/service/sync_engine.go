// Package service holds the in-memory note and folder state, the
// optimistic mutation layer, the sync engine that replays queued offline
// operations, and the note and folder facades built on them.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/magnusfroste/notton/internal/connectivity"
	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/internal/metrics"
	"github.com/magnusfroste/notton/pkg/code"
	"github.com/magnusfroste/notton/pkg/logger"

	"github.com/juju/ratelimit"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SyncConfig 同步引擎配置
type SyncConfig struct {
	// RemoteTimeout bounds every remote call, default 20s
	RemoteTimeout time.Duration
	// DrainRate paces replayed operations per second, 0 = unpaced
	DrainRate float64
	// DrainNoticeAfter notifies once when an operation has failed that many
	// times, 0 = never
	DrainNoticeAfter int
}

// Monitor is the connectivity source of the engine
type Monitor interface {
	Online() bool
	Subscribe() (<-chan connectivity.Event, func())
	ReportFailure(err error)
}

// Submitter runs background jobs, implemented by workerpool.Pool
type Submitter interface {
	SubmitAsync(ctx context.Context, fn func(context.Context) error) error
}

// Dependencies of the sync engine. Submitter, Notifier, Metrics and Logger
// are optional.
type Dependencies struct {
	Auth      domain.AuthProvider
	Local     domain.LocalStore
	Notes     domain.RemoteNoteRepository
	Folders   domain.RemoteFolderRepository
	Monitor   Monitor
	Notifier  Notifier
	Submitter Submitter
	Metrics   *metrics.Collector
	Logger    *zap.Logger
}

// DrainResult 一次队列重放的结果
type DrainResult struct {
	// Skipped is set when another drain was running or no user is signed in
	Skipped   bool
	Attempted int
	Succeeded int
	Failed    int
}

// SyncEngine owns the in-memory state and the pending operation queue
// SyncEngine 同步引擎
type SyncEngine struct {
	cfg       SyncConfig
	auth      domain.AuthProvider
	local     domain.LocalStore
	remoteN   domain.RemoteNoteRepository
	remoteF   domain.RemoteFolderRepository
	monitor   Monitor
	notifier  Notifier
	submitter Submitter
	metrics   *metrics.Collector
	logger    *zap.Logger
	limiter   *ratelimit.Bucket
	now       func() time.Time

	notes   *collection[domain.Note]
	folders *collection[domain.Folder]

	// mu guards uid, pending and adopted
	mu      sync.Mutex
	uid     string
	pending map[string]domain.PendingOperation
	// adopted maps temporary ids to the server ids that replaced them
	adopted map[string]string

	draining      atomic.Bool
	flight        singleflight.Group
	notesLoaded   atomic.Bool
	foldersLoaded atomic.Bool
	synced        atomic.Bool
	started       atomic.Bool
	staleNotified atomic.Bool

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
}

// NewSyncEngine 创建同步引擎
func NewSyncEngine(deps Dependencies, cfg SyncConfig) (*SyncEngine, error) {
	switch {
	case deps.Auth == nil:
		return nil, errors.New("auth provider is required")
	case deps.Local == nil:
		return nil, errors.New("local store is required")
	case deps.Notes == nil || deps.Folders == nil:
		return nil, errors.New("remote repositories are required")
	case deps.Monitor == nil:
		return nil, errors.New("connectivity monitor is required")
	}
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = 20 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = NewLogNotifier(deps.Logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &SyncEngine{
		cfg:       cfg,
		auth:      deps.Auth,
		local:     deps.Local,
		remoteN:   deps.Notes,
		remoteF:   deps.Folders,
		monitor:   deps.Monitor,
		notifier:  deps.Notifier,
		submitter: deps.Submitter,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       func() time.Time { return time.Now().UTC() },
		notes:     newCollection(domain.NoteID, domain.Note.Clone, true),
		folders:   newCollection(domain.FolderID, domain.Folder.Clone, false),
		pending:   make(map[string]domain.PendingOperation),
		adopted:   make(map[string]string),
		ctx:       ctx,
		cancel:    cancel,
	}
	if cfg.DrainRate > 0 {
		e.limiter = ratelimit.NewBucketWithRate(cfg.DrainRate, 1)
	}
	e.metrics.SetOnline(e.monitor.Online())
	return e, nil
}

// Start hydrates state from the local store and, when online, refreshes
// from the remote store and drains the queue once in the background
func (e *SyncEngine) Start(ctx context.Context) error {
	events, unsubscribe := e.monitor.Subscribe()
	e.unsubscribe = unsubscribe
	e.wg.Add(1)
	go e.watch(events)

	uid, err := e.currentUser(ctx)
	e.started.Store(true)
	if err != nil {
		e.logger.Info("sync engine started without a signed-in user")
		e.openGate()
		return nil
	}
	e.logger.Info("sync engine started",
		zap.String(logger.FieldUID, uid),
		zap.Int(logger.FieldCount, e.PendingCount()),
		zap.Bool(logger.FieldOnline, e.monitor.Online()))

	e.syncAfterHydrate()
	return nil
}

// syncAfterHydrate fetches fresh data for the hydrated user, or opens the
// loading gate when offline since the cache is then the only source
func (e *SyncEngine) syncAfterHydrate() {
	if !e.monitor.Online() {
		e.openGate()
		return
	}
	e.submit(e.initialSync)
}

func (e *SyncEngine) initialSync(ctx context.Context) error {
	if err := e.Refresh(ctx); err != nil {
		return err
	}
	_, err := e.Drain(ctx)
	return err
}

func (e *SyncEngine) watch(events <-chan connectivity.Event) {
	defer e.wg.Done()
	for ev := range events {
		e.metrics.SetOnline(ev.Online)
		if !ev.Online {
			continue
		}
		if e.synced.Load() {
			e.TriggerDrain()
		} else {
			e.submit(e.initialSync)
		}
	}
}

// Stop ends the connectivity subscription and cancels background jobs
func (e *SyncEngine) Stop() {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	e.cancel()
	e.wg.Wait()
}

// TriggerDrain schedules a drain in the background
func (e *SyncEngine) TriggerDrain() {
	e.submit(func(ctx context.Context) error {
		_, err := e.Drain(ctx)
		return err
	})
}

func (e *SyncEngine) submit(fn func(context.Context) error) {
	if e.ctx.Err() != nil {
		return
	}
	if e.submitter != nil {
		if err := e.submitter.SubmitAsync(e.ctx, fn); err != nil {
			e.logger.Warn("submit sync job failed", zap.Error(err))
		}
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		_ = fn(e.ctx)
	}()
}

// Loading is true until both collections were fetched once
func (e *SyncEngine) Loading() bool {
	return !(e.notesLoaded.Load() && e.foldersLoaded.Load())
}

func (e *SyncEngine) openGate() {
	e.notesLoaded.Store(true)
	e.foldersLoaded.Store(true)
}

// currentUser returns the signed-in user id and hydrates the state of that
// user when it changed
func (e *SyncEngine) currentUser(ctx context.Context) (string, error) {
	u, err := e.auth.CurrentUser(ctx)
	if err != nil {
		return "", code.ErrorUserNotReady.Clone().WithCause(err)
	}
	if u == nil || u.ID == "" {
		return "", code.ErrorUserNotReady
	}

	e.mu.Lock()
	same := e.uid == u.ID
	e.mu.Unlock()
	if !same {
		e.hydrate(ctx, u.ID)
		if e.started.Load() {
			e.syncAfterHydrate()
		}
	}
	return u.ID, nil
}

func (e *SyncEngine) currentUID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.uid
}

// hydrate loads the cached collections and the queue of uid
func (e *SyncEngine) hydrate(ctx context.Context, uid string) {
	notes := e.local.Notes().GetAll(ctx, uid)
	folders := e.local.Folders().GetAll(ctx, uid)
	ops := e.local.Pending().GetAll(ctx, uid)

	e.mu.Lock()
	e.uid = uid
	e.pending = make(map[string]domain.PendingOperation, len(ops))
	e.adopted = make(map[string]string)
	for _, op := range ops {
		op.UserID = uid
		e.pending[op.ID] = op
	}
	e.mu.Unlock()

	// 缓存的读取顺序不保证展示顺序
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].UpdatedAt.After(notes[j].UpdatedAt) })
	sort.SliceStable(folders, func(i, j int) bool { return folders[i].CreatedAt.Before(folders[j].CreatedAt) })
	sortPending(ops)
	e.notes.replace(overlayNotes(notes, ops))
	e.folders.replace(overlayFolders(folders, ops))
	e.notesLoaded.Store(false)
	e.foldersLoaded.Store(false)
	e.synced.Store(false)
	e.metrics.SetPending(len(ops))

	e.logger.Debug("state hydrated from local store",
		zap.String(logger.FieldUID, uid),
		zap.Int("notes", len(notes)),
		zap.Int("folders", len(folders)),
		zap.Int("pending", len(ops)))
}

// Refresh replaces cache and state with the remote collections. Concurrent
// calls share one fetch.
// Refresh 从远端拉取最新数据
func (e *SyncEngine) Refresh(ctx context.Context) error {
	uid, err := e.currentUser(ctx)
	if err != nil {
		return err
	}
	_, err, _ = e.flight.Do(uid, func() (interface{}, error) {
		return nil, e.refresh(ctx, uid)
	})
	return err
}

func (e *SyncEngine) refresh(ctx context.Context, uid string) error {
	var errs error

	nctx, cancel := e.remoteContext(ctx)
	notes, err := e.remoteN.List(nctx, uid)
	cancel()
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if e.currentUID() == uid {
		e.local.Notes().Replace(ctx, notes, uid)
		e.notes.replace(overlayNotes(notes, e.pendingOps()))
	}
	e.notesLoaded.Store(true)

	fctx, cancel := e.remoteContext(ctx)
	folders, err := e.remoteF.List(fctx, uid)
	cancel()
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if e.currentUID() == uid {
		e.local.Folders().Replace(ctx, folders, uid)
		e.folders.replace(overlayFolders(folders, e.pendingOps()))
	}
	e.foldersLoaded.Store(true)

	e.metrics.Refresh(errs == nil)
	if errs != nil {
		e.reportFailure(errs)
		e.logger.Warn("refresh failed, keeping cached data",
			zap.String(logger.FieldUID, uid), zap.Error(errs))
		if e.staleNotified.CompareAndSwap(false, true) {
			e.notify(Notice{Code: code.NoticeUsingCachedData.Clone().WithCause(errs), Err: errs})
		}
		return errs
	}
	e.staleNotified.Store(false)
	e.synced.Store(true)
	return nil
}

// Drain replays the queue against the remote store. It never runs
// concurrently with itself: an overlapping call returns Skipped.
// Drain 重放待同步队列
func (e *SyncEngine) Drain(ctx context.Context) (DrainResult, error) {
	if !e.draining.CompareAndSwap(false, true) {
		e.metrics.Drain(true)
		return DrainResult{Skipped: true}, nil
	}
	defer e.draining.Store(false)

	uid, err := e.currentUser(ctx)
	if err != nil {
		return DrainResult{Skipped: true}, nil
	}

	ops := e.pendingOps()
	if len(ops) == 0 {
		return DrainResult{}, nil
	}
	e.metrics.Drain(false)
	start := time.Now()

	var res DrainResult
	for _, queued := range ops {
		if err := e.pace(ctx); err != nil {
			break
		}
		// 之前的重放可能改写了后续操作（如临时文件夹 ID）
		op, ok := e.pendingOp(queued.ID)
		if !ok {
			continue
		}

		res.Attempted++
		err := e.replay(ctx, uid, op)
		e.metrics.Replay(string(op.EntityType()), string(op.Action()), err == nil)
		if err != nil {
			res.Failed++
			e.reportFailure(err)
			e.markFailed(ctx, uid, op, err)
			continue
		}
		res.Succeeded++
	}

	e.logger.Info("pending queue drained",
		zap.String(logger.FieldUID, uid),
		zap.Int("attempted", res.Attempted),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
		zap.Duration(logger.FieldDuration, time.Since(start)))

	if res.Succeeded > 0 {
		_ = e.Refresh(ctx)
	}
	return res, ctx.Err()
}

func (e *SyncEngine) pace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.limiter == nil {
		return nil
	}
	wait := e.limiter.Take(1)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var (
	errWaitingForFolder = errors.New("folder is not synced yet")
	errWaitingForCreate = errors.New("entity is still being created")
)

// replay dispatches one operation to the matching remote call
func (e *SyncEngine) replay(ctx context.Context, uid string, op domain.PendingOperation) error {
	rctx, cancel := e.remoteContext(ctx)
	defer cancel()

	// 临时 id 上的修改需等待在途的创建返回服务端 id
	switch op.Change.(type) {
	case domain.NoteUpdate, domain.NoteDelete, domain.FolderUpdate, domain.FolderDelete:
		if domain.IsTempID(op.ID) {
			return errWaitingForCreate
		}
	}

	switch c := op.Change.(type) {
	case domain.NoteCreate:
		if c.Note.FolderID != nil && domain.IsTempID(*c.Note.FolderID) {
			return errWaitingForFolder
		}
		created, err := e.remoteN.Create(rctx, &c.Note, uid)
		if err != nil {
			return err
		}
		e.settleNoteCreate(ctx, uid, op, *created)
	case domain.NoteUpdate:
		if f := c.Patch.Folder; f != nil && f.ID != nil && domain.IsTempID(*f.ID) {
			return errWaitingForFolder
		}
		if _, err := e.remoteN.Update(rctx, op.ID, c.Patch, uid); err != nil {
			return err
		}
		e.settle(ctx, uid, op)
	case domain.NoteDelete:
		if err := e.remoteN.Delete(rctx, op.ID, uid); err != nil {
			return err
		}
		e.settle(ctx, uid, op)
	case domain.FolderCreate:
		created, err := e.remoteF.Create(rctx, &c.Folder, uid)
		if err != nil {
			return err
		}
		e.settleFolderCreate(ctx, uid, op, *created)
	case domain.FolderUpdate:
		if _, err := e.remoteF.Update(rctx, op.ID, c.Patch, uid); err != nil {
			return err
		}
		e.settle(ctx, uid, op)
	case domain.FolderDelete:
		if err := e.remoteF.Delete(rctx, op.ID, uid); err != nil {
			return err
		}
		e.settle(ctx, uid, op)
	default:
		return code.ErrorUnknownChange.Clone().WithDetails(fmt.Sprintf("%T", op.Change))
	}
	return nil
}

// settle removes a replayed operation unless it was merged with a newer
// change while the remote call was in flight
func (e *SyncEngine) settle(ctx context.Context, uid string, op domain.PendingOperation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, ok := e.pending[op.ID]
	if !ok || cur.Revision != op.Revision {
		return
	}
	delete(e.pending, op.ID)
	e.local.Pending().Delete(ctx, op.ID, uid)
	e.metrics.SetPending(len(e.pending))
}

// settleNoteCreate moves a replayed create from its temporary id to the
// server id in queue, state and cache
func (e *SyncEngine) settleNoteCreate(ctx context.Context, uid string, op domain.PendingOperation, created domain.Note) {
	e.mu.Lock()
	e.adopted[op.ID] = created.ID
	cur, ok := e.pending[op.ID]
	delete(e.pending, op.ID)
	e.local.Pending().Delete(ctx, op.ID, uid)

	visible := created
	switch {
	case !ok:
		// 重放期间被删除，远端需要补一次删除
		e.putPendingLocked(ctx, uid, domain.PendingOperation{
			ID: created.ID, UserID: uid, Change: domain.NoteDelete{}, Timestamp: e.now(),
		})
	case cur.Revision != op.Revision:
		if c, isCreate := cur.Change.(domain.NoteCreate); isCreate {
			cur.ID = created.ID
			cur.Change = domain.NoteUpdate{Patch: domain.FullNotePatch(c.Note)}
			cur.Attempts = 0
			e.putPendingLocked(ctx, uid, cur)
			visible = c.Note
			visible.ID = created.ID
			visible.CreatedAt = created.CreatedAt
		}
	}
	e.metrics.SetPending(len(e.pending))
	e.mu.Unlock()

	if !ok {
		e.notes.remove(op.ID)
		e.local.Notes().Delete(ctx, op.ID, uid)
		return
	}
	e.notes.swap(op.ID, visible)
	e.local.Notes().Delete(ctx, op.ID, uid)
	e.local.Notes().Put(ctx, visible, uid)
}

// settleFolderCreate moves a replayed folder create to the server id and
// points queued note operations and notes at the new id
func (e *SyncEngine) settleFolderCreate(ctx context.Context, uid string, op domain.PendingOperation, created domain.Folder) {
	tempID, serverID := op.ID, created.ID

	e.mu.Lock()
	e.adopted[tempID] = serverID
	cur, ok := e.pending[tempID]
	delete(e.pending, tempID)
	e.local.Pending().Delete(ctx, tempID, uid)

	visible := created
	switch {
	case !ok:
		e.putPendingLocked(ctx, uid, domain.PendingOperation{
			ID: serverID, UserID: uid, Change: domain.FolderDelete{}, Timestamp: e.now(),
		})
	case cur.Revision != op.Revision:
		if c, isCreate := cur.Change.(domain.FolderCreate); isCreate {
			name, icon := c.Folder.Name, c.Folder.Icon
			cur.ID = serverID
			cur.Change = domain.FolderUpdate{Patch: domain.FolderPatch{Name: &name, Icon: &icon}}
			cur.Attempts = 0
			e.putPendingLocked(ctx, uid, cur)
			visible = c.Folder
			visible.ID = serverID
			visible.CreatedAt = created.CreatedAt
		}
	}
	e.remapFolderLocked(ctx, uid, tempID, &serverID)
	e.metrics.SetPending(len(e.pending))
	e.mu.Unlock()

	if ok {
		e.folders.swap(tempID, visible)
		e.local.Folders().Put(ctx, visible, uid)
	} else {
		e.folders.remove(tempID)
	}
	e.local.Folders().Delete(ctx, tempID, uid)

	target := &serverID
	if !ok {
		target = nil
	}
	e.repointNotes(ctx, uid, tempID, target)
}

// repointNotes moves notes of folder from into folder to; a nil to detaches
// them
func (e *SyncEngine) repointNotes(ctx context.Context, uid, from string, to *string) {
	changed, _ := applyEach(e.notes, func(n domain.Note) (domain.Note, bool) {
		if !n.InFolder(from) {
			return n, false
		}
		n.FolderID = cloneID(to)
		return n, true
	})
	for _, n := range changed {
		e.local.Notes().Put(ctx, n, uid)
	}
}

// adoptNote moves a note created online from its temporary id to the
// server id. A change queued for the temporary id while the create was in
// flight follows it to the server id and stays visible.
func (e *SyncEngine) adoptNote(ctx context.Context, uid, tempID string, created domain.Note) domain.Note {
	e.mu.Lock()
	cur, queued := e.rekeyLocked(ctx, uid, tempID, created.ID)
	visible := created
	deleted := false
	if queued {
		switch c := cur.Change.(type) {
		case domain.NoteUpdate:
			visible = c.Patch.Apply(created)
		case domain.NoteDelete:
			deleted = true
		}
	}
	if deleted {
		e.notes.remove(tempID)
	} else {
		e.notes.swap(tempID, visible)
		e.local.Notes().Put(ctx, visible, uid)
	}
	e.local.Notes().Delete(ctx, tempID, uid)
	e.mu.Unlock()

	if queued {
		e.TriggerDrain()
	}
	return visible
}

// adoptFolder is adoptNote for folders. Queued note operations and notes
// that reference the temporary folder id are pointed at the server id.
func (e *SyncEngine) adoptFolder(ctx context.Context, uid, tempID string, created domain.Folder) domain.Folder {
	serverID := created.ID

	e.mu.Lock()
	cur, queued := e.rekeyLocked(ctx, uid, tempID, serverID)
	visible := created
	target := &serverID
	if queued {
		switch c := cur.Change.(type) {
		case domain.FolderUpdate:
			visible = c.Patch.Apply(created)
		case domain.FolderDelete:
			target = nil
		}
	}
	e.remapFolderLocked(ctx, uid, tempID, target)

	if target == nil {
		e.folders.remove(tempID)
	} else {
		e.folders.swap(tempID, visible)
		e.local.Folders().Put(ctx, visible, uid)
	}
	e.local.Folders().Delete(ctx, tempID, uid)
	e.repointNotes(ctx, uid, tempID, target)
	retry := len(e.pending) > 0
	e.mu.Unlock()

	if retry {
		e.TriggerDrain()
	}
	return visible
}

// rekeyLocked records that from was replaced by to and moves the operation
// queued under from, if any, to to. Caller holds e.mu.
func (e *SyncEngine) rekeyLocked(ctx context.Context, uid, from, to string) (domain.PendingOperation, bool) {
	e.adopted[from] = to
	op, ok := e.pending[from]
	if !ok {
		return op, false
	}
	delete(e.pending, from)
	e.local.Pending().Delete(ctx, from, uid)

	op.ID = to
	op.Attempts = 0
	op.LastError = ""
	e.putPendingLocked(ctx, uid, op)
	e.metrics.SetPending(len(e.pending))
	return op, true
}

// resolveLocked rewrites temporary ids in op that were already replaced by
// server ids. Caller holds e.mu.
func (e *SyncEngine) resolveLocked(op domain.PendingOperation) domain.PendingOperation {
	if to, ok := e.adopted[op.ID]; ok {
		op.ID = to
	}
	switch c := op.Change.(type) {
	case domain.NoteCreate:
		if id := c.Note.FolderID; id != nil {
			if to, ok := e.adopted[*id]; ok {
				c.Note.FolderID = &to
				op.Change = c
			}
		}
	case domain.NoteUpdate:
		if f := c.Patch.Folder; f != nil && f.ID != nil {
			if to, ok := e.adopted[*f.ID]; ok {
				c.Patch.Folder = &domain.FolderRef{ID: &to}
				op.Change = c
			}
		}
	}
	return op
}

// resolveID returns the server id that replaced id, or id itself
func (e *SyncEngine) resolveID(id *string) *string {
	if id == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if to, ok := e.adopted[*id]; ok {
		return &to
	}
	return id
}

// remapFolderLocked rewrites queued note operations that reference folder
// from to reference to instead; a nil to detaches them. Caller holds e.mu.
func (e *SyncEngine) remapFolderLocked(ctx context.Context, uid, from string, to *string) {
	for id, op := range e.pending {
		switch c := op.Change.(type) {
		case domain.NoteCreate:
			if !c.Note.InFolder(from) {
				continue
			}
			c.Note.FolderID = cloneID(to)
			op.Change = c
		case domain.NoteUpdate:
			f := c.Patch.Folder
			if f == nil || f.ID == nil || *f.ID != from {
				continue
			}
			c.Patch.Folder = &domain.FolderRef{ID: cloneID(to)}
			op.Change = c
		default:
			continue
		}
		e.pending[id] = op
		e.local.Pending().Put(ctx, op, uid)
	}
}

func cloneID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// markFailed keeps a failed operation queued with one more attempt
func (e *SyncEngine) markFailed(ctx context.Context, uid string, op domain.PendingOperation, cause error) {
	e.mu.Lock()
	cur, ok := e.pending[op.ID]
	attempts := 0
	if ok && cur.Revision == op.Revision {
		cur.Attempts++
		cur.LastError = cause.Error()
		e.pending[op.ID] = cur
		e.local.Pending().Put(ctx, cur, uid)
		attempts = cur.Attempts
	}
	e.mu.Unlock()

	e.logger.Warn("pending operation replay failed",
		zap.String(logger.FieldUID, uid),
		zap.String(logger.FieldEntityType, string(op.EntityType())),
		zap.String(logger.FieldEntityID, op.ID),
		zap.String(logger.FieldAction, string(op.Action())),
		zap.Int(logger.FieldAttempts, attempts),
		zap.Error(cause))

	if e.cfg.DrainNoticeAfter > 0 && attempts == e.cfg.DrainNoticeAfter {
		e.notify(Notice{
			Code:       code.ErrorSyncOpRetrying.Clone().WithCause(cause),
			EntityType: op.EntityType(),
			EntityID:   op.ID,
			Err:        cause,
		})
	}
}

// enqueue coalesces next with the operation queued for the same entity
// enqueue 入队并与同一实体的已有操作合并
func (e *SyncEngine) enqueue(ctx context.Context, uid string, next domain.PendingOperation) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next = e.resolveLocked(next)
	var prev *domain.PendingOperation
	if p, ok := e.pending[next.ID]; ok {
		prev = &p
	}
	op, keep := domain.Coalesce(prev, next)
	if !keep {
		delete(e.pending, next.ID)
		e.local.Pending().Delete(ctx, next.ID, uid)
	} else {
		op.UserID = uid
		e.putPendingLocked(ctx, uid, op)
	}
	e.metrics.SetPending(len(e.pending))
}

func (e *SyncEngine) putPendingLocked(ctx context.Context, uid string, op domain.PendingOperation) {
	e.pending[op.ID] = op
	e.local.Pending().Put(ctx, op, uid)
}

func (e *SyncEngine) pendingOp(id string) (domain.PendingOperation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	op, ok := e.pending[id]
	return op, ok
}

// pendingOps returns the queue in replay order
func (e *SyncEngine) pendingOps() []domain.PendingOperation {
	e.mu.Lock()
	ops := make([]domain.PendingOperation, 0, len(e.pending))
	for _, op := range e.pending {
		ops = append(ops, op)
	}
	e.mu.Unlock()
	sortPending(ops)
	return ops
}

// PendingOperations 返回待同步队列（按重放顺序）
func (e *SyncEngine) PendingOperations() []domain.PendingOperation {
	return e.pendingOps()
}

// PendingCount 待同步操作数量
func (e *SyncEngine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Online 当前连通状态
func (e *SyncEngine) Online() bool {
	return e.monitor.Online()
}

func (e *SyncEngine) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.cfg.RemoteTimeout)
}

func (e *SyncEngine) reportFailure(err error) {
	if domain.IsUnreachable(err) || errors.Is(err, context.DeadlineExceeded) {
		e.monitor.ReportFailure(err)
	}
}

func (e *SyncEngine) notify(n Notice) {
	e.notifier.Notify(n)
}
