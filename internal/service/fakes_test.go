package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/magnusfroste/notton/internal/connectivity"
	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/pkg/code"

	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

type fakeAuth struct {
	mu   sync.Mutex
	user *domain.User
}

func (a *fakeAuth) CurrentUser(ctx context.Context) (*domain.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user, nil
}

func (a *fakeAuth) set(u *domain.User) {
	a.mu.Lock()
	a.user = u
	a.mu.Unlock()
}

// memCollection keeps records per user in insertion order
type memCollection[T any] struct {
	mu   sync.Mutex
	idOf func(T) string
	data map[string][]T
}

func newMemCollection[T any](idOf func(T) string) *memCollection[T] {
	return &memCollection[T]{idOf: idOf, data: make(map[string][]T)}
}

func (c *memCollection[T]) Put(_ context.Context, record T, uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.data[uid]
	for i, v := range list {
		if c.idOf(v) == c.idOf(record) {
			list[i] = record
			return
		}
	}
	c.data[uid] = append(list, record)
}

func (c *memCollection[T]) GetAll(_ context.Context, uid string) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T{}, c.data[uid]...)
}

func (c *memCollection[T]) Delete(_ context.Context, id, uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.data[uid]
	for i, v := range list {
		if c.idOf(v) == id {
			c.data[uid] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

func (c *memCollection[T]) Clear(_ context.Context, uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, uid)
}

func (c *memCollection[T]) Replace(_ context.Context, records []T, uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[uid] = append([]T{}, records...)
}

type memStore struct {
	notes   *memCollection[domain.Note]
	folders *memCollection[domain.Folder]
	pending *memCollection[domain.PendingOperation]
}

func newMemStore() *memStore {
	return &memStore{
		notes:   newMemCollection(domain.NoteID),
		folders: newMemCollection(domain.FolderID),
		pending: newMemCollection(func(op domain.PendingOperation) string { return op.ID }),
	}
}

func (s *memStore) Notes() domain.Collection[domain.Note]     { return s.notes }
func (s *memStore) Folders() domain.Collection[domain.Folder] { return s.folders }
func (s *memStore) Pending() domain.Collection[domain.PendingOperation] {
	return s.pending
}

// gate makes remote calls fail or block on demand
type gate struct {
	mu      sync.Mutex
	err     error
	block   chan struct{}
	entered chan struct{}
	calls   atomic.Int32
}

func (g *gate) pass(ctx context.Context) error {
	g.calls.Add(1)
	g.mu.Lock()
	err, block, entered := g.err, g.block, g.entered
	g.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (g *gate) fail(err error) {
	g.mu.Lock()
	g.err = err
	g.mu.Unlock()
}

// hold makes the next calls block until the returned release is called
func (g *gate) hold() (entered <-chan struct{}, release func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.block = make(chan struct{})
	g.entered = make(chan struct{}, 16)
	block := g.block
	return g.entered, func() {
		g.mu.Lock()
		g.block, g.entered = nil, nil
		g.mu.Unlock()
		close(block)
	}
}

var errRejected = &domain.RemoteError{Op: "test", Err: fmt.Errorf("500 internal server error")}

var errOffline = &domain.RemoteError{Op: "test", Unreachable: true, Err: fmt.Errorf("connection refused")}

type fakeNotes struct {
	domain.RemoteNoteRepository
	gate
	mu   sync.Mutex
	rows map[string]domain.Note
	seq  int
}

func newFakeNotes() *fakeNotes { return &fakeNotes{rows: make(map[string]domain.Note)} }

func (f *fakeNotes) List(ctx context.Context, uid string) ([]domain.Note, error) {
	if err := f.pass(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Note{}
	for _, n := range f.rows {
		if n.UserID == uid {
			out = append(out, n.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeNotes) Create(ctx context.Context, note *domain.Note, uid string) (*domain.Note, error) {
	if err := f.pass(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	n := note.Clone()
	n.ID = fmt.Sprintf("note-%d", f.seq)
	n.UserID = uid
	n.CreatedAt = testEpoch.Add(time.Duration(f.seq) * time.Second)
	n.UpdatedAt = n.CreatedAt
	f.rows[n.ID] = n
	return &n, nil
}

func (f *fakeNotes) Update(ctx context.Context, id string, patch domain.NotePatch, uid string) (*domain.Note, error) {
	if err := f.pass(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[id]
	if !ok || n.UserID != uid {
		return nil, &domain.RemoteError{Op: "note.update", Err: code.ErrorNoteNotFound.Clone().WithDetails(id)}
	}
	n = patch.Apply(n)
	f.rows[id] = n
	return &n, nil
}

func (f *fakeNotes) Delete(ctx context.Context, id, uid string) error {
	if err := f.pass(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeNotes) seed(notes ...domain.Note) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range notes {
		f.rows[n.ID] = n.Clone()
	}
}

func (f *fakeNotes) row(id string) (domain.Note, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.rows[id]
	return n, ok
}

func (f *fakeNotes) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeFolders struct {
	domain.RemoteFolderRepository
	gate
	mu    sync.Mutex
	rows  map[string]domain.Folder
	notes *fakeNotes
	seq   int
}

func newFakeFolders(notes *fakeNotes) *fakeFolders {
	return &fakeFolders{rows: make(map[string]domain.Folder), notes: notes}
}

func (f *fakeFolders) List(ctx context.Context, uid string) ([]domain.Folder, error) {
	if err := f.pass(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Folder{}
	for _, v := range f.rows {
		if v.UserID == uid {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeFolders) Create(ctx context.Context, folder *domain.Folder, uid string) (*domain.Folder, error) {
	if err := f.pass(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	v := *folder
	v.ID = fmt.Sprintf("folder-%d", f.seq)
	v.UserID = uid
	v.CreatedAt = testEpoch.Add(time.Duration(f.seq) * time.Minute)
	v.UpdatedAt = v.CreatedAt
	f.rows[v.ID] = v
	return &v, nil
}

func (f *fakeFolders) Update(ctx context.Context, id string, patch domain.FolderPatch, uid string) (*domain.Folder, error) {
	if err := f.pass(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.rows[id]
	if !ok {
		return nil, &domain.RemoteError{Op: "folder.update", Err: code.ErrorFolderNotFound.Clone().WithDetails(id)}
	}
	v = patch.Apply(v)
	f.rows[id] = v
	return &v, nil
}

func (f *fakeFolders) Delete(ctx context.Context, id, uid string) error {
	if err := f.pass(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.rows, id)
	f.mu.Unlock()

	f.notes.mu.Lock()
	defer f.notes.mu.Unlock()
	for nid, n := range f.notes.rows {
		if n.InFolder(id) {
			n.FolderID = nil
			f.notes.rows[nid] = n
		}
	}
	return nil
}

func (f *fakeFolders) row(id string) (domain.Folder, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.rows[id]
	return v, ok
}

type fakeMonitor struct {
	online   atomic.Bool
	failures atomic.Int32
	mu       sync.Mutex
	subs     []chan connectivity.Event
}

func (m *fakeMonitor) Online() bool { return m.online.Load() }

func (m *fakeMonitor) Subscribe() (<-chan connectivity.Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan connectivity.Event, 16)
	m.subs = append(m.subs, ch)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, s := range m.subs {
				if s == ch {
					m.subs = append(m.subs[:i], m.subs[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
}

func (m *fakeMonitor) ReportFailure(error) { m.failures.Add(1) }

// set changes the state and notifies subscribers like connectivity.Monitor
func (m *fakeMonitor) set(online bool) {
	if m.online.Swap(online) == online {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs {
		ch <- connectivity.Event{Online: online, At: time.Now()}
	}
}

// inlineSubmitter runs background jobs on the caller goroutine
type inlineSubmitter struct{}

func (inlineSubmitter) SubmitAsync(ctx context.Context, fn func(context.Context) error) error {
	_ = fn(ctx)
	return nil
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *noticeRecorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *noticeRecorder) all() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice{}, r.notices...)
}

type harness struct {
	ctx     context.Context
	engine  *SyncEngine
	notes   NoteService
	folders FolderService
	auth    *fakeAuth
	local   *memStore
	rNotes  *fakeNotes
	rFolder *fakeFolders
	monitor *fakeMonitor
	notices *noticeRecorder
}

type harnessOption func(*Dependencies, *SyncConfig)

func withSubmitter(s Submitter) harnessOption {
	return func(d *Dependencies, _ *SyncConfig) { d.Submitter = s }
}

func withConfig(fn func(*SyncConfig)) harnessOption {
	return func(_ *Dependencies, c *SyncConfig) { fn(c) }
}

// newHarness builds an engine for user u1; the engine is not started
func newHarness(t testing.TB, online bool, opts ...harnessOption) *harness {
	rn := newFakeNotes()
	h := &harness{
		ctx:     context.Background(),
		auth:    &fakeAuth{user: &domain.User{ID: "u1", Email: "u1@example.com"}},
		local:   newMemStore(),
		rNotes:  rn,
		rFolder: newFakeFolders(rn),
		monitor: &fakeMonitor{},
		notices: &noticeRecorder{},
	}
	h.monitor.online.Store(online)

	deps := Dependencies{
		Auth:      h.auth,
		Local:     h.local,
		Notes:     h.rNotes,
		Folders:   h.rFolder,
		Monitor:   h.monitor,
		Notifier:  h.notices,
		Submitter: inlineSubmitter{},
	}
	cfg := SyncConfig{RemoteTimeout: time.Second}
	for _, opt := range opts {
		opt(&deps, &cfg)
	}

	e, err := NewSyncEngine(deps, cfg)
	require.NoError(t, err)
	h.engine = e
	h.notes = NewNoteService(e)
	h.folders = NewFolderService(e)
	t.Cleanup(e.Stop)
	return h
}

func (h *harness) seedNote(id, title string, folderID *string, age time.Duration) domain.Note {
	n := domain.NewNote(id, "u1", folderID, testEpoch.Add(-age))
	n.Title = title
	h.rNotes.seed(n)
	return n
}

func (h *harness) titles() []string {
	list, _ := h.notes.List(h.ctx)
	out := make([]string, 0, len(list.Notes))
	for _, n := range list.Notes {
		out = append(out, n.Title)
	}
	return out
}
