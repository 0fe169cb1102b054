package service

import (
	"context"

	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/pkg/code"
	"github.com/magnusfroste/notton/pkg/logger"

	"go.uber.org/zap"
)

// applied is the outcome of applyOptimistic
type applied[T any] struct {
	ID      string
	After   T
	Kept    bool
	Prior   T
	Existed bool
	undo    func()
}

// Rollback restores the prior value of the entity at its prior position
func (a applied[T]) Rollback() { a.undo() }

// mutateFunc receives the current value and whether it exists, and returns
// the new value, or keep=false to remove the entity
type mutateFunc[T any] func(cur T, found bool) (next T, keep bool, err error)

// applyOptimistic applies mutate to entity id under the write lock.
// Nothing changes when mutate returns an error.
// applyOptimistic 乐观更新：记录原值并应用修改，返回可回滚的结果
func applyOptimistic[T any](c *collection[T], id string, mutate mutateFunc[T]) (applied[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(id)
	var cur T
	if idx >= 0 {
		cur = c.clone(c.items[idx])
	}

	next, keep, err := mutate(c.clone(cur), idx >= 0)
	if err != nil {
		return applied[T]{}, err
	}

	switch {
	case keep && idx >= 0:
		c.items[idx] = c.clone(next)
	case keep:
		c.insertNew(c.clone(next))
	case idx >= 0:
		c.removeAt(idx)
	}

	res := applied[T]{ID: id, After: next, Kept: keep, Prior: cur, Existed: idx >= 0}
	res.undo = func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		i := c.indexOf(id)
		switch {
		case res.Existed && i >= 0:
			c.items[i] = c.clone(cur)
		case res.Existed:
			c.insertAt(idx, c.clone(cur))
		case i >= 0:
			c.removeAt(i)
		}
	}
	return res, nil
}

// applyEach applies mutate to every entity it reports as changed and
// returns the new values with a rollback restoring the old ones
func applyEach[T any](c *collection[T], mutate func(T) (T, bool)) ([]T, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	priors := make(map[string]T)
	var changed []T
	for i, v := range c.items {
		next, ok := mutate(c.clone(v))
		if !ok {
			continue
		}
		priors[c.idOf(v)] = v
		c.items[i] = next
		changed = append(changed, c.clone(next))
	}

	return changed, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, v := range c.items {
			if prior, ok := priors[c.idOf(v)]; ok {
				c.items[i] = prior
			}
		}
	}
}

// mutation describes one optimistic change after it was applied to state
// and cache
type mutation struct {
	change domain.Change
	id     string
	// refs are entity ids the remote call depends on; the call is deferred
	// to the queue while any of them is still pending
	refs []string
	// failure is the notice code used when the remote call fails
	failure *code.Code
	// remote performs the online call
	remote func(ctx context.Context) error
	// rollback undoes state and cache
	rollback func()
}

// commit sends m to the remote store, or queues it when offline or when it
// depends on an entity that is not synced yet. It reports whether m was
// queued. A failed remote call is rolled back and notified once.
func (e *SyncEngine) commit(ctx context.Context, uid string, m mutation) (queued bool, err error) {
	entity, action := string(m.change.EntityType()), string(m.change.Action())

	online := e.monitor.Online()
	if !online || e.dependsOnPending(m.refs) {
		e.enqueue(ctx, uid, domain.PendingOperation{
			ID:        m.id,
			UserID:    uid,
			Change:    m.change,
			Timestamp: e.now(),
		})
		e.metrics.Mutation(entity, action, true)
		if online {
			e.TriggerDrain()
		}
		return true, nil
	}

	e.metrics.Mutation(entity, action, false)
	rctx, cancel := e.remoteContext(ctx)
	defer cancel()

	if err := m.remote(rctx); err != nil {
		m.rollback()
		e.metrics.Rollback(entity, action)
		e.reportFailure(err)

		failed := m.failure.Clone().WithCause(err)
		e.logger.Warn("optimistic mutation rolled back",
			zap.String(logger.FieldUID, uid),
			zap.String(logger.FieldEntityType, entity),
			zap.String(logger.FieldEntityID, m.id),
			zap.String(logger.FieldAction, action),
			zap.Error(err))
		e.notify(Notice{Code: failed, EntityType: m.change.EntityType(), EntityID: m.id, Err: err})
		return false, failed
	}
	return false, nil
}

// dependsOnPending reports whether any ref is a temporary id or has a
// queued operation
func (e *SyncEngine) dependsOnPending(refs []string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range refs {
		if id == "" {
			continue
		}
		if domain.IsTempID(id) {
			return true
		}
		if _, ok := e.pending[id]; ok {
			return true
		}
	}
	return false
}
