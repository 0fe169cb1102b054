package dao

import (
	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/internal/model"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// encodeChange 将变更序列化为 JSON 负载
func encodeChange(c domain.Change) (string, error) {
	var v interface{}
	switch c := c.(type) {
	case domain.NoteCreate:
		v = c.Note
	case domain.NoteUpdate:
		v = c.Patch
	case domain.FolderCreate:
		v = c.Folder
	case domain.FolderUpdate:
		v = c.Patch
	case domain.NoteDelete, domain.FolderDelete:
		return "{}", nil
	default:
		return "", errors.Errorf("unknown change %T", c)
	}
	b, err := sonic.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "encode change")
	}
	return string(b), nil
}

// decodeChange 根据实体类型与操作类型反序列化负载
func decodeChange(entity domain.EntityType, action domain.Action, payload string) (domain.Change, error) {
	switch {
	case entity == domain.EntityNote && action == domain.ActionCreate:
		var n domain.Note
		if err := sonic.UnmarshalString(payload, &n); err != nil {
			return nil, errors.Wrap(err, "decode note create")
		}
		return domain.NoteCreate{Note: n}, nil
	case entity == domain.EntityNote && action == domain.ActionUpdate:
		var p domain.NotePatch
		if err := sonic.UnmarshalString(payload, &p); err != nil {
			return nil, errors.Wrap(err, "decode note update")
		}
		return domain.NoteUpdate{Patch: p}, nil
	case entity == domain.EntityNote && action == domain.ActionDelete:
		return domain.NoteDelete{}, nil
	case entity == domain.EntityFolder && action == domain.ActionCreate:
		var f domain.Folder
		if err := sonic.UnmarshalString(payload, &f); err != nil {
			return nil, errors.Wrap(err, "decode folder create")
		}
		return domain.FolderCreate{Folder: f}, nil
	case entity == domain.EntityFolder && action == domain.ActionUpdate:
		var p domain.FolderPatch
		if err := sonic.UnmarshalString(payload, &p); err != nil {
			return nil, errors.Wrap(err, "decode folder update")
		}
		return domain.FolderUpdate{Patch: p}, nil
	case entity == domain.EntityFolder && action == domain.ActionDelete:
		return domain.FolderDelete{}, nil
	}
	return nil, errors.Errorf("unknown pending operation %s/%s", entity, action)
}

func pendingToModel(op domain.PendingOperation, uid string) (*model.PendingOperation, error) {
	if op.Change == nil {
		return nil, errors.Errorf("pending operation %s has no change", op.ID)
	}
	payload, err := encodeChange(op.Change)
	if err != nil {
		return nil, err
	}
	return &model.PendingOperation{
		ID:         op.ID,
		UserID:     uid,
		EntityType: string(op.EntityType()),
		Action:     string(op.Action()),
		Payload:    payload,
		Timestamp:  op.Timestamp,
		Revision:   op.Revision,
		Attempts:   op.Attempts,
		LastError:  op.LastError,
	}, nil
}

func pendingToDomain(m *model.PendingOperation) (domain.PendingOperation, error) {
	change, err := decodeChange(domain.EntityType(m.EntityType), domain.Action(m.Action), m.Payload)
	if err != nil {
		return domain.PendingOperation{}, errors.WithMessagef(err, "pending operation %s", m.ID)
	}
	return domain.PendingOperation{
		ID:        m.ID,
		UserID:    m.UserID,
		Change:    change,
		Timestamp: m.Timestamp,
		Revision:  m.Revision,
		Attempts:  m.Attempts,
		LastError: m.LastError,
	}, nil
}
