package dto

import (
	"time"

	"github.com/magnusfroste/notton/internal/domain"
	"github.com/magnusfroste/notton/internal/service"
)

// PendingOperationDTO 待同步操作
type PendingOperationDTO struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entityType"`
	Action     string    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"lastError,omitempty"`
}

// QueueDTO 待同步队列与连通状态
type QueueDTO struct {
	Online     bool                   `json:"online"`
	Operations []*PendingOperationDTO `json:"operations"`
}

// DrainResultDTO 一次重放的结果
type DrainResultDTO struct {
	Skipped   bool `json:"skipped"`
	Attempted int  `json:"attempted"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Remaining int  `json:"remaining"`
}

func NewPendingOperationDTOs(ops []domain.PendingOperation) []*PendingOperationDTO {
	out := make([]*PendingOperationDTO, 0, len(ops))
	for _, op := range ops {
		out = append(out, &PendingOperationDTO{
			ID:         op.ID,
			EntityType: string(op.EntityType()),
			Action:     string(op.Action()),
			Timestamp:  op.Timestamp,
			Attempts:   op.Attempts,
			LastError:  op.LastError,
		})
	}
	return out
}

func NewDrainResultDTO(r service.DrainResult, remaining int) *DrainResultDTO {
	return &DrainResultDTO{
		Skipped:   r.Skipped,
		Attempted: r.Attempted,
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Remaining: remaining,
	}
}
