package model

import "time"

const TableNamePendingOperation = "pending_operation"

// PendingOperation mapped from table <pending_operation>
// One row per (user_id, id); Payload is the JSON encoded change
type PendingOperation struct {
	ID         string    `gorm:"column:id;primaryKey" json:"id"`
	UserID     string    `gorm:"column:user_id;primaryKey" json:"userId"`
	EntityType string    `gorm:"column:entity_type;not null" json:"entityType"`
	Action     string    `gorm:"column:action;not null" json:"action"`
	Payload    string    `gorm:"column:payload;type:text" json:"payload"`
	Timestamp  time.Time `gorm:"column:timestamp;not null;index" json:"timestamp"`
	Revision   int       `gorm:"column:revision;not null;default:0" json:"revision"`
	Attempts   int       `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError  string    `gorm:"column:last_error" json:"lastError"`
}

// TableName PendingOperation's table name
func (*PendingOperation) TableName() string {
	return TableNamePendingOperation
}
