package domain

import (
	"time"

	"gorm.io/datatypes"
)

// OracleDecision keeps every oracle exchange for later inspection.
type OracleDecision struct {
	ID        uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	System    string            `gorm:"column:system;not null" json:"system"`
	Model     string            `gorm:"column:model" json:"model"`
	Prompt    string            `gorm:"column:prompt;type:text" json:"prompt"`
	Response  string            `gorm:"column:response;type:text" json:"response"`
	Context   datatypes.JSONMap `gorm:"column:context;type:jsonb" json:"context"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (OracleDecision) TableName() string {
	return "oracle_decisions"
}
