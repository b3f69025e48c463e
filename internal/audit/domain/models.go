// Package domain contains the audit trail models. Every quote
// computation and approval writes an entry here so disputed totals can
// be traced back to an actor, a timestamp, and an engine version.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorID    string            `gorm:"type:text;not null" json:"actor_id"`
	Action     string            `gorm:"type:text;not null;index" json:"action"`
	TargetType string            `gorm:"type:text;not null" json:"target_type"`
	TargetID   *string           `gorm:"type:text;index" json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type ListRequest struct {
	Action     string
	TargetType string
	TargetID   string
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, req ListRequest) ([]*AuditLog, error)
}

type Service interface {
	AuditLog(ctx context.Context, actorID, action, targetType string, targetID *string, metadata map[string]any) error
	// AuditLogTx writes the entry inside the caller's transaction, for
	// effects that must commit or roll back atomically with it.
	AuditLogTx(ctx context.Context, tx *gorm.DB, actorID, action, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListRequest) ([]*AuditLog, error)
}

var (
	ErrInvalidAction = errors.New("invalid_action")
)
