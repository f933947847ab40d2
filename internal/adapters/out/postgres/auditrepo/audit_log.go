// Package auditrepo stores the append-only log of compliance blocks.
package auditrepo

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/compliance"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// EntryDTO is one row of compliance_audit_logs. The state column keeps the
// raw destination so malformed codes stay traceable.
type EntryDTO struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"`
	Actor       string         `gorm:"type:varchar(128)"`
	State       string         `gorm:"type:varchar(32);index"`
	BlockedSKUs pq.StringArray `gorm:"column:blocked_skus;type:text[]"`
	ReasonCodes pq.StringArray `gorm:"type:text[]"`
	At          time.Time      `gorm:"index"`
}

func (EntryDTO) TableName() string {
	return "compliance_audit_logs"
}

// GormComplianceAuditLog implements ports.ComplianceAuditLog.
type GormComplianceAuditLog struct {
	db *gorm.DB
}

func NewGormComplianceAuditLog(db *gorm.DB) *GormComplianceAuditLog {
	return &GormComplianceAuditLog{db: db}
}

func (l *GormComplianceAuditLog) Append(ctx context.Context, entry compliance.AuditEntry) error {
	dto := EntryDTO{
		Actor:       entry.Actor,
		State:       entry.State,
		BlockedSKUs: pq.StringArray(entry.BlockedSKUs),
		ReasonCodes: pq.StringArray(entry.ReasonCodes),
		At:          entry.At,
	}
	return l.db.WithContext(ctx).Create(&dto).Error
}
