// Package sequencerepo is the durable main-sequence counter behind order
// numbering. Values come from a PostgreSQL sequence; each payment transaction
// is bound to the value it drew so that a retried checkout gets it back.
package sequencerepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceName is the PostgreSQL sequence main sequences are drawn from.
const SequenceName = "order_main_seq"

// ClaimDTO is one row of order_sequence_claims.
type ClaimDTO struct {
	TransactionID string `gorm:"type:varchar(64);primaryKey"`
	MainSequence  int64  `gorm:"uniqueIndex"`
	ClaimedAt     time.Time
}

func (ClaimDTO) TableName() string {
	return "order_sequence_claims"
}

// Migrate creates the claims table and the sequence. start only applies when
// the sequence does not exist yet.
func Migrate(ctx context.Context, db *gorm.DB, start int64) error {
	if start < 1 {
		return errs.NewValueIsOutOfRangeError("sequenceStart", start, 1, "max int64")
	}
	if err := db.WithContext(ctx).AutoMigrate(&ClaimDTO{}); err != nil {
		return err
	}
	return db.WithContext(ctx).
		Exec(fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s START WITH %d", SequenceName, start)).Error
}

// GormSequenceCounter implements ports.SequenceCounter.
type GormSequenceCounter struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormSequenceCounter(db *gorm.DB) *GormSequenceCounter {
	return &GormSequenceCounter{db: db, now: time.Now}
}

// Claim returns the value already bound to transactionID, or binds a fresh
// one. Two concurrent first claims for the same transaction resolve to the
// row that won the insert.
func (c *GormSequenceCounter) Claim(ctx context.Context, transactionID string) (int64, error) {
	if transactionID == "" {
		return 0, errs.NewValueIsRequiredError("transactionId")
	}

	if seq, ok, err := c.lookup(ctx, transactionID); err != nil || ok {
		return seq, err
	}

	next, err := c.next(ctx)
	if err != nil {
		return 0, err
	}
	claim := ClaimDTO{TransactionID: transactionID, MainSequence: next, ClaimedAt: c.now().UTC()}
	result := c.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&claim)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 1 {
		return next, nil
	}

	seq, ok, err := c.lookup(ctx, transactionID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("claim for transaction %s vanished after conflict", transactionID)
	}
	return seq, nil
}

// Reclaim binds transactionID to a new value, discarding the old binding.
func (c *GormSequenceCounter) Reclaim(ctx context.Context, transactionID string) (int64, error) {
	if transactionID == "" {
		return 0, errs.NewValueIsRequiredError("transactionId")
	}

	next, err := c.next(ctx)
	if err != nil {
		return 0, err
	}
	claim := ClaimDTO{TransactionID: transactionID, MainSequence: next, ClaimedAt: c.now().UTC()}
	err = c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"main_sequence", "claimed_at"}),
	}).Create(&claim).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (c *GormSequenceCounter) lookup(ctx context.Context, transactionID string) (int64, bool, error) {
	var claim ClaimDTO
	err := c.db.WithContext(ctx).First(&claim, "transaction_id = ?", transactionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return claim.MainSequence, true, nil
}

func (c *GormSequenceCounter) next(ctx context.Context) (int64, error) {
	var seq int64
	if err := c.db.WithContext(ctx).Raw("SELECT nextval(?::regclass)", SequenceName).Scan(&seq).Error; err != nil {
		return 0, fmt.Errorf("draw from %s: %w", SequenceName, err)
	}
	return seq, nil
}
