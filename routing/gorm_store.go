package routing

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/BaSui01/agentroute/types"
)

// handoffRecordRow is the relational shape of a transfer record.
type handoffRecordRow struct {
	ID          string    `gorm:"primaryKey;size:36"`
	ContactID   string    `gorm:"size:64;index:idx_handoffs_contact_ts,priority:1"`
	SourceAgent string    `gorm:"size:16"`
	TargetAgent string    `gorm:"size:16"`
	Timestamp   time.Time `gorm:"index:idx_handoffs_contact_ts,priority:2"`
}

func (handoffRecordRow) TableName() string { return "handoff_records" }

func toRow(rec *types.HandoffRecord) handoffRecordRow {
	return handoffRecordRow{
		ID:          rec.ID,
		ContactID:   rec.ContactID,
		SourceAgent: string(rec.SourceAgent),
		TargetAgent: string(rec.TargetAgent),
		Timestamp:   rec.Timestamp,
	}
}

func (r handoffRecordRow) toRecord() types.HandoffRecord {
	return types.HandoffRecord{
		ID:          r.ID,
		ContactID:   r.ContactID,
		SourceAgent: types.AgentType(r.SourceAgent),
		TargetAgent: types.AgentType(r.TargetAgent),
		Timestamp:   r.Timestamp,
	}
}

// GormStore persists transfer history in a relational database. It works
// with any dialect gorm supports; deployments typically run Postgres while
// tests use the pure-Go sqlite driver.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the schema and wraps the connection.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&handoffRecordRow{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Append(ctx context.Context, rec *types.HandoffRecord) error {
	row := toRow(rec)
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) RecentByContact(ctx context.Context, contactID string, since time.Time) ([]types.HandoffRecord, error) {
	var rows []handoffRecordRow
	err := s.db.WithContext(ctx).
		Where("contact_id = ? AND timestamp >= ?", contactID, since).
		Order("timestamp ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]types.HandoffRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

func (s *GormStore) Prune(ctx context.Context, before time.Time) error {
	return s.db.WithContext(ctx).
		Where("timestamp < ?", before).
		Delete(&handoffRecordRow{}).Error
}
