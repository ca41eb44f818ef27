package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"curb-service/internal/domain/curb"
)

type CurbRepository struct {
	db *gorm.DB
}

func NewCurbRepository(db *gorm.DB) *CurbRepository {
	return &CurbRepository{db: db}
}

// AnalysisBatch is one persisted /analyze call: frame metadata plus the
// aggregated snapshot.
type AnalysisBatch struct {
	ID                string         `gorm:"primaryKey"`
	FrameID           string         `gorm:"not null"`
	CameraID          string         `gorm:"not null"`
	Borough           string         `gorm:"not null"`
	SegmentID         string         `gorm:"not null"`
	FrameTime         time.Time      `gorm:"not null"`
	ObservationsTotal int            `gorm:"not null"`
	ViolationsTotal   int            `gorm:"not null"`
	ViolationRate     float64        `gorm:"not null"`
	Snapshot          datatypes.JSON `gorm:"type:jsonb"`
	Warnings          datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time
}

func (AnalysisBatch) TableName() string {
	return "analysis_batches"
}

// CurbDecision is one persisted legality decision row for tabular display.
type CurbDecision struct {
	ID              int64          `gorm:"primaryKey"`
	BatchID         string         `gorm:"not null;index"`
	DetectionID     string         `gorm:"not null"`
	ZoneID          *string
	ZoneType        *string
	VehicleType     string         `gorm:"not null"`
	Borough         string         `gorm:"not null"`
	Verdict         string         `gorm:"not null"`
	Reason          string         `gorm:"not null"`
	Color           string         `gorm:"not null"`
	OverlapFraction float64        `gorm:"not null"`
	BBox            datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt       time.Time
}

func (CurbDecision) TableName() string {
	return "curb_decisions"
}

// CreateBatch stores the batch and its decision rows in one transaction.
func (r *CurbRepository) CreateBatch(ctx context.Context, batch *AnalysisBatch, decisions []CurbDecision) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return err
		}
		for i := range decisions {
			decisions[i].BatchID = batch.ID
		}
		if len(decisions) == 0 {
			return nil
		}
		return tx.Create(&decisions).Error
	})
}

// FindBatches lists stored batches, newest first, optionally filtered by
// borough and frame time range.
func (r *CurbRepository) FindBatches(ctx context.Context, borough *curb.Borough, from, to *time.Time, limit, offset int) ([]AnalysisBatch, error) {
	query := r.db.WithContext(ctx).Model(&AnalysisBatch{})

	if borough != nil {
		query = query.Where("borough = ?", string(*borough))
	}
	if from != nil {
		query = query.Where("frame_time >= ?", *from)
	}
	if to != nil {
		query = query.Where("frame_time <= ?", *to)
	}

	query = query.Order("frame_time DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var batches []AnalysisBatch
	err := query.Find(&batches).Error
	return batches, err
}

// FindDecisionsForBatch returns the decision rows of one batch.
func (r *CurbRepository) FindDecisionsForBatch(ctx context.Context, batchID string) ([]CurbDecision, error) {
	var decisions []CurbDecision
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("id ASC").
		Find(&decisions).Error
	return decisions, err
}

// GetBatch returns one batch by ID, or gorm.ErrRecordNotFound.
func (r *CurbRepository) GetBatch(ctx context.Context, batchID string) (*AnalysisBatch, error) {
	var batch AnalysisBatch
	err := r.db.WithContext(ctx).Where("id = ?", batchID).First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// DeleteOldBatches removes batches (and their decisions) older than the given
// number of days. Returns the number of deleted batches.
func (r *CurbRepository) DeleteOldBatches(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("batch_id IN (?)", tx.Model(&AnalysisBatch{}).Select("id").Where("frame_time < ?", cutoff)).
			Delete(&CurbDecision{}).Error; err != nil {
			return err
		}
		result := tx.Where("frame_time < ?", cutoff).Delete(&AnalysisBatch{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}
