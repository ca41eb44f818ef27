package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"curb-service/internal/analytics"
	"curb-service/internal/assign"
	"curb-service/internal/domain/curb"
	"curb-service/internal/repository"
	"curb-service/internal/rules"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// BatchStore is the persistence surface the service depends on.
// *repository.CurbRepository is the production implementation.
type BatchStore interface {
	CreateBatch(ctx context.Context, batch *repository.AnalysisBatch, decisions []repository.CurbDecision) error
	FindBatches(ctx context.Context, borough *curb.Borough, from, to *time.Time, limit, offset int) ([]repository.AnalysisBatch, error)
	FindDecisionsForBatch(ctx context.Context, batchID string) ([]repository.CurbDecision, error)
	GetBatch(ctx context.Context, batchID string) (*repository.AnalysisBatch, error)
	DeleteOldBatches(ctx context.Context, days int) (int64, error)
}

// AnalysisResult is the full output of one analyze call: everything the
// annotation and dashboard layers need for drawing and tabular display.
type AnalysisResult struct {
	BatchID       string                    `json:"batch_id"`
	FrameID       string                    `json:"frame_id"`
	Observations  []curb.VehicleObservation `json:"observations"`
	Decisions     []curb.LegalityDecision   `json:"decisions"`
	Snapshot      curb.AnalyticsSnapshot    `json:"snapshot"`
	RejectedZones []assign.ZoneError        `json:"rejected_zones,omitempty"`
	Warnings      []assign.DetectionWarning `json:"warnings,omitempty"`
}

// CurbService runs the zone assignment, legality evaluation, and analytics
// aggregation pipeline for one frame at a time and persists the results.
type CurbService struct {
	assignor  *assign.Assignor
	evaluator *rules.Evaluator
	repo      BatchStore
	log       zerolog.Logger
}

func NewCurbService(assignor *assign.Assignor, evaluator *rules.Evaluator, repo BatchStore, log zerolog.Logger) *CurbService {
	return &CurbService{
		assignor:  assignor,
		evaluator: evaluator,
		repo:      repo,
		log:       log,
	}
}

// AnalyzeFrame classifies each detection against the zones for one frame.
// User-drawn zones and auto-segmented lane zones arrive in one list; order
// matters for overlap tie-breaks, so it is preserved as given.
func (s *CurbService) AnalyzeFrame(ctx context.Context, frame curb.FrameContext, zones []curb.Zone, detections []curb.VehicleDetection) (*AnalysisResult, error) {
	if frame.FrameID == "" {
		return nil, fmt.Errorf("%w: frame_id is required", ErrInvalidInput)
	}
	if frame.CameraID == "" {
		return nil, fmt.Errorf("%w: camera_id is required", ErrInvalidInput)
	}
	if frame.TimestampUTC.IsZero() {
		return nil, fmt.Errorf("%w: timestamp_utc is required", ErrInvalidInput)
	}

	assigned := s.assignor.Assign(detections, zones, frame.TimestampUTC)

	for _, rejected := range assigned.RejectedZones {
		s.log.Warn().
			Str("frame_id", frame.FrameID).
			Str("zone_id", rejected.ZoneID).
			Str("detail", rejected.Detail).
			Msg("rejected malformed zone")
	}
	for _, warning := range assigned.Warnings {
		s.log.Warn().
			Str("frame_id", frame.FrameID).
			Int("detection_index", warning.Index).
			Str("detection_id", warning.DetectionID).
			Str("detail", warning.Detail).
			Msg("dropped malformed detection")
	}

	decisions := make([]curb.LegalityDecision, 0, len(assigned.Observations))
	for _, obs := range assigned.Observations {
		decisions = append(decisions, s.evaluator.Evaluate(obs, frame))
	}

	snapshot := analytics.Aggregate(decisions)

	result := &AnalysisResult{
		BatchID:       uuid.NewString(),
		FrameID:       frame.FrameID,
		Observations:  assigned.Observations,
		Decisions:     decisions,
		Snapshot:      snapshot,
		RejectedZones: assigned.RejectedZones,
		Warnings:      assigned.Warnings,
	}

	if err := s.persistBatch(ctx, frame, result); err != nil {
		s.log.Error().
			Err(err).
			Str("frame_id", frame.FrameID).
			Str("batch_id", result.BatchID).
			Msg("failed to persist analysis batch")
		return nil, fmt.Errorf("failed to persist analysis batch: %w", err)
	}

	s.log.Info().
		Str("frame_id", frame.FrameID).
		Str("batch_id", result.BatchID).
		Str("camera_id", frame.CameraID).
		Int("observations", snapshot.ObservationsTotal).
		Int("violations", snapshot.ViolationsTotal).
		Float64("violation_rate", snapshot.ViolationRate).
		Msg("analyzed frame")

	return result, nil
}

func (s *CurbService) persistBatch(ctx context.Context, frame curb.FrameContext, result *AnalysisResult) error {
	if s.repo == nil {
		return nil
	}

	snapshotJSON, err := json.Marshal(result.Snapshot)
	if err != nil {
		return err
	}
	warningsJSON, err := json.Marshal(result.Warnings)
	if err != nil {
		return err
	}

	batch := &repository.AnalysisBatch{
		ID:                result.BatchID,
		FrameID:           frame.FrameID,
		CameraID:          frame.CameraID,
		Borough:           string(frame.Borough),
		SegmentID:         frame.SegmentID,
		FrameTime:         frame.TimestampUTC,
		ObservationsTotal: result.Snapshot.ObservationsTotal,
		ViolationsTotal:   result.Snapshot.ViolationsTotal,
		ViolationRate:     result.Snapshot.ViolationRate,
		Snapshot:          datatypes.JSON(snapshotJSON),
		Warnings:          datatypes.JSON(warningsJSON),
	}

	rows := make([]repository.CurbDecision, 0, len(result.Decisions))
	for i, decision := range result.Decisions {
		obs := result.Observations[i]
		bboxJSON, err := json.Marshal(obs.Detection.BBox)
		if err != nil {
			return err
		}
		row := repository.CurbDecision{
			DetectionID:     decision.DetectionID,
			VehicleType:     string(decision.VehicleType),
			Borough:         string(decision.Borough),
			Verdict:         string(decision.Verdict),
			Reason:          decision.Reason,
			Color:           string(decision.Color),
			OverlapFraction: obs.OverlapFraction,
			BBox:            datatypes.JSON(bboxJSON),
		}
		if decision.ZoneID != "" {
			zoneID := decision.ZoneID
			zoneType := string(decision.ZoneType)
			row.ZoneID = &zoneID
			row.ZoneType = &zoneType
		}
		rows = append(rows, row)
	}

	return s.repo.CreateBatch(ctx, batch, rows)
}

// FindBatches lists stored batches for the dashboard, with teacher-style
// string time filters and defensive pagination bounds.
func (s *CurbService) FindBatches(ctx context.Context, borough *string, from, to *string, limit, offset int) ([]repository.AnalysisBatch, error) {
	var boroughFilter *curb.Borough
	if borough != nil && *borough != "" {
		b := curb.Borough(*borough)
		boroughFilter = &b
	}

	var fromTime, toTime *time.Time
	if from != nil && *from != "" {
		t, err := time.Parse(time.RFC3339, *from)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid from time format", ErrInvalidInput)
		}
		fromTime = &t
	}
	if to != nil && *to != "" {
		t, err := time.Parse(time.RFC3339, *to)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid to time format", ErrInvalidInput)
		}
		toTime = &t
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	batches, err := s.repo.FindBatches(ctx, boroughFilter, fromTime, toTime, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find batches: %w", err)
	}
	return batches, nil
}

// SnapshotInfo is one stored analytics snapshot with the frame metadata
// needed to place it on a dashboard timeline.
type SnapshotInfo struct {
	BatchID           string          `json:"batch_id"`
	FrameID           string          `json:"frame_id"`
	CameraID          string          `json:"camera_id"`
	Borough           string          `json:"borough"`
	SegmentID         string          `json:"segment_id,omitempty"`
	FrameTime         time.Time       `json:"frame_time"`
	ObservationsTotal int             `json:"observations_total"`
	ViolationsTotal   int             `json:"violations_total"`
	ViolationRate     float64         `json:"violation_rate"`
	Snapshot          json.RawMessage `json:"snapshot"`
}

// FindSnapshots lists stored per-batch analytics snapshots, newest first,
// with the same filters and pagination as FindBatches.
func (s *CurbService) FindSnapshots(ctx context.Context, borough *string, from, to *string, limit, offset int) ([]SnapshotInfo, error) {
	batches, err := s.FindBatches(ctx, borough, from, to, limit, offset)
	if err != nil {
		return nil, err
	}

	snapshots := make([]SnapshotInfo, 0, len(batches))
	for _, batch := range batches {
		snapshots = append(snapshots, SnapshotInfo{
			BatchID:           batch.ID,
			FrameID:           batch.FrameID,
			CameraID:          batch.CameraID,
			Borough:           batch.Borough,
			SegmentID:         batch.SegmentID,
			FrameTime:         batch.FrameTime,
			ObservationsTotal: batch.ObservationsTotal,
			ViolationsTotal:   batch.ViolationsTotal,
			ViolationRate:     batch.ViolationRate,
			Snapshot:          json.RawMessage(batch.Snapshot),
		})
	}
	return snapshots, nil
}

// FindDecisions returns the stored decision rows for one batch.
func (s *CurbService) FindDecisions(ctx context.Context, batchID string) ([]repository.CurbDecision, error) {
	if batchID == "" {
		return nil, fmt.Errorf("%w: batch id is required", ErrInvalidInput)
	}
	if _, err := s.repo.GetBatch(ctx, batchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: batch %s", ErrNotFound, batchID)
		}
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}
	decisions, err := s.repo.FindDecisionsForBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to find decisions: %w", err)
	}
	return decisions, nil
}

// CleanupOldBatches deletes batches older than the given number of days.
func (s *CurbService) CleanupOldBatches(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: days must be positive", ErrInvalidInput)
	}
	deleted, err := s.repo.DeleteOldBatches(ctx, days)
	if err != nil {
		s.log.Error().Err(err).Int("days", days).Msg("failed to cleanup old batches")
		return 0, err
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted_count", deleted).Int("days", days).Msg("cleaned up old batches")
	}
	return deleted, nil
}
