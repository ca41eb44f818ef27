package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS analysis_batches (
		id                 TEXT PRIMARY KEY,
		frame_id           TEXT NOT NULL,
		camera_id          TEXT NOT NULL,
		borough            TEXT NOT NULL,
		segment_id         TEXT NOT NULL,
		frame_time         TIMESTAMPTZ NOT NULL,
		observations_total INT NOT NULL,
		violations_total   INT NOT NULL,
		violation_rate     DOUBLE PRECISION NOT NULL,
		snapshot           JSONB,
		warnings           JSONB,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_batches_frame_time ON analysis_batches(frame_time);`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_batches_borough ON analysis_batches(borough);`,
	`CREATE TABLE IF NOT EXISTS curb_decisions (
		id               BIGSERIAL PRIMARY KEY,
		batch_id         TEXT NOT NULL REFERENCES analysis_batches(id),
		detection_id     TEXT NOT NULL,
		zone_id          TEXT,
		zone_type        TEXT,
		vehicle_type     TEXT NOT NULL,
		borough          TEXT NOT NULL,
		verdict          TEXT NOT NULL,
		reason           TEXT NOT NULL,
		color            TEXT NOT NULL,
		overlap_fraction DOUBLE PRECISION NOT NULL,
		b_box            JSONB,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_curb_decisions_batch_id ON curb_decisions(batch_id);`,
	`CREATE INDEX IF NOT EXISTS idx_curb_decisions_verdict ON curb_decisions(verdict);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
