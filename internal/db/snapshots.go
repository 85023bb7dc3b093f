package db

import (
	"fmt"

	"github.com/zulandar/classlive/internal/models"
	"gorm.io/gorm"
)

// SaveSnapshot stores the outcome of one scheduled pass.
func SaveSnapshot(db *gorm.DB, snap *models.Snapshot) error {
	if err := db.Create(snap).Error; err != nil {
		return fmt.Errorf("db: save snapshot %s: %w", snap.BatchID, err)
	}
	return nil
}

// ListSnapshots returns up to limit snapshots, newest first. A limit of
// zero or less returns all of them.
func ListSnapshots(db *gorm.DB, limit int) ([]models.Snapshot, error) {
	q := db.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var snaps []models.Snapshot
	if err := q.Find(&snaps).Error; err != nil {
		return nil, fmt.Errorf("db: list snapshots: %w", err)
	}
	return snaps, nil
}

// LatestSnapshot returns the most recent snapshot, or nil when none exist.
func LatestSnapshot(db *gorm.DB) (*models.Snapshot, error) {
	snaps, err := ListSnapshots(db, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}
