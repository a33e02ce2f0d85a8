package interfaces

import "gerritwatch/internal/models"

type CompressorInterface interface {
	Compress(val []byte) ([]byte, error)
	Decompress(val []byte) ([]byte, error)
	Close()
}

// SnapshotStoreInterface owns the lifecycle of per-category snapshot files.
type SnapshotStoreInterface interface {
	Write(category string, ts int64, records []models.ChangeRecord) error
	Read(category string, ts int64) ([]models.ChangeRecord, error)
	Exists(category string, ts int64) bool
}

type LogStoreInterface interface {
	Read() (*models.LogState, error)
	Update(ts int64, open, merged []models.ChangeRecord) (*models.LogState, error)
}
