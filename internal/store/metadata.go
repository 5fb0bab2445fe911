package store

import (
	"database/sql"
	"strconv"
	"time"
)

const (
	keyFingerprint = "fingerprint"
	keyModules     = "module_count"
	keySource      = "source"
	keyPublishedAt = "published_at"
)

// SnapshotInfo describes the last published snapshot.
type SnapshotInfo struct {
	Fingerprint string
	Modules     int
	Source      string
	PublishedAt time.Time
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM content_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// GetSnapshotInfo reads the snapshot description. A store that has never
// been published returns the zero SnapshotInfo.
func (s *Store) GetSnapshotInfo() (SnapshotInfo, error) {
	var info SnapshotInfo
	var err error

	if info.Fingerprint, err = s.GetMetadata(keyFingerprint); err != nil {
		return info, err
	}
	n, err := s.GetMetadata(keyModules)
	if err != nil {
		return info, err
	}
	if n != "" {
		if info.Modules, err = strconv.Atoi(n); err != nil {
			return info, err
		}
	}
	if info.Source, err = s.GetMetadata(keySource); err != nil {
		return info, err
	}
	at, err := s.GetMetadata(keyPublishedAt)
	if err != nil {
		return info, err
	}
	if at != "" {
		if info.PublishedAt, err = time.Parse(time.RFC3339, at); err != nil {
			return info, err
		}
	}
	return info, nil
}
