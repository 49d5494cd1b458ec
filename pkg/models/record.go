package models

import (
	"time"

	"github.com/google/uuid"
)

// QuarantineStatus is the lifecycle state of a quarantined file.
// Transitions are one-way: Active -> Restored or Active -> Deleted.
type QuarantineStatus string

const (
	StatusActive   QuarantineStatus = "active"
	StatusRestored QuarantineStatus = "restored"
	StatusDeleted  QuarantineStatus = "deleted"
)

// QuarantineRecord tracks one isolated file. Persisted as one JSON line in
// the vault manifest; the ID never changes once assigned.
type QuarantineRecord struct {
	ID            uuid.UUID        `json:"id"`
	OriginalPath  string           `json:"original_path"`
	VaultPath     string           `json:"vault_path"`
	MD5           string           `json:"md5"`
	SHA256        string           `json:"sha256"`
	Reason        string           `json:"reason"`
	QuarantinedAt time.Time        `json:"quarantined_at"`
	Status        QuarantineStatus `json:"status"`
}
