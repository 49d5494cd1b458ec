package vault

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"filewarden/pkg/models"
)

// Manifest is the append-only record log of the vault. One JSON line per
// record; a status change appends a superseding record with the same id,
// nothing is ever rewritten in place. The caller serializes appends.
type Manifest struct {
	path string
	file *os.File
}

// OpenManifest opens (or creates) the manifest file for appending
func OpenManifest(path string) (*Manifest, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest %s: %w", path, err)
	}

	return &Manifest{path: path, file: f}, nil
}

// Append writes one record as a single line and syncs it to disk
func (m *Manifest) Append(record *models.QuarantineRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode manifest record: %w", err)
	}

	if _, err := m.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append manifest record: %w", err)
	}

	return m.file.Sync()
}

// Replay reads every record in file order. Later records supersede earlier
// ones with the same id; the returned order is first-insertion order.
func (m *Manifest) Replay() ([]*models.QuarantineRecord, error) {
	f, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open manifest %s: %w", m.path, err)
	}
	defer f.Close()

	latest := make(map[uuid.UUID]*models.QuarantineRecord)
	var order []uuid.UUID

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record models.QuarantineRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("corrupt manifest line in %s: %w", m.path, err)
		}

		if _, seen := latest[record.ID]; !seen {
			order = append(order, record.ID)
		}
		latest[record.ID] = &record
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", m.path, err)
	}

	records := make([]*models.QuarantineRecord, 0, len(order))
	for _, id := range order {
		records = append(records, latest[id])
	}

	return records, nil
}

// Close closes the underlying file
func (m *Manifest) Close() error {
	return m.file.Close()
}
