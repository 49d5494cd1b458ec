package vault

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"filewarden/internal/filesystem"
	"filewarden/pkg/models"
)

var (
	// ErrNotFound means no record (or no record in the required state)
	// matches the given id or original path
	ErrNotFound = errors.New("quarantine record not found")

	// ErrIntegrity means a vault copy's hash no longer matches the hash
	// stored at isolation time
	ErrIntegrity = errors.New("vault copy hash mismatch")

	// ErrDuplicate means the restore destination is already occupied
	ErrDuplicate = errors.New("restore target already exists")
)

const manifestName = "manifest.jsonl"

// Vault isolates detected files under a dedicated root directory and tracks
// them in an append-only manifest. Status transitions are one-way:
// Active -> Restored or Active -> Deleted, never back.
//
// All state mutation happens under one mutex, which also gives the manifest
// its single-writer discipline: two concurrent isolations can never
// interleave partial entries.
type Vault struct {
	root    string
	logger  *zap.Logger
	emitter models.Emitter

	mu           sync.Mutex
	manifest     *Manifest
	records      map[uuid.UUID]*models.QuarantineRecord
	order        []uuid.UUID
	activeByPath map[string]uuid.UUID
}

// Open creates the vault directory if needed and replays the manifest
func Open(root string, emitter models.Emitter, logger *zap.Logger) (*Vault, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create vault root %s: %w", root, err)
	}

	manifest, err := OpenManifest(filepath.Join(root, manifestName))
	if err != nil {
		return nil, err
	}

	replayed, err := manifest.Replay()
	if err != nil {
		manifest.Close()
		return nil, err
	}

	v := &Vault{
		root:         root,
		logger:       logger,
		emitter:      emitter,
		manifest:     manifest,
		records:      make(map[uuid.UUID]*models.QuarantineRecord, len(replayed)),
		activeByPath: make(map[string]uuid.UUID),
	}

	for _, record := range replayed {
		v.records[record.ID] = record
		v.order = append(v.order, record.ID)
		if record.Status == models.StatusActive {
			v.activeByPath[record.OriginalPath] = record.ID
		}
	}

	logger.Debug("Opened vault",
		zap.String("root", root),
		zap.Int("records", len(v.order)),
		zap.Int("active", len(v.activeByPath)))

	return v, nil
}

// Close releases the manifest file
func (v *Vault) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.manifest.Close()
}

// Isolate moves a detected file into the vault. The sequence is observably
// all-or-nothing: copy into a temporary slot named by a fresh UUID, verify
// the copy's hash against the source hash, rename into place, append the
// manifest record, and only then remove the original. Any failure discards
// the slot and writes no manifest entry.
//
// Isolating a path that already has an Active record returns that record;
// there is never a second Active record for the same file.
func (v *Vault) Isolate(path string, hash models.FileHash, reason string) (*models.QuarantineRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if id, ok := v.activeByPath[path]; ok {
		existing := *v.records[id]
		return &existing, nil
	}

	id := uuid.New()
	tmpPath := filepath.Join(v.root, id.String()+".tmp")
	vaultPath := filepath.Join(v.root, id.String()+".bin")

	if err := filesystem.CopyFile(path, tmpPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to copy %s into vault: %w", path, err)
	}

	copyHash, err := filesystem.HashFile(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to verify vault copy of %s: %w", path, err)
	}
	if copyHash.SHA256 != hash.SHA256 {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("isolating %s: %w", path, ErrIntegrity)
	}

	if err := os.Rename(tmpPath, vaultPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to commit vault slot for %s: %w", path, err)
	}

	record := &models.QuarantineRecord{
		ID:            id,
		OriginalPath:  path,
		VaultPath:     vaultPath,
		MD5:           hash.MD5,
		SHA256:        hash.SHA256,
		Reason:        reason,
		QuarantinedAt: time.Now().UTC(),
		Status:        models.StatusActive,
	}

	if err := v.manifest.Append(record); err != nil {
		os.Remove(vaultPath)
		return nil, err
	}

	// Committed. Removing the original can no longer fail the isolation.
	if err := os.Remove(path); err != nil {
		v.logger.Warn("Quarantined file committed but original not removed",
			zap.String("path", path), zap.Error(err))
	}

	v.records[id] = record
	v.order = append(v.order, id)
	v.activeByPath[path] = id

	v.logger.Info("File quarantined",
		zap.String("path", path),
		zap.String("id", id.String()),
		zap.String("reason", reason))
	v.emit(models.EventQuarantined, record)

	result := *record
	return &result, nil
}

// Restore writes an Active vault copy back to its original path and marks
// the record Restored. The copy's hash is recomputed first; a mismatch is
// fatal for this call only and the record stays Active.
func (v *Vault) Restore(idOrPath string) (*models.QuarantineRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	record, err := v.findActive(idOrPath)
	if err != nil {
		return nil, err
	}

	copyHash, err := filesystem.HashFile(record.VaultPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault copy %s: %w", record.VaultPath, err)
	}
	if copyHash.SHA256 != record.SHA256 {
		return nil, fmt.Errorf("restoring %s: %w", record.OriginalPath, ErrIntegrity)
	}

	if _, err := os.Stat(record.OriginalPath); err == nil {
		return nil, fmt.Errorf("restoring %s: %w", record.OriginalPath, ErrDuplicate)
	}

	if err := filesystem.CopyFile(record.VaultPath, record.OriginalPath); err != nil {
		return nil, fmt.Errorf("failed to restore %s: %w", record.OriginalPath, err)
	}

	updated := *record
	updated.Status = models.StatusRestored
	if err := v.manifest.Append(&updated); err != nil {
		return nil, err
	}

	if err := os.Remove(record.VaultPath); err != nil {
		v.logger.Warn("Restored file but vault copy not removed",
			zap.String("vault_path", record.VaultPath), zap.Error(err))
	}

	v.records[record.ID] = &updated
	delete(v.activeByPath, record.OriginalPath)

	v.logger.Info("File restored",
		zap.String("path", updated.OriginalPath),
		zap.String("id", updated.ID.String()))
	v.emit(models.EventRestored, &updated)

	result := updated
	return &result, nil
}

// Delete permanently erases an Active vault copy and marks the record
// Deleted
func (v *Vault) Delete(idOrPath string) (*models.QuarantineRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	record, err := v.findActive(idOrPath)
	if err != nil {
		return nil, err
	}

	if err := os.Remove(record.VaultPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to erase vault copy %s: %w", record.VaultPath, err)
	}

	updated := *record
	updated.Status = models.StatusDeleted
	if err := v.manifest.Append(&updated); err != nil {
		return nil, err
	}

	v.records[record.ID] = &updated
	delete(v.activeByPath, record.OriginalPath)

	v.logger.Info("Quarantined file deleted",
		zap.String("path", updated.OriginalPath),
		zap.String("id", updated.ID.String()))
	v.emit(models.EventDeleted, &updated)

	result := updated
	return &result, nil
}

// List returns a restartable sequence of all records, any status, in
// insertion order. Each restart observes a fresh snapshot.
func (v *Vault) List() iter.Seq[*models.QuarantineRecord] {
	return func(yield func(*models.QuarantineRecord) bool) {
		v.mu.Lock()
		snapshot := make([]*models.QuarantineRecord, 0, len(v.order))
		for _, id := range v.order {
			record := *v.records[id]
			snapshot = append(snapshot, &record)
		}
		v.mu.Unlock()

		for _, record := range snapshot {
			if !yield(record) {
				return
			}
		}
	}
}

// findActive resolves an id or an original path to its Active record.
// Callers hold v.mu.
func (v *Vault) findActive(idOrPath string) (*models.QuarantineRecord, error) {
	if id, err := uuid.Parse(idOrPath); err == nil {
		record, ok := v.records[id]
		if !ok {
			return nil, fmt.Errorf("%s: %w", idOrPath, ErrNotFound)
		}
		if record.Status != models.StatusActive {
			return nil, fmt.Errorf("%s is %s: %w", idOrPath, record.Status, ErrNotFound)
		}
		return record, nil
	}

	id, ok := v.activeByPath[idOrPath]
	if !ok {
		return nil, fmt.Errorf("%s: %w", idOrPath, ErrNotFound)
	}
	return v.records[id], nil
}

func (v *Vault) emit(kind models.EventKind, record *models.QuarantineRecord) {
	if v.emitter == nil {
		return
	}

	copied := *record
	v.emitter.Emit(models.Event{
		Kind:      kind,
		Path:      record.OriginalPath,
		Record:    &copied,
		Timestamp: time.Now().UTC(),
	})
}
