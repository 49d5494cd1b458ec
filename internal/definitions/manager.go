package definitions

import (
	"sync/atomic"

	"go.uber.org/zap"

	"filewarden/pkg/models"
)

// Manager holds the active definition snapshot. Every pipeline call receives
// an explicit snapshot; an update builds a new set and swaps the reference
// atomically, it never mutates the set readers already hold.
type Manager struct {
	active atomic.Pointer[models.DefinitionSet]
	logger *zap.Logger
}

// NewManager loads the initial snapshot from the given path
func NewManager(definitionsPath string, logger *zap.Logger) (*Manager, error) {
	set, err := NewLoader(definitionsPath).Load()
	if err != nil {
		return nil, err
	}

	m := &Manager{logger: logger}
	m.active.Store(set)

	logger.Info("Loaded definitions",
		zap.String("version", set.Version()),
		zap.Int("signatures", set.Len()))

	return m, nil
}

// Active returns the current snapshot
func (m *Manager) Active() *models.DefinitionSet {
	return m.active.Load()
}

// Update loads definitions from ref and swaps the active snapshot. On any
// error the previous snapshot stays active.
func (m *Manager) Update(ref string) (*models.DefinitionSet, error) {
	set, err := NewLoader(ref).Load()
	if err != nil {
		return nil, err
	}

	old := m.active.Swap(set)
	m.logger.Info("Updated definitions",
		zap.String("old_version", old.Version()),
		zap.String("new_version", set.Version()),
		zap.Int("signatures", set.Len()))

	return set, nil
}
