package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"filewarden/pkg/models"
)

const eventLogName = "events.jsonl"

// jsonlEmitter is the external event-stream consumer: it appends every
// pipeline and vault event as one JSON line under the logs directory.
type jsonlEmitter struct {
	mu   sync.Mutex
	file *os.File
}

// newJSONLEmitter opens (or creates) the event log for appending
func newJSONLEmitter(dir string) (*jsonlEmitter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(filepath.Join(dir, eventLogName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}

	return &jsonlEmitter{file: f}, nil
}

// Emit implements models.Emitter. Event logging is best-effort; a failed
// write never disturbs the scan.
func (e *jsonlEmitter) Emit(event models.Event) {
	line, err := json.Marshal(event)
	if err != nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.file.Write(append(line, '\n'))
}

// Close closes the event log
func (e *jsonlEmitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.file.Close()
}

// readRecentEvents returns the last n events from the log, oldest first
func readRecentEvents(dir string, n int) ([]models.Event, error) {
	f, err := os.Open(filepath.Join(dir, eventLogName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	var events []models.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event models.Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue // tolerate torn trailing lines
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}
