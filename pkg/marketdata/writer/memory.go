package writer

import (
	"fmt"
	"sync"

	"github.com/rxtech-lab/pairwise-alpha/internal/types"
)

// MemoryWriter collects market data in memory instead of writing a file.
// It lets a provider download feed an in-process fetch.
type MemoryWriter struct {
	mu          sync.Mutex
	data        []types.MarketData
	initialized bool
}

// NewMemoryWriter creates a new MemoryWriter.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{}
}

// Initialize discards anything collected by a previous download.
func (w *MemoryWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.data = nil
	w.initialized = true

	return nil
}

func (w *MemoryWriter) Write(data types.MarketData) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.initialized {
		return fmt.Errorf("writer not initialized")
	}

	w.data = append(w.data, data)

	return nil
}

// Finalize has nothing to flush. The output path is always empty.
func (w *MemoryWriter) Finalize() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.initialized {
		return "", fmt.Errorf("writer not initialized")
	}

	return "", nil
}

// Close keeps the collected data readable through Data.
func (w *MemoryWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.initialized = false

	return nil
}

func (w *MemoryWriter) GetOutputPath() string {
	return ""
}

// Data returns a copy of the collected bars.
func (w *MemoryWriter) Data() []types.MarketData {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]types.MarketData, len(w.data))
	copy(out, w.data)

	return out
}
