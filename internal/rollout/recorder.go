// Package rollout records environment transitions to msgpack files for
// offline training and archives finished files to S3-compatible storage.
package rollout

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/kalshigym/internal/modules/environment"
)

const (
	// FileExtension marks a completed rollout file
	FileExtension = ".msgpack"
	// partialSuffix marks a file still being written
	partialSuffix = ".part"
)

// Transition is one recorded environment step
type Transition struct {
	RunID       string           `json:"run_id"`
	Strategy    string           `json:"strategy"`
	Episode     int              `json:"episode"`
	Step        int              `json:"step"`
	Observation []float32        `json:"observation"`
	Decision    int              `json:"decision"`
	SizeTier    int              `json:"size_tier"`
	Reward      float64          `json:"reward"`
	Terminated  bool             `json:"terminated"`
	Truncated   bool             `json:"truncated"`
	Info        environment.Info `json:"info"`
}

// Recorder appends transitions to <dir>/<runID>.msgpack. The file only
// appears under its final name after Close.
type Recorder struct {
	mu        sync.Mutex
	file      *os.File
	buf       *bufio.Writer
	enc       *msgpack.Encoder
	path      string
	finalPath string
	count     int
	closed    bool
}

// NewRecorder creates the rollout file for runID in dir
func NewRecorder(dir, runID string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create rollout directory: %w", err)
	}

	finalPath := filepath.Join(dir, runID+FileExtension)
	path := finalPath + partialSuffix

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create rollout file: %w", err)
	}

	buf := bufio.NewWriter(f)
	enc := msgpack.NewEncoder(buf)
	enc.SetCustomStructTag("json")

	return &Recorder{
		file:      f,
		buf:       buf,
		enc:       enc,
		path:      path,
		finalPath: finalPath,
	}, nil
}

// Record appends one transition
func (r *Recorder) Record(t Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New("rollout recorder is closed")
	}
	if err := r.enc.Encode(&t); err != nil {
		return fmt.Errorf("failed to encode transition: %w", err)
	}
	r.count++
	return nil
}

// Count returns the number of recorded transitions
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Path returns the final path of the rollout file
func (r *Recorder) Path() string {
	return r.finalPath
}

// Close flushes the file and moves it to its final name
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.buf.Flush(); err != nil {
		_ = r.file.Close()
		return fmt.Errorf("failed to flush rollout file: %w", err)
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close rollout file: %w", err)
	}
	if err := os.Rename(r.path, r.finalPath); err != nil {
		return fmt.Errorf("failed to finalise rollout file: %w", err)
	}
	return nil
}

// ReadAll decodes every transition in a rollout file
func ReadAll(path string) ([]Transition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rollout file: %w", err)
	}
	defer f.Close()

	dec := msgpack.NewDecoder(bufio.NewReader(f))
	dec.SetCustomStructTag("json")

	var out []Transition
	for {
		var t Transition
		if err := dec.Decode(&t); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("failed to decode transition %d: %w", len(out), err)
		}
		out = append(out, t)
	}
}
