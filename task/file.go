package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileFormat selects the encoding used by FileBackend.
type FileFormat string

const (
	FormatJSON FileFormat = "json"
	FormatYAML FileFormat = "yaml"
)

// FileBackend stores the snapshot as two files in a directory:
// tasks.<ext> and nextId.<ext>.
type FileBackend struct {
	dir    string
	format FileFormat
}

// NewFileBackend creates dir if needed. An empty format means JSON.
func NewFileBackend(dir string, format FileFormat) (*FileBackend, error) {
	switch format {
	case "":
		format = FormatJSON
	case FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unsupported file format %q (supported: json, yaml)", format)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{dir: dir, format: format}, nil
}

func (b *FileBackend) Persistent() bool { return true }

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+"."+string(b.format))
}

func (b *FileBackend) Load(_ context.Context) (Snapshot, error) {
	snap := emptySnapshot()
	if _, err := b.read(keyTasks, &snap.Tasks); err != nil {
		return Snapshot{}, err
	}
	if _, err := b.read(keyNextID, &snap.NextID); err != nil {
		return Snapshot{}, err
	}
	return snap.normalize(), nil
}

func (b *FileBackend) Save(_ context.Context, snap Snapshot) error {
	snap = snap.normalize()
	// Counter first: an interrupted save then skips an id instead of
	// handing one out twice.
	if err := b.write(keyNextID, snap.NextID); err != nil {
		return err
	}
	return b.write(keyTasks, snap.Tasks)
}

func (b *FileBackend) read(key string, v any) (bool, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}

	switch b.format {
	case FormatYAML:
		err = yaml.Unmarshal(data, v)
	default:
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (b *FileBackend) write(key string, v any) error {
	var (
		data []byte
		err  error
	)
	switch b.format {
	case FormatYAML:
		data, err = yaml.Marshal(v)
	default:
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, b.path(key)); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}
