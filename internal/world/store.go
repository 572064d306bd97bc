package world

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Store persists world snapshots.
type Store interface {
	Load() (Snapshot, error)
	Save(snap Snapshot) error
	Close() error
}

// Backend names accepted by OpenStore.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// OpenStore opens the state store for backend rooted at dir.
func OpenStore(backend, dir string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(dir)
	case BackendBadger:
		return OpenBadgerStore(dir)
	default:
		return nil, fmt.Errorf("%q: %w", backend, ErrUnknownBackend)
	}
}

// FileStore keeps the snapshot in one zstd-compressed JSON file.
type FileStore struct {
	filePath string
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

// StateFile is the file name used by FileStore.
const StateFile = "world.json.zst"

// NewFileStore creates a FileStore in dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &FileStore{
		filePath: filepath.Join(dir, StateFile),
		encoder:  enc,
		decoder:  dec,
	}, nil
}

// Load reads the snapshot, or returns ErrStateNotFound.
func (s *FileStore) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, ErrStateNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read state: %w", err)
	}

	raw, err := s.decoder.DecodeAll(data, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decompress state: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal: %w", err)
	}
	return snap, nil
}

// Save writes the snapshot atomically.
func (s *FileStore) Save(snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	// Write atomically by writing to temp file then renaming
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, s.encoder.EncodeAll(data, nil), 0600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Close releases the compressors.
func (s *FileStore) Close() error {
	s.decoder.Close()
	return s.encoder.Close()
}
