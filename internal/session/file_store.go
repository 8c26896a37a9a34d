package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type fileSession struct {
	Values    map[string]string `json:"values"`
	Favorites []string          `json:"favorites"`
}

// FileStore keeps client state in a single JSON file. Used by the CLI, where
// there is exactly one user and no server-side store.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (map[string]*fileSession, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]*fileSession{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state file: read: %w", err)
	}
	sessions := map[string]*fileSession{}
	if len(data) == 0 {
		return sessions, nil
	}
	if err := json.Unmarshal(data, &sessions); err != nil {
		// A corrupt state file behaves like a fresh install.
		return map[string]*fileSession{}, nil
	}
	return sessions, nil
}

func (s *FileStore) save(sessions map[string]*fileSession) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("state file: mkdir: %w", err)
	}
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("state file: encode: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("state file: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("state file: rename: %w", err)
	}
	return nil
}

func (s *FileStore) update(sid string, fn func(fs *fileSession)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return err
	}
	fs, ok := sessions[sid]
	if !ok {
		fs = &fileSession{Values: map[string]string{}}
		sessions[sid] = fs
	}
	if fs.Values == nil {
		fs.Values = map[string]string{}
	}
	fn(fs)
	if len(fs.Values) == 0 && len(fs.Favorites) == 0 {
		delete(sessions, sid)
	}
	return s.save(sessions)
}

func (s *FileStore) read(sid string) (*fileSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return nil, err
	}
	if fs, ok := sessions[sid]; ok {
		return fs, nil
	}
	return &fileSession{}, nil
}

func (s *FileStore) Get(_ context.Context, sid, key string) (string, error) {
	fs, err := s.read(sid)
	if err != nil {
		return "", err
	}
	return fs.Values[key], nil
}

func (s *FileStore) Set(_ context.Context, sid, key, value string) error {
	return s.update(sid, func(fs *fileSession) { fs.Values[key] = value })
}

func (s *FileStore) Delete(_ context.Context, sid string, keys ...string) error {
	return s.update(sid, func(fs *fileSession) {
		for _, k := range keys {
			delete(fs.Values, k)
		}
	})
}

func (s *FileStore) Favorites(_ context.Context, sid string) ([]string, error) {
	fs, err := s.read(sid)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), fs.Favorites...), nil
}

func (s *FileStore) AddFavorite(_ context.Context, sid, marketID string) error {
	return s.update(sid, func(fs *fileSession) {
		for _, id := range fs.Favorites {
			if id == marketID {
				return
			}
		}
		fs.Favorites = append(fs.Favorites, marketID)
	})
}

func (s *FileStore) RemoveFavorite(_ context.Context, sid, marketID string) error {
	return s.update(sid, func(fs *fileSession) {
		kept := fs.Favorites[:0]
		for _, id := range fs.Favorites {
			if id != marketID {
				kept = append(kept, id)
			}
		}
		fs.Favorites = kept
	})
}

func (s *FileStore) ReplaceFavorites(_ context.Context, sid string, marketIDs []string) error {
	return s.update(sid, func(fs *fileSession) {
		fs.Favorites = dedupe(marketIDs)
	})
}

func (s *FileStore) ClearFavorites(_ context.Context, sid string) error {
	return s.update(sid, func(fs *fileSession) { fs.Favorites = nil })
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
