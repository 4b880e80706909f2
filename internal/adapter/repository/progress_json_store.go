package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/eslsoft/yorlect/internal/entity"
	"github.com/eslsoft/yorlect/internal/repository"
)

const jsonIndent = "    "

// JSONFileStore keeps every user record in a single JSON document and
// rewrites it wholesale on each mutation. Writers inside one process are
// serialised; several processes sharing the same file are not supported.
type JSONFileStore struct {
	path string
	mu   sync.Mutex
}

var _ repository.ProgressStore = (*JSONFileStore)(nil)

// NewJSONFileStore returns a store backed by the file at path. The file is
// created on first write.
func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

// Path returns the backing file.
func (s *JSONFileStore) Path() string { return s.path }

func (s *JSONFileStore) Load(ctx context.Context) (*entity.ProgressSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *JSONFileStore) Save(ctx context.Context, snapshot *entity.ProgressSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(snapshot)
}

func (s *JSONFileStore) Get(ctx context.Context, username string) (*entity.UserRecord, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := snap.Get(username)
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	return rec.Clone(), nil
}

func (s *JSONFileStore) Update(ctx context.Context, username string, fn repository.UpdateFunc) (*entity.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	rec, ok := snap.Get(username)
	if !ok {
		rec = entity.NewUserRecord(username, snap.NextSeq())
	}
	work := rec.Clone()
	if err := fn(work); err != nil {
		if errors.Is(err, entity.ErrNoChange) {
			return work, nil
		}
		return nil, err
	}
	work.Username = username
	snap.Put(work)
	if err := s.writeLocked(snap); err != nil {
		return nil, err
	}
	return work.Clone(), nil
}

func (s *JSONFileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("progress store directory: %w", err)
	}
	return nil
}

func (s *JSONFileStore) readLocked() (*entity.ProgressSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entity.NewProgressSnapshot(), nil
		}
		return nil, fmt.Errorf("read progress file: %w", err)
	}
	snap, err := DecodeProgressJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse progress file %s: %w", s.path, err)
	}
	return snap, nil
}

func (s *JSONFileStore) writeLocked(snapshot *entity.ProgressSnapshot) error {
	data, err := EncodeProgressJSON(snapshot)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create progress directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".progress-*.json")
	if err != nil {
		return fmt.Errorf("create temp progress file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write progress file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync progress file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close progress file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod progress file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace progress file: %w", err)
	}
	return nil
}

// jsonUserRecord mirrors the on-disk record; pointers detect absent keys.
type jsonUserRecord struct {
	Seq          *int                               `json:"seq"`
	Metadata     *entity.Metadata                   `json:"metadata"`
	Assigned     []int                              `json:"assigned"`
	Translations map[string]entity.TranslationEntry `json:"translations"`
	Index        *int                               `json:"index"`
}

// DecodeProgressJSON parses a progress document, keeping the key order of
// the file. Records without a registration number receive one based on
// their position in the file; missing fields are defaulted.
func DecodeProgressJSON(data []byte) (*entity.ProgressSnapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return entity.NewProgressSnapshot(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	type pending struct {
		name string
		raw  jsonUserRecord
	}
	var (
		entries []pending
		seen    = map[string]int{}
	)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}
		var raw jsonUserRecord
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("user %q: %w", name, err)
		}
		// a repeated key replaces the earlier value, as with a plain decode
		if i, dup := seen[name]; dup {
			entries[i].raw = raw
			continue
		}
		seen[name] = len(entries)
		entries = append(entries, pending{name: name, raw: raw})
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	taken := make(map[int]bool, len(entries))
	next := 0
	for _, e := range entries {
		if e.raw.Seq != nil {
			taken[*e.raw.Seq] = true
			if *e.raw.Seq >= next {
				next = *e.raw.Seq + 1
			}
		}
	}

	records := make([]*entity.UserRecord, 0, len(entries))
	for pos, e := range entries {
		rec := &entity.UserRecord{
			Username:     e.name,
			Assigned:     e.raw.Assigned,
			Translations: e.raw.Translations,
		}
		switch {
		case e.raw.Seq != nil:
			rec.Seq = *e.raw.Seq
		case !taken[pos]:
			rec.Seq = pos
			taken[pos] = true
			if pos >= next {
				next = pos + 1
			}
		default:
			rec.Seq = next
			taken[next] = true
			next++
		}
		if e.raw.Metadata != nil {
			rec.Metadata = *e.raw.Metadata
		}
		if e.raw.Index != nil {
			rec.Index = *e.raw.Index
		}
		rec.Normalize()
		records = append(records, rec)
	}
	return entity.NewProgressSnapshot(records...), nil
}

// EncodeProgressJSON renders the snapshot in registration order with
// four-space indentation.
func EncodeProgressJSON(snapshot *entity.ProgressSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	records := snapshot.Records()
	if len(records) == 0 {
		buf.WriteString("{}\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("{\n")
	for i, rec := range records {
		key, err := json.Marshal(rec.Username)
		if err != nil {
			return nil, fmt.Errorf("encode username: %w", err)
		}
		body, err := json.MarshalIndent(rec, jsonIndent, jsonIndent)
		if err != nil {
			return nil, fmt.Errorf("encode user %q: %w", rec.Username, err)
		}
		buf.WriteString(jsonIndent)
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(body)
		if i < len(records)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
