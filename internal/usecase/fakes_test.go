package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/eslsoft/yorlect/internal/entity"
	"github.com/eslsoft/yorlect/internal/repository"
)

type fakeProgressStore struct {
	mu     sync.Mutex
	snap   *entity.ProgressSnapshot
	writes int
	err    error
}

func newFakeProgressStore(records ...*entity.UserRecord) *fakeProgressStore {
	return &fakeProgressStore{snap: entity.NewProgressSnapshot(records...)}
}

func (s *fakeProgressStore) Load(ctx context.Context) (*entity.ProgressSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := entity.NewProgressSnapshot()
	for _, r := range s.snap.Records() {
		out.Put(r.Clone())
	}
	return out, nil
}

func (s *fakeProgressStore) Save(ctx context.Context, snap *entity.ProgressSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.writes++
	return nil
}

func (s *fakeProgressStore) Get(ctx context.Context, username string) (*entity.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	r, ok := s.snap.Get(username)
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	return r.Clone(), nil
}

func (s *fakeProgressStore) Update(ctx context.Context, username string, fn repository.UpdateFunc) (*entity.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	rec, ok := s.snap.Get(username)
	if !ok {
		rec = entity.NewUserRecord(username, s.snap.NextSeq())
	}
	work := rec.Clone()
	if err := fn(work); err != nil {
		if errors.Is(err, entity.ErrNoChange) {
			return work, nil
		}
		return nil, err
	}
	s.snap.Put(work)
	s.writes++
	return work.Clone(), nil
}

func (s *fakeProgressStore) Ping(ctx context.Context) error { return s.err }

func (s *fakeProgressStore) record(username string) *entity.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, _ := s.snap.Get(username)
	return r
}

type fakeSentences struct {
	mu        sync.Mutex
	sentences []string
	err       error
}

func newFakeSentences(n int) *fakeSentences {
	out := make([]string, n)
	for i := range out {
		out[i] = "sentence " + strconv.Itoa(i)
	}
	return &fakeSentences{sentences: out}
}

func (f *fakeSentences) Load(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]string(nil), f.sentences...), nil
}

func (f *fakeSentences) truncate(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentences = f.sentences[:n]
}
