package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/eslsoft/yorlect/internal/entity"
	"github.com/eslsoft/yorlect/internal/repository"
)

// TranslateState is what the Translate page shows for one contributor.
type TranslateState struct {
	Record *entity.UserRecord
	// Position is the zero-based cursor, i.e. record.Index.
	Position int
	Total    int
	// SentenceIndex is the dataset row under the cursor.
	SentenceIndex int
	Sentence      string
	// Unavailable is set when the dataset shrank below SentenceIndex.
	Unavailable bool
	Completed   bool
}

// ProgressUsecase manages a contributor's assignment, translations and
// metadata.
type ProgressUsecase interface {
	OpenTranslate(ctx context.Context, username string) (*TranslateState, error)
	Submit(ctx context.Context, username string, position int, text string) (*entity.UserRecord, error)
	Skip(ctx context.Context, username string, position int) (*entity.UserRecord, error)
	GetMetadata(ctx context.Context, username string) (entity.Metadata, error)
	SaveMetadata(ctx context.Context, username string, md entity.Metadata) (*entity.UserRecord, error)
}

// NewProgressUsecase wires the store and sentence source. A non-positive
// batch size falls back to DefaultBatchSize.
func NewProgressUsecase(store repository.ProgressStore, sentences repository.SentenceSource, batchSize int) ProgressUsecase {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &progressUsecase{
		store:     store,
		sentences: sentences,
		batchSize: batchSize,
		clock:     time.Now,
	}
}

type progressUsecase struct {
	store     repository.ProgressStore
	sentences repository.SentenceSource
	batchSize int
	clock     func() time.Time
}

func (u *progressUsecase) OpenTranslate(ctx context.Context, username string) (*TranslateState, error) {
	username = entity.NormalizeUsername(username)
	if username == "" {
		return nil, entity.ErrEmptyUsername
	}
	sentences, err := u.sentences.Load(ctx)
	if err != nil {
		return nil, err
	}

	// Assignment is frozen once non-empty; an empty one is retried so a
	// contributor registered past the end picks up sentences added later.
	rec, err := u.store.Update(ctx, username, func(r *entity.UserRecord) error {
		if len(r.Assigned) > 0 {
			return entity.ErrNoChange
		}
		r.Assigned = Assign(r.Seq, len(sentences), u.batchSize)
		r.Index = 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buildTranslateState(rec, sentences), nil
}

func (u *progressUsecase) Submit(ctx context.Context, username string, position int, text string) (*entity.UserRecord, error) {
	username = entity.NormalizeUsername(username)
	if username == "" {
		return nil, entity.ErrNotLoggedIn
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, entity.ErrEmptyTranslation
	}
	sentences, err := u.sentences.Load(ctx)
	if err != nil {
		return nil, err
	}

	return u.store.Update(ctx, username, func(r *entity.UserRecord) error {
		idx, err := u.cursor(r, position)
		if err != nil {
			return err
		}
		if idx >= len(sentences) {
			return entity.ErrSentenceUnavailable
		}
		r.Translations[strconv.Itoa(idx)] = entity.TranslationEntry{
			English:     sentences[idx],
			Translation: text,
			Timestamp:   u.clock().Format(time.RFC3339Nano),
		}
		r.Index++
		return nil
	})
}

func (u *progressUsecase) Skip(ctx context.Context, username string, position int) (*entity.UserRecord, error) {
	username = entity.NormalizeUsername(username)
	if username == "" {
		return nil, entity.ErrNotLoggedIn
	}
	sentences, err := u.sentences.Load(ctx)
	if err != nil {
		return nil, err
	}

	return u.store.Update(ctx, username, func(r *entity.UserRecord) error {
		idx, err := u.cursor(r, position)
		if err != nil {
			return err
		}
		if idx < len(sentences) {
			return entity.ErrSentenceAvailable
		}
		r.Index++
		return nil
	})
}

func (u *progressUsecase) GetMetadata(ctx context.Context, username string) (entity.Metadata, error) {
	rec, err := u.store.Get(ctx, entity.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return entity.Metadata{}, nil
		}
		return entity.Metadata{}, err
	}
	return rec.Metadata, nil
}

func (u *progressUsecase) SaveMetadata(ctx context.Context, username string, md entity.Metadata) (*entity.UserRecord, error) {
	username = entity.NormalizeUsername(username)
	if username == "" {
		return nil, entity.ErrNotLoggedIn
	}
	md.Normalize()
	if err := md.Validate(); err != nil {
		return nil, err
	}
	return u.store.Update(ctx, username, func(r *entity.UserRecord) error {
		r.Metadata = md
		return nil
	})
}

// cursor resolves the sentence under the record's cursor and checks that the
// caller is acting on the position it was shown.
func (u *progressUsecase) cursor(r *entity.UserRecord, position int) (int, error) {
	idx, ok := r.CurrentSentence()
	if !ok {
		return 0, entity.ErrAssignmentComplete
	}
	if position != r.Index {
		return 0, entity.ErrStaleSubmission
	}
	return idx, nil
}

func buildTranslateState(rec *entity.UserRecord, sentences []string) *TranslateState {
	state := &TranslateState{
		Record:   rec,
		Position: rec.Index,
		Total:    len(rec.Assigned),
	}
	idx, ok := rec.CurrentSentence()
	if !ok {
		state.Completed = true
		return state
	}
	state.SentenceIndex = idx
	if idx >= len(sentences) {
		state.Unavailable = true
		return state
	}
	state.Sentence = sentences[idx]
	return state
}
