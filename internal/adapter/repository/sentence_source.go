package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/eslsoft/yorlect/internal/entity"
	"github.com/eslsoft/yorlect/internal/repository"
)

const utf8BOM = "\ufeff"

// CSVSentenceSource reads one column of a CSV dataset, from an http(s) URL,
// a file:// URL or a local path, and caches the result for a while.
type CSVSentenceSource struct {
	location string
	column   string
	ttl      time.Duration
	client   *http.Client
	clock    func() time.Time

	mu        sync.Mutex
	cached    []string
	fetchedAt time.Time
}

var _ repository.SentenceSource = (*CSVSentenceSource)(nil)

// SentenceSourceOption customises a CSVSentenceSource.
type SentenceSourceOption func(*CSVSentenceSource)

// WithCacheTTL keeps loaded sentences for ttl; zero disables caching.
func WithCacheTTL(ttl time.Duration) SentenceSourceOption {
	return func(s *CSVSentenceSource) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithHTTPClient replaces the client used for remote datasets.
func WithHTTPClient(c *http.Client) SentenceSourceOption {
	return func(s *CSVSentenceSource) {
		if c != nil {
			s.client = c
		}
	}
}

// NewCSVSentenceSource builds a source for the given column.
func NewCSVSentenceSource(location, column string, opts ...SentenceSourceOption) *CSVSentenceSource {
	s := &CSVSentenceSource{
		location: strings.TrimSpace(location),
		column:   column,
		client:   &http.Client{Timeout: 30 * time.Second},
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the sentences, fetching them when the cache is cold.
func (s *CSVSentenceSource) Load(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if s.ttl > 0 && s.cached != nil && now.Sub(s.fetchedAt) < s.ttl {
		return s.cached, nil
	}

	rc, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	sentences, err := ReadSentenceColumn(rc, s.column)
	if err != nil {
		return nil, err
	}
	if s.ttl > 0 {
		s.cached = sentences
		s.fetchedAt = now
	}
	return sentences, nil
}

// Invalidate drops the cached dataset.
func (s *CSVSentenceSource) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func (s *CSVSentenceSource) open(ctx context.Context) (io.ReadCloser, error) {
	if s.location == "" {
		return nil, errors.New("sentence dataset location is not configured")
	}
	u, err := url.Parse(s.location)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return s.fetch(ctx, s.location)
		case "file":
			return os.Open(u.Path)
		}
	}
	f, err := os.Open(s.location)
	if err != nil {
		return nil, fmt.Errorf("open sentence dataset: %w", err)
	}
	return f, nil
}

func (s *CSVSentenceSource) fetch(ctx context.Context, location string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sentence dataset: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch sentence dataset: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// ReadSentenceColumn parses CSV with a header row and returns the values of
// the named column in row order.
func ReadSentenceColumn(r io.Reader, column string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %q (empty dataset)", entity.ErrMissingSentenceColumn, column)
		}
		return nil, fmt.Errorf("parse sentence dataset header: %w", err)
	}
	col := -1
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%w: %q", entity.ErrMissingSentenceColumn, column)
	}

	sentences := []string{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse sentence dataset: %w", err)
		}
		if col < len(record) {
			sentences = append(sentences, record[col])
		} else {
			sentences = append(sentences, "")
		}
	}
	return sentences, nil
}
