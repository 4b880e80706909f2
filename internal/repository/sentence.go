package repository

import "context"

// SentenceSource provides the ordered list of source-language sentences.
type SentenceSource interface {
	Load(ctx context.Context) ([]string, error)
}
