package palmvec

import (
	"errors"
	"fmt"

	"github.com/hupe1980/palmvec/embedding"
	"github.com/hupe1980/palmvec/match"
	"github.com/hupe1980/palmvec/resource"
)

var (
	// ErrInvalidEmbedding is returned when an input cannot be turned into a
	// canonical vector. The embedding.Error cause stays reachable.
	ErrInvalidEmbedding = errors.New("palmvec: invalid embedding")

	// ErrLengthMismatch is returned when a candidate and the query differ in length.
	ErrLengthMismatch = errors.New("palmvec: length mismatch")

	// ErrNoCandidates is returned by Identify when the source has no verified candidates.
	ErrNoCandidates = errors.New("palmvec: no verified candidates")

	// ErrRateLimited is returned when the resource controller refuses an attempt.
	ErrRateLimited = errors.New("palmvec: rate limited")
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ee *embedding.Error
	if errors.As(err, &ee) {
		return fmt.Errorf("%w: %w", ErrInvalidEmbedding, err)
	}
	if errors.Is(err, match.ErrLengthMismatch) {
		return fmt.Errorf("%w: %w", ErrLengthMismatch, err)
	}
	if errors.Is(err, resource.ErrRateLimited) {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	return err
}
