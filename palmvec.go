package palmvec

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/palmvec/config"
	"github.com/hupe1980/palmvec/embedding"
	"github.com/hupe1980/palmvec/match"
	"github.com/hupe1980/palmvec/resource"
	"golang.org/x/sync/errgroup"
)

// Engine normalizes palm embeddings and matches them against candidate sources.
// It is safe for concurrent use.
type Engine struct {
	normalizer *embedding.Normalizer
	matcher    *match.Matcher
	cache      *decodeCache
	resources  *resource.Controller
	logger     *Logger
	metrics    MetricsCollector
	workers    int
}

// Identification is the outcome of Identify or FindDuplicate.
type Identification struct {
	// ID is the matched candidate; empty when Matched is false.
	ID      string
	Score   float64
	Matched bool
	// Index is the position of the match in the scanned population.
	Index int
	// Scanned is the candidate population size.
	Scanned int
}

// BatchResult is one NormalizeBatch outcome.
type BatchResult struct {
	Vector embedding.Vector
	Err    error
}

// New creates an Engine.
func New(optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)

	normalizer, err := embedding.NewNormalizer(o.embedding)
	if err != nil {
		return nil, translateError(err)
	}
	matcher, err := match.New(func(mo *match.Options) { *mo = o.match })
	if err != nil {
		return nil, err
	}
	cache, err := newDecodeCache(o.decodeCacheSize)
	if err != nil {
		return nil, err
	}

	return &Engine{
		normalizer: normalizer,
		matcher:    matcher,
		cache:      cache,
		resources:  o.resources,
		logger:     o.logger,
		metrics:    o.metricsCollector,
		workers:    o.batchWorkers,
	}, nil
}

// NewFromConfig creates an Engine from process configuration. Explicit
// options are applied after the configuration.
func NewFromConfig(cfg config.Config, optFns ...Option) (*Engine, error) {
	ec, err := cfg.EmbeddingConfig()
	if err != nil {
		return nil, err
	}

	logger := NewTextLogger(ParseLevel(cfg.Logging.Level))
	if cfg.Logging.Format == "json" {
		logger = NewJSONLogger(ParseLevel(cfg.Logging.Level))
	}

	base := []Option{
		WithEmbeddingConfig(ec),
		WithMatchOptions(cfg.MatchOptions()),
		WithDecodeCache(cfg.DecodeCacheSize),
		WithResourceController(resource.NewController(cfg.ResourceConfig())),
		WithLogger(logger),
	}
	return New(append(base, optFns...)...)
}

// Matcher returns the matcher in use.
func (e *Engine) Matcher() *match.Matcher { return e.matcher }

// Normalizer returns the normalizer in use.
func (e *Engine) Normalizer() *embedding.Normalizer { return e.normalizer }

// Logger returns the engine's logger.
func (e *Engine) Logger() *Logger { return e.logger }

// Decode runs the Base64 decoder alone. The result may contain the
// non-finite values the decoder tolerates.
func (e *Engine) Decode(ctx context.Context, text string) (embedding.Vector, error) {
	start := time.Now()
	v, rep, err := e.normalizer.Decoder().DecodeWithReport(text)
	e.logger.LogDecode(ctx, rep, err)
	e.metrics.RecordNormalize(rep, time.Since(start), err)
	return v, translateError(err)
}

// Normalize converts any accepted input into a canonical vector.
// Base64 inputs are served from the decode cache when enabled.
func (e *Engine) Normalize(ctx context.Context, in embedding.Input) (embedding.Vector, error) {
	text, isBase64 := in.(embedding.Base64)
	if isBase64 && e.cache != nil {
		v, hit := e.cache.get(string(text))
		e.metrics.RecordCache(hit)
		if hit {
			return v, nil
		}
	}

	start := time.Now()
	v, rep, err := e.normalizer.NormalizeWithReport(in)
	e.logger.LogNormalize(ctx, rep, err)
	e.metrics.RecordNormalize(rep, time.Since(start), err)
	if err != nil {
		return nil, translateError(err)
	}

	if isBase64 {
		e.cache.add(string(text), v)
	}
	return v, nil
}

// NormalizeJSON resolves a JSON value into an input shape and normalizes it.
func (e *Engine) NormalizeJSON(ctx context.Context, data []byte) (embedding.Vector, error) {
	in, err := embedding.ParseInput(data)
	if err != nil {
		return nil, translateError(err)
	}
	return e.Normalize(ctx, in)
}

// NormalizeBatch normalizes inputs in parallel. Results keep the input order
// and carry per-item errors. Items not started before ctx is done fail with
// the context error.
func (e *Engine) NormalizeBatch(ctx context.Context, inputs []embedding.Input) []BatchResult {
	start := time.Now()
	results := make([]BatchResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, in := range inputs {
		if err := gctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Vector, results[i].Err = e.Normalize(gctx, in)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	e.logger.LogBatch(ctx, len(inputs), failed)
	e.metrics.RecordBatch(len(inputs), failed, time.Since(start))
	return results
}

// Compare normalizes both inputs and scores them.
func (e *Engine) Compare(ctx context.Context, a, b embedding.Input) (match.Result, error) {
	va, err := e.Normalize(ctx, a)
	if err != nil {
		return match.Result{}, err
	}
	vb, err := e.Normalize(ctx, b)
	if err != nil {
		return match.Result{}, err
	}
	r, err := e.matcher.Compare(va, vb)
	return r, translateError(err)
}

// Hash normalizes in and returns its sampled hash.
func (e *Engine) Hash(ctx context.Context, in embedding.Input) (string, error) {
	v, err := e.Normalize(ctx, in)
	if err != nil {
		return "", err
	}
	return e.matcher.SampledHash(v), nil
}

// Identify finds the first verified candidate in src that matches query.
// An empty population is ErrNoCandidates; a populated one without a match
// returns Matched == false and no error.
func (e *Engine) Identify(ctx context.Context, src match.CandidateSource, query embedding.Input) (Identification, error) {
	id, err := e.scan(ctx, src, query)
	if err == nil && id.Scanned == 0 {
		err = ErrNoCandidates
	}
	return id, err
}

// HashLookup returns the verified candidates whose sampled hash equals hash.
// Registry.CandidatesByHash satisfies it directly.
type HashLookup func(ctx context.Context, hash string) ([]match.Candidate, error)

// IdentifyByHash scans the candidates sharing the query's sampled hash first
// and falls back to Identify over the whole of src when that bucket is empty
// or holds no match. Hash equality only orders the work; a palm whose hash
// differs from its enrolled hash is still found by the full scan.
//
// When several candidates match, a bucket hit may precede the first match of
// the full population order.
func (e *Engine) IdentifyByHash(ctx context.Context, src match.CandidateSource, lookup HashLookup, query embedding.Input) (Identification, error) {
	h, err := e.Hash(ctx, query)
	if err != nil {
		return Identification{}, err
	}
	bucket, err := lookup(ctx, h)
	if err != nil {
		return Identification{}, err
	}

	if len(bucket) > 0 {
		id, err := e.scan(ctx, match.SourceFunc(func(context.Context) ([]match.Candidate, error) {
			return bucket, nil
		}), query)
		if err != nil || id.Matched {
			return id, err
		}
	}
	return e.Identify(ctx, src, query)
}

// FindDuplicate reports whether query matches a verified candidate other
// than excludeID. An empty population is not an error.
func (e *Engine) FindDuplicate(ctx context.Context, src match.CandidateSource, query embedding.Input, excludeID string) (Identification, error) {
	var exclude []string
	if excludeID != "" {
		exclude = []string{excludeID}
	}
	return e.scan(ctx, src, query, exclude...)
}

func (e *Engine) scan(ctx context.Context, src match.CandidateSource, query embedding.Input, exclude ...string) (Identification, error) {
	v, err := e.Normalize(ctx, query)
	if err != nil {
		return Identification{}, err
	}

	release, err := e.resources.Admit(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "identification refused",
			"in_flight", e.resources.InFlight(),
			"rejected", e.resources.Rejected(),
			"error", err)
		return Identification{}, translateError(err)
	}
	defer release()

	start := time.Now()
	res, err := e.matcher.Scan(ctx, src, v, exclude...)
	id := Identification{
		ID:      res.Hit.ID,
		Score:   res.Hit.Score,
		Matched: res.Found,
		Index:   res.Hit.Index,
		Scanned: res.Scanned,
	}
	e.metrics.RecordIdentify(res.Scanned, res.Found, time.Since(start), err)
	e.logger.LogIdentify(ctx, id, err)

	if err != nil {
		var lm *match.LengthMismatchError
		if errors.As(err, &lm) {
			e.logger.WithIdentity(lm.CandidateID).WarnContext(ctx, "candidate has wrong length",
				"expected", lm.Expected, "actual", lm.Actual)
		}
		return id, translateError(err)
	}
	return id, nil
}
