package gallery

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/hupe1980/palmvec/match"
)

// DefaultDimension is the canonical embedding length.
const DefaultDimension = 512

// Record is one stored embedding.
type Record struct {
	ID       string
	Vector   []float64
	Verified bool
}

// Options configures a Gallery.
type Options struct {
	// Dimension is the required vector length.
	Dimension int
	// Hash computes the bucket key of a vector. Defaults to match.SampledHash.
	Hash func(v []float64) string
}

type entry struct {
	id     string
	vector []float64
	hash   string
}

// Gallery is an in-memory candidate population.
// It is safe for concurrent use.
type Gallery struct {
	mu sync.RWMutex

	opts Options

	entries    []entry
	byID       map[string]uint32
	verified   *ordinalSet
	tombstones *ordinalSet
	buckets    map[string]*ordinalSet
}

var _ match.CandidateSource = (*Gallery)(nil)

// New creates an empty gallery.
func New(optFns ...func(o *Options)) *Gallery {
	opts := Options{
		Dimension: DefaultDimension,
		Hash:      match.SampledHash,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Hash == nil {
		opts.Hash = match.SampledHash
	}

	return &Gallery{
		opts:       opts,
		byID:       make(map[string]uint32),
		verified:   newOrdinalSet(),
		tombstones: newOrdinalSet(),
		buckets:    make(map[string]*ordinalSet),
	}
}

// Dimension returns the required vector length.
func (g *Gallery) Dimension() int { return g.opts.Dimension }

// Upsert stores rec. An existing record with the same ID keeps its ordinal,
// so re-enrollment does not change the scan order.
func (g *Gallery) Upsert(rec Record) error {
	if err := g.validate(rec); err != nil {
		return err
	}

	vec := slices.Clone(rec.Vector)
	hash := g.opts.Hash(vec)

	g.mu.Lock()
	defer g.mu.Unlock()

	ord, ok := g.byID[rec.ID]
	if ok {
		g.unbucket(ord)
		g.entries[ord].vector = vec
		g.entries[ord].hash = hash
	} else {
		if len(g.entries) == math.MaxUint32 {
			return fmt.Errorf("%w: ordinal space exhausted", ErrInvalidRecord)
		}
		ord = uint32(len(g.entries))
		g.entries = append(g.entries, entry{id: rec.ID, vector: vec, hash: hash})
		g.byID[rec.ID] = ord
	}

	g.bucket(ord, hash)
	if rec.Verified {
		g.verified.Add(ord)
	} else {
		g.verified.Remove(ord)
	}
	return nil
}

func (g *Gallery) validate(rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if len(rec.Vector) != g.opts.Dimension {
		return fmt.Errorf("%w: %q has %d values, want %d", ErrInvalidRecord, rec.ID, len(rec.Vector), g.opts.Dimension)
	}
	for i, x := range rec.Vector {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %q has non-finite value at index %d", ErrInvalidRecord, rec.ID, i)
		}
	}
	return nil
}

func (g *Gallery) bucket(ord uint32, hash string) {
	b, ok := g.buckets[hash]
	if !ok {
		b = newOrdinalSet()
		g.buckets[hash] = b
	}
	b.Add(ord)
}

func (g *Gallery) unbucket(ord uint32) {
	hash := g.entries[ord].hash
	if b, ok := g.buckets[hash]; ok {
		b.Remove(ord)
		if b.IsEmpty() {
			delete(g.buckets, hash)
		}
	}
}

// SetVerified changes the verified flag of an existing record.
func (g *Gallery) SetVerified(id string, verified bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	ord, ok := g.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if verified {
		g.verified.Add(ord)
	} else {
		g.verified.Remove(ord)
	}
	return nil
}

// Delete tombstones the record with the given ID.
// It reports whether the record existed.
func (g *Gallery) Delete(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	ord, ok := g.byID[id]
	if !ok {
		return false
	}
	g.unbucket(ord)
	g.verified.Remove(ord)
	g.tombstones.Add(ord)
	delete(g.byID, id)
	g.entries[ord].vector = nil
	return true
}

// Get returns a copy of the record with the given ID.
func (g *Gallery) Get(id string) (Record, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ord, ok := g.byID[id]
	if !ok {
		return Record{}, false
	}
	return g.record(ord), true
}

func (g *Gallery) record(ord uint32) Record {
	e := g.entries[ord]
	return Record{
		ID:       e.id,
		Vector:   slices.Clone(e.vector),
		Verified: g.verified.Contains(ord),
	}
}

// Len returns the number of live records.
func (g *Gallery) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.byID)
}

// VerifiedCount returns the number of verified records.
func (g *Gallery) VerifiedCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.verified.Cardinality()
}

// Tombstones returns the number of deleted records not yet compacted.
func (g *Gallery) Tombstones() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.tombstones.Cardinality()
}

// Records returns all live records in ordinal order.
func (g *Gallery) Records() []Record {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Record, 0, len(g.byID))
	for i := range g.entries {
		ord := uint32(i)
		if g.tombstones.Contains(ord) {
			continue
		}
		out = append(out, g.record(ord))
	}
	return out
}

// FetchVerifiedCandidates returns the verified records in enrollment order.
// Vectors are shared with the gallery and must not be modified.
func (g *Gallery) FetchVerifiedCandidates(ctx context.Context) ([]match.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.candidates(g.verified), nil
}

// CandidatesByHash returns the verified records whose sampled hash equals hash.
func (g *Gallery) CandidatesByHash(hash string) []match.Candidate {
	g.mu.RLock()
	defer g.mu.RUnlock()

	b, ok := g.buckets[hash]
	if !ok {
		return nil
	}
	return g.candidates(b.Intersect(g.verified))
}

func (g *Gallery) candidates(set *ordinalSet) []match.Candidate {
	out := make([]match.Candidate, 0, set.Cardinality())
	for ord := range set.All() {
		e := g.entries[ord]
		out = append(out, match.Candidate{ID: e.id, Vector: e.vector})
	}
	return out
}

// Compact drops tombstoned records and renumbers ordinals, preserving order.
// It returns the number of records removed.
func (g *Gallery) Compact() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := g.tombstones.Cardinality()
	if removed == 0 {
		return 0
	}

	old := g.entries
	oldVerified := g.verified

	g.entries = make([]entry, 0, len(old)-removed)
	g.byID = make(map[string]uint32, len(old)-removed)
	g.verified = newOrdinalSet()
	g.buckets = make(map[string]*ordinalSet)

	for i, e := range old {
		if g.tombstones.Contains(uint32(i)) {
			continue
		}
		ord := uint32(len(g.entries))
		g.entries = append(g.entries, e)
		g.byID[e.id] = ord
		g.bucket(ord, e.hash)
		if oldVerified.Contains(uint32(i)) {
			g.verified.Add(ord)
		}
	}
	g.tombstones = newOrdinalSet()
	return removed
}
