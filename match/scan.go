package match

import (
	"context"
	"slices"
)

// Candidate is a stored embedding eligible for matching.
type Candidate struct {
	ID     string
	Vector []float64
}

// CandidateSource supplies the verified candidate population.
//
// The returned order is the scan order. Implementations may block on I/O.
type CandidateSource interface {
	FetchVerifiedCandidates(ctx context.Context) ([]Candidate, error)
}

// SourceFunc adapts a function to CandidateSource.
type SourceFunc func(ctx context.Context) ([]Candidate, error)

// FetchVerifiedCandidates calls f(ctx).
func (f SourceFunc) FetchVerifiedCandidates(ctx context.Context) ([]Candidate, error) {
	return f(ctx)
}

// Hit is the first candidate found to match a query.
type Hit struct {
	ID    string
	Score float64
	// Index is the candidate's position in the scanned population.
	Index int
}

// FirstMatch scans candidates in order and returns the first one whose
// similarity with query reaches the threshold. Candidates whose ID is in
// exclude are skipped. Later candidates are never inspected once a match is
// found, even if they would score higher.
//
// A candidate of the wrong length aborts the scan with a *LengthMismatchError.
func (m *Matcher) FirstMatch(query []float64, candidates []Candidate, exclude ...string) (Hit, bool, error) {
	for i, c := range candidates {
		if len(exclude) > 0 && slices.Contains(exclude, c.ID) {
			continue
		}
		if len(c.Vector) != len(query) {
			return Hit{}, false, &LengthMismatchError{
				Expected:    len(query),
				Actual:      len(c.Vector),
				CandidateID: c.ID,
			}
		}
		r, err := m.Compare(query, c.Vector)
		if err != nil {
			return Hit{}, false, err
		}
		if r.Matched {
			return Hit{ID: c.ID, Score: r.Score, Index: i}, true, nil
		}
	}
	return Hit{}, false, nil
}

// ScanResult is the outcome of Scan.
type ScanResult struct {
	Hit   Hit
	Found bool
	// Scanned is the size of the fetched population.
	Scanned int
}

// Scan fetches the population from src and runs FirstMatch over it.
func (m *Matcher) Scan(ctx context.Context, src CandidateSource, query []float64, exclude ...string) (ScanResult, error) {
	candidates, err := src.FetchVerifiedCandidates(ctx)
	if err != nil {
		return ScanResult{}, err
	}
	hit, found, err := m.FirstMatch(query, candidates, exclude...)
	if err != nil {
		return ScanResult{Scanned: len(candidates)}, err
	}
	return ScanResult{Hit: hit, Found: found, Scanned: len(candidates)}, nil
}
