package gallery

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// ordinalSet is a set of record ordinals backed by a Roaring bitmap.
type ordinalSet struct {
	rb *roaring.Bitmap
}

func newOrdinalSet() *ordinalSet {
	return &ordinalSet{rb: roaring.New()}
}

func (s *ordinalSet) Add(ord uint32)           { s.rb.Add(ord) }
func (s *ordinalSet) Remove(ord uint32)        { s.rb.Remove(ord) }
func (s *ordinalSet) Contains(ord uint32) bool { return s.rb.Contains(ord) }
func (s *ordinalSet) IsEmpty() bool            { return s.rb.IsEmpty() }
func (s *ordinalSet) Cardinality() int         { return int(s.rb.GetCardinality()) }

// Intersect returns a new set with the ordinals present in both sets.
func (s *ordinalSet) Intersect(other *ordinalSet) *ordinalSet {
	return &ordinalSet{rb: roaring.And(s.rb, other.rb)}
}

// All yields ordinals in ascending order.
func (s *ordinalSet) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}
