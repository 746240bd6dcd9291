package scan_spec

import (
	"github.com/danthegoodman1/floedb/predicate"
)

type (
	// EncodedKey is a composite primary key bound: the encoded bytes plus the
	// raw cell values, one per key column. The planner projects the raw cells
	// onto the range-partition prefix.
	EncodedKey struct {
		Encoded []byte
		Raw     []any
	}

	// ScanSpec describes one scan after predicate optimization. Partition key
	// bounds and the exclusive upper primary key bound are half-open; nil or
	// empty bounds are unbounded.
	ScanSpec struct {
		Predicates map[string]*predicate.ColumnPredicate

		LowerBoundKey          *EncodedKey
		ExclusiveUpperBoundKey *EncodedKey

		LowerBoundPartitionKey          []byte
		ExclusiveUpperBoundPartitionKey []byte

		// ShortCircuit marks a scan statically provable to match zero rows.
		ShortCircuit bool
	}
)

func New() *ScanSpec {
	return &ScanSpec{
		Predicates: make(map[string]*predicate.ColumnPredicate),
	}
}

func (s *ScanSpec) AddPredicate(p *predicate.ColumnPredicate) {
	s.Predicates[p.Column] = p
}

func (s *ScanSpec) CanShortCircuit() bool {
	return s.ShortCircuit
}
