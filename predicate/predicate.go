package predicate

type (
	Kind int

	// ColumnPredicate is a single-column constraint attached to a scan. Only
	// Equality and InList participate in hash pruning; Equality, InList, and
	// Range participate in range-key derivation. None predicates are expected
	// to be eliminated by the scan spec optimizer before reaching the planner.
	ColumnPredicate struct {
		Column string
		Kind   Kind

		// Lower is the inclusive lower bound for Range, and the value for
		// Equality. Upper is the exclusive upper bound for Range. nil means
		// unbounded.
		Lower any
		Upper any

		// Values holds the ordered distinct values of an InList.
		Values []any
	}
)

const (
	None Kind = iota
	Equality
	InList
	Range
	IsNotNull
	IsNull
)

func NewEquality(column string, value any) *ColumnPredicate {
	return &ColumnPredicate{
		Column: column,
		Kind:   Equality,
		Lower:  value,
	}
}

// NewInList builds an in-list predicate. values must be ordered and distinct.
func NewInList(column string, values []any) *ColumnPredicate {
	return &ColumnPredicate{
		Column: column,
		Kind:   InList,
		Values: values,
	}
}

// NewRange builds a range predicate with an optional inclusive lower bound
// and optional exclusive upper bound; nil means unbounded on that side.
func NewRange(column string, lower, upper any) *ColumnPredicate {
	return &ColumnPredicate{
		Column: column,
		Kind:   Range,
		Lower:  lower,
		Upper:  upper,
	}
}

func NewIsNotNull(column string) *ColumnPredicate {
	return &ColumnPredicate{Column: column, Kind: IsNotNull}
}

func NewIsNull(column string) *ColumnPredicate {
	return &ColumnPredicate{Column: column, Kind: IsNull}
}

func NewNone(column string) *ColumnPredicate {
	return &ColumnPredicate{Column: column, Kind: None}
}
