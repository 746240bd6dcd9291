package key_util

import (
	"github.com/danthegoodman1/floedb/key_encoder"
	"github.com/danthegoodman1/floedb/predicate"
	"github.com/danthegoodman1/floedb/schema"
	"github.com/danthegoodman1/floedb/types"
)

// EncodeKey encodes the listed columns of row as a composite key. The final
// listed column is encoded without a separator.
func EncodeKey(colIdxs []int, row *schema.Row) []byte {
	var buf []byte
	for i, idx := range colIdxs {
		ti := types.GetTypeInfo(row.Schema().Column(idx).Type)
		buf = key_encoder.Encode(ti, row.Cell(idx), i == len(colIdxs)-1, buf)
	}
	return buf
}

// PushLowerBoundKeyPredicates writes the tightest inclusive lower bound
// implied by preds into the listed columns of row, front-contiguously:
// equality values, range lower bounds, and the first value of an in-list all
// lower-bound a column, and lower bounds compose across every bounded column.
// Columns past the bounded prefix are set to the type minimum so the full
// column list can be encoded. Returns the number of columns bounded by a
// predicate.
func PushLowerBoundKeyPredicates(colIdxs []int, preds map[string]*predicate.ColumnPredicate, row *schema.Row) int {
	pushed := 0

loop:
	for _, idx := range colIdxs {
		pred, ok := preds[row.Schema().Column(idx).Name]
		if !ok {
			break
		}
		switch pred.Kind {
		case predicate.Equality:
			row.SetCell(idx, pred.Lower)
		case predicate.Range:
			if pred.Lower == nil {
				break loop
			}
			row.SetCell(idx, pred.Lower)
		case predicate.InList:
			if len(pred.Values) == 0 {
				break loop
			}
			row.SetCell(idx, pred.Values[0])
		default:
			break loop
		}
		pushed++
	}

	fillMinValues(colIdxs[pushed:], row)
	return pushed
}

// PushUpperBoundKeyPredicates writes the tightest exclusive upper bound
// implied by preds into the listed columns of row. Equality values extend the
// bounded prefix; the first range upper bound (already exclusive) or in-list
// last value (inclusive) terminates it. A prefix that ends on an inclusive
// value is incremented to its lexicographic successor; if the increment
// overflows there is no usable upper bound and 0 is returned.
func PushUpperBoundKeyPredicates(colIdxs []int, preds map[string]*predicate.ColumnPredicate, row *schema.Row) int {
	pushed := 0
	exclusive := false

loop:
	for _, idx := range colIdxs {
		pred, ok := preds[row.Schema().Column(idx).Name]
		if !ok {
			break
		}
		switch pred.Kind {
		case predicate.Equality:
			row.SetCell(idx, pred.Lower)
			pushed++
		case predicate.Range:
			if pred.Upper == nil {
				break loop
			}
			row.SetCell(idx, pred.Upper)
			pushed++
			exclusive = true
			break loop
		case predicate.InList:
			if len(pred.Values) == 0 {
				break loop
			}
			row.SetCell(idx, pred.Values[len(pred.Values)-1])
			pushed++
			break loop
		default:
			break loop
		}
	}

	if pushed == 0 {
		return 0
	}
	fillMinValues(colIdxs[pushed:], row)

	if !exclusive {
		if !incrementCells(colIdxs[:pushed], row) {
			return 0
		}
	}
	return pushed
}

// IncrementKey sets the first prefixLen key columns of row to their composite
// lexicographic successor, returning false when the prefix is already the
// maximum encodable value.
func IncrementKey(row *schema.Row, prefixLen int) bool {
	return incrementCells(row.Schema().KeyColumnIdxs()[:prefixLen], row)
}

// incrementCells walks the listed cells right to left: variable-width cells
// grow by a zero byte, fixed-width cells add one, carrying into the previous
// cell on overflow.
func incrementCells(colIdxs []int, row *schema.Row) bool {
	for i := len(colIdxs) - 1; i >= 0; i-- {
		idx := colIdxs[i]
		ti := types.GetTypeInfo(row.Schema().Column(idx).Type)
		next, ok := ti.Successor(row.Cell(idx))
		if ok {
			row.SetCell(idx, next)
			return true
		}
		row.SetCell(idx, ti.MinValue())
	}
	return false
}

func fillMinValues(colIdxs []int, row *schema.Row) {
	for _, idx := range colIdxs {
		ti := types.GetTypeInfo(row.Schema().Column(idx).Type)
		row.SetCell(idx, ti.MinValue())
	}
}
