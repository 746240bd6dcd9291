package key_util

import (
	"bytes"
	"math"
	"testing"

	"github.com/danthegoodman1/floedb/key_encoder"
	"github.com/danthegoodman1/floedb/predicate"
	"github.com/danthegoodman1/floedb/schema"
	"github.com/danthegoodman1/floedb/types"
)

func testSchema() *schema.Schema {
	return schema.NewSchema([]schema.ColumnSchema{
		{ID: 0, Name: "a", Type: types.Int32},
		{ID: 1, Name: "b", Type: types.Int32},
		{ID: 2, Name: "c", Type: types.Int32},
	}, 3)
}

func preds(ps ...*predicate.ColumnPredicate) map[string]*predicate.ColumnPredicate {
	m := make(map[string]*predicate.ColumnPredicate, len(ps))
	for _, p := range ps {
		m[p.Column] = p
	}
	return m
}

func TestPushLowerBoundEqualityAndRange(t *testing.T) {
	sch := testSchema()
	row := schema.NewRow(sch)

	pushed := PushLowerBoundKeyPredicates([]int{0, 1, 2}, preds(
		predicate.NewEquality("a", int32(0)),
		predicate.NewRange("b", int32(5), nil),
	), row)
	if pushed != 2 {
		t.Fatalf("expected 2 pushed, got %d", pushed)
	}
	if row.Cell(0).(int32) != 0 || row.Cell(1).(int32) != 5 {
		t.Fatalf("unexpected cells: %v %v", row.Cell(0), row.Cell(1))
	}
	if row.Cell(2).(int32) != math.MinInt32 {
		t.Fatal("unbounded trailing column should be filled with the type min")
	}
}

func TestPushLowerBoundStopsAtGap(t *testing.T) {
	sch := testSchema()
	row := schema.NewRow(sch)

	// no predicate on b: c's bound cannot contribute
	pushed := PushLowerBoundKeyPredicates([]int{0, 1, 2}, preds(
		predicate.NewEquality("a", int32(1)),
		predicate.NewEquality("c", int32(9)),
	), row)
	if pushed != 1 {
		t.Fatalf("expected 1 pushed, got %d", pushed)
	}
}

func TestPushLowerBoundInList(t *testing.T) {
	sch := testSchema()
	row := schema.NewRow(sch)

	pushed := PushLowerBoundKeyPredicates([]int{0}, preds(
		predicate.NewInList("a", []any{int32(3), int32(7)}),
	), row)
	if pushed != 1 {
		t.Fatalf("expected 1 pushed, got %d", pushed)
	}
	if row.Cell(0).(int32) != 3 {
		t.Fatalf("expected first in-list value, got %v", row.Cell(0))
	}
}

func TestPushUpperBoundEqualityIncrements(t *testing.T) {
	sch := testSchema()
	row := schema.NewRow(sch)

	pushed := PushUpperBoundKeyPredicates([]int{0, 1, 2}, preds(
		predicate.NewEquality("a", int32(0)),
	), row)
	if pushed != 1 {
		t.Fatalf("expected 1 pushed, got %d", pushed)
	}
	if row.Cell(0).(int32) != 1 {
		t.Fatalf("inclusive equality should be incremented to exclusive, got %v", row.Cell(0))
	}
	if row.Cell(1).(int32) != math.MinInt32 || row.Cell(2).(int32) != math.MinInt32 {
		t.Fatal("trailing columns should be filled with the type min")
	}
}

func TestPushUpperBoundRangeIsAlreadyExclusive(t *testing.T) {
	sch := testSchema()
	row := schema.NewRow(sch)

	pushed := PushUpperBoundKeyPredicates([]int{0, 1, 2}, preds(
		predicate.NewEquality("a", int32(4)),
		predicate.NewRange("b", nil, int32(10)),
	), row)
	if pushed != 2 {
		t.Fatalf("expected 2 pushed, got %d", pushed)
	}
	if row.Cell(0).(int32) != 4 || row.Cell(1).(int32) != 10 {
		t.Fatalf("range upper is exclusive and must not be incremented: %v %v", row.Cell(0), row.Cell(1))
	}
}

func TestPushUpperBoundInListUsesLastValue(t *testing.T) {
	sch := testSchema()
	row := schema.NewRow(sch)

	pushed := PushUpperBoundKeyPredicates([]int{0}, preds(
		predicate.NewInList("a", []any{int32(1), int32(5)}),
	), row)
	if pushed != 1 {
		t.Fatalf("expected 1 pushed, got %d", pushed)
	}
	if row.Cell(0).(int32) != 6 {
		t.Fatalf("inclusive in-list upper should be incremented, got %v", row.Cell(0))
	}
}

func TestPushUpperBoundOverflow(t *testing.T) {
	sch := testSchema()
	row := schema.NewRow(sch)

	pushed := PushUpperBoundKeyPredicates([]int{0}, preds(
		predicate.NewEquality("a", int32(math.MaxInt32)),
	), row)
	if pushed != 0 {
		t.Fatalf("overflowing increment means no usable upper bound, got %d", pushed)
	}
}

func TestIncrementKeyCarry(t *testing.T) {
	sch := testSchema()
	row := schema.NewRow(sch)
	row.SetCell(0, int32(1))
	row.SetCell(1, int32(math.MaxInt32))

	if !IncrementKey(row, 2) {
		t.Fatal("expected increment to succeed")
	}
	if row.Cell(0).(int32) != 2 || row.Cell(1).(int32) != math.MinInt32 {
		t.Fatalf("expected carry into the first column: %v %v", row.Cell(0), row.Cell(1))
	}
}

func TestIncrementKeyOverflow(t *testing.T) {
	sch := testSchema()
	row := schema.NewRow(sch)
	row.SetCell(0, int32(math.MaxInt32))
	row.SetCell(1, int32(math.MaxInt32))

	if IncrementKey(row, 2) {
		t.Fatal("expected overflow")
	}
}

func TestEncodeKeyComposite(t *testing.T) {
	sch := schema.NewSchema([]schema.ColumnSchema{
		{ID: 0, Name: "host", Type: types.String},
		{ID: 1, Name: "ts", Type: types.Int64},
	}, 2)
	row := schema.NewRow(sch)
	row.SetCell(0, "web\x001")
	row.SetCell(1, int64(2))

	want := key_encoder.Encode(types.GetTypeInfo(types.String), "web\x001", false, nil)
	want = key_encoder.Encode(types.GetTypeInfo(types.Int64), int64(2), true, want)

	got := EncodeKey([]int{0, 1}, row)
	if !bytes.Equal(got, want) {
		t.Fatalf("expected %x, got %x", want, got)
	}
}
