package pruner

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/danthegoodman1/floedb/gologger"
	"github.com/danthegoodman1/floedb/key_encoder"
	"github.com/danthegoodman1/floedb/key_util"
	"github.com/danthegoodman1/floedb/partition"
	"github.com/danthegoodman1/floedb/predicate"
	"github.com/danthegoodman1/floedb/scan_spec"
	"github.com/danthegoodman1/floedb/schema"
	"github.com/danthegoodman1/floedb/types"
)

var logger = gologger.NewLogger()

type (
	// PartitionKeyRange is a half-open interval over encoded partition keys.
	// An empty Start means unbounded below; an empty End means unbounded
	// above.
	PartitionKeyRange struct {
		Start []byte
		End   []byte
	}

	// RangeBounds is a half-open interval over the encoded range component of
	// the partition key.
	RangeBounds struct {
		Lower []byte
		Upper []byte
	}

	// rangeBucket holds the surviving partition key ranges for one range
	// segment, along with the hash schema that produced them (needed to
	// decode the keys for debug rendering). The ranges are stored in reverse
	// order (descending by Start) so that consuming the smallest remaining
	// range is a pop from the tail.
	rangeBucket struct {
		bounds     RangeBounds
		hashSchema partition.HashSchema
		ranges     []PartitionKeyRange
	}

	// PartitionPruner computes the minimal set of encoded partition key
	// ranges a scan must visit and hands them to the scanner as a
	// monotonically consumed cursor. One instance per scan, single threaded,
	// initialized once.
	PartitionPruner struct {
		rangeBuckets []rangeBucket
	}
)

// areRangeColumnsPrefixOfPrimaryKey reports whether the partition schema's
// range columns are a prefix of the primary key columns.
func areRangeColumnsPrefixOfPrimaryKey(sch *schema.Schema, rangeColumns []schema.ColumnID) bool {
	if len(rangeColumns) > sch.NumKeyColumns() {
		panic(fmt.Sprintf("range schema has %d columns but the primary key has %d", len(rangeColumns), sch.NumKeyColumns()))
	}
	for colIdx, cid := range rangeColumns {
		if sch.ColumnID(colIdx) != cid {
			return false
		}
	}
	return true
}

// encodeRangeKeysFromPrimaryKeyBounds projects the scan's primary key bounds
// onto the range key. Only valid when the range columns are a prefix of the
// primary key columns.
func encodeRangeKeysFromPrimaryKeyBounds(sch *schema.Schema, spec *scan_spec.ScanSpec, numRangeColumns int) (rangeKeyStart, rangeKeyEnd []byte) {
	if spec.LowerBoundKey == nil && spec.ExclusiveUpperBoundKey == nil {
		return nil, nil
	}

	if numRangeColumns == sch.NumKeyColumns() {
		// The range columns are the primary key columns, so the range key is
		// the primary key.
		if spec.LowerBoundKey != nil {
			rangeKeyStart = append([]byte{}, spec.LowerBoundKey.Encoded...)
		}
		if spec.ExclusiveUpperBoundKey != nil {
			rangeKeyEnd = append([]byte{}, spec.ExclusiveUpperBoundKey.Encoded...)
		}
		return rangeKeyStart, rangeKeyEnd
	}

	colIdxs := sch.KeyColumnIdxs()[:numRangeColumns]
	row := schema.NewRow(sch)

	if spec.LowerBoundKey != nil {
		for _, idx := range colIdxs {
			row.SetCell(idx, spec.LowerBoundKey.Raw[idx])
		}
		rangeKeyStart = key_util.EncodeKey(colIdxs, row)
	}

	if spec.ExclusiveUpperBoundKey != nil {
		for _, idx := range colIdxs {
			row.SetCell(idx, spec.ExclusiveUpperBoundKey.Raw[idx])
		}

		// If the upper bound primary key columns beyond the range prefix are
		// all minimum values, the prefix is already an exclusive bound.
		// Otherwise increment it to convert from inclusive to exclusive; an
		// overflow means the bound is inclusive on the maximum value and the
		// range key stays unbounded above.
		minSuffix := true
		for idx := numRangeColumns; idx < sch.NumKeyColumns(); idx++ {
			ti := types.GetTypeInfo(sch.Column(idx).Type)
			minSuffix = minSuffix && ti.IsMinValue(spec.ExclusiveUpperBoundKey.Raw[idx])
		}
		if !minSuffix {
			if !key_util.IncrementKey(row, numRangeColumns) {
				return rangeKeyStart, nil
			}
		}

		rangeKeyEnd = key_util.EncodeKey(colIdxs, row)
	}
	return rangeKeyStart, rangeKeyEnd
}

// encodeRangeKeysFromPredicates pushes the scan predicates on the range
// columns into range keys. Used when the range columns are not a primary key
// prefix.
func encodeRangeKeysFromPredicates(sch *schema.Schema, preds map[string]*predicate.ColumnPredicate, rangeColumns []schema.ColumnID) (rangeKeyStart, rangeKeyEnd []byte) {
	colIdxs := make([]int, 0, len(rangeColumns))
	for _, cid := range rangeColumns {
		colIdx := sch.FindColumnByID(cid)
		if colIdx == schema.ColumnNotFound {
			panic(fmt.Sprintf("no column with id %d", cid))
		}
		if colIdx >= sch.NumKeyColumns() {
			panic(fmt.Sprintf("range column %q is not a key column", sch.Column(colIdx).Name))
		}
		colIdxs = append(colIdxs, colIdx)
	}

	row := schema.NewRow(sch)

	if key_util.PushLowerBoundKeyPredicates(colIdxs, preds, row) > 0 {
		rangeKeyStart = key_util.EncodeKey(colIdxs, row)
	}

	if key_util.PushUpperBoundKeyPredicates(colIdxs, preds, row) > 0 {
		rangeKeyEnd = key_util.EncodeKey(colIdxs, row)
	}
	return rangeKeyStart, rangeKeyEnd
}

// pruneHashComponent returns the bitset of buckets that may contain matching
// rows for one hash dimension. Only called when every column of the dimension
// has an equality or in-list predicate.
func pruneHashComponent(dim partition.HashDimension, sch *schema.Schema, spec *scan_spec.ScanSpec) []bool {
	bitset := make([]bool, dim.NumBuckets)
	encodedTuples := [][]byte{nil}
	for colOffset, cid := range dim.ColumnIDs {
		col := sch.ColumnByID(cid)
		pred, ok := spec.Predicates[col.Name]
		if !ok {
			panic(fmt.Sprintf("no predicate for hash column %q", col.Name))
		}

		var values []any
		switch pred.Kind {
		case predicate.Equality:
			values = []any{pred.Lower}
		case predicate.InList:
			values = pred.Values
		default:
			panic(fmt.Sprintf("predicate on hash column %q is not equality or in-list", col.Name))
		}

		// Cross-product each previously encoded tuple with this column's
		// values, encoded exactly as the storage layer forms partition keys.
		ti := types.GetTypeInfo(col.Type)
		isLast := colOffset+1 == len(dim.ColumnIDs)
		next := make([][]byte, 0, len(encodedTuples)*len(values))
		for _, tuple := range encodedTuples {
			for _, v := range values {
				buf := append([]byte{}, tuple...)
				buf = key_encoder.Encode(ti, v, isLast, buf)
				next = append(next, buf)
			}
		}
		encodedTuples = next
	}
	for _, tuple := range encodedTuples {
		bitset[partition.HashValueForEncodedColumns(tuple, dim)] = true
	}
	return bitset
}

// constructPartitionKeyRanges assembles the surviving partition key ranges
// for one hash schema and set of range bounds, in ascending order.
func constructPartitionKeyRanges(sch *schema.Schema, spec *scan_spec.ScanSpec, hashSchema partition.HashSchema, rangeBounds RangeBounds) []PartitionKeyRange {
	// One bucket bitset per hash dimension. A dimension is prunable only when
	// every one of its columns has an equality or in-list predicate.
	bitsets := make([][]bool, 0, len(hashSchema))
	for _, dim := range hashSchema {
		canPrune := true
		for _, cid := range dim.ColumnIDs {
			col := sch.ColumnByID(cid)
			pred, ok := spec.Predicates[col.Name]
			if !ok || (pred.Kind != predicate.Equality && pred.Kind != predicate.InList) {
				canPrune = false
				break
			}
		}
		if canPrune {
			bitsets = append(bitsets, pruneHashComponent(dim, sch, spec))
		} else {
			all := make([]bool, dim.NumBuckets)
			for i := range all {
				all[i] = true
			}
			bitsets = append(bitsets, all)
		}
	}

	// The index one past the final constrained component of the partition
	// key. Keys are truncated after it: an entirely unconstrained suffix of
	// hash dimensions contributes nothing.
	var constrainedIndex int
	if len(rangeBounds.Lower) > 0 || len(rangeBounds.Upper) > 0 {
		constrainedIndex = len(hashSchema)
	} else {
		for i := len(bitsets) - 1; i >= 0; i-- {
			if hasClearedBit(bitsets[i]) {
				constrainedIndex = i + 1
				break
			}
		}
	}

	// The number of ranges is the product of the surviving bucket counts of
	// every dimension up to and including the final constrained one. Past the
	// configured cap, give up on pruning this segment rather than
	// materializing the blow-up.
	if prunerMaxRanges > 0 {
		product := int64(1)
		for i := 0; i < constrainedIndex && product <= prunerMaxRanges; i++ {
			product *= int64(countSetBits(bitsets[i]))
		}
		if product > prunerMaxRanges {
			logger.Warn().Int64("max_ranges", prunerMaxRanges).Msg("partition key range count exceeds cap, not pruning this range segment")
			return trimToUpperBoundPartitionKey([]PartitionKeyRange{{}}, spec.ExclusiveUpperBoundPartitionKey)
		}
	}

	// Cross-product the surviving buckets dimension by dimension. Each
	// dimension appends its bucket index to every range so far. If this is
	// the final constrained component and no range upper bound follows, the
	// upper bucket becomes bucket+1 to convert the inclusive bucket into an
	// exclusive key; bucket+1 == NumBuckets is emitted as-is and compares
	// greater than any valid bucket encoding.
	ranges := []PartitionKeyRange{{}}
	for hashIdx := 0; hashIdx < constrainedIndex; hashIdx++ {
		isLast := hashIdx+1 == constrainedIndex && len(rangeBounds.Upper) == 0
		bitset := bitsets[hashIdx]
		next := make([]PartitionKeyRange, 0, len(ranges))
		for _, r := range ranges {
			for bucket := uint32(0); bucket < uint32(len(bitset)); bucket++ {
				if !bitset[bucket] {
					continue
				}
				bucketUpper := bucket
				if isLast {
					bucketUpper = bucket + 1
				}
				start := key_encoder.EncodeHashBucket(bucket, append([]byte{}, r.Start...))
				end := key_encoder.EncodeHashBucket(bucketUpper, append([]byte{}, r.End...))
				next = append(next, PartitionKeyRange{Start: start, End: end})
			}
		}
		ranges = next
	}

	// Append the (possibly empty) range bounds.
	for i := range ranges {
		ranges[i].Start = append(ranges[i].Start, rangeBounds.Lower...)
		ranges[i].End = append(ranges[i].End, rangeBounds.Upper...)
	}

	return trimToUpperBoundPartitionKey(ranges, spec.ExclusiveUpperBoundPartitionKey)
}

// trimToUpperBoundPartitionKey drops every range at or past the scan's
// exclusive upper bound partition key and clamps the range it lands inside.
func trimToUpperBoundPartitionKey(ranges []PartitionKeyRange, upper []byte) []PartitionKeyRange {
	if len(upper) == 0 {
		return ranges
	}
	for i := len(ranges) - 1; i >= 0; i-- {
		r := &ranges[i]
		if len(r.End) > 0 && bytes.Compare(upper, r.End) >= 0 {
			break
		}
		if bytes.Compare(upper, r.Start) <= 0 {
			ranges = ranges[:i]
		} else {
			r.End = append([]byte{}, upper...)
		}
	}
	return ranges
}

// Init computes the surviving partition key ranges for one scan. The schema,
// partition schema, and scan spec are only borrowed for the duration of the
// call.
func (p *PartitionPruner) Init(sch *schema.Schema, partSchema *partition.PartitionSchema, spec *scan_spec.ScanSpec) {
	// A short-circuitable scan matches nothing; leave the cursor empty. This
	// also lets us assume scan spec invariants below, such as no None
	// predicates and lower bound PK < upper bound PK.
	if spec.CanShortCircuit() {
		return
	}

	if err := partSchema.Validate(sch); err != nil {
		panic(fmt.Sprintf("invalid partition schema: %s", err))
	}

	// Derive the range component bounds of the scan from the primary key
	// bounds when the range columns are a prefix of the primary key, and from
	// the column predicates otherwise.
	var scanRangeLower, scanRangeUpper []byte
	rangeColumns := partSchema.RangeSchema.ColumnIDs
	if len(rangeColumns) > 0 {
		if areRangeColumnsPrefixOfPrimaryKey(sch, rangeColumns) {
			scanRangeLower, scanRangeUpper = encodeRangeKeysFromPrimaryKeyBounds(sch, spec, len(rangeColumns))
		} else {
			scanRangeLower, scanRangeUpper = encodeRangeKeysFromPredicates(sch, spec.Predicates, rangeColumns)
		}
	}

	if len(partSchema.RangesWithHashSchemas) == 0 {
		// Single table-wide hash schema over an unbounded range segment.
		ranges := constructPartitionKeyRanges(sch, spec, partSchema.HashSchema, RangeBounds{Lower: scanRangeLower, Upper: scanRangeUpper})
		// Stored reversed so ranges are consumed in ascending order by
		// popping from the tail.
		p.rangeBuckets = []rangeBucket{{
			hashSchema: partSchema.HashSchema,
			ranges:     reverseRanges(ranges),
		}}
	} else {
		// Keep only the range segments that overlap the scan's range bounds,
		// in segment order, each built with its own hash schema.
		for _, seg := range partSchema.RangesWithHashSchemas {
			if !segmentOverlapsScan(seg, scanRangeLower, scanRangeUpper) {
				continue
			}
			bounds := RangeBounds{Lower: seg.Lower, Upper: seg.Upper}
			if len(scanRangeLower) > 0 || len(scanRangeUpper) > 0 {
				bounds = RangeBounds{Lower: scanRangeLower, Upper: scanRangeUpper}
			}
			ranges := constructPartitionKeyRanges(sch, spec, seg.HashSchema, bounds)
			p.rangeBuckets = append(p.rangeBuckets, rangeBucket{
				bounds:     RangeBounds{Lower: seg.Lower, Upper: seg.Upper},
				hashSchema: seg.HashSchema,
				ranges:     reverseRanges(ranges),
			})
		}
	}

	if len(spec.LowerBoundPartitionKey) > 0 {
		p.RemovePartitionKeyRange(spec.LowerBoundPartitionKey)
	}

	logger.Debug().Int("num_ranges", p.NumRangesRemaining()).Int("num_range_segments", len(p.rangeBuckets)).Msg("initialized partition pruner")
}

// segmentOverlapsScan tests a range segment against the scan's range bounds
// with half-open semantics, empty meaning unbounded.
func segmentOverlapsScan(seg partition.RangeWithHashSchema, scanRangeLower, scanRangeUpper []byte) bool {
	if len(scanRangeLower) == 0 && len(scanRangeUpper) == 0 {
		return true
	}
	if len(scanRangeLower) == 0 {
		return bytes.Compare(scanRangeUpper, seg.Lower) > 0
	}
	if len(scanRangeUpper) == 0 {
		return len(seg.Upper) == 0 || bytes.Compare(scanRangeLower, seg.Upper) < 0
	}
	return (len(seg.Upper) == 0 || bytes.Compare(scanRangeLower, seg.Upper) < 0) &&
		bytes.Compare(scanRangeUpper, seg.Lower) > 0
}

// HasMorePartitionKeyRanges reports whether any partition key range remains.
func (p *PartitionPruner) HasMorePartitionKeyRanges() bool {
	return p.NumRangesRemaining() != 0
}

// NumRangesRemaining returns the number of unconsumed partition key ranges.
func (p *PartitionPruner) NumRangesRemaining() int {
	n := 0
	for _, rb := range p.rangeBuckets {
		n += len(rb.ranges)
	}
	return n
}

// NextPartitionKey returns the start key of the smallest remaining partition
// key range of the last range segment that still has ranges; with a single
// range segment that is the smallest remaining range overall. It does not
// advance the cursor; the scanner calls
// RemovePartitionKeyRange once it has scanned past a key. Panics when the
// cursor is exhausted.
func (p *PartitionPruner) NextPartitionKey() []byte {
	for i := len(p.rangeBuckets) - 1; i >= 0; i-- {
		ranges := p.rangeBuckets[i].ranges
		if len(ranges) > 0 {
			return ranges[len(ranges)-1].Start
		}
	}
	panic("NextPartitionKey called on an exhausted pruner")
}

// RemovePartitionKeyRange removes all partition key ranges below upperBound.
// An empty upperBound clears the cursor.
func (p *PartitionPruner) RemovePartitionKeyRange(upperBound []byte) {
	if len(upperBound) == 0 {
		p.rangeBuckets = nil
		return
	}

	for bi := range p.rangeBuckets {
		ranges := p.rangeBuckets[bi].ranges
		// Smallest start first: the ranges are stored reversed.
		for i := len(ranges) - 1; i >= 0; i-- {
			r := &ranges[i]
			if bytes.Compare(upperBound, r.Start) <= 0 {
				break
			}
			if len(r.End) == 0 || bytes.Compare(upperBound, r.End) < 0 {
				r.Start = append([]byte{}, upperBound...)
			} else {
				ranges = ranges[:i]
			}
		}
		p.rangeBuckets[bi].ranges = ranges
	}
}

// ShouldPrune reports whether no surviving partition key range intersects the
// given catalog partition.
func (p *PartitionPruner) ShouldPrune(part *partition.Partition) bool {
	for _, rb := range p.rangeBuckets {
		// Skip segments the partition does not belong to. Note the
		// conjunction: a partition matching either bound exactly is still
		// examined.
		if len(rb.bounds.Lower) > 0 && !bytes.Equal(part.RangeKeyStart, rb.bounds.Lower) &&
			len(rb.bounds.Upper) > 0 && !bytes.Equal(part.RangeKeyEnd, rb.bounds.Upper) {
			continue
		}

		// Binary search the reverse-sorted ranges for the first one that
		// overlaps or lies past the partition: logical index j counts from
		// the smallest start.
		ranges := rb.ranges
		n := len(ranges)
		j := sort.Search(n, func(j int) bool {
			end := ranges[n-1-j].End
			return !(len(end) > 0 && bytes.Compare(end, part.PartitionKeyStart) <= 0)
		})
		if j < n {
			r := ranges[n-1-j]
			if !(len(part.PartitionKeyEnd) > 0 && bytes.Compare(part.PartitionKeyEnd, r.Start) <= 0) {
				return false
			}
		}
	}
	return true
}

// ToString renders the surviving ranges in ascending order for debugging.
func (p *PartitionPruner) ToString(sch *schema.Schema, partSchema *partition.PartitionSchema) string {
	var rendered []string
	for _, rb := range p.rangeBuckets {
		for i := len(rb.ranges) - 1; i >= 0; i-- {
			r := rb.ranges[i]
			start := "<start>"
			if len(r.Start) > 0 {
				start = partSchema.PartitionKeyDebugStringForHashSchema(r.Start, sch, rb.hashSchema)
			}
			end := "<end>"
			if len(r.End) > 0 {
				end = partSchema.PartitionKeyDebugStringForHashSchema(r.End, sch, rb.hashSchema)
			}
			rendered = append(rendered, fmt.Sprintf("[(%s), (%s))", start, end))
		}
	}
	return strings.Join(rendered, ", ")
}

func reverseRanges(in []PartitionKeyRange) []PartitionKeyRange {
	out := make([]PartitionKeyRange, len(in))
	for i, r := range in {
		out[len(in)-1-i] = r
	}
	return out
}

func hasClearedBit(bitset []bool) bool {
	for _, b := range bitset {
		if !b {
			return true
		}
	}
	return false
}

func countSetBits(bitset []bool) int {
	n := 0
	for _, b := range bitset {
		if b {
			n++
		}
	}
	return n
}
