package partition

import (
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"

	"github.com/danthegoodman1/floedb/key_encoder"
	"github.com/danthegoodman1/floedb/schema"
	"github.com/danthegoodman1/floedb/types"
)

type (
	// HashDimension hashes a tuple of key columns into a fixed number of
	// buckets, contributing one 4-byte component to every partition key.
	HashDimension struct {
		ColumnIDs  []schema.ColumnID
		NumBuckets int32
		Seed       uint32
	}

	HashSchema []HashDimension

	// RangeSchema names the key columns whose encoded values form the range
	// component of the partition key.
	RangeSchema struct {
		ColumnIDs []schema.ColumnID
	}

	// RangeWithHashSchema is one range segment with its own hash schema
	// overriding the table-wide default. Lower and Upper are encoded range
	// keys; empty means unbounded.
	RangeWithHashSchema struct {
		Lower      []byte
		Upper      []byte
		HashSchema HashSchema
	}

	// PartitionSchema describes how a table is split into tablets: zero or
	// more hash dimensions followed by an optional range dimension. When
	// RangesWithHashSchemas is empty the table has a single unbounded range
	// segment using HashSchema.
	PartitionSchema struct {
		HashSchema            HashSchema
		RangeSchema           RangeSchema
		RangesWithHashSchemas []RangeWithHashSchema
	}

	// Partition is the catalog's view of one tablet: its range keys and its
	// full partition keys, all half-open with empty meaning unbounded.
	Partition struct {
		RangeKeyStart []byte
		RangeKeyEnd   []byte

		PartitionKeyStart []byte
		PartitionKeyEnd   []byte
	}
)

// HashValueForEncodedColumns buckets an encoded column tuple. This is the
// same function the storage layer uses to place rows, so the encoded bytes
// must match the key encoder output exactly.
func HashValueForEncodedColumns(encoded []byte, dim HashDimension) uint32 {
	if dim.NumBuckets <= 0 {
		panic(fmt.Sprintf("hash dimension has %d buckets", dim.NumBuckets))
	}
	return murmur3.Sum32WithSeed(encoded, dim.Seed) % uint32(dim.NumBuckets)
}

// Validate checks the partition schema against the table schema. All
// partitioning columns must be key columns, and the range schema cannot be
// wider than the primary key.
func (ps *PartitionSchema) Validate(sch *schema.Schema) error {
	if len(ps.RangeSchema.ColumnIDs) > sch.NumKeyColumns() {
		return fmt.Errorf("range schema has %d columns but the primary key has %d", len(ps.RangeSchema.ColumnIDs), sch.NumKeyColumns())
	}
	for _, cid := range ps.RangeSchema.ColumnIDs {
		if err := validateKeyColumn(sch, cid); err != nil {
			return err
		}
	}
	hashSchemas := []HashSchema{ps.HashSchema}
	for _, r := range ps.RangesWithHashSchemas {
		hashSchemas = append(hashSchemas, r.HashSchema)
	}
	for _, hs := range hashSchemas {
		for _, dim := range hs {
			if dim.NumBuckets < 2 {
				return fmt.Errorf("hash dimension must have at least 2 buckets, got %d", dim.NumBuckets)
			}
			if len(dim.ColumnIDs) == 0 {
				return fmt.Errorf("hash dimension has no columns")
			}
			for _, cid := range dim.ColumnIDs {
				if err := validateKeyColumn(sch, cid); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateKeyColumn(sch *schema.Schema, cid schema.ColumnID) error {
	idx := sch.FindColumnByID(cid)
	if idx == schema.ColumnNotFound {
		return fmt.Errorf("no column with id %d", cid)
	}
	if idx >= sch.NumKeyColumns() {
		return fmt.Errorf("column %q is not a key column", sch.Column(idx).Name)
	}
	return nil
}

// PartitionKeyDebugString renders an encoded (possibly truncated) partition
// key as its bucket and range components, e.g. "bucket=0, bucket=2, c=0",
// using the table-wide hash schema. Keys built under a range segment's hash
// schema override must go through PartitionKeyDebugStringForHashSchema
// instead, since the segment may carry a different dimension count.
// Undecodable tails are rendered as hex.
func (ps *PartitionSchema) PartitionKeyDebugString(key []byte, sch *schema.Schema) string {
	return ps.PartitionKeyDebugStringForHashSchema(key, sch, ps.HashSchema)
}

// PartitionKeyDebugStringForHashSchema renders key using the hash schema of
// the range segment that produced it.
func (ps *PartitionSchema) PartitionKeyDebugStringForHashSchema(key []byte, sch *schema.Schema, hashSchema HashSchema) string {
	var parts []string
	rest := key
	for range hashSchema {
		if len(rest) == 0 {
			break
		}
		bucket, r, err := key_encoder.DecodeHashBucket(rest)
		if err != nil {
			return strings.Join(append(parts, fmt.Sprintf("0x%x", rest)), ", ")
		}
		parts = append(parts, fmt.Sprintf("bucket=%d", bucket))
		rest = r
	}
	for i, cid := range ps.RangeSchema.ColumnIDs {
		if len(rest) == 0 {
			break
		}
		col := sch.ColumnByID(cid)
		isLast := i+1 == len(ps.RangeSchema.ColumnIDs)
		v, r, err := key_encoder.DecodeColumn(types.GetTypeInfo(col.Type), rest, isLast)
		if err != nil {
			return strings.Join(append(parts, fmt.Sprintf("0x%x", rest)), ", ")
		}
		parts = append(parts, fmt.Sprintf("%s=%s", col.Name, formatCell(v)))
		rest = r
	}
	if len(rest) > 0 {
		parts = append(parts, fmt.Sprintf("0x%x", rest))
	}
	return strings.Join(parts, ", ")
}

func formatCell(v any) string {
	switch c := v.(type) {
	case string:
		return fmt.Sprintf("%q", c)
	case []byte:
		return fmt.Sprintf("0x%x", c)
	default:
		return fmt.Sprintf("%v", c)
	}
}
