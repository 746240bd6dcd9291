package schema

import (
	"fmt"

	"github.com/danthegoodman1/floedb/types"
)

const ColumnNotFound = -1

type (
	ColumnID int32

	ColumnSchema struct {
		ID   ColumnID
		Name string
		Type types.Type
	}

	// Schema is an ordered set of columns of which the first NumKeyColumns
	// form the primary key.
	Schema struct {
		columns        []ColumnSchema
		keyColumnCount int
		idToIdx        map[ColumnID]int
	}

	// Row holds one cell per schema column, aligned by column index. Only key
	// cells are ever populated by the planner.
	Row struct {
		sch   *Schema
		cells []any
	}
)

func NewSchema(columns []ColumnSchema, numKeyColumns int) *Schema {
	if numKeyColumns < 1 || numKeyColumns > len(columns) {
		panic(fmt.Sprintf("schema has %d columns, cannot have %d key columns", len(columns), numKeyColumns))
	}
	idToIdx := make(map[ColumnID]int, len(columns))
	for i, col := range columns {
		if _, exists := idToIdx[col.ID]; exists {
			panic(fmt.Sprintf("duplicate column id %d", col.ID))
		}
		idToIdx[col.ID] = i
	}
	return &Schema{
		columns:        columns,
		keyColumnCount: numKeyColumns,
		idToIdx:        idToIdx,
	}
}

func (s *Schema) NumColumns() int {
	return len(s.columns)
}

func (s *Schema) NumKeyColumns() int {
	return s.keyColumnCount
}

func (s *Schema) Column(idx int) *ColumnSchema {
	return &s.columns[idx]
}

// FindColumnByID returns the column index for id, or ColumnNotFound.
func (s *Schema) FindColumnByID(id ColumnID) int {
	idx, ok := s.idToIdx[id]
	if !ok {
		return ColumnNotFound
	}
	return idx
}

func (s *Schema) ColumnByID(id ColumnID) *ColumnSchema {
	idx := s.FindColumnByID(id)
	if idx == ColumnNotFound {
		panic(fmt.Sprintf("no column with id %d", id))
	}
	return &s.columns[idx]
}

func (s *Schema) ColumnID(idx int) ColumnID {
	return s.columns[idx].ID
}

// KeyColumnIdxs returns the column indexes of the primary key, in order.
func (s *Schema) KeyColumnIdxs() []int {
	idxs := make([]int, s.keyColumnCount)
	for i := range idxs {
		idxs[i] = i
	}
	return idxs
}

func NewRow(sch *Schema) *Row {
	return &Row{
		sch:   sch,
		cells: make([]any, sch.NumColumns()),
	}
}

func (r *Row) Schema() *Schema {
	return r.sch
}

func (r *Row) SetCell(idx int, v any) {
	r.cells[idx] = v
}

func (r *Row) Cell(idx int) any {
	return r.cells[idx]
}
