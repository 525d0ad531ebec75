package boardindex

import (
	"sort"

	"opsboard/server/pkg/model/mboard"
	"opsboard/server/pkg/model/moperation"
)

// DefaultAreaName is the synthetic trailing bucket for operations whose
// AreaName matches no configured area. Such operations are a transient
// inconsistency (area renamed mid-flight) and must stay visible rather than
// crash a reader or vanish.
const DefaultAreaName = "default"

// Index is the grouped, sorted view of a board. It is recomputed from
// scratch on every change; there is no incremental state to corrupt.
type Index struct {
	// AreaOrder is the canonical area name ordering by DisplayOrder,
	// with DefaultAreaName appended last when any operation needed it.
	AreaOrder []string

	// ByArea holds each area's operations sorted ascending by position.
	ByArea map[string][]moperation.Operation

	// DefaultSynthesized is true when the trailing default bucket exists
	// only because orphaned operations needed a home, i.e. it is not a
	// configured area and must not take part in area reordering.
	DefaultSynthesized bool
}

// ConfiguredAreaOrder returns the canonical ordering of configured areas
// only, excluding a synthesized default bucket.
func (idx Index) ConfiguredAreaOrder() []string {
	if !idx.DefaultSynthesized {
		return idx.AreaOrder
	}
	return idx.AreaOrder[:len(idx.AreaOrder)-1]
}

// Build groups the flat operation list by area and sorts each group by
// position. The sort is stable so position ties keep original array order.
func Build(board mboard.Board) Index {
	idx := Index{
		AreaOrder: make([]string, 0, len(board.Areas)+1),
		ByArea:    make(map[string][]moperation.Operation, len(board.Areas)+1),
	}

	known := make(map[string]bool, len(board.Areas))
	areas := make([]struct {
		name  string
		order int
	}, 0, len(board.Areas))
	for _, a := range board.Areas {
		known[a.Name] = true
		areas = append(areas, struct {
			name  string
			order int
		}{a.Name, a.DisplayOrder})
		idx.ByArea[a.Name] = nil
	}
	sort.SliceStable(areas, func(i, j int) bool { return areas[i].order < areas[j].order })
	for _, a := range areas {
		idx.AreaOrder = append(idx.AreaOrder, a.name)
	}

	needDefault := false
	for _, op := range board.Operations {
		key := op.AreaName
		if !known[key] {
			key = DefaultAreaName
			if !known[DefaultAreaName] {
				needDefault = true
			}
		}
		idx.ByArea[key] = append(idx.ByArea[key], op)
	}
	if needDefault {
		idx.AreaOrder = append(idx.AreaOrder, DefaultAreaName)
		idx.DefaultSynthesized = true
	}

	for key := range idx.ByArea {
		ops := idx.ByArea[key]
		sort.SliceStable(ops, func(i, j int) bool { return ops[i].Position < ops[j].Position })
	}

	return idx
}

// Find locates an operation by id string across all groups, returning the
// group key and the operation's index within it.
func (idx Index) Find(opID string) (moperation.Operation, string, int, bool) {
	for _, area := range idx.AreaOrder {
		for i, op := range idx.ByArea[area] {
			if op.ID.String() == opID {
				return op, area, i, true
			}
		}
	}
	return moperation.Operation{}, "", -1, false
}

// HasArea reports whether name is a group key in the index, including the
// synthetic default bucket when present.
func (idx Index) HasArea(name string) bool {
	_, ok := idx.ByArea[name]
	return ok
}

// Positions returns the ascending position keys of one area's operations.
func (idx Index) Positions(area string) []float64 {
	ops := idx.ByArea[area]
	out := make([]float64, len(ops))
	for i, op := range ops {
		out[i] = op.Position
	}
	return out
}
