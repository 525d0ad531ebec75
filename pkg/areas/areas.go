package areas

import (
	"errors"
	"fmt"

	"opsboard/server/pkg/boardindex"
	"opsboard/server/pkg/model/marea"
	"opsboard/server/pkg/position"
)

// Area list management. The area list is short and rarely changes, so every
// reorder rewrites DisplayOrder densely for the whole list instead of using
// fractional keys. Rename and delete are built here as plans only; the store
// executes them atomically so a concurrent reader never observes a torn
// rename or a half-moved membership.

var (
	ErrAreaNotFound    = errors.New("area not found")
	ErrIndexOutOfRange = errors.New("area index out of range")
)

// DuplicateNameError is raised synchronously on add/rename collisions,
// before any optimistic state change, so no rollback is ever needed for it.
type DuplicateNameError struct {
	Name string
}

func (e DuplicateNameError) Error() string {
	return fmt.Sprintf("area %q already exists", e.Name)
}

// Add appends a new area with DisplayOrder = max + 1. The duplicate check is
// a case-sensitive exact match.
func Add(existing []marea.Area, name string) (marea.Area, error) {
	maxOrder := 0
	for _, a := range existing {
		if a.Name == name {
			return marea.Area{}, DuplicateNameError{Name: name}
		}
		if a.DisplayOrder > maxOrder {
			maxOrder = a.DisplayOrder
		}
	}
	return marea.Area{Name: name, DisplayOrder: maxOrder + 1}, nil
}

// ValidateRename checks a rename locally before it is handed to the store.
// The rename itself, including repointing every member operation, is one
// atomic store operation and is never attempted as two local writes.
func ValidateRename(existing []marea.Area, oldName, newName string) error {
	found := false
	for _, a := range existing {
		if a.Name == newName {
			return DuplicateNameError{Name: newName}
		}
		if a.Name == oldName {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrAreaNotFound, oldName)
	}
	return nil
}

// Reorder moves the area at from to index to and renumbers the entire list
// densely (DisplayOrder = index + 1). Full rewrite every time; N is small.
func Reorder(existing []marea.Area, from, to int) ([]marea.Area, error) {
	if from < 0 || from >= len(existing) || to < 0 || to >= len(existing) {
		return nil, ErrIndexOutOfRange
	}
	out := make([]marea.Area, len(existing))
	copy(out, existing)

	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]marea.Area{moved}, out[to:]...)...)

	for i := range out {
		out[i].DisplayOrder = i + 1
	}
	return out, nil
}

// Renumber assigns dense DisplayOrder values following the given name order.
// Names missing from existing are an error; the caller resolved them from
// the same state, so a miss means the state moved underneath it.
func Renumber(existing []marea.Area, orderedNames []string) ([]marea.Area, error) {
	byName := make(map[string]marea.Area, len(existing))
	for _, a := range existing {
		byName[a.Name] = a
	}
	if len(orderedNames) != len(existing) {
		return nil, fmt.Errorf("expected %d area names, got %d", len(existing), len(orderedNames))
	}
	out := make([]marea.Area, 0, len(orderedNames))
	for i, name := range orderedNames {
		a, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAreaNotFound, name)
		}
		a.DisplayOrder = i + 1
		out = append(out, a)
	}
	return out, nil
}

// MemberMove re-homes one operation during an area deletion.
type MemberMove struct {
	OperationID    string
	TargetArea     string
	TargetPosition float64
}

// RemovalPlan is the local prediction of a delete-with-reassignment. When
// Target is nil the plan carries no moves; whether an empty-only delete is
// actually valid is the store's call, not guessed here.
type RemovalPlan struct {
	Name   string
	Target *string
	Moves  []MemberMove
}

// PlanRemoval builds the removal plan for an area. With a target, every
// member is appended to the target area's tail in its current order.
func PlanRemoval(idx boardindex.Index, name string, target *string) (RemovalPlan, error) {
	if !idx.HasArea(name) {
		return RemovalPlan{}, fmt.Errorf("%w: %s", ErrAreaNotFound, name)
	}
	plan := RemovalPlan{Name: name, Target: target}
	if target == nil {
		return plan, nil
	}
	if !idx.HasArea(*target) {
		return RemovalPlan{}, fmt.Errorf("%w: %s", ErrAreaNotFound, *target)
	}

	tailKeys := idx.Positions(*target)
	for _, op := range idx.ByArea[name] {
		pos := position.Tail(tailKeys)
		plan.Moves = append(plan.Moves, MemberMove{
			OperationID:    op.ID.String(),
			TargetArea:     *target,
			TargetPosition: pos,
		})
		tailKeys = append(tailKeys, pos)
	}
	return plan, nil
}
