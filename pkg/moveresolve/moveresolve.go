package moveresolve

import (
	"opsboard/server/pkg/boardindex"
	"opsboard/server/pkg/dragtarget"
	"opsboard/server/pkg/position"
)

// Resolving turns the two opaque ids a finished drag session reports into an
// unambiguous intent. Gesture timing noise (stale ids, drops with no target,
// drops that change nothing) resolves to IntentNone and is never an error:
// the caller simply skips the remote call, which also avoids spurious
// snapshot/rollback churn.

type IntentKind int8

const (
	IntentNone IntentKind = iota
	IntentMoveOperation
	IntentReorderAreas
)

// OperationMove places one operation at a fractional position inside an area.
type OperationMove struct {
	OperationID    string
	TargetArea     string
	TargetPosition float64
}

// Intent is the resolved meaning of a drag. Exactly the field matching Kind
// is populated.
type Intent struct {
	Kind         IntentKind
	Move         OperationMove
	OrderedAreas []string
}

// Resolve interprets a dragEnd(activeID, overID) pair against the current
// index. The area/operation distinction is made from the decoded tags before
// any other logic; an area drag never falls through to operation handling.
func Resolve(idx boardindex.Index, activeID, overID string) Intent {
	active := dragtarget.Decode(activeID)
	switch active.Kind {
	case dragtarget.KindArea:
		return resolveAreaDrag(idx, active, dragtarget.Decode(overID))
	case dragtarget.KindOperation:
		return resolveOperationDrag(idx, active, dragtarget.Decode(overID))
	default:
		return Intent{}
	}
}

func resolveOperationDrag(idx boardindex.Index, active, over dragtarget.Target) Intent {
	op, curArea, curIdx, ok := idx.Find(active.OperationID)
	if !ok {
		return Intent{}
	}

	// Dropping directly on an area, with or without its drag prefix,
	// means "append to that area".
	areaName := ""
	switch {
	case over.Kind == dragtarget.KindArea:
		areaName = over.AreaName
	case over.Kind == dragtarget.KindOperation && idx.HasArea(over.OperationID):
		areaName = over.OperationID
	}
	if areaName != "" {
		if !idx.HasArea(areaName) {
			return Intent{}
		}
		return moveIntent(op.ID.String(), curArea, op.Position, areaName, position.Tail(idx.Positions(areaName)))
	}

	if over.Kind != dragtarget.KindOperation {
		return Intent{}
	}
	if over.OperationID == active.OperationID {
		return Intent{}
	}
	overOp, overArea, overIdx, ok := idx.Find(over.OperationID)
	if !ok {
		return Intent{}
	}

	siblings := idx.ByArea[overArea]
	var target float64
	if curArea == overArea && curIdx < overIdx {
		// Moving down: the gesture library reports the over item against
		// a list that already excludes the dragged item, so the intended
		// slot is after the over item, not before it.
		if overIdx == len(siblings)-1 {
			target = overOp.Position + 1
		} else {
			target = position.Between(overOp.Position, siblings[overIdx+1].Position)
		}
	} else {
		// Moving up, or arriving from another area: insert before.
		if overIdx == 0 {
			target = position.Head(idx.Positions(overArea))
		} else {
			target = position.Between(siblings[overIdx-1].Position, overOp.Position)
		}
	}

	return moveIntent(op.ID.String(), curArea, op.Position, overArea, target)
}

// moveIntent builds the move, collapsing no-op targets to IntentNone.
func moveIntent(opID, curArea string, curPos float64, targetArea string, targetPos float64) Intent {
	if targetArea == curArea && targetPos == curPos {
		return Intent{}
	}
	return Intent{
		Kind: IntentMoveOperation,
		Move: OperationMove{
			OperationID:    opID,
			TargetArea:     targetArea,
			TargetPosition: targetPos,
		},
	}
}

func resolveAreaDrag(idx boardindex.Index, active, over dragtarget.Target) Intent {
	if over.Kind != dragtarget.KindArea {
		return Intent{}
	}

	order := idx.ConfiguredAreaOrder()
	from, to := -1, -1
	for i, name := range order {
		if name == active.AreaName {
			from = i
		}
		if name == over.AreaName {
			to = i
		}
	}
	if from == -1 || to == -1 || from == to {
		return Intent{}
	}

	reordered := make([]string, 0, len(order))
	for _, name := range order {
		if name != active.AreaName {
			reordered = append(reordered, name)
		}
	}
	reordered = append(reordered[:to], append([]string{active.AreaName}, reordered[to:]...)...)

	return Intent{Kind: IntentReorderAreas, OrderedAreas: reordered}
}
