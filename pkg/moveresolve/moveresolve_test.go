package moveresolve_test

import (
	"testing"

	"opsboard/server/pkg/boardindex"
	"opsboard/server/pkg/dragtarget"
	"opsboard/server/pkg/idwrap"
	"opsboard/server/pkg/model/marea"
	"opsboard/server/pkg/model/mboard"
	"opsboard/server/pkg/model/moperation"
	"opsboard/server/pkg/moveresolve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	board mboard.Board
	ops   map[string]moperation.Operation
}

// reviewBoard builds: Review[P1@1 P2@2 P3@3], Draft[D1@1], ordered Review, Draft.
func reviewBoard() fixture {
	f := fixture{ops: make(map[string]moperation.Operation)}
	add := func(name, area string, pos float64) {
		op := moperation.Operation{ID: idwrap.NewNow(), Name: name, AreaName: area, Position: pos}
		f.ops[name] = op
		f.board.Operations = append(f.board.Operations, op)
	}
	add("P1", "Review", 1)
	add("P2", "Review", 2)
	add("P3", "Review", 3)
	add("D1", "Draft", 1)
	f.board.Areas = []marea.Area{
		{Name: "Review", DisplayOrder: 1},
		{Name: "Draft", DisplayOrder: 2},
	}
	return f
}

func (f fixture) resolve(t *testing.T, activeID, overID string) moveresolve.Intent {
	t.Helper()
	return moveresolve.Resolve(boardindex.Build(f.board), activeID, overID)
}

func TestDropOnAreaAppendsToTail(t *testing.T) {
	f := reviewBoard()

	got := f.resolve(t, f.ops["P1"].ID.String(), dragtarget.AreaID("Review"))

	require.Equal(t, moveresolve.IntentMoveOperation, got.Kind)
	assert.Equal(t, "Review", got.Move.TargetArea)
	assert.Equal(t, float64(4), got.Move.TargetPosition)
}

func TestDropOnBareAreaNameAppendsToTail(t *testing.T) {
	f := reviewBoard()

	got := f.resolve(t, f.ops["P1"].ID.String(), "Draft")

	require.Equal(t, moveresolve.IntentMoveOperation, got.Kind)
	assert.Equal(t, "Draft", got.Move.TargetArea)
	assert.Equal(t, float64(2), got.Move.TargetPosition)
}

// Moving down within an area means "insert after the over item".
func TestMoveDownInsertsAfterOverItem(t *testing.T) {
	f := reviewBoard()

	// P1 onto P2: P2 is not last, so midpoint with P3.
	got := f.resolve(t, f.ops["P1"].ID.String(), f.ops["P2"].ID.String())
	require.Equal(t, moveresolve.IntentMoveOperation, got.Kind)
	assert.Equal(t, "Review", got.Move.TargetArea)
	assert.Equal(t, float64(2.5), got.Move.TargetPosition)

	// P1 onto P3: P3 is last, so last+1.
	got = f.resolve(t, f.ops["P1"].ID.String(), f.ops["P3"].ID.String())
	require.Equal(t, moveresolve.IntentMoveOperation, got.Kind)
	assert.Equal(t, float64(4), got.Move.TargetPosition)
}

// Moving up within an area means "insert before the over item".
func TestMoveUpInsertsBeforeOverItem(t *testing.T) {
	f := reviewBoard()

	// P3 onto P2: midpoint of P1 and P2.
	got := f.resolve(t, f.ops["P3"].ID.String(), f.ops["P2"].ID.String())
	require.Equal(t, moveresolve.IntentMoveOperation, got.Kind)
	assert.Equal(t, float64(1.5), got.Move.TargetPosition)

	// P3 onto P1: P1 is first, so first/2.
	got = f.resolve(t, f.ops["P3"].ID.String(), f.ops["P1"].ID.String())
	require.Equal(t, moveresolve.IntentMoveOperation, got.Kind)
	assert.Equal(t, float64(0.5), got.Move.TargetPosition)
}

// Arriving from a different area always inserts before the over item.
func TestCrossAreaMoveInsertsBefore(t *testing.T) {
	f := reviewBoard()

	got := f.resolve(t, f.ops["D1"].ID.String(), f.ops["P2"].ID.String())

	require.Equal(t, moveresolve.IntentMoveOperation, got.Kind)
	assert.Equal(t, "Review", got.Move.TargetArea)
	assert.Equal(t, float64(1.5), got.Move.TargetPosition)
}

// Moving X to immediately follow Y works from both starting directions.
func TestMoveEndsUpDirectlyAfterTarget(t *testing.T) {
	apply := func(f fixture, intent moveresolve.Intent) []string {
		for i := range f.board.Operations {
			if f.board.Operations[i].ID.String() == intent.Move.OperationID {
				f.board.Operations[i].AreaName = intent.Move.TargetArea
				f.board.Operations[i].Position = intent.Move.TargetPosition
			}
		}
		idx := boardindex.Build(f.board)
		names := make([]string, 0, len(idx.ByArea["Review"]))
		for _, op := range idx.ByArea["Review"] {
			names = append(names, op.Name)
		}
		return names
	}

	// activeIndex < overIndex: P1 dropped on P2 -> P1 follows P2.
	f := reviewBoard()
	got := f.resolve(t, f.ops["P1"].ID.String(), f.ops["P2"].ID.String())
	require.Equal(t, moveresolve.IntentMoveOperation, got.Kind)
	assert.Equal(t, []string{"P2", "P1", "P3"}, apply(f, got))

	// activeIndex > overIndex: P3 dropped on P2 lands before P2; dropping
	// P3 on the item after P2 (none here beyond P3 itself) is covered by
	// the downward case, so assert the upward semantics instead.
	f = reviewBoard()
	got = f.resolve(t, f.ops["P3"].ID.String(), f.ops["P2"].ID.String())
	require.Equal(t, moveresolve.IntentMoveOperation, got.Kind)
	assert.Equal(t, []string{"P1", "P3", "P2"}, apply(f, got))
}

func TestNullIntents(t *testing.T) {
	f := reviewBoard()

	// stale/unknown active id
	assert.Equal(t, moveresolve.IntentNone, f.resolve(t, idwrap.NewNow().String(), f.ops["P2"].ID.String()).Kind)
	// unknown over id
	assert.Equal(t, moveresolve.IntentNone, f.resolve(t, f.ops["P1"].ID.String(), idwrap.NewNow().String()).Kind)
	// dropped on itself
	assert.Equal(t, moveresolve.IntentNone, f.resolve(t, f.ops["P1"].ID.String(), f.ops["P1"].ID.String()).Kind)
	// released with no over target
	assert.Equal(t, moveresolve.IntentNone, f.resolve(t, f.ops["P1"].ID.String(), "").Kind)
	// unknown drop area
	assert.Equal(t, moveresolve.IntentNone, f.resolve(t, f.ops["P1"].ID.String(), dragtarget.AreaID("Nope")).Kind)
}

func TestAreaDragReorders(t *testing.T) {
	f := reviewBoard()
	f.board.Areas = append(f.board.Areas, marea.Area{Name: "Done", DisplayOrder: 3})

	// Move Done before Review: [Done, Review, Draft].
	got := f.resolve(t, dragtarget.AreaID("Done"), dragtarget.AreaID("Review"))
	require.Equal(t, moveresolve.IntentReorderAreas, got.Kind)
	assert.Equal(t, []string{"Done", "Review", "Draft"}, got.OrderedAreas)

	// Dropping an area on an operation is gesture noise, never a move.
	assert.Equal(t, moveresolve.IntentNone, f.resolve(t, dragtarget.AreaID("Done"), f.ops["P1"].ID.String()).Kind)
	// Same slot is a no-op.
	assert.Equal(t, moveresolve.IntentNone, f.resolve(t, dragtarget.AreaID("Done"), dragtarget.AreaID("Done")).Kind)
}

// The synthesized default bucket holds orphans but is not a reorder target.
func TestAreaDragIgnoresSyntheticDefault(t *testing.T) {
	f := reviewBoard()
	f.board.Operations = append(f.board.Operations, moperation.Operation{
		ID: idwrap.NewNow(), Name: "orphan", AreaName: "Gone", Position: 1,
	})

	got := f.resolve(t, dragtarget.AreaID("Review"), dragtarget.AreaID(boardindex.DefaultAreaName))
	assert.Equal(t, moveresolve.IntentNone, got.Kind)
}
