package areas_test

import (
	"testing"

	"opsboard/server/pkg/areas"
	"opsboard/server/pkg/boardindex"
	"opsboard/server/pkg/idwrap"
	"opsboard/server/pkg/model/marea"
	"opsboard/server/pkg/model/mboard"
	"opsboard/server/pkg/model/moperation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeAreas() []marea.Area {
	return []marea.Area{
		{Name: "A", DisplayOrder: 1},
		{Name: "B", DisplayOrder: 2},
		{Name: "C", DisplayOrder: 3},
	}
}

func TestAdd(t *testing.T) {
	got, err := areas.Add(threeAreas(), "D")
	require.NoError(t, err)
	assert.Equal(t, marea.Area{Name: "D", DisplayOrder: 4}, got)

	got, err = areas.Add(nil, "first")
	require.NoError(t, err)
	assert.Equal(t, 1, got.DisplayOrder)
}

func TestAddDuplicateName(t *testing.T) {
	_, err := areas.Add(threeAreas(), "B")
	var dup areas.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "B", dup.Name)

	// duplicate check is case-sensitive
	_, err = areas.Add(threeAreas(), "b")
	assert.NoError(t, err)
}

func TestValidateRename(t *testing.T) {
	assert.NoError(t, areas.ValidateRename(threeAreas(), "A", "Z"))

	var dup areas.DuplicateNameError
	assert.ErrorAs(t, areas.ValidateRename(threeAreas(), "A", "C"), &dup)
	assert.ErrorIs(t, areas.ValidateRename(threeAreas(), "missing", "Z"), areas.ErrAreaNotFound)
}

// Moving C before A yields [C, A, B] with dense orders 1, 2, 3.
func TestReorder(t *testing.T) {
	got, err := areas.Reorder(threeAreas(), 2, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, marea.Area{Name: "C", DisplayOrder: 1}, got[0])
	assert.Equal(t, marea.Area{Name: "A", DisplayOrder: 2}, got[1])
	assert.Equal(t, marea.Area{Name: "B", DisplayOrder: 3}, got[2])

	_, err = areas.Reorder(threeAreas(), 0, 3)
	assert.ErrorIs(t, err, areas.ErrIndexOutOfRange)
}

func TestReorderDoesNotMutateInput(t *testing.T) {
	in := threeAreas()
	_, err := areas.Reorder(in, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, threeAreas(), in)
}

func TestRenumber(t *testing.T) {
	got, err := areas.Renumber(threeAreas(), []string{"B", "C", "A"})
	require.NoError(t, err)
	assert.Equal(t, []marea.Area{
		{Name: "B", DisplayOrder: 1},
		{Name: "C", DisplayOrder: 2},
		{Name: "A", DisplayOrder: 3},
	}, got)

	_, err = areas.Renumber(threeAreas(), []string{"B", "C"})
	assert.Error(t, err)
	_, err = areas.Renumber(threeAreas(), []string{"B", "C", "X"})
	assert.ErrorIs(t, err, areas.ErrAreaNotFound)
}

func TestPlanRemovalWithTarget(t *testing.T) {
	op1 := moperation.Operation{ID: idwrap.NewNow(), Name: "one", AreaName: "A", Position: 1}
	op2 := moperation.Operation{ID: idwrap.NewNow(), Name: "two", AreaName: "A", Position: 2}
	keep := moperation.Operation{ID: idwrap.NewNow(), Name: "keep", AreaName: "B", Position: 5}
	idx := boardindex.Build(mboard.Board{
		Operations: []moperation.Operation{op1, op2, keep},
		Areas:      threeAreas(),
	})

	target := "B"
	plan, err := areas.PlanRemoval(idx, "A", &target)
	require.NoError(t, err)
	require.Len(t, plan.Moves, 2)

	// members append to the target tail in their current order
	assert.Equal(t, op1.ID.String(), plan.Moves[0].OperationID)
	assert.Equal(t, float64(6), plan.Moves[0].TargetPosition)
	assert.Equal(t, op2.ID.String(), plan.Moves[1].OperationID)
	assert.Equal(t, float64(7), plan.Moves[1].TargetPosition)
	assert.Equal(t, "B", plan.Moves[0].TargetArea)
}

func TestPlanRemovalWithoutTarget(t *testing.T) {
	idx := boardindex.Build(mboard.Board{Areas: threeAreas()})

	plan, err := areas.PlanRemoval(idx, "A", nil)
	require.NoError(t, err)
	assert.Empty(t, plan.Moves)
	assert.Nil(t, plan.Target)

	_, err = areas.PlanRemoval(idx, "missing", nil)
	assert.ErrorIs(t, err, areas.ErrAreaNotFound)

	missing := "missing"
	_, err = areas.PlanRemoval(idx, "A", &missing)
	assert.ErrorIs(t, err, areas.ErrAreaNotFound)
}
