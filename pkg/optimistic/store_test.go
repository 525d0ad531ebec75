package optimistic_test

import (
	"errors"
	"testing"

	"opsboard/server/pkg/idwrap"
	"opsboard/server/pkg/model/marea"
	"opsboard/server/pkg/model/mboard"
	"opsboard/server/pkg/model/moperation"
	"opsboard/server/pkg/optimistic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func someBoard() mboard.Board {
	return mboard.Board{
		Operations: []moperation.Operation{
			{ID: idwrap.NewNow(), Name: "one", AreaName: "A", Position: 1},
		},
		Areas: []marea.Area{{Name: "A", DisplayOrder: 1}},
	}
}

func TestSeedAndBoardAreValueCopies(t *testing.T) {
	s := optimistic.NewStore()
	seed := someBoard()
	s.Seed(seed)

	// mutating the caller's slice must not reach the store
	seed.Operations[0].Name = "mutated"
	assert.Equal(t, "one", s.Board().Operations[0].Name)

	// mutating a read copy must not reach the store either
	got := s.Board()
	got.Operations[0].Name = "mutated"
	assert.Equal(t, "one", s.Board().Operations[0].Name)
}

func TestApplyWithSnapshotCommitsAndBumpsVersion(t *testing.T) {
	s := optimistic.NewStore()
	s.Seed(someBoard())
	v := s.Version()

	snap, err := s.ApplyWithSnapshot(func(b *mboard.Board) error {
		b.Operations[0].Position = 9
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, v, snap.Version)
	assert.Equal(t, float64(1), snap.Board.Operations[0].Position)
	assert.Equal(t, float64(9), s.Board().Operations[0].Position)
	assert.Equal(t, v+1, s.Version())
}

func TestApplyFailureCommitsNothing(t *testing.T) {
	s := optimistic.NewStore()
	s.Seed(someBoard())
	before := s.Board()
	v := s.Version()

	_, err := s.ApplyWithSnapshot(func(b *mboard.Board) error {
		b.Operations[0].Position = 9
		return errors.New("validation failed")
	})
	require.Error(t, err)

	assert.Equal(t, before, s.Board())
	assert.Equal(t, v, s.Version())
}

func TestRestoreIsFullValueReplace(t *testing.T) {
	s := optimistic.NewStore()
	s.Seed(someBoard())

	snap, err := s.ApplyWithSnapshot(func(b *mboard.Board) error {
		b.Operations = append(b.Operations, moperation.Operation{
			ID: idwrap.NewNow(), Name: "extra", AreaName: "A", Position: 2,
		})
		b.Areas = append(b.Areas, marea.Area{Name: "B", DisplayOrder: 2})
		return nil
	})
	require.NoError(t, err)

	s.Restore(snap)

	got := s.Board()
	assert.Equal(t, snap.Board, got)
	require.Len(t, got.Operations, 1)
	require.Len(t, got.Areas, 1)
}
