package optimistic

import (
	"sync"

	"opsboard/server/pkg/model/mboard"
)

// Store is the versioned in-memory board handle the UI reads from. Every
// write goes through the lock and bumps the version; snapshot and restore
// are whole-value copies, so rollback correctness is an equality fact, not
// an audit of in-place mutation sites.
type Store struct {
	mu      sync.Mutex
	board   mboard.Board
	version uint64
}

// Snapshot is a by-value capture of the store at one version.
type Snapshot struct {
	Board   mboard.Board
	Version uint64
}

func NewStore() *Store {
	return &Store{}
}

// Board returns a value copy of the current state.
func (s *Store) Board() mboard.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Clone()
}

func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Seed installs the initial authoritative state.
func (s *Store) Seed(board mboard.Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = board.Clone()
	s.version++
}

// ApplyWithSnapshot captures a snapshot of the latest state, then applies fn
// to a working copy and commits it, all under one lock acquisition. The
// snapshot deliberately includes earlier not-yet-settled optimistic writes:
// stacked in-flight mutations roll back like a stack, not to session start.
// If fn fails nothing is committed.
func (s *Store) ApplyWithSnapshot(fn func(*mboard.Board) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Board: s.board.Clone(), Version: s.version}
	next := s.board.Clone()
	if err := fn(&next); err != nil {
		return Snapshot{}, err
	}
	s.board = next
	s.version++
	return snap, nil
}

// Restore replaces the whole state with the snapshot value. Always a full
// value replace, never a partial merge.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = snap.Board.Clone()
	s.version++
}

// ReplaceAuthoritative installs a refetched server state, healing any
// divergence between the local prediction and the server's computation.
func (s *Store) ReplaceAuthoritative(board mboard.Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = board.Clone()
	s.version++
}
