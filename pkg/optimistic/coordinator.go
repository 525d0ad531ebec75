package optimistic

import (
	"context"
	"fmt"
	"log/slog"

	"opsboard/server/pkg/areas"
	"opsboard/server/pkg/boardindex"
	"opsboard/server/pkg/idwrap"
	"opsboard/server/pkg/model/marea"
	"opsboard/server/pkg/model/mboard"
	"opsboard/server/pkg/model/moperation"
	"opsboard/server/pkg/moveresolve"
	"opsboard/server/pkg/position"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Remote is the persistence collaborator. Any store satisfying this contract
// works; sboard.BoardService is the SQLite one.
type Remote interface {
	UpdateOperationPosition(ctx context.Context, id idwrap.IDWrap, areaName string, pos float64) error
	UpdateAreaConfiguration(ctx context.Context, config []marea.Area) error
	RenameArea(ctx context.Context, oldName, newName string) error
	DeleteArea(ctx context.Context, name string, target *string) error
	CreateArea(ctx context.Context, name string) (marea.Area, error)
	CreateOperation(ctx context.Context, op moperation.Operation) (moperation.Operation, error)
	FetchBoard(ctx context.Context) (mboard.Board, error)
}

// Publisher receives lifecycle events for every mutation; the API stream
// handler fans them out to clients. eventstream.SyncStreamer satisfies it.
type Publisher interface {
	Publish(topic string, payloads ...BoardEvent)
}

// Event phases of the per-mutation state machine:
// applied -> settled | rolled_back, then refetched once the authoritative
// state has replaced the local prediction.
const (
	PhaseApplied    = "applied"
	PhaseSettled    = "settled"
	PhaseRolledBack = "rolled_back"
	PhaseRefetched  = "refetched"
)

// BoardEvent describes one phase transition of one mutation.
type BoardEvent struct {
	MutationID string `json:"mutationId"`
	Mutation   string `json:"mutation"`
	Phase      string `json:"phase"`
	Error      string `json:"error,omitempty"`
}

// Result reports how a mutation settled. Err is nil on success and a
// *RetryableError after a rollback.
type Result struct {
	MutationID uuid.UUID
	Err        error
}

// Mutation is the caller's handle on one in-flight mutation. The UI ignores
// it (fire-and-forget); tests and synchronous callers wait on Done.
type Mutation struct {
	ID   uuid.UUID
	done chan Result
}

func (m *Mutation) Done() <-chan Result {
	return m.done
}

// Wait blocks until the mutation settles and returns its error, if any.
func (m *Mutation) Wait(ctx context.Context) error {
	select {
	case res := <-m.done:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Coordinator orchestrates snapshot -> local apply -> async dispatch ->
// commit-or-rollback for every board mutation. Each in-flight mutation
// carries its own snapshot; there is no cross-mutation locking beyond the
// store's own writes.
type Coordinator struct {
	boardID string
	store   *Store
	remote  Remote
	stream  Publisher
	logger  *slog.Logger

	// refetch dedup: overlapping settles share one authoritative fetch
	sf singleflight.Group
}

func New(boardID string, store *Store, remote Remote, stream Publisher, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		boardID: boardID,
		store:   store,
		remote:  remote,
		stream:  stream,
		logger:  logger,
	}
}

func (c *Coordinator) Store() *Store {
	return c.store
}

// DragEnd consumes the gesture collaborator's terminal event. A drag that
// resolves to no change performs no mutation and needs no rollback; the
// returned handle is nil in that case.
func (c *Coordinator) DragEnd(ctx context.Context, activeID, overID string) (*Mutation, error) {
	idx := boardindex.Build(c.store.Board())
	intent := moveresolve.Resolve(idx, activeID, overID)

	switch intent.Kind {
	case moveresolve.IntentMoveOperation:
		return c.MoveOperation(ctx, intent.Move)
	case moveresolve.IntentReorderAreas:
		return c.ReorderAreas(ctx, intent.OrderedAreas)
	default:
		c.logger.Debug("drag resolved to no-op", "active", activeID, "over", overID)
		return nil, nil
	}
}

// MoveOperation applies a resolved move locally and dispatches it.
func (c *Coordinator) MoveOperation(ctx context.Context, move moveresolve.OperationMove) (*Mutation, error) {
	var id idwrap.IDWrap
	apply := func(b *mboard.Board) error {
		for i := range b.Operations {
			if b.Operations[i].ID.String() == move.OperationID {
				id = b.Operations[i].ID
				b.Operations[i].AreaName = move.TargetArea
				b.Operations[i].Position = move.TargetPosition
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrOperationNotFound, move.OperationID)
	}
	dispatch := func(ctx context.Context) error {
		return c.remote.UpdateOperationPosition(ctx, id, move.TargetArea, move.TargetPosition)
	}
	return c.run(ctx, "move_operation", apply, dispatch)
}

// ReorderAreas renumbers the whole area list to the given name order.
func (c *Coordinator) ReorderAreas(ctx context.Context, orderedNames []string) (*Mutation, error) {
	var config []marea.Area
	apply := func(b *mboard.Board) error {
		next, err := areas.Renumber(b.Areas, orderedNames)
		if err != nil {
			return err
		}
		b.Areas = next
		config = make([]marea.Area, len(next))
		copy(config, next)
		return nil
	}
	dispatch := func(ctx context.Context) error {
		return c.remote.UpdateAreaConfiguration(ctx, config)
	}
	return c.run(ctx, "reorder_areas", apply, dispatch)
}

// AddArea validates the name synchronously; a duplicate fails before any
// optimistic state change, so no rollback is involved.
func (c *Coordinator) AddArea(ctx context.Context, name string) (*Mutation, error) {
	apply := func(b *mboard.Board) error {
		added, err := areas.Add(b.Areas, name)
		if err != nil {
			return err
		}
		b.Areas = append(b.Areas, added)
		return nil
	}
	dispatch := func(ctx context.Context) error {
		_, err := c.remote.CreateArea(ctx, name)
		return err
	}
	return c.run(ctx, "add_area", apply, dispatch)
}

// RenameArea repoints the area and every member in one local write and one
// atomic remote call; the pair is never two separate writes.
func (c *Coordinator) RenameArea(ctx context.Context, oldName, newName string) (*Mutation, error) {
	apply := func(b *mboard.Board) error {
		if err := areas.ValidateRename(b.Areas, oldName, newName); err != nil {
			return err
		}
		for i := range b.Areas {
			if b.Areas[i].Name == oldName {
				b.Areas[i].Name = newName
			}
		}
		for i := range b.Operations {
			if b.Operations[i].AreaName == oldName {
				b.Operations[i].AreaName = newName
			}
		}
		return nil
	}
	dispatch := func(ctx context.Context) error {
		return c.remote.RenameArea(ctx, oldName, newName)
	}
	return c.run(ctx, "rename_area", apply, dispatch)
}

// DeleteArea removes an area, re-tailing members into target when given.
// Whether an empty-only delete is valid is the remote's decision: with no
// target and members present the optimistic delete is applied anyway and the
// remote's rejection rolls it back.
func (c *Coordinator) DeleteArea(ctx context.Context, name string, target *string) (*Mutation, error) {
	apply := func(b *mboard.Board) error {
		idx := boardindex.Build(*b)
		plan, err := areas.PlanRemoval(idx, name, target)
		if err != nil {
			return err
		}
		moves := make(map[string]areas.MemberMove, len(plan.Moves))
		for _, mv := range plan.Moves {
			moves[mv.OperationID] = mv
		}
		for i := range b.Operations {
			if mv, ok := moves[b.Operations[i].ID.String()]; ok {
				b.Operations[i].AreaName = mv.TargetArea
				b.Operations[i].Position = mv.TargetPosition
			}
		}
		kept := b.Areas[:0]
		for _, a := range b.Areas {
			if a.Name != name {
				kept = append(kept, a)
			}
		}
		b.Areas = kept
		return nil
	}
	dispatch := func(ctx context.Context) error {
		return c.remote.DeleteArea(ctx, name, target)
	}
	return c.run(ctx, "delete_area", apply, dispatch)
}

// AddOperation appends a new operation to an area's tail.
func (c *Coordinator) AddOperation(ctx context.Context, op moperation.Operation) (*Mutation, error) {
	if op.ID.IsZero() {
		op.ID = idwrap.NewNow()
	}
	apply := func(b *mboard.Board) error {
		idx := boardindex.Build(*b)
		if !idx.HasArea(op.AreaName) {
			return fmt.Errorf("%w: %s", ErrAreaNotFound, op.AreaName)
		}
		op.Position = position.Tail(idx.Positions(op.AreaName))
		b.Operations = append(b.Operations, op)
		return nil
	}
	dispatch := func(ctx context.Context) error {
		_, err := c.remote.CreateOperation(ctx, op)
		return err
	}
	return c.run(ctx, "add_operation", apply, dispatch)
}

// Refetch forces an authoritative reload outside any mutation, e.g. at
// startup. Concurrent callers share one fetch.
func (c *Coordinator) Refetch(ctx context.Context) error {
	_, err := c.refetch(ctx)
	return err
}

// run drives the state machine: Idle -> OptimisticApplied ->
// SettledSuccess | Failed -> RolledBack, with an unconditional refetch after
// either settle outcome. Apply errors surface synchronously with nothing
// applied and nothing dispatched.
func (c *Coordinator) run(ctx context.Context, kind string, apply func(*mboard.Board) error, dispatch func(context.Context) error) (*Mutation, error) {
	snap, err := c.store.ApplyWithSnapshot(apply)
	if err != nil {
		return nil, err
	}

	m := &Mutation{ID: uuid.New(), done: make(chan Result, 1)}
	c.publish(BoardEvent{MutationID: m.ID.String(), Mutation: kind, Phase: PhaseApplied})
	c.logger.Debug("optimistic apply", "mutation", kind, "id", m.ID.String(), "version", c.store.Version())

	// Dispatch is fire-and-forget relative to the caller; further gestures
	// are never blocked on the remote call, and a caller that goes away
	// (request context cancelled) must not abort the settle.
	go c.settle(context.WithoutCancel(ctx), m, kind, snap, dispatch)
	return m, nil
}

func (c *Coordinator) settle(ctx context.Context, m *Mutation, kind string, snap Snapshot, dispatch func(context.Context) error) {
	err := dispatch(ctx)
	if err != nil {
		c.store.Restore(snap)
		c.logger.Error("mutation failed, rolled back", "mutation", kind, "id", m.ID.String(), "error", err)
		c.publish(BoardEvent{MutationID: m.ID.String(), Mutation: kind, Phase: PhaseRolledBack, Error: err.Error()})
		err = &RetryableError{Err: err}
	} else {
		c.publish(BoardEvent{MutationID: m.ID.String(), Mutation: kind, Phase: PhaseSettled})
	}

	// Settle always invalidates: the refetched server state overwrites the
	// local prediction so any divergence self-heals.
	if refetched, rerr := c.refetch(ctx); rerr != nil {
		c.logger.Warn("authoritative refetch failed", "mutation", kind, "error", rerr)
	} else if refetched {
		c.publish(BoardEvent{MutationID: m.ID.String(), Mutation: kind, Phase: PhaseRefetched})
	}

	m.done <- Result{MutationID: m.ID, Err: err}
}

func (c *Coordinator) refetch(ctx context.Context) (bool, error) {
	_, err, _ := c.sf.Do("board", func() (any, error) {
		board, ferr := c.remote.FetchBoard(ctx)
		if ferr != nil {
			return nil, ferr
		}
		c.store.ReplaceAuthoritative(board)
		return nil, nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Coordinator) publish(evt BoardEvent) {
	if c.stream != nil {
		c.stream.Publish(c.boardID, evt)
	}
}
