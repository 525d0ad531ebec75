package sboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"opsboard/server/pkg/idwrap"
	"opsboard/server/pkg/model/marea"
	"opsboard/server/pkg/model/mboard"
	"opsboard/server/pkg/model/moperation"
)

// BoardService is the persisted side of the board: the authoritative store
// the optimistic layer dispatches to and refetches from. All multi-row
// mutations (rename cascade, delete with reassignment, area renumbering) run
// inside one transaction so a concurrent FetchBoard never observes a torn
// state.

var (
	ErrAreaNotFound      = errors.New("area not found")
	ErrDuplicateAreaName = errors.New("area name already exists")
	ErrAreaNotEmpty      = errors.New("area still has operations")
	ErrOperationNotFound = errors.New("operation not found")
)

type BoardService struct {
	db *sql.DB
}

func New(db *sql.DB) BoardService {
	return BoardService{db: db}
}

// CreateTables prepares the schema. Safe to call on every startup.
func CreateTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS areas (
	name          TEXT PRIMARY KEY,
	display_order INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS operations (
	id        BLOB PRIMARY KEY,
	name      TEXT NOT NULL,
	area_name TEXT NOT NULL,
	position  REAL NOT NULL,
	kind      INTEGER NOT NULL DEFAULT 0,
	notes     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS operations_area_position_idx ON operations(area_name, position);
`)
	return err
}

// FetchBoard returns the authoritative snapshot: operations in (area,
// position) order and areas in display order.
func (s BoardService) FetchBoard(ctx context.Context) (mboard.Board, error) {
	var board mboard.Board

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, area_name, position, kind, notes FROM operations ORDER BY area_name, position`)
	if err != nil {
		return mboard.Board{}, fmt.Errorf("fetch operations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var op moperation.Operation
		if err := rows.Scan(&op.ID, &op.Name, &op.AreaName, &op.Position, &op.Kind, &op.Notes); err != nil {
			return mboard.Board{}, err
		}
		board.Operations = append(board.Operations, op)
	}
	if err := rows.Err(); err != nil {
		return mboard.Board{}, err
	}

	areaRows, err := s.db.QueryContext(ctx,
		`SELECT name, display_order FROM areas ORDER BY display_order`)
	if err != nil {
		return mboard.Board{}, fmt.Errorf("fetch areas: %w", err)
	}
	defer areaRows.Close()
	for areaRows.Next() {
		var a marea.Area
		if err := areaRows.Scan(&a.Name, &a.DisplayOrder); err != nil {
			return mboard.Board{}, err
		}
		board.Areas = append(board.Areas, a)
	}
	return board, areaRows.Err()
}

// CreateArea appends a new area with display_order = max + 1.
func (s BoardService) CreateArea(ctx context.Context, name string) (marea.Area, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM areas WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return marea.Area{}, err
	}
	if exists > 0 {
		return marea.Area{}, fmt.Errorf("%w: %s", ErrDuplicateAreaName, name)
	}

	var order int
	err = s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(display_order), 0) + 1 FROM areas`).Scan(&order)
	if err != nil {
		return marea.Area{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO areas (name, display_order) VALUES (?, ?)`, name, order)
	if err != nil {
		return marea.Area{}, err
	}
	return marea.Area{Name: name, DisplayOrder: order}, nil
}

// CreateOperation inserts at the tail of its area: position = max + 1.
func (s BoardService) CreateOperation(ctx context.Context, op moperation.Operation) (moperation.Operation, error) {
	var pos float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) + 1 FROM operations WHERE area_name = ?`, op.AreaName).Scan(&pos)
	if err != nil {
		return moperation.Operation{}, err
	}
	op.Position = pos
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO operations (id, name, area_name, position, kind, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		op.ID, op.Name, op.AreaName, op.Position, op.Kind, op.Notes)
	if err != nil {
		return moperation.Operation{}, err
	}
	return op, nil
}

// UpdateOperationPosition re-homes one operation. Only that row is written;
// siblings keep their fractional keys.
func (s BoardService) UpdateOperationPosition(ctx context.Context, id idwrap.IDWrap, areaName string, pos float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE operations SET area_name = ?, position = ? WHERE id = ?`, areaName, pos, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrOperationNotFound, id.String())
	}
	return nil
}

// UpdateAreaConfiguration rewrites display_order for the full area list.
func (s BoardService) UpdateAreaConfiguration(ctx context.Context, config []marea.Area) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range config {
		res, err := tx.ExecContext(ctx,
			`UPDATE areas SET display_order = ? WHERE name = ?`, a.DisplayOrder, a.Name)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrAreaNotFound, a.Name)
		}
	}
	return tx.Commit()
}

// RenameArea renames the area and repoints every member operation in the
// same transaction. All-or-nothing: no reader ever sees the torn pair.
func (s BoardService) RenameArea(ctx context.Context, oldName, newName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM areas WHERE name = ?`, newName).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateAreaName, newName)
	}

	res, err := tx.ExecContext(ctx, `UPDATE areas SET name = ? WHERE name = ?`, newName, oldName)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrAreaNotFound, oldName)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE operations SET area_name = ? WHERE area_name = ?`, newName, oldName); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteArea removes an area. Without a target it is only valid when the
// area is empty; with a target every member is appended to the target's tail
// inside the same transaction as the delete.
func (s BoardService) DeleteArea(ctx context.Context, name string, target *string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var members int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM operations WHERE area_name = ?`, name).Scan(&members); err != nil {
		return err
	}

	if target == nil {
		if members > 0 {
			return fmt.Errorf("%w: %s", ErrAreaNotEmpty, name)
		}
	} else {
		var targetExists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM areas WHERE name = ?`, *target).Scan(&targetExists); err != nil {
			return err
		}
		if targetExists == 0 {
			return fmt.Errorf("%w: %s", ErrAreaNotFound, *target)
		}

		var tail float64
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position), 0) FROM operations WHERE area_name = ?`, *target).Scan(&tail); err != nil {
			return err
		}

		// Re-tail members into the target, preserving their order.
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM operations WHERE area_name = ? ORDER BY position`, name)
		if err != nil {
			return err
		}
		var ids []idwrap.IDWrap
		for rows.Next() {
			var id idwrap.IDWrap
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, id := range ids {
			tail++
			if _, err := tx.ExecContext(ctx,
				`UPDATE operations SET area_name = ?, position = ? WHERE id = ?`, *target, tail, id); err != nil {
				return err
			}
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM areas WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrAreaNotFound, name)
	}
	return tx.Commit()
}
