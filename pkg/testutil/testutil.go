package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"opsboard/server/pkg/logger/mocklogger"
	"opsboard/server/pkg/service/sboard"

	_ "modernc.org/sqlite"
)

// BaseDB bundles the in-memory database used by service and API tests.
type BaseDB struct {
	DB  *sql.DB
	t   *testing.T
	ctx context.Context
}

// CreateBaseDB opens a fresh in-memory SQLite database with the board schema
// applied. The connection pool is pinned to one connection so the in-memory
// database survives across queries.
func CreateBaseDB(ctx context.Context, t *testing.T) *BaseDB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)

	if err := sboard.CreateTables(ctx, db); err != nil {
		t.Fatal(err)
	}

	return &BaseDB{DB: db, t: t, ctx: ctx}
}

// GetBoardService returns a store bound to the test database.
func (b *BaseDB) GetBoardService() sboard.BoardService {
	return sboard.New(b.DB)
}

func (b *BaseDB) Close() {
	if err := b.DB.Close(); err != nil {
		b.t.Error(err)
	}
}

func (b *BaseDB) Logger() *slog.Logger {
	return mocklogger.NewMockLogger()
}

func AssertFatal[c comparable](t *testing.T, expected, got c) {
	t.Helper()
	if got != expected {
		t.Fatalf("got %v, expected %v", got, expected)
	}
}

func Assert[c comparable](t *testing.T, expected, got c) {
	t.Helper()
	if got != expected {
		t.Errorf("got %v, expected %v", got, expected)
	}
}

func AssertNot[c comparable](t *testing.T, not, got c) {
	t.Helper()
	if got == not {
		t.Errorf("got %v, expected not %v", got, not)
	}
}
