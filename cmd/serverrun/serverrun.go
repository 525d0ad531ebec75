package serverrun

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"opsboard/server/internal/api"
	"opsboard/server/internal/api/rboard"
	"opsboard/server/internal/api/rhealth"
	"opsboard/server/internal/config"
	"opsboard/server/pkg/eventstream/memory"
	"opsboard/server/pkg/optimistic"
	"opsboard/server/pkg/service/sboard"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

// Run wires the whole server: config, database, board state, coordinator and
// the HTTP surface. It blocks until the listener fails or a signal arrives.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := sboard.CreateTables(ctx, db); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	svc := sboard.New(db)

	if err := seedAreas(ctx, svc, cfg.Board.SeedAreas); err != nil {
		return err
	}

	board, err := svc.FetchBoard(ctx)
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}

	store := optimistic.NewStore()
	store.Seed(board)

	stream := memory.NewInMemorySyncStreamer[string, optimistic.BoardEvent]()
	defer stream.Shutdown()

	coord := optimistic.New(cfg.Board.ID, store, svc, stream, slog.Default())

	boardService, err := rboard.CreateService(rboard.New(cfg.Board.ID, coord, stream, slog.Default()))
	if err != nil {
		return err
	}
	healthService, err := rhealth.CreateService(rhealth.New(db))
	if err != nil {
		return err
	}

	slog.Info("Starting server", "board", cfg.Board.ID, "operations", len(board.Operations), "areas", len(board.Areas))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.ListenServices(gctx, []api.Service{*boardService, *healthService}, cfg.Server)
	})
	g.Go(func() error {
		<-gctx.Done()
		stream.Shutdown()
		return nil
	})
	return g.Wait()
}

// seedAreas installs the configured area list on an empty store so a fresh
// deployment starts with usable lanes instead of only the synthesized
// default.
func seedAreas(ctx context.Context, svc sboard.BoardService, names []string) error {
	board, err := svc.FetchBoard(ctx)
	if err != nil {
		return fmt.Errorf("load board for seed: %w", err)
	}
	if len(board.Areas) > 0 {
		return nil
	}
	for _, name := range names {
		if _, err := svc.CreateArea(ctx, name); err != nil {
			return fmt.Errorf("seed area %q: %w", name, err)
		}
	}
	return nil
}
