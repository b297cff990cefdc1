package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atvirokodosprendimai/tokip/internal/adapters/db/memory"
	sqliteadapter "github.com/atvirokodosprendimai/tokip/internal/adapters/db/sqlite"
	httpadapter "github.com/atvirokodosprendimai/tokip/internal/adapters/http"
	rpcadapter "github.com/atvirokodosprendimai/tokip/internal/adapters/rpcjson"
	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/atvirokodosprendimai/tokip/internal/config"
	"github.com/atvirokodosprendimai/tokip/internal/domain"
	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "tokip",
		Usage: "Goal hierarchy server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			connectCommand(),
			createCommand(),
			listCommand(),
			getCommand(),
			updateCommand(),
			deleteCommand(),
			treeCommand(),
			seedCommand(),
			recomputeCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run HTTP server and JSON-RPC socket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (TOKIP_ADDR)"},
			&cli.StringFlag{Name: "rpc-socket", Usage: "JSON-RPC unix socket path (TOKIP_RPC_SOCKET)"},
			&cli.StringFlag{Name: "store", Usage: "sqlite or memory (TOKIP_STORE)"},
			&cli.StringFlag{Name: "db-path", Usage: "SQLite database path (TOKIP_DB_PATH)"},
			&cli.StringFlag{Name: "delete-policy", Usage: "cascade or restrict (TOKIP_DELETE_POLICY)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (TOKIP_LOG_LEVEL)"},
			&cli.BoolFlag{Name: "seed", Usage: "load the example hierarchy when the store is empty"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			overrides := map[string]*string{
				"addr":          &cfg.Addr,
				"rpc-socket":    &cfg.RPCSocket,
				"store":         &cfg.Store,
				"db-path":       &cfg.DBPath,
				"delete-policy": &cfg.DeletePolicy,
				"log-level":     &cfg.LogLevel,
			}
			for name, target := range overrides {
				if c.IsSet(name) {
					*target = c.String(name)
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(ctx, cfg, c.Bool("seed"))
		},
	}
}

// openStore returns the configured store and a function that releases it.
func openStore(ctx context.Context, cfg config.Config) (domain.Store, func() error, error) {
	if cfg.Store == config.StoreMemory {
		return memory.NewStore(), func() error { return nil }, nil
	}
	db, err := sqliteadapter.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	repo := sqliteadapter.NewGoalRepository(db)
	if err := sqliteadapter.RunMigrations(ctx, db); err != nil {
		_ = repo.Close()
		return nil, nil, err
	}
	return repo, repo.Close, nil
}

func runServer(ctx context.Context, cfg config.Config, seed bool) error {
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("closing store", "error", err)
		}
	}()

	service := application.NewGoalService(store,
		application.WithDeletePolicy(cfg.Policy()),
		application.WithLogger(logger),
		application.WithObserver(application.NewLogUseCaseObserver(logger)),
	)
	if seed {
		if err := seedIfEmpty(ctx, service, logger); err != nil {
			return err
		}
	}

	router := httpadapter.NewRouter(service, logger)
	srv := &http.Server{Addr: cfg.Addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	rpcSrv, err := rpcadapter.Start(cfg.RPCSocket, service, logger)
	if err != nil {
		return err
	}

	defer func() {
		_ = rpcSrv.Close()
	}()
	logger.Info("json-rpc listening", "socket", cfg.RPCSocket)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "store", cfg.Store, "delete_policy", string(service.DeletePolicy()))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func seedIfEmpty(ctx context.Context, service *application.GoalService, logger *slog.Logger) error {
	themes, err := service.List(ctx, domain.KindTheme, domain.Filter{})
	if err != nil {
		return err
	}
	if len(themes) > 0 {
		logger.Info("store not empty, skipping seed", "themes", len(themes))
		return nil
	}
	theme, err := service.SeedExample(ctx)
	if err != nil {
		return err
	}
	logger.Info("seeded example hierarchy", "theme_id", theme.ID, "status", string(theme.Status))
	return nil
}

func connectCommand() *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Store how the CLI reaches the server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "transport", Value: transportSocket, Usage: "uds or http"},
			&cli.StringFlag{Name: "server", Value: defaultServer},
			&cli.StringFlag{Name: "socket", Value: defaultSocket},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			s := settings{Transport: c.String("transport"), Server: c.String("server"), Socket: c.String("socket")}
			client, err := newRecords(s)
			if err != nil {
				return err
			}
			if _, err := client.List(ctx, domain.KindTheme, nil); err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}
			if err := writeSettings(s); err != nil {
				return err
			}
			fmt.Printf("connected via %s\n", s.Transport)
			return nil
		},
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a record",
		ArgsUsage: "<kind>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Required: true},
			&cli.UintFlag{Name: "parent", Usage: "parent id; required for every kind but theme"},
			&cli.StringFlag{Name: "status", Usage: "initial status for tasks and initiatives"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			kind, err := kindArg(c)
			if err != nil {
				return err
			}
			client, err := connectRecords()
			if err != nil {
				return err
			}
			rec, err := client.Create(ctx, kind, createRequest{Title: c.String("title"), ParentID: c.Uint("parent"), Status: c.String("status")})
			if err != nil {
				return err
			}
			return showRecord(c, rec)
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List records of a kind",
		ArgsUsage: "<kind>",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "parent", Usage: "only children of this parent id"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			kind, err := kindArg(c)
			if err != nil {
				return err
			}
			client, err := connectRecords()
			if err != nil {
				return err
			}
			var parentID *uint
			if c.IsSet("parent") {
				v := c.Uint("parent")
				parentID = &v
			}
			recs, err := client.List(ctx, kind, parentID)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(recs)
			}
			printRecords(recs)
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show one record",
		ArgsUsage: "<kind> <id>",
		Flags:     []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
		Action: func(ctx context.Context, c *cli.Command) error {
			kind, id, err := kindAndIDArgs(c)
			if err != nil {
				return err
			}
			client, err := connectRecords()
			if err != nil {
				return err
			}
			rec, err := client.Get(ctx, kind, id)
			if err != nil {
				return err
			}
			return showRecord(c, rec)
		},
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Change the title or status of a record",
		ArgsUsage: "<kind> <id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title"},
			&cli.StringFlag{Name: "status", Usage: "NotStarted, InProgress or Completed"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			kind, id, err := kindAndIDArgs(c)
			if err != nil {
				return err
			}
			var patch patchRequest
			if c.IsSet("title") {
				title := c.String("title")
				patch.Title = &title
			}
			if c.IsSet("status") {
				status := c.String("status")
				patch.Status = &status
			}
			if patch.empty() {
				return errors.New("nothing to update: pass --title and/or --status")
			}
			client, err := connectRecords()
			if err != nil {
				return err
			}
			rec, err := client.Update(ctx, kind, id, patch)
			if err != nil {
				return err
			}
			return showRecord(c, rec)
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a record and, under the cascade policy, its descendants",
		ArgsUsage: "<kind> <id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			kind, id, err := kindAndIDArgs(c)
			if err != nil {
				return err
			}
			client, err := connectRecords()
			if err != nil {
				return err
			}
			if err := client.Delete(ctx, kind, id); err != nil {
				return err
			}
			fmt.Printf("deleted %s %d\n", kind, id)
			return nil
		},
	}
}

func treeCommand() *cli.Command {
	return &cli.Command{
		Name:  "tree",
		Usage: "Print the whole hierarchy with statuses",
		Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
		Action: func(ctx context.Context, c *cli.Command) error {
			client, err := connectRecords()
			if err != nil {
				return err
			}
			forest, err := client.Tree(ctx)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(forest)
			}
			printTree(os.Stdout, forest)
			return nil
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Load the example Physique hierarchy",
		Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
		Action: func(ctx context.Context, c *cli.Command) error {
			client, err := connectRecords()
			if err != nil {
				return err
			}
			theme, err := client.Seed(ctx)
			if err != nil {
				return err
			}
			return showRecord(c, theme)
		},
	}
}

func recomputeCommand() *cli.Command {
	return &cli.Command{
		Name:  "recompute",
		Usage: "Recompute every derived status from the leaves up",
		Action: func(ctx context.Context, c *cli.Command) error {
			client, err := connectRecords()
			if err != nil {
				return err
			}
			changed, err := client.Recompute(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%d statuses changed\n", changed)
			return nil
		},
	}
}

func showRecord(c *cli.Command, rec domain.Record) error {
	if c.Bool("json") {
		return printJSON(rec)
	}
	printRecord(rec)
	return nil
}

func kindArg(c *cli.Command) (domain.Kind, error) {
	if c.Args().Len() < 1 {
		return "", errors.New("kind is required")
	}
	return domain.ParseKind(c.Args().Get(0))
}

func kindAndIDArgs(c *cli.Command) (domain.Kind, uint, error) {
	kind, err := kindArg(c)
	if err != nil {
		return "", 0, err
	}
	if c.Args().Len() < 2 {
		return "", 0, errors.New("id is required")
	}
	id, err := parseID(c.Args().Get(1))
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
