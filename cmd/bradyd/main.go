package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ananthcjayan12/pdf-print-brady/internal/catalog"
	"github.com/ananthcjayan12/pdf-print-brady/internal/export"
	"github.com/ananthcjayan12/pdf-print-brady/internal/extract"
	"github.com/ananthcjayan12/pdf-print-brady/internal/indexer"
	"github.com/ananthcjayan12/pdf-print-brady/internal/ingest"
	"github.com/ananthcjayan12/pdf-print-brady/internal/printing"
	"github.com/ananthcjayan12/pdf-print-brady/internal/repository"
	"github.com/ananthcjayan12/pdf-print-brady/internal/resolver"
	"github.com/ananthcjayan12/pdf-print-brady/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	dataDir := getenv("BRADY_DATA_DIR", "./data")
	dbPath := getenv("BRADY_DB_PATH", filepath.Join(dataDir, "brady.db"))
	addr := getenv("BRADY_ADDR", ":5000")
	if !strings.HasPrefix(addr, ":") && !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logger.Error("failed to create data directory", "dir", dataDir, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cat := catalog.Builtin()
	if rulePath := os.Getenv("BRADY_PATTERNS_FILE"); rulePath != "" {
		extra, err := catalog.LoadRuleFile(rulePath)
		if err != nil {
			logger.Error("failed to load pattern rules", "path", rulePath, "error", err)
			os.Exit(1)
		}
		cat = cat.WithRules(extra)
		logger.Info("loaded extra pattern rules", "path", rulePath, "count", len(extra))
	}

	docsRepo := repository.NewDocumentRepository(db, logger)
	mappingsRepo := repository.NewMappingRepository(db, logger)
	jobsRepo := repository.NewPrintJobRepository(db, logger)

	extractor := extract.NewExtractor(cat, logger)
	indexerSvc := indexer.NewService(docsRepo, mappingsRepo, extractor, dataDir, logger)
	resolverSvc := resolver.NewService(cat, mappingsRepo, docsRepo, logger)
	exportSvc := export.NewService(docsRepo, jobsRepo, logger)

	var printer printing.Printer
	switch getenv("BRADY_PRINT_MODE", "lp") {
	case "noop":
		printer = printing.Noop{}
	default:
		printer = printing.NewLPPrinter(logger)
	}

	if inbox := os.Getenv("BRADY_INBOX_DIR"); inbox != "" {
		startInbox(ctx, inbox, indexerSvc, logger)
	}

	srv := server.New(indexerSvc, resolverSvc, docsRepo, mappingsRepo, jobsRepo, printer, exportSvc, logger)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("bradyd listening", "addr", addr, "data_dir", dataDir, "db", dbPath)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// startInbox watches a drop directory and indexes every PDF that lands
// in it.
func startInbox(ctx context.Context, dir string, idx *indexer.Service, logger *slog.Logger) {
	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Error("failed to start inbox watcher", "dir", dir, "error", err)
		return
	}
	logger.Info("watching inbox", "dir", dir)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errs:
				if !ok {
					return
				}
				logger.Warn("inbox watcher error", "error", err)
			case path, ok := <-paths:
				if !ok {
					return
				}
				data, err := os.ReadFile(path)
				if err != nil {
					logger.Warn("failed to read inbox file", "path", path, "error", err)
					continue
				}
				res, err := idx.IndexDocument(ctx, data, filepath.Base(path))
				if err != nil {
					logger.Warn("failed to index inbox file", "path", path, "error", err)
					continue
				}
				logger.Info("indexed inbox file", "path", path,
					"document_id", res.DocumentID, "pages", res.PageCount,
					"identifiers", res.IdentifiersFound, "duplicate", res.WasDuplicate)
			}
		}
	}()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
