package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ananthcjayan12/pdf-print-brady/internal/catalog"
	"github.com/ananthcjayan12/pdf-print-brady/internal/export"
	"github.com/ananthcjayan12/pdf-print-brady/internal/extract"
	"github.com/ananthcjayan12/pdf-print-brady/internal/indexer"
	"github.com/ananthcjayan12/pdf-print-brady/internal/ingest"
	"github.com/ananthcjayan12/pdf-print-brady/internal/repository"
	"github.com/ananthcjayan12/pdf-print-brady/internal/resolver"
)

var (
	dataDir string
	dbPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bradyctl",
		Short: "Index label sheets and look up serial numbers",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "directory for stored PDFs")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default <data-dir>/brady.db)")

	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(docsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	db       *sql.DB
	docs     repository.DocumentRepository
	mappings repository.MappingRepository
	jobs     repository.PrintJobRepository
	indexer  *indexer.Service
	resolver *resolver.Service
	logger   *slog.Logger
}

func openApp() (*app, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := dbPath
	if path == "" {
		path = filepath.Join(dataDir, "brady.db")
	}
	db, err := repository.Open(path)
	if err != nil {
		return nil, err
	}

	cat := catalog.Builtin()
	if rulePath := os.Getenv("BRADY_PATTERNS_FILE"); rulePath != "" {
		extra, err := catalog.LoadRuleFile(rulePath)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("load pattern rules: %w", err)
		}
		cat = cat.WithRules(extra)
	}

	docs := repository.NewDocumentRepository(db, logger)
	mappings := repository.NewMappingRepository(db, logger)
	jobs := repository.NewPrintJobRepository(db, logger)
	extractor := extract.NewExtractor(cat, logger)

	return &app{
		db:       db,
		docs:     docs,
		mappings: mappings,
		jobs:     jobs,
		indexer:  indexer.NewService(docs, mappings, extractor, dataDir, logger),
		resolver: resolver.NewService(cat, mappings, docs, logger),
		logger:   logger,
	}, nil
}

func (a *app) Close() { _ = a.db.Close() }

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index [file.pdf ...]",
		Short: "Index one or more label sheet PDFs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				res, err := a.indexer.IndexDocument(cmd.Context(), data, filepath.Base(path))
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if res.WasDuplicate {
					fmt.Printf("%s: already indexed (document %s)\n", path, res.DocumentID)
					continue
				}
				fmt.Printf("%s: %d pages, %d identifiers (document %s)\n",
					path, res.PageCount, res.IdentifiersFound, res.DocumentID)
			}
			return nil
		},
	}
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [code]",
		Short: "Resolve a scanned barcode to a document page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			match, err := a.resolver.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if match == nil {
				fmt.Println("not found")
				return nil
			}
			if match.ExtractedSerial != "" {
				fmt.Printf("extracted serial: %s\n", match.ExtractedSerial)
			}
			fmt.Printf("identifier: %s (%s)\n", match.Mapping.Identifier, match.Mapping.Type)
			fmt.Printf("document:   %s (%s)\n", match.Document.Name, match.Document.ID)
			fmt.Printf("page:       %d\n", match.Mapping.PageNumber)
			count, err := a.jobs.CountForIdentifier(cmd.Context(), match.Mapping.Identifier)
			if err == nil {
				fmt.Printf("printed:    %d time(s)\n", count)
			}
			return nil
		},
	}
}

func docsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "List indexed documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			docs, err := a.docs.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, d := range docs {
				fmt.Printf("%s  %-40s  %3d pages  %4d ids  %s\n",
					d.ID, d.Name, d.PageCount, d.IdentifiersFound,
					d.UploadedAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show [document-id]",
		Short: "Show a document's identifier mappings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid document id: %w", err)
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.docs.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%d pages)\n", doc.Name, doc.PageCount)
			mappings, err := a.mappings.ListByDocument(cmd.Context(), id)
			if err != nil {
				return err
			}
			for _, m := range mappings {
				fmt.Printf("  page %3d  %-16s  %s\n", m.PageNumber, m.Type, m.Identifier)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm [document-id]",
		Short: "Delete a document and its mappings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid document id: %w", err)
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.docs.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := a.docs.Delete(cmd.Context(), id); err != nil {
				return err
			}
			_ = os.Remove(doc.Path)
			fmt.Printf("deleted %s\n", doc.Name)
			return nil
		},
	})

	return cmd
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the print history report as an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			svc := export.NewService(a.docs, a.jobs, a.logger)
			data, err := svc.ReportXLSX(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "print_report.xlsx", "output file")
	return cmd
}

func watchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [dir ...]",
		Short: "Watch directories and index PDFs as they appear",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
				Roots:       args,
				InitialScan: true,
				Debounce:    debounce,
			}, a.logger)
			if err != nil {
				return err
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case err, ok := <-errs:
					if !ok {
						return nil
					}
					fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
				case path, ok := <-paths:
					if !ok {
						return nil
					}
					indexOne(ctx, a, path)
				}
			}
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "settle time before indexing a changed file")
	return cmd
}

func indexOne(ctx context.Context, a *app, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return
	}
	res, err := a.indexer.IndexDocument(ctx, data, filepath.Base(path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return
	}
	if res.WasDuplicate {
		fmt.Printf("%s: already indexed\n", path)
		return
	}
	fmt.Printf("%s: %d pages, %d identifiers\n", path, res.PageCount, res.IdentifiersFound)
}
