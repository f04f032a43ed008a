package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sheetwise/adapters/excel"
	"sheetwise/adapters/llm"
	"sheetwise/domain/batch"
	"sheetwise/domain/core"
	"sheetwise/internal"
	"sheetwise/internal/config"
	mappingsvc "sheetwise/internal/mapping"
	"sheetwise/internal/structure"
	"sheetwise/internal/upload"
	"sheetwise/ports"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sheetwise-cli",
		Short: "Sheetwise CLI for offline workbook inspection and ingestion",
	}

	rootCmd.AddCommand(
		newInspectCmd(),
		newIngestCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newInspectCmd() *cobra.Command {
	var sheetIndex int
	var headerRows int

	cmd := &cobra.Command{
		Use:   "inspect [workbook.xlsx]",
		Short: "Detect structure and orientation for one sheet and dump it as JSON",
		Long: `Run header detection, orientation classification, and column profiling
on a single sheet without persisting anything.

Example: sheetwise-cli inspect budget.xlsx --sheet 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), args[0], sheetIndex, headerRows)
		},
	}

	cmd.Flags().IntVar(&sheetIndex, "sheet", 0, "Zero-based sheet index")
	cmd.Flags().IntVar(&headerRows, "header-rows", 0, "Override detected header row count (0 = auto)")

	return cmd
}

func newIngestCmd() *cobra.Command {
	var workers int
	var headerRows int

	cmd := &cobra.Command{
		Use:   "ingest [workbook.xlsx]",
		Short: "Run the full multi-sheet pipeline with the built-in dictionary",
		Long: `Process every sheet of a workbook through structure inference, field
classification, and mapping, then print the batch summary as JSON.

Runs fully offline: the built-in dictionary replaces the database and
rows are counted instead of persisted. The semantic classifier is used
only when OPENAI_API_KEY is set.

Example: sheetwise-cli ingest budget.xlsx --workers 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), args[0], workers, headerRows)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent sheet workers")
	cmd.Flags().IntVar(&headerRows, "header-rows", 0, "Override detected header row count (0 = auto)")

	return cmd
}

func runInspect(ctx context.Context, path string, sheetIndex, headerRows int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read workbook: %w", err)
	}

	wb, err := excel.NewOpener().Open(data)
	if err != nil {
		return err
	}
	defer wb.Close()

	names := wb.SheetNames()
	if sheetIndex < 0 || sheetIndex >= len(names) {
		return fmt.Errorf("sheet index %d out of range, workbook has %d sheet(s)", sheetIndex, len(names))
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pipeline := upload.NewPipeline(structure.NewDetector(cfg.Upload.MaxHeaderRows), newOfflineMapper(cfg))

	result, err := pipeline.Run(ctx, wb, sheetIndex, names[sheetIndex], headerRows, nil)
	if err != nil {
		return err
	}

	out := map[string]any{
		"sheet_name":  result.SheetName,
		"layout":      result.Layout,
		"orientation": result.Orientation,
		"transposed":  result.Transposed,
		"profiles":    result.Profiles,
		"mappings":    result.Mappings,
	}
	return printJSON(out)
}

func runIngest(ctx context.Context, path string, workers, headerRows int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read workbook: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Upload.Workers = workers
	}
	if headerRows > 0 {
		cfg.Upload.MaxHeaderRows = headerRows
	}

	pipeline := upload.NewPipeline(structure.NewDetector(cfg.Upload.MaxHeaderRows), newOfflineMapper(cfg))

	orchestrator := upload.NewOrchestrator(
		excel.NewOpener(),
		pipeline,
		nil, // no blob store, retry is an API-server concern
		&countingPersistence{},
		progressPrinter(),
		cfg.Upload,
		internal.NewDefaultLogger(),
	)

	job, err := orchestrator.ProcessWorkbook(ctx, filepath.Base(path), data)
	if err != nil {
		return err
	}
	return printJSON(job)
}

// newOfflineMapper wires the mapper against the built-in dictionary.
// The semantic classifier stays idle unless OPENAI_API_KEY is set.
func newOfflineMapper(cfg *config.Config) *mappingsvc.Mapper {
	dictionary := mappingsvc.NewCachedDictionary(mappingsvc.NewStaticDictionary())
	return mappingsvc.NewMapper(dictionary, llm.NewClassifier(cfg.AI))
}

func progressPrinter() ports.ProgressSink {
	return ports.ProgressFunc(func(e ports.ProgressEvent) {
		fmt.Fprintf(os.Stderr, "[%s] sheet %d %q -> %s\n", e.At.Time().Format("15:04:05"), e.SheetIndex, e.SheetName, e.State)
	})
}

// countingPersistence stands in for the database: it acknowledges the
// write and reports row counts instead of storing anything.
type countingPersistence struct{}

func (countingPersistence) SaveSheet(ctx context.Context, result *batch.SheetResult) (*batch.PersistReceipt, error) {
	rows := len(result.Table.Rows)
	return &batch.PersistReceipt{
		Success:   true,
		UploadID:  core.UploadID(core.NewID()),
		SavedRows: rows,
		TotalRows: rows,
	}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
