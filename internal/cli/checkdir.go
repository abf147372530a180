package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/thesis-checker/internal/batch"
	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
	"github.com/joseph-ayodele/thesis-checker/internal/pipeline"
)

type batchFileOutput struct {
	File       string         `json:"file"`
	Pages      int            `json:"pages"`
	ErrorCount int            `json:"error_count"`
	Summary    map[string]int `json:"summary"`
	Error      string         `json:"error,omitempty"`
}

type batchOutput struct {
	Stats batch.DirStats    `json:"stats"`
	Files []batchFileOutput `json:"files"`
}

func newCheckDirCmd(o *options) *cobra.Command {
	var (
		jsonOutput bool
		xlsxPath   string
		workers    int
		hidden     bool
		strict     bool
	)
	cmd := &cobra.Command{
		Use:   "check-dir <directory>",
		Short: "Validate every thesis PDF under a directory",
		Long:  "Walk a directory tree and run the validation pipeline on each PDF. Prints a per-file summary; --xlsx writes a workbook of all findings.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := common.LoadConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := newLogger(cfg.Log, cmd.ErrOrStderr())
			ctx := cmd.Context()

			catalog, err := loadCatalog(cfg.Rules.File, logger)
			if err != nil {
				return err
			}
			engine, err := buildEngine(ctx, cfg, catalog, o, logger)
			if err != nil {
				return err
			}
			proc := pipeline.NewProcessor(logger, nil, nil, engine, buildRenderer(cfg.Report, logger), catalog)
			if workers <= 0 {
				workers = cfg.Queue.Workers
			}

			results, stats, err := batch.CheckDirectory(ctx, proc, args[0], batch.Options{Workers: workers, SkipHidden: !hidden}, logger)
			if err != nil {
				return err
			}
			if stats.Matched == 0 {
				return fmt.Errorf("no PDF files found under %s", args[0])
			}

			if xlsxPath != "" {
				if err := writeReport(xlsxPath, func(w io.Writer) error { return batch.WriteSummary(w, results) }); err != nil {
					return err
				}
			}

			if jsonOutput {
				out := batchOutput{Stats: stats, Files: make([]batchFileOutput, 0, len(results))}
				for _, r := range results {
					summary := map[string]int{}
					for sev, n := range entity.SeverityCounts(r.Findings) {
						summary[string(sev)] = n
					}
					out.Files = append(out.Files, batchFileOutput{
						File:       r.Path,
						Pages:      r.Pages,
						ErrorCount: len(r.Findings),
						Summary:    summary,
						Error:      r.Err,
					})
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), renderBatch(results, stats))
			}

			if strict && (stats.Critical > 0 || stats.Failed > 0) {
				return fmt.Errorf("%d files with critical errors, %d failed", stats.Critical, stats.Failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write a workbook of all findings to this path")
	cmd.Flags().IntVar(&workers, "workers", 0, "Files validated concurrently (default WORKERS)")
	cmd.Flags().BoolVar(&hidden, "hidden", false, "Include hidden files and directories")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any file has CRITICAL errors or fails")
	return cmd
}
