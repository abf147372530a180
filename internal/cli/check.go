package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
	"github.com/joseph-ayodele/thesis-checker/internal/pipeline"
)

type checkOutput struct {
	File       string                     `json:"file"`
	Pages      int                        `json:"pages"`
	ErrorCount int                        `json:"error_count"`
	Summary    map[constants.Severity]int `json:"summary"`
	Errors     []entity.Finding           `json:"errors"`
	Report     string                     `json:"report,omitempty"`
}

func newCheckCmd(o *options) *cobra.Command {
	var (
		jsonOutput bool
		outPath    string
		mode       string
		rulesFile  string
		strict     bool
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "check <thesis.pdf>",
		Short: "Validate a local thesis PDF and print the findings",
		Long:  "Run the validation pipeline synchronously on a local PDF. Findings are printed; --out also writes the report artifact.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !constants.IsAllowedDocument(path) {
				return fmt.Errorf("%s: only PDF files are supported", path)
			}
			cfg := common.LoadConfig()
			if mode != "" {
				cfg.LLM.Mode = mode
			}
			if rulesFile != "" {
				cfg.Rules.File = rulesFile
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := newLogger(cfg.Log, cmd.ErrOrStderr())

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			catalog, err := loadCatalog(cfg.Rules.File, logger)
			if err != nil {
				return err
			}
			engine, err := buildEngine(ctx, cfg, catalog, o, logger)
			if err != nil {
				return err
			}
			proc := pipeline.NewProcessor(logger, nil, nil, engine, buildRenderer(cfg.Report, logger), catalog)

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			res, err := proc.Validate(ctx, filepath.Base(path), data)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			if outPath != "" {
				if err := writeReport(outPath, func(w io.Writer) error { return proc.Render(w, res) }); err != nil {
					return err
				}
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(checkOutput{
					File:       res.Filename,
					Pages:      res.Extraction.PageCount,
					ErrorCount: len(res.Findings),
					Summary:    entity.SeverityCounts(res.Findings),
					Errors:     res.Findings,
					Report:     outPath,
				}); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), renderCheck(res))
				if outPath != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "\n  %s\n", dimStyle.Render("report written to "+outPath))
				}
			}

			if strict {
				if n := entity.SeverityCounts(res.Findings)[constants.SeverityCritical]; n > 0 {
					return fmt.Errorf("%d critical errors found", n)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the report artifact to this path")
	cmd.Flags().StringVar(&mode, "mode", "", "Judgment mode: single or sectioned (overrides JUDGE_MODE)")
	cmd.Flags().StringVar(&rulesFile, "rules", "", "Rule catalog YAML replacing the built-in one")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any CRITICAL error is found")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort the check after this long (0 = no limit)")
	return cmd
}

func writeReport(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := render(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("render report: %w", err)
	}
	return f.Close()
}
