package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/rules"
)

func newRulesCmd() *cobra.Command {
	var (
		category   string
		jsonOutput bool
		file       string
	)
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the rule catalog",
		Long:  "Print the rule catalog as the checklist the language model receives, or as JSON.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog(file, slog.New(slog.DiscardHandler))
			if err != nil {
				return err
			}
			var only []constants.Category
			if category != "" {
				cat, ok := constants.Canonicalize(category)
				if !ok {
					return fmt.Errorf("unknown category %q", category)
				}
				only = append(only, cat)
			}

			if jsonOutput {
				var list []rules.Rule
				if len(only) > 0 {
					list = catalog.ByCategory(only[0])
				} else {
					list = catalog.Rules()
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			fmt.Fprint(cmd.OutOrStdout(), catalog.RenderInstructions(only...))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only rules of this category")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&file, "file", "", "Rule catalog YAML replacing the built-in one")
	return cmd
}
