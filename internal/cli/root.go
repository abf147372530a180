package cli

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/thesis-checker/internal/llm"
)

var commit = "none"

// Option adjusts how commands build their collaborators.
type Option func(*options)

type options struct {
	completer llm.Completer
}

// WithCompleter replaces the configured completion backend.
func WithCompleter(c llm.Completer) Option {
	return func(o *options) { o.completer = c }
}

func newRootCmd(opts ...Option) *cobra.Command {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cmd := &cobra.Command{
		Use:           "thesis-checker",
		Short:         "Validate FDV theses against the faculty formatting rules",
		Long:          "thesis-checker extracts a thesis PDF, checks it against the FDV rule catalog with a language model and renders a report of the violations.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd(o))
	cmd.AddCommand(newCheckCmd(o))
	cmd.AddCommand(newCheckDirCmd(o))
	cmd.AddCommand(newRulesCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest(opts ...Option) *cobra.Command {
	return newRootCmd(opts...)
}

func Execute() error {
	return newRootCmd().Execute()
}
