// Package cli implements the wellnessctl operator commands using Cobra.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"wellnesshub/internal/utils/appinfo"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. factory is called lazily by each
// subcommand so --help never touches the database.
func NewRootCmd(factory RuntimeFactory, out io.Writer) *cobra.Command {
	if factory == nil {
		factory = DefaultRuntime
	}
	if out == nil {
		out = os.Stdout
	}

	opts := &rootOptions{factory: factory, out: out}

	root := &cobra.Command{
		Use:   "wellnessctl",
		Short: "Operate the wellnesshub badge engine",
		Long: `wellnessctl manages the wellnesshub badge engine.
Apply database migrations, seed the badge catalog and inspect user badges.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newCatalogCmd(opts),
		newEvaluateCmd(opts),
		newBadgesCmd(opts),
		newHighlightsCmd(opts),
	)
	return root
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	root := NewRootCmd(DefaultRuntime, os.Stdout)
	root.Version = appinfo.Version(version)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	factory    RuntimeFactory
	out        io.Writer
	jsonOutput bool
}

// withRuntime builds a runtime, runs fn and releases the runtime
func (o *rootOptions) withRuntime(ctx context.Context, fn func(rt *Runtime) error) error {
	rt, err := o.factory(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rt.Close != nil {
			_ = rt.Close(context.Background())
		}
	}()
	return fn(rt)
}

func (o *rootOptions) printJSON(v interface{}) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
