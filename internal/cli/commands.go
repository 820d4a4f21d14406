package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"wellnesshub/internal/catalogseed"
	"wellnesshub/internal/services"

	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04 MST"

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "migrations directory (defaults to DB_MIGRATIONS_PATH)")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd.Context(), func(rt *Runtime) error {
				dir := migrationsDir(path, rt)
				if err := rt.Migrator.Migrate(dir); err != nil {
					return err
				}
				fmt.Fprintf(opts.out, "Migrations applied from %s\n", dir)
				return nil
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			return opts.withRuntime(cmd.Context(), func(rt *Runtime) error {
				if err := rt.Migrator.MigrateDown(migrationsDir(path, rt), steps); err != nil {
					return err
				}
				fmt.Fprintf(opts.out, "Rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func migrationsDir(flag string, rt *Runtime) string {
	if flag != "" {
		return flag
	}
	return rt.MigrationsPath
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert badge definitions from a TOML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// parse before connecting so a bad file fails fast
			badges, err := catalogseed.LoadFile(file)
			if err != nil {
				return err
			}

			return opts.withRuntime(cmd.Context(), func(rt *Runtime) error {
				result, err := rt.Catalog.Seed(cmd.Context(), badges)
				if services.IsValidationError(err) {
					return fmt.Errorf("%s rejected, no badges written: %w", file, err)
				}
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return opts.printJSON(result)
				}
				fmt.Fprintf(opts.out, "Seeded %d badge(s)\n", result.Upserted)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "badges.toml", "seed file")
	return cmd
}

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List every badge definition, including inactive ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd.Context(), func(rt *Runtime) error {
				defs, err := rt.Catalog.ListDefinitions(cmd.Context())
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return opts.printJSON(defs)
				}

				w := tabwriter.NewWriter(opts.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "SLUG\tMETRIC\tTHRESHOLD\tACTIVE\tORDER\tHIGHLIGHT")
				for _, d := range defs {
					highlight := "-"
					if d.HighlightDurationHours != nil {
						highlight = fmt.Sprintf("%dh", *d.HighlightDurationHours)
					}
					fmt.Fprintf(w, "%s\t%s\t%d\t%t\t%d\t%s\n", d.Slug, d.Metric, d.Threshold, d.IsActive, d.SortOrder, highlight)
				}
				return w.Flush()
			})
		},
	}
}

func newEvaluateCmd(opts *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a user and award newly earned badges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd.Context(), func(rt *Runtime) error {
				earned, err := rt.Badges.Evaluate(cmd.Context(), userID)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return opts.printJSON(earned)
				}

				if len(earned) == 0 {
					fmt.Fprintln(opts.out, "No new badges.")
					return nil
				}
				w := tabwriter.NewWriter(opts.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "SLUG\tVALUE\tEARNED")
				for _, e := range earned {
					fmt.Fprintf(w, "%s\t%d\t%s\n", e.Badge.Slug, e.UserBadge.MetricValueAtEarn, e.UserBadge.EarnedAt.Format(timeLayout))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newBadgesCmd(opts *rootOptions) *cobra.Command {
	var (
		userID string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "badges",
		Short: "List a user's earned badges, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd.Context(), func(rt *Runtime) error {
				views, err := rt.Badges.GetUserBadges(cmd.Context(), userID, limitFlag(cmd, limit))
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return opts.printJSON(views)
				}

				w := tabwriter.NewWriter(opts.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "SLUG\tMETRIC\tTHRESHOLD\tVALUE\tEARNED")
				for _, v := range views {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", v.Slug, v.Metric, v.Threshold, v.MetricValueAtEarn, v.EarnedAt.Format(timeLayout))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID")
	cmd.Flags().IntVar(&limit, "limit", 0, fmt.Sprintf("maximum results (%d-%d, unlimited when omitted)", services.MinBadgeListLimit, services.MaxBadgeListLimit))
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newHighlightsCmd(opts *rootOptions) *cobra.Command {
	var (
		userID string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "highlights",
		Short: "List a user's badges that are still highlighted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd.Context(), func(rt *Runtime) error {
				views, err := rt.Badges.GetHighlightedBadges(cmd.Context(), userID, limitFlag(cmd, limit))
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return opts.printJSON(views)
				}

				w := tabwriter.NewWriter(opts.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "SLUG\tEARNED\tAGE")
				for _, v := range views {
					fmt.Fprintf(w, "%s\t%s\t%s\n", v.Slug, v.EarnedAt.Format(timeLayout), time.Since(v.EarnedAt).Round(time.Minute))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID")
	cmd.Flags().IntVar(&limit, "limit", services.DefaultHighlightLimit, fmt.Sprintf("maximum results (%d-%d)", services.MinHighlightLimit, services.MaxHighlightLimit))
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// limitFlag returns nil unless --limit was given explicitly
func limitFlag(cmd *cobra.Command, value int) *int {
	if !cmd.Flags().Changed("limit") {
		return nil
	}
	return &value
}
