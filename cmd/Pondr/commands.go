package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/Pondr/internal/config"
	"github.com/BTreeMap/Pondr/internal/models"
	"github.com/BTreeMap/Pondr/internal/render"
	"github.com/BTreeMap/Pondr/internal/review"
)

// ---- Decisions ----

func newLogCmd(a *app) *cobra.Command {
	var (
		category   string
		also       []string
		confidence float64
		feeling    int
		why        string
		tags       []string
	)
	cmd := &cobra.Command{
		Use:   "log <title...>",
		Short: "Log a decision",
		Long: `Log a decision in a few seconds.

Examples:
  pondr log Took the new role -c career --confidence 4
  pondr log "Skipped the gym" -c health --also lifestyle --tag tired`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := models.DecisionDraft{
				Title:      strings.Join(args, " "),
				Category:   models.Category(strings.ToLower(category)),
				Confidence: confidence,
				Feeling:    feeling,
				Tags:       tags,
			}
			for _, s := range also {
				c, err := models.ParseCategory(strings.ToLower(s))
				if err != nil {
					return fmt.Errorf("%w: %s", err, s)
				}
				draft.SecondaryCategories = append(draft.SecondaryCategories, c)
			}
			if cmd.Flags().Changed("why") {
				draft.WhyText = &why
			}
			d, err := a.svc.LogDecision(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s (%s)\n", d.Title, d.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", string(models.CategoryOther), "primary category")
	cmd.Flags().StringSliceVar(&also, "also", nil, "secondary categories (at most 2)")
	cmd.Flags().Float64Var(&confidence, "confidence", 3, "confidence from 1 to 5")
	cmd.Flags().IntVar(&feeling, "feeling", models.DefaultFeeling, "feeling from 1 to 5")
	cmd.Flags().StringVar(&why, "why", "", "optional note on why")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tags")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		search string
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List logged decisions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := a.svc.ListDecisions(cmd.Context(), search, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return render.JSON(cmd.OutOrStdout(), ds)
			}
			render.DecisionList(cmd.OutOrStdout(), ds)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter titles by substring")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of decisions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.svc.GetDecision(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return render.JSON(cmd.OutOrStdout(), d)
			}
			render.Decision(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var title, why string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a decision's title or note",
		Long: `Edit the title or the why note of a logged decision.

Category, confidence and tags are fixed once logged. Pass --why "" to clear the note.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edit models.DecisionEdit
			if cmd.Flags().Changed("title") {
				edit.Title = &title
			}
			if cmd.Flags().Changed("why") {
				edit.WhyText = &why
			}
			if edit.Title == nil && edit.WhyText == nil {
				return errors.New("nothing to edit: pass --title or --why")
			}
			d, err := a.svc.EditDecision(cmd.Context(), args[0], edit)
			if err != nil {
				return err
			}
			render.Decision(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&why, "why", "", "new why note")
	return cmd
}

// ---- Insights and reflections ----

func newInsightsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show this week's insight cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.svc.Insights(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return render.JSON(cmd.OutOrStdout(), snap)
			}
			render.Snapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newReviewCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Show the weekly review numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sum, err := a.svc.WeekSummary(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return render.JSON(cmd.OutOrStdout(), sum)
			}
			render.Summary(cmd.OutOrStdout(), sum)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newReflectCmd(a *app) *cobra.Command {
	var (
		previous bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "reflect",
		Short: "Open the weekly reflection",
		Long: `Open the weekly reflection when it is unlocked.

A reflection is generated once per window and shown again until the next one
opens. --previous-week opens last calendar week's reflection, once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				out review.Outcome
				err error
			)
			if previous {
				out, err = a.svc.PreviousWeekReflection(cmd.Context())
			} else {
				out, err = a.svc.Reflect(cmd.Context())
			}
			switch {
			case errors.Is(err, review.ErrGraceUsed):
				fmt.Fprintln(cmd.OutOrStdout(), "Last week's reflection has already been opened.")
				return nil
			case err != nil && !errors.Is(err, review.ErrLocked):
				return err
			}
			if asJSON {
				return render.JSON(cmd.OutOrStdout(), out)
			}
			render.Outcome(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&previous, "previous-week", false, "open last week's reflection")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a reflection is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.svc.Status(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return render.JSON(cmd.OutOrStdout(), out)
			}
			switch {
			case out.State.Unlocked():
				fmt.Fprintln(cmd.OutOrStdout(), "A new reflection is ready. Run `pondr reflect`.")
			case out.Reflection != nil:
				fmt.Fprintln(cmd.OutOrStdout(), "This window's reflection is ready to revisit.")
			default:
				fmt.Fprintln(cmd.OutOrStdout(), render.LockMessage(out.State))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// ---- Settings ----

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read or change settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "week-start [day]",
		Short: "Show or set the first day of the week",
		Long: `Show or set the first day of the week used by weekly insights.

The day may be a name (monday) or a number from 0 (Sunday) to 6 (Saturday).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				day, err := parseWeekday(args[0])
				if err != nil {
					return err
				}
				if err := a.svc.SetWeekStartDay(cmd.Context(), day); err != nil {
					return err
				}
			}
			day, err := a.svc.WeekStartDay(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Week starts on", day)
			if a.cfg.WeekStartDay != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Set by %s or the config file, which takes precedence over the saved setting.\n", config.EnvWeekStartDay)
			}
			return nil
		},
	})
	return cmd
}

// parseWeekday accepts 0-6 or an English day name or prefix of at least three letters.
func parseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("week start day must be 0-6, got %d", n)
		}
		return time.Weekday(n), nil
	}
	if len(s) >= 3 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			if strings.HasPrefix(strings.ToLower(d.String()), s) {
				return d, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}
