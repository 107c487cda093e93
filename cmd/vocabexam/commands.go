package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-vocab/internal/exam"
	"github.com/p-n-ai/pai-vocab/internal/lexicon"
	"github.com/p-n-ai/pai-vocab/internal/platform/database"
)

func (c *cli) runCmd() *cobra.Command {
	var (
		date  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate today's exam and deliver it once",
		Long: `Loads the vocabulary, writes exam_<date>.txt and answers_<date>.txt to the
output directory and sends both documents to the destination. A day that
was already delivered is skipped unless --force is given.`,
		Annotations: map[string]string{annotationDelivers: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			loc, err := c.cfg.Location()
			if err != nil {
				return err
			}
			day, err := parseDate(date, loc, time.Now())
			if err != nil {
				return err
			}

			a, err := build(ctx, c.cfg, buildOptions{delivery: true})
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.runner.Run(ctx, day, force)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintf(out, "exam for %s already delivered, skipped\n", day.Format(time.DateOnly))
				return nil
			}
			for _, p := range res.Paths {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "exam date as YYYY-MM-DD (default: today in the schedule timezone)")
	cmd.Flags().BoolVar(&force, "force", false, "deliver even if the day was already delivered")
	return cmd
}

func (c *cli) previewCmd() *cobra.Command {
	var (
		seed  string
		total int
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print an exam and its answer key without delivering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			loc, err := c.cfg.Location()
			if err != nil {
				return err
			}
			a, err := build(ctx, c.cfg, buildOptions{seed: seed})
			if err != nil {
				return err
			}
			defer a.Close()

			var layout exam.Layout
			if total > 0 {
				layout = exam.NewLayout(total)
			}
			paper, _, err := a.runner.Generate(ctx, time.Now().In(loc), layout)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, exam.RenderExam(paper))
			fmt.Fprintln(out, strings.Repeat("-", 40))
			fmt.Fprintln(out, exam.RenderAnswers(paper))
			return nil
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "seed for a reproducible paper (overrides VOCAB_EXAM_SEED)")
	cmd.Flags().IntVar(&total, "total", 0, "number of words to sample (default: VOCAB_EXAM_SAMPLE)")
	return cmd
}

func (c *cli) addWordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-word <term>",
		Short: "Look up a word with the configured AI provider and save it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !c.cfg.HasAIProvider() {
				return errors.New("no AI provider configured (set one of VOCAB_AI_*_API_KEY or VOCAB_AI_OLLAMA_ENABLED)")
			}

			a, err := build(ctx, c.cfg, buildOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			store := a.appender()
			if store == nil {
				return fmt.Errorf("vocabulary source %s is read-only", a.source.Name())
			}

			card, err := lexicon.NewDefiner(newAIRouter(c.cfg.AI)).Define(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			rec, ok := card.Record()
			if !ok {
				return fmt.Errorf("%w: %q has no usable meaning", lexicon.ErrMalformedCard, card.Word)
			}
			saved, err := store.Append(ctx, rec)
			if err != nil {
				return fmt.Errorf("saving %q: %w", rec.English, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), lexicon.FormatCard(card, lexicon.StatusOf(saved)))
			return nil
		},
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Database.URL == "" {
				return errors.New("VOCAB_DATABASE_URL is not set")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			db, err := database.New(ctx, c.cfg.Database.URL, c.cfg.Database.MaxConns, c.cfg.Database.MinConns)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return fmt.Errorf("migrating: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d schema statements\n", len(database.Statements()))
			return nil
		},
	}
}

// parseDate reads a YYYY-MM-DD flag in loc. An empty value means today.
func parseDate(s string, loc *time.Location, now time.Time) (time.Time, error) {
	if s == "" {
		return now.In(loc), nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", s, err)
	}
	return d, nil
}
