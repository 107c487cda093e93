package main

import (
	"fmt"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/pai-vocab/internal/platform/config"
	"github.com/p-n-ai/pai-vocab/internal/reading"
)

func (c *cli) readingCmd() *cobra.Command {
	var (
		date  string
		topic string
	)
	cmd := &cobra.Command{
		Use:   "reading",
		Short: "Post today's news article as mixed English/Korean reading material",
		Long: `Finds a long enough New York Times article for the day's topic, translates
its last two paragraphs into Korean, writes the mixed content and the
expression commentary as JSON to the output directory and posts both to the
destination. Topics rotate daily through medical, politics and technology.`,
		Annotations: map[string]string{annotationDelivers: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if topic != "" && !slices.Contains(reading.Topics, strings.ToLower(strings.TrimSpace(topic))) {
				return fmt.Errorf("invalid --topic %q: want one of %s", topic, strings.Join(reading.Topics, ", "))
			}
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

			runner, err := newReadingRunner(c.cfg, a.gateway, topic)
			if err != nil {
				return err
			}
			res, err := runner.Run(ctx, day)
			for _, p := range res.Paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day that picks the topic as YYYY-MM-DD (default: today in the schedule timezone)")
	cmd.Flags().StringVar(&topic, "topic", "", "force one of medical, politics or technology (overrides VOCAB_READING_TOPIC)")
	return cmd
}

// newReadingRunner wires the article search, the AI router and the
// destination for the reading cycle.
func newReadingRunner(cfg *config.Config, sender reading.Sender, topic string) (*reading.Runner, error) {
	cerr := &config.ConfigurationError{}
	if cfg.Reading.NYTAPIKey == "" {
		cerr.Missing = append(cerr.Missing, "VOCAB_READING_NYT_API_KEY")
	}
	if !cfg.HasAIProvider() {
		cerr.Missing = append(cerr.Missing, "VOCAB_AI_*_API_KEY or VOCAB_AI_OLLAMA_ENABLED")
	}
	if len(cerr.Missing) > 0 {
		return nil, cerr
	}

	var opts []reading.NYTOption
	if cfg.Reading.NYTBaseURL != "" {
		opts = append(opts, reading.WithNYTBaseURL(cfg.Reading.NYTBaseURL))
	}
	nyt, err := reading.NewNYTClient(cfg.Reading.NYTAPIKey, opts...)
	if err != nil {
		return nil, err
	}

	if topic == "" {
		topic = cfg.Reading.Topic
	}
	return reading.New(reading.Deps{
		Finder:      reading.NewExtractor(nyt, reading.NewPageFetcher(nil)),
		Processor:   reading.NewProcessor(newAIRouter(cfg.AI)),
		Sender:      sender,
		Channel:     cfg.Destination.Kind,
		Destination: cfg.Destination.Channel,
	}, reading.Options{OutputDir: cfg.Output.Dir, ForceTopic: topic}), nil
}
