package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jfmyers9/seamless/internal/audio"
	"github.com/jfmyers9/seamless/internal/fetch"
	"github.com/jfmyers9/seamless/internal/playback"
	"github.com/jfmyers9/seamless/pkg/musicapi"
)

var (
	playLogFile  string
	playLogLevel string
	playQuery    string
	playStart    int
	playFormat   string
	playWidth    int
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play [track-id...]",
	Short: "Play tracks back to back without gaps",
	Long: `Play a queue of tracks from the music server without gaps between them.

The queue is either the given track ids or the results of --query. While a
track plays, the next one is fetched in the background and handed to the
second output lane as soon as the current one ends.

Commands are read from stdin while playing:
  p, pause    pause both lanes
  r, resume   resume playback
  n, skip     skip to the next track
  s, stop     stop playback and exit
  q, quit     same as stop
  v, volume N set the output volume to N percent (0-100)
  (empty)     show the current track

Playback also ends when the queue finishes or on SIGINT/SIGTERM.`,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVarP(&playQuery, "query", "q", "", "Play the results of a search instead of track ids")
	playCmd.Flags().IntVar(&playStart, "start", 0, "Queue index to start from")
	playCmd.Flags().StringVarP(&playFormat, "format", "f", "", "Now playing template (overrides config)")
	playCmd.Flags().IntVarP(&playWidth, "width", "w", 0, "Fixed status line width (0=disabled, overrides config)")
	playCmd.Flags().StringVar(&playLogFile, "log-file", "", "Log file path (default: stderr)")
	playCmd.Flags().StringVar(&playLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && playQuery == "" {
		return errors.New("nothing to play: pass track ids or --query")
	}
	if len(args) > 0 && playQuery != "" {
		return errors.New("pass either track ids or --query, not both")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if playFormat != "" {
		cfg.OutputFormat = playFormat
	}
	if playWidth > 0 {
		cfg.OutputWidth = playWidth
	}

	logger := setupLogger(playLogFile, playLogLevel)
	logger.Info().
		Str("version", version).
		Str("server", cfg.ServerURL).
		Msg("Starting seamless")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle first signal gracefully, second signal forces exit
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}
		logger.Info().Msg("Shutdown signal received, stopping playback")
		cancel()

		<-sigChan
		logger.Warn().Msg("Second shutdown signal received, forcing exit")
		os.Exit(1)
	}()

	client, err := newAPIClient(cfg, logger)
	if err != nil {
		return err
	}

	healthCtx, healthCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := client.Health(healthCtx); err != nil {
		logger.Warn().Err(err).Msg("Music server health check failed, trying anyway")
	}
	healthCancel()

	tracks, err := resolveQueue(ctx, client, args, playQuery)
	if err != nil {
		return err
	}

	fetcher, err := fetch.New(fetch.Config{
		Client:  client,
		Timeout: cfg.FetchTimeout,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}

	if !audio.AudioAvailable {
		logger.Warn().Msg("This build has no audio support, playback will fail")
	}
	output := audio.NewOutput(audio.NewSpeakerBackend(), beep.SampleRate(cfg.SampleRate), logger)
	output.SetVolume(float64(cfg.Volume) / 100)

	controller := playback.NewController(fetcher, output, playback.Options{
		MonitorInterval: cfg.MonitorInterval,
		PreloadInterval: cfg.PreloadInterval,
		PreloadAhead:    cfg.PreloadAhead,
		PrefetchWait:    cfg.PrefetchWait,
	}, logger)

	printer, err := newStatusPrinter(cmd.OutOrStdout(), cfg.OutputFormat, cfg.OutputWidth, len(tracks))
	if err != nil {
		return err
	}

	events, unsubscribe := controller.Subscribe()
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for e := range events {
			printer.event(e)
		}
	}()
	defer func() {
		unsubscribe()
		<-printed
	}()

	if err := controller.Start(tracks, playStart); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	stopRequested := make(chan struct{})
	go func() {
		if runCommands(cmd.InOrStdin(), cmd.OutOrStdout(), controller, output, printer) {
			close(stopRequested)
		}
	}()

	finished := make(chan struct{})
	go func() {
		if err := controller.Wait(ctx); err == nil {
			close(finished)
		}
	}()

	select {
	case <-finished:
		logger.Info().Msg("Queue finished")
	case <-stopRequested:
	case <-ctx.Done():
	}

	controller.Stop()
	logger.Info().Msg("Playback stopped")
	return nil
}

// resolveQueue builds the play queue from track ids or a search query.
func resolveQueue(ctx context.Context, client *musicapi.Client, ids []string, query string) ([]playback.Track, error) {
	if query == "" {
		return lo.Map(ids, func(id string, _ int) playback.Track {
			return playback.Track{ID: id}
		}), nil
	}

	results, err := client.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no tracks match %q", query)
	}

	return lo.Map(results, func(t musicapi.Track, _ int) playback.Track {
		return playback.Track{
			ID:       t.ID,
			Title:    t.Title,
			Artist:   t.Artist,
			Duration: time.Duration(t.Duration) * time.Second,
		}
	}), nil
}
