package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jfmyers9/seamless/internal/config"
	"github.com/jfmyers9/seamless/pkg/musicapi"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the music server library",
	Long: `Search the music server library by title, artist, or album.

Each result is printed as: id, title, artist, duration. The ids can be
passed to 'seamless play'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

// artistsCmd represents the artists command
var artistsCmd = &cobra.Command{
	Use:   "artists",
	Short: "List the artists on the music server",
	Args:  cobra.NoArgs,
	RunE:  runArtists,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(artistsCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newAPIClient(cfg, zerolog.Nop())
	if err != nil {
		return err
	}

	tracks, err := client.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("no tracks match %q", strings.Join(args, " "))
	}

	out := cmd.OutOrStdout()
	for _, t := range tracks {
		fmt.Fprintf(out, "%s  %s  %s  %s\n",
			padToWidth(t.ID, 12),
			padToWidth(t.Title, 32),
			padToWidth(t.Artist, 24),
			formatElapsed(time.Duration(t.Duration)*time.Second, 0))
	}
	return nil
}

func runArtists(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newAPIClient(cfg, zerolog.Nop())
	if err != nil {
		return err
	}

	artists, err := client.Artists(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, a := range artists {
		fmt.Fprintf(out, "%s  %d\n", padToWidth(a.Name, 32), a.TrackCount)
	}
	return nil
}

// loadConfig loads the configuration and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	return cfg, nil
}

// newAPIClient creates a music server client from the configuration.
func newAPIClient(cfg *config.Config, logger zerolog.Logger) (*musicapi.Client, error) {
	client, err := musicapi.NewClient(musicapi.Config{
		BaseURL: cfg.ServerURL,
		Timeout: cfg.FetchTimeout,
		Logger:  apiLogger{logger: logger},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create music server client: %w", err)
	}
	return client, nil
}
