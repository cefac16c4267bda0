// Package main provides the threadvault CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"threadvault/pkg/aggregate"
	"threadvault/pkg/archive"
	"threadvault/pkg/cache"
	"threadvault/pkg/client"
	"threadvault/pkg/github"
	"threadvault/pkg/logging"
	"threadvault/pkg/youtube"
)

var version = "0.1.0"

func main() {
	// Optional .env for local runs; a missing file is fine.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type runFlags struct {
	videos      []string
	playlists   []string
	repos       []string
	labels      []string
	discussions bool
	outDir      string
	concurrency int
	rps         float64
	logLevel    string
	pretty      bool
}

// newRootCmd creates the root command for the threadvault CLI.
func newRootCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:     "threadvault",
		Short:   "Archive comment threads from YouTube and GitHub",
		Long:    "Threadvault fetches videos, playlists, issues, and discussions with their full comment threads and materializes them as flat JSON documents for offline analysis.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}

	cmd.SetVersionTemplate("threadvault version {{.Version}}\n")

	cmd.Flags().StringSliceVar(&flags.videos, "video", nil, "video ID to archive (repeatable)")
	cmd.Flags().StringSliceVar(&flags.playlists, "playlist", nil, "playlist ID to expand and archive (repeatable)")
	cmd.Flags().StringSliceVar(&flags.repos, "repo", nil, "owner/name repository to archive issues from (repeatable)")
	cmd.Flags().StringSliceVar(&flags.labels, "label", nil, "only archive issues carrying this label (repeatable)")
	cmd.Flags().BoolVar(&flags.discussions, "discussions", false, "also archive the discussions dataset per repo")
	cmd.Flags().StringVar(&flags.outDir, "out", "archive", "output directory for JSON documents")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 4, "max in-flight entity fetches per domain")
	cmd.Flags().Float64Var(&flags.rps, "rps", 5, "outgoing requests per second (0 disables pacing)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&flags.pretty, "pretty", false, "human-readable log output")

	return cmd
}

func run(ctx context.Context, flags *runFlags) error {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(flags.logLevel),
		Pretty: flags.pretty,
		Output: os.Stderr,
	})

	if len(flags.videos) == 0 && len(flags.playlists) == 0 && len(flags.repos) == 0 {
		return fmt.Errorf("nothing to archive: pass --video, --playlist, or --repo")
	}

	httpClient := client.New(client.Config{
		Cache:             newResponseCache(ctx, logger),
		RequestsPerSecond: flags.rps,
		UserAgent:         "threadvault/" + version,
	})

	var yt *youtube.Client
	if len(flags.videos) > 0 || len(flags.playlists) > 0 {
		apiKey := os.Getenv("YOUTUBE_API_KEY")
		if apiKey == "" {
			return fmt.Errorf("YOUTUBE_API_KEY is required for video or playlist inputs")
		}
		yt = youtube.NewClient(httpClient, apiKey)
	}

	var gh *github.Client
	if len(flags.repos) > 0 {
		token := os.Getenv("GITHUB_TOKEN")
		if token == "" {
			return fmt.Errorf("GITHUB_TOKEN is required for repository inputs")
		}
		gh = github.NewClient(httpClient, token)
	}

	archiver := archive.New(yt, gh, flags.concurrency)
	out, rep, err := archiver.Run(ctx, archive.Request{
		VideoIDs:           flags.videos,
		PlaylistIDs:        flags.playlists,
		Repos:              flags.repos,
		Labels:             flags.labels,
		IncludeDiscussions: flags.discussions,
	})
	if err != nil {
		return err
	}

	if err := writeArchive(flags.outDir, out, rep); err != nil {
		return err
	}

	fmt.Println(rep.Summary())
	for _, e := range rep.Entities() {
		if !e.OK {
			fmt.Printf("  failed %s (%s): %s\n", e.ID, e.Source, e.Reason)
		}
	}

	return nil
}

// newResponseCache connects the optional Redis response cache. Without
// REDIS_URL every request goes straight to the APIs.
func newResponseCache(ctx context.Context, logger zerolog.Logger) *cache.Manager {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil
	}

	redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Str("addr", redisURL).Err(err).Msg("Redis unavailable, response caching disabled")
		return nil
	}

	return cache.NewManager(redisClient, 15*time.Minute)
}

// writeArchive serializes the run into one JSON document per dataset plus
// the per-entity outcome report.
func writeArchive(dir string, out *archive.Archive, rep *aggregate.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]any{
		"videos.json":      out.Videos,
		"issues.json":      out.Issues,
		"discussions.json": out.Discussions,
		"report.json": map[string]any{
			"entities":   rep.Entities(),
			"containers": rep.Containers(),
		},
	}
	for name, data := range files {
		if err := writeJSON(filepath.Join(dir, name), data); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
