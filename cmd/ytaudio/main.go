package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"ytaudio/internal/config"
	"ytaudio/internal/downloader"
	"ytaudio/internal/logging"
	"ytaudio/internal/media"
	"ytaudio/internal/ratelimit"
	"ytaudio/internal/store"
	"ytaudio/internal/youtube"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	var (
		videoURL   = flag.String("url", "", "Single video URL to download")
		channelURL = flag.String("channel", "", "Channel URL to download all videos from")
		urlsFile   = flag.String("file", "urls.txt", "File containing URLs, one per line ('#' comments allowed)")
		outputDir  = flag.String("output", cfg.OutputDir, "Output directory")
		maxVideos  = flag.Int("max-videos", cfg.MaxVideos, "Maximum videos to download from a channel (0 = all)")
		speedLimit = flag.String("speed-limit", cfg.SpeedLimit, "Download speed limit, e.g. 500K or 1M")
		minDelay   = flag.Float64("min-delay", cfg.MinRequestDelay.Seconds(), "Minimum delay between requests in seconds")
		maxDelay   = flag.Float64("max-delay", cfg.MaxRequestDelay.Seconds(), "Maximum delay between requests in seconds")
		cookieFile = flag.String("cookies", cfg.CookieFile, "Netscape cookie file for age-restricted content")
		logFile    = flag.String("log-file", cfg.LogFile, "Log file path (empty to disable)")
		logLevel   = flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
		ytdlpPath  = flag.String("ytdlp", cfg.YtdlpPath, "Path to the yt-dlp executable")
		ffmpegPath = flag.String("ffmpeg", cfg.FfmpegPath, "Path to the ffmpeg executable")
		ffprobe    = flag.String("ffprobe", cfg.FfprobePath, "Path to the ffprobe executable")
	)
	flag.Parse()

	cfg.OutputDir = *outputDir
	cfg.MaxVideos = *maxVideos
	cfg.SpeedLimit = *speedLimit
	cfg.MinRequestDelay = secondsToDuration(*minDelay)
	cfg.MaxRequestDelay = secondsToDuration(*maxDelay)
	cfg.CookieFile = *cookieFile
	cfg.LogFile = *logFile
	cfg.LogLevel = *logLevel
	cfg.YtdlpPath = *ytdlpPath
	cfg.FfmpegPath = *ffmpegPath
	cfg.FfprobePath = *ffprobe

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return 1
	}
	if *videoURL != "" && *channelURL != "" {
		fmt.Fprintln(os.Stderr, "Error: --url and --channel are mutually exclusive")
		return 1
	}

	runID := uuid.NewString()[:8]
	logger, closer, err := logging.Setup(cfg.LogLevel, cfg.LogFile, runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		return 1
	}
	if closer != nil {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := youtube.NewClient()
	client.Path = cfg.YtdlpPath
	client.Timeout = cfg.YtdlpTimeout
	client.CookieFile = cfg.CookieFile

	prober := media.NewProber()
	prober.Path = cfg.FfprobePath
	converter := media.NewConverter()
	converter.Path = cfg.FfmpegPath

	if err := checkTools(ctx, client, prober, converter); err != nil {
		logger.Error().Err(err).Msg("missing required external tool")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	pacer := ratelimit.NewPacer(ratelimit.PacerConfig{
		MinRequestDelay:  cfg.MinRequestDelay,
		MaxRequestDelay:  cfg.MaxRequestDelay,
		MinDownloadDelay: cfg.MinDownloadDelay,
		MaxDownloadDelay: cfg.MaxDownloadDelay,
	})
	backoff := ratelimit.NewBackoff(youtube.IsThrottle)
	backoff.MaxAttempts = cfg.MaxAttempts

	st := store.New(cfg.OutputDir)
	enforcer := media.NewEnforcer(prober, converter)
	orch := downloader.NewOrchestrator(client, enforcer, st, pacer, backoff, cfg.SpeedLimit, logger)
	batch := downloader.NewBatch(orch, cfg.MaxVideos, logger)

	targets, err := resolveTargets(ctx, batch, *videoURL, *channelURL, *urlsFile)
	if err != nil {
		logger.Error().Err(err).Msg("could not resolve targets")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logger.Info().Int("targets", len(targets)).Str("output", cfg.OutputDir).Msg("starting run")

	runErr := batch.Run(ctx, targets)
	printSummary(orch.State)

	if runErr != nil {
		logger.Error().Err(runErr).Msg("run aborted")
		return 1
	}
	return 0
}

// resolveTargets expands the selected input mode into the ordered target
// sequence. Exactly one mode applies; the urls file is the default.
func resolveTargets(ctx context.Context, batch *downloader.Batch, videoURL, channelURL, urlsFile string) ([]youtube.VideoTarget, error) {
	switch {
	case videoURL != "":
		return []youtube.VideoTarget{batch.ResolveVideo(videoURL)}, nil
	case channelURL != "":
		return batch.ResolveChannel(ctx, channelURL)
	default:
		return batch.ResolveFile(ctx, urlsFile)
	}
}

// checkTools verifies the external collaborators before any video is
// touched. Missing tools are a startup failure, not a per-video one.
func checkTools(ctx context.Context, client *youtube.Client, prober *media.Prober, converter *media.Converter) error {
	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := client.CheckInstalled(checkCtx); err != nil {
		return err
	}
	if err := prober.CheckInstalled(checkCtx); err != nil {
		return err
	}
	return converter.CheckInstalled(checkCtx)
}

func printSummary(state downloader.RunState) {
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DOWNLOAD SUMMARY")
	fmt.Fprintf(w, "Total processed:\t%d\n", state.Attempted)
	fmt.Fprintf(w, "Successful:\t%d\n", state.Succeeded)
	fmt.Fprintf(w, "Skipped (exists):\t%d\n", state.Skipped)
	fmt.Fprintf(w, "Failed:\t%d\n", state.Failed)
	if state.Attempted > 0 {
		fmt.Fprintf(w, "Success rate:\t%.1f%%\n", state.SuccessRate())
	}
	w.Flush()
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
