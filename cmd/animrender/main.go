// Package main provides the CLI entry point for animrender.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/animrender/pkg/adapters/logger"
	"github.com/user/animrender/pkg/adapters/mp4probe"
	"github.com/user/animrender/pkg/adapters/osfilesystem"
	"github.com/user/animrender/pkg/animrender"
	"github.com/user/animrender/pkg/config"
	"github.com/user/animrender/pkg/ports"
	"github.com/user/animrender/pkg/render"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "animrender",
		Usage:   "Transform animated inputs into compact looping video clips",
		Version: version,
		Commands: []*cli.Command{
			renderCommand(),
			probeCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Render an animated source to MP4/WebM",
		ArgsUsage: "<source-uri>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "Output file path"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file"},
			&cli.StringFlag{Name: "source-kind", Value: "gif", Usage: "Source kind (gif, apng, video)"},
			&cli.IntFlag{Name: "source-width", Required: true, Usage: "Source width in pixels"},
			&cli.IntFlag{Name: "source-height", Required: true, Usage: "Source height in pixels"},
			&cli.IntFlag{Name: "source-frames", Required: true, Usage: "Source frame count"},
			&cli.IntFlag{Name: "source-frame-rate", Value: 30, Usage: "Source frame rate"},
			&cli.IntFlag{Name: "source-duration-ms", Usage: "Source duration in milliseconds"},
			&cli.BoolFlag{Name: "source-alpha", Usage: "Source carries an alpha channel"},
			&cli.StringFlag{Name: "pipeline", Usage: "Pipeline override (fast, quality)"},
			&cli.StringFlag{Name: "cache-key", Usage: "Fingerprint for outcome caching"},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: "Log level (debug, info, warn, error)"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: "Suppress all log output"},
		},
		Action: runRender,
	}
}

func runRender(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one source URI is required", 1)
	}
	uri := c.Args().First()

	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn(l10n.T("Interrupted, shutting down..."))
		cancel()
	}()

	options := cfg.ToRenderOptions()
	if p := c.String("pipeline"); p != "" {
		options.Pipeline = render.Pipeline(p)
	}
	options.CacheKey = c.String("cache-key")

	durationMs := c.Int("source-duration-ms")
	if durationMs <= 0 {
		durationMs = c.Int("source-frames") * 1000 / c.Int("source-frame-rate")
	}

	job, err := render.NewJob(
		render.AnimationSource{
			Kind: render.SourceKind(c.String("source-kind")),
			URI:  uri,
		},
		render.SourceMetadata{
			Width:      c.Int("source-width"),
			Height:     c.Int("source-height"),
			FrameCount: c.Int("source-frames"),
			FrameRate:  c.Int("source-frame-rate"),
			DurationMs: durationMs,
			HasAlpha:   c.Bool("source-alpha"),
		},
		options,
	)
	if err != nil {
		return err
	}

	renderer := animrender.New(cfg, log)
	defer renderer.Shutdown()

	outcome, err := renderer.Render(ctx, job)
	if err != nil {
		return err
	}

	outputPath := c.String("output")
	if err := osfilesystem.New().WriteFile(outputPath, outcome.Result.Video); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info(l10n.F("Output saved to %s", outputPath))
	return nil
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "Inspect an MP4 file (codec, dimensions, duration, faststart)",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("exactly one file is required", 1)
			}
			data, err := os.ReadFile(c.Args().First())
			if err != nil {
				return err
			}
			report, err := mp4probe.Probe(data)
			if err != nil {
				return err
			}
			fmt.Printf("codec:     %s\n", report.VideoCodec)
			fmt.Printf("size:      %dx%d\n", report.Width, report.Height)
			fmt.Printf("duration:  %d ms\n", report.DurationMs)
			fmt.Printf("faststart: %t\n", report.Faststart)
			return nil
		},
	}
}
