// Command luxdev renders an image through an edit sidecar and exports
// the result. It is the development harness for the pipeline: decode,
// apply the sidecar's edit stack, render, write the output.
//
// Usage:
//
//	luxdev -in photo.png -sidecar photo.json -out ./exports [-config lux.yaml]
//
// Without a sidecar the image is rendered with an empty stack, which
// amounts to a format conversion through the full pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gogpu/lux"
	"github.com/gogpu/lux/edit"
	"github.com/gogpu/lux/engine"
	_ "github.com/gogpu/lux/engine/wgpu"
	"github.com/gogpu/lux/export"
	"github.com/gogpu/lux/raw"
	"github.com/gogpu/lux/session"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML configuration file")
		inPath      = flag.String("in", "", "input image")
		sidecarPath = flag.String("sidecar", "", "edit sidecar JSON (optional)")
		outDir      = flag.String("out", ".", "output directory")
		backendName = flag.String("backend", "", "execution backend (overrides config)")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	lux.SetLogger(logger)

	if err := run(*configPath, *inPath, *sidecarPath, *outDir, *backendName, logger); err != nil {
		logger.Error("luxdev failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath, inPath, sidecarPath, outDir, backendName string, logger *slog.Logger) error {
	if inPath == "" {
		return fmt.Errorf("missing -in")
	}

	cfg := DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = LoadConfig(configPath); err != nil {
			return err
		}
	}
	if backendName != "" {
		cfg.Backend = backendName
	}

	img, err := raw.NewRegistry().DecodeFile(context.Background(), inPath)
	if err != nil {
		return fmt.Errorf("decode %s: %w", inPath, err)
	}
	logger.Info("decoded",
		slog.String("file", filepath.Base(inPath)),
		slog.Int("width", img.Width()),
		slog.Int("height", img.Height()))

	var backend engine.Backend
	if cfg.Backend != "" {
		if backend, err = engine.Open(cfg.Backend); err != nil {
			return fmt.Errorf("backend %q: %w", cfg.Backend, err)
		}
	}
	eng, err := engine.New(backend, engine.WithCacheBudgetMB(cfg.CacheMB))
	if err != nil {
		return err
	}
	defer eng.Close()
	logger.Info("engine ready", slog.String("backend", eng.Backend()))

	sess := session.New(img, eng)
	if sidecarPath != "" {
		data, err := os.ReadFile(sidecarPath)
		if err != nil {
			return fmt.Errorf("read sidecar: %w", err)
		}
		rev, err := edit.Unmarshal(data)
		if err != nil {
			return err
		}
		sess = session.Restore(img, eng, rev)
		logger.Info("sidecar applied", slog.Int("operations", rev.Len()))
	}

	start := time.Now()
	view, err := sess.Render(context.Background())
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	logger.Info("rendered",
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("width", view.Frame.Width()),
		slog.Int("height", view.Frame.Height()),
		slog.Bool("degraded", view.Degraded))

	opts, err := cfg.exportOptions()
	if err != nil {
		return err
	}
	name := export.Template(cfg.Export.Template).Filename(inPath, 1, time.Now(), opts.Format)
	outPath := filepath.Join(outDir, name)
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()
	if err := export.Write(out, view.Frame, opts); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	stats := eng.CacheStats()
	logger.Info("exported",
		slog.String("file", outPath),
		slog.Uint64("cacheHits", stats.Hits),
		slog.Uint64("cacheMisses", stats.Misses))
	return nil
}
