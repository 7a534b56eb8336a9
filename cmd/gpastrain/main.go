package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"gpastrain/internal/models"
	"gpastrain/pkg/config"
	"gpastrain/pkg/gpa"
	"gpastrain/pkg/imageio"
	"gpastrain/pkg/peaks"
	"gpastrain/pkg/report"
	"gpastrain/pkg/spectral"
	"gpastrain/pkg/wizard"
)

func main() {
	configPath := flag.String("config", "gpastrain.yaml", "Analysis configuration file")
	inputPath := flag.String("input", "", "Image to analyse (TIFF, PNG or JPEG)")
	reportPath := flag.String("report", "", "Write the YAML report here instead of the configured path")
	workers := flag.Int("workers", 0, "Worker goroutines (default: from config)")
	verbose := flag.Bool("verbose", false, "Log every analysis step")
	initConfig := flag.Bool("init", false, "Write a default configuration file and exit")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to create config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	if *inputPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *workers > 0 {
		cfg.Processing.Workers = *workers
	}
	if *reportPath != "" {
		cfg.Output.Report = *reportPath
	}
	if *verbose {
		cfg.Output.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config %s: %v", *configPath, err)
	}

	if err := run(cfg, *inputPath); err != nil {
		log.Fatalf("GPA failed: %v", err)
	}
}

func run(cfg *config.Config, inputPath string) error {
	logger := log.New(io.Discard, "", 0)
	if cfg.Output.Verbose {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	mode, err := cfg.Mode()
	if err != nil {
		return err
	}

	field, err := imageio.Load(inputPath)
	if err != nil {
		return err
	}
	logger.Printf("Loaded %s (%dx%d)", inputPath, field.Cols, field.Rows)

	startTime := time.Now()
	img := models.ComplexFromReal(field)
	var engine *gpa.Engine
	if cfg.Processing.Hann {
		engine, err = gpa.NewWindowed(img, gpa.WithWorkers(cfg.Processing.Workers))
	} else {
		engine, err = gpa.New(img, gpa.WithWorkers(cfg.Processing.Workers))
	}
	if err != nil {
		return err
	}

	opts := []wizard.Option{
		wizard.WithLogger(logger),
		wizard.WithAngle(cfg.GPA.Angle),
		wizard.WithMode(mode),
	}
	if cfg.GPA.Sigma > 0 {
		opts = append(opts, wizard.WithSigma(cfg.GPA.Sigma))
	}
	if cfg.GPA.SnapToPeak {
		found := peaks.Find(spectral.PowerSpectrum(engine.FFT()), peaks.DefaultOptions())
		logger.Printf("Found %d Bragg peaks", len(found))
		opts = append(opts, wizard.WithSnapping(peaks.NewIndex(found), cfg.GPA.SnapRadius))
	}
	w := wizard.New(engine, opts...)

	if err := w.Start(); err != nil {
		return err
	}
	logger.Printf("Estimated g-vector radius: %.1f px", w.Radius())
	if err := w.AcceptRadius(cfg.GPA.Radius); err != nil {
		return err
	}
	logger.Printf("Using radius %.1f px, sigma %.2f px", w.Radius(), w.Sigma())

	for i, g := range cfg.GVectors {
		if err := w.PickG(g.X, g.Y); err != nil {
			return fmt.Errorf("g-vector %d: %w", i+1, err)
		}
		for _, rect := range g.Refine {
			if err := w.Refine(rect); err != nil {
				return fmt.Errorf("g-vector %d: %w", i+1, err)
			}
		}
		if err := w.Accept(); err != nil {
			return fmt.Errorf("g-vector %d: %w", i+1, err)
		}
	}
	logger.Printf("%s computed in %.2f seconds", mode, time.Since(startTime).Seconds())

	r, err := report.Build(engine, cfg.GPA.Angle, cfg.Output.Margin)
	if err != nil {
		return err
	}
	if cfg.Output.Report == "" {
		if err := r.Write(os.Stdout); err != nil {
			return err
		}
	} else {
		if err := r.Save(cfg.Output.Report); err != nil {
			return err
		}
		logger.Printf("Report saved to %s", cfg.Output.Report)
	}

	if cfg.Output.FieldsDir != "" {
		lo, hi := -cfg.Output.Limit, cfg.Output.Limit
		for name, f := range engine.Fields() {
			path := filepath.Join(cfg.Output.FieldsDir, name+".tif")
			if err := imageio.SaveTIFF(path, f, lo, hi); err != nil {
				return err
			}
			logger.Printf("Saved %s", path)
		}
	}
	return nil
}
