// Command fringetrace traces the dark fringe under one point of an
// interferogram and writes the overlay, the straightened profile image and
// its text dump
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go-fringe-tracer/internal/factory"
	"go-fringe-tracer/internal/logger"
	"go-fringe-tracer/internal/storage"
	"go-fringe-tracer/internal/tracer"
	"go-fringe-tracer/pkg/pixbuf"
	"go-fringe-tracer/pkg/validation"

	"github.com/sirupsen/logrus"
)

func main() {
	defaults := tracer.DefaultConfig()

	imagePath := flag.String("image", "", "Interferogram path or http(s) URL (PNG, JPEG, GIF, TIFF, BMP, WebP)")
	x := flag.Float64("x", -1, "Seed x coordinate in pixels")
	y := flag.Float64("y", -1, "Seed y coordinate in pixels")
	overlayPath := flag.String("overlay", "overlay.png", "Output PNG with traced paths drawn on the source")
	profilePath := flag.String("profile", "profile.png", "Output PNG with the straightened profile")
	textPath := flag.String("profile-text", "-", "Output file for \"x height\" lines, - for stdout")

	ambit := flag.Float64("ambit", defaults.Ambit.Width, "Averaging window width and height")
	step := flag.Float64("step", defaults.StepLength, "Step length in pixels")
	directions := flag.Int("directions", defaults.DirectionCount, "Directions sampled per step")
	steps := flag.Int("steps", defaults.StepCount, "Steps per seed")
	seedAmbit := flag.Float64("seed-ambit", defaults.SeedAmbit.Width, "Seed neighborhood width and height")
	verticalScale := flag.Float64("vertical-scale", defaults.VerticalScale, "Vertical step multiplier")
	refIndex := flag.Int("ref-index", defaults.ReferenceIndex, "Path index used for the tilt angle")

	scorerName := flag.String("scorer", "perceptual", "Scoring strategy: perceptual or brightness")
	metricName := flag.String("metric", "ciede2000", "Perceptual metric: ciede2000, cie94 or cie76")
	workers := flag.Int("workers", 0, "Seed workers, 0 for one per CPU")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	if *imagePath == "" || *x < 0 || *y < 0 {
		fmt.Println("Usage: fringetrace -image <path|url> -x <px> -y <px> [-overlay overlay.png] [-profile profile.png] [-profile-text -]")
		os.Exit(1)
	}

	logger.UseText(os.Stderr)
	logger.SetLevel(*logLevel)
	log := logger.WithField("component", "cli")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local := storage.NewLocalImageFetcher()
	var fetcher storage.ImageFetcher = local
	if strings.HasPrefix(*imagePath, "http://") || strings.HasPrefix(*imagePath, "https://") {
		fetcher = storage.NewHTTPImageFetcher(0)
	}

	img, err := fetcher.FetchImage(ctx, *imagePath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load image")
	}

	source, err := pixbuf.FromImage(img)
	if err != nil {
		log.WithError(err).Fatal("Failed to convert image")
	}
	log.WithFields(logrus.Fields{
		"width":  source.Width(),
		"height": source.Height(),
	}).Info("Loaded interferogram")

	cfg := defaults.
		WithAmbit(*ambit, *ambit).
		WithStep(*step, *steps).
		WithDirections(*directions, defaults.StartAngle, defaults.EndAngle).
		WithSeedAmbit(*seedAmbit, *seedAmbit).
		WithVerticalScale(*verticalScale).
		WithReferenceIndex(*refIndex)

	for _, issue := range validation.NewContrastValidator().Validate(source, cfg.Ambit) {
		log.WithField("issue", issue.Type).Warn(issue.Message)
	}

	scorer, err := factory.NewScorerFactory().CreateScorer(*scorerName, *metricName)
	if err != nil {
		log.WithError(err).Fatal("Invalid scorer")
	}

	pool := tracer.NewWorkerPool(*workers)
	pool.Start()
	defer pool.Close()

	tr, err := tracer.New(source, cfg,
		tracer.WithScorer(scorer),
		tracer.WithWorkerPool(pool),
		tracer.WithLogger(logger.WithField("component", "tracer")),
	)
	if err != nil {
		log.WithError(err).Fatal("Invalid tracing parameters")
	}

	result, err := tr.Trace(ctx, pixbuf.Pt(*x, *y))
	if err != nil {
		log.WithError(err).Fatal("Trace failed")
	}

	if err := local.SavePNG(*overlayPath, result.Overlay.ToImage()); err != nil {
		log.WithError(err).Fatal("Failed to write overlay")
	}
	log.WithField("path", *overlayPath).Info("Overlay written")

	profile, err := tr.StraightenedProfile(result)
	if err != nil {
		// The overlay is still useful for choosing a better seed
		log.WithError(err).Error("No profile produced")
		os.Exit(2)
	}

	if err := local.SavePNG(*profilePath, profile.Image.ToImage()); err != nil {
		log.WithError(err).Fatal("Failed to write profile image")
	}
	log.WithFields(logrus.Fields{
		"path":  *profilePath,
		"angle": profile.Angle,
	}).Info("Profile written")

	if err := writeProfileText(*textPath, profile); err != nil {
		log.WithError(err).Fatal("Failed to write profile text")
	}
}

func writeProfileText(path string, profile *tracer.Profile) error {
	if path == "-" {
		return profile.WriteText(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := profile.WriteText(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
