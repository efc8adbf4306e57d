// Scan-once runs a single tiered scan cycle and prints what it found.
// Useful for tuning scan ranges and detection thresholds.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roomwatch/go-roomwatch/internal/config"
	"github.com/roomwatch/go-roomwatch/internal/log"
	"github.com/roomwatch/go-roomwatch/pkg/actuator"
	"github.com/roomwatch/go-roomwatch/pkg/detect"
	"github.com/roomwatch/go-roomwatch/pkg/scan"
	"github.com/roomwatch/go-roomwatch/pkg/track"
	"github.com/roomwatch/go-roomwatch/pkg/watch"
)

func main() {
	configPath := flag.String("config", "roomwatch.yaml", "Path to config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	log.Init(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	people, err := detect.NewPersonDetector(cfg.YOLOConfig())
	if err != nil {
		log.Error("person detector", "error", err)
		os.Exit(1)
	}
	faces, err := detect.NewFaceDetector(cfg.FaceConfig())
	if err != nil {
		log.Error("face detector", "error", err)
		os.Exit(1)
	}
	pipeline, err := detect.NewPipeline(cfg.PipelineConfig(), people, faces)
	if err != nil {
		log.Error("detection pipeline", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()
	go pipeline.Run(ctx)

	act := actuator.NewHTTP(cfg.ServoHost)
	watcher, err := watch.NewController(act, cfg.WatchConfig())
	if err != nil {
		log.Error("watch controller", "error", err)
		os.Exit(1)
	}

	scanner, err := scan.New(pipeline, act, watcher,
		track.NewEventTracker(track.DefaultTrackerConfig()),
		track.NewPositionCalculator(cfg.Camera.FOVHorizontal),
		cfg.ScanConfig())
	if err != nil {
		log.Error("scanner", "error", err)
		os.Exit(1)
	}

	detections, err := scanner.RunScanCycle(ctx)
	if err != nil {
		log.Error("scan cycle", "error", err)
		os.Exit(1)
	}

	if len(detections) == 0 {
		fmt.Println("No people found.")
		return
	}

	fmt.Printf("Found %d people:\n", len(detections))
	for i, det := range detections {
		face := ""
		if det.HasFace() {
			face = " [face]"
		}
		fmt.Printf("  %d. world angle %.1f° confidence %.2f%s\n",
			i+1, det.WorldAngle, det.Confidence, face)
	}
	pan, tilt := watcher.Position()
	fmt.Printf("Watching from pan %.1f° tilt %.1f°\n", pan, tilt)
}
