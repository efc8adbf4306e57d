// Gesture plays a named head gesture against the servo daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/roomwatch/go-roomwatch/internal/config"
	"github.com/roomwatch/go-roomwatch/internal/log"
	"github.com/roomwatch/go-roomwatch/pkg/actuator"
	"github.com/roomwatch/go-roomwatch/pkg/motion"
)

func main() {
	configPath := flag.String("config", "roomwatch.yaml", "Path to config file")
	pan := flag.Float64("pan", 90, "Base pan angle")
	tilt := flag.Float64("tilt", 90, "Base tilt angle")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <gesture>\n\nAvailable gestures:\n", os.Args[0])
		names := make([]string, 0, len(motion.Gestures))
		for name := range motion.Gestures {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(os.Stderr, "  %s\n", name)
		}
		os.Exit(2)
	}

	name := flag.Arg(0)
	seq, ok := motion.Gestures[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown gesture %q\n", name)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log.Init(cfg.LogLevel)

	mover, err := motion.NewController(actuator.NewHTTP(cfg.ServoHost),
		motion.Limits{Min: 0, Max: 180}, motion.Limits{Min: 0, Max: 180},
		motion.DefaultTickInterval)
	if err != nil {
		log.Error("motion controller", "error", err)
		os.Exit(1)
	}
	mover.SetBase(*pan, *tilt)

	timeout := time.Duration(seq.TotalDuration()*float64(time.Second)) + 5*time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := mover.PlayGesture(ctx, seq); err != nil {
		log.Error("gesture", "name", name, "error", err)
		os.Exit(1)
	}
	fmt.Printf("Played %s (%.2fs)\n", name, seq.TotalDuration())
}
