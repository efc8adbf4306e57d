// Roomwatch daemon: scans the room for people, watches them, and serves
// the dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roomwatch/go-roomwatch/internal/config"
	"github.com/roomwatch/go-roomwatch/internal/log"
	"github.com/roomwatch/go-roomwatch/pkg/actuator"
	"github.com/roomwatch/go-roomwatch/pkg/detect"
	"github.com/roomwatch/go-roomwatch/pkg/motion"
	"github.com/roomwatch/go-roomwatch/pkg/scan"
	"github.com/roomwatch/go-roomwatch/pkg/track"
	"github.com/roomwatch/go-roomwatch/pkg/watch"
	"github.com/roomwatch/go-roomwatch/pkg/web"
)

// rescanAfterEmpty forces a fresh scan cycle once everyone has been out
// of frame this long.
const rescanAfterEmpty = 10 * time.Second

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
		log.Info("shutting down")
		cancel()
	}()

	act := actuator.NewHTTP(cfg.ServoHost)

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

	watcher, err := watch.NewController(act, cfg.WatchConfig())
	if err != nil {
		log.Error("watch controller", "error", err)
		os.Exit(1)
	}

	trackerCfg := track.DefaultTrackerConfig()
	trackerCfg.FrameWidth = cfg.Camera.Width
	events := track.NewEventTracker(trackerCfg)
	calc := track.NewPositionCalculator(cfg.Camera.FOVHorizontal)

	scanner, err := scan.New(pipeline, act, watcher, events, calc, cfg.ScanConfig())
	if err != nil {
		log.Error("scanner", "error", err)
		os.Exit(1)
	}

	mover, err := motion.NewController(act,
		motion.Limits{Min: 0, Max: 180}, motion.Limits{Min: 0, Max: 180},
		motion.DefaultTickInterval)
	if err != nil {
		log.Error("motion controller", "error", err)
		os.Exit(1)
	}

	d := &daemon{
		cfg:     cfg,
		source:  pipeline,
		scanner: scanner,
		mover:   mover,
		server:  web.NewServer(cfg.Web.Port),
		scanReq: make(chan struct{}, 1),
	}
	d.server.OnScanTrigger = d.requestScan
	d.server.OnGestureTrigger = func(name string) error {
		return d.playGesture(ctx, name)
	}
	d.server.StartAsync()

	go func() {
		if err := pipeline.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("detection pipeline stopped", "error", err)
			cancel()
		}
	}()
	go d.streamFrames(ctx, pipeline)

	log.Info("roomwatch started", "servo", cfg.ServoHost, "port", cfg.Web.Port)
	d.run(ctx)

	d.server.Shutdown()
	log.Info("roomwatch stopped")
}

type daemon struct {
	cfg     config.Config
	source  detect.Source
	scanner *scan.Scanner
	mover   *motion.Controller
	server  *web.Server
	scanReq chan struct{}
}

// requestScan queues one manual scan request. Rejects when one is
// already pending.
func (d *daemon) requestScan() error {
	select {
	case d.scanReq <- struct{}{}:
		return nil
	default:
		return errors.New("scan already pending")
	}
}

// playGesture plays a gesture asynchronously. The busy check is best
// effort; a concurrent start loses inside PlayGesture anyway.
func (d *daemon) playGesture(ctx context.Context, name string) error {
	seq, ok := motion.Gestures[name]
	if !ok {
		return fmt.Errorf("unknown gesture %q", name)
	}
	if d.mover.IsPlaying() {
		return motion.ErrGestureActive
	}

	pan, tilt := d.scanner.Watcher().Position()
	d.mover.SetBase(pan, tilt)

	go func() {
		d.server.UpdateStatus(func(s *web.Status) { s.GestureActive = true })
		defer d.server.UpdateStatus(func(s *web.Status) { s.GestureActive = false })
		if err := d.mover.PlayGesture(ctx, seq); err != nil {
			log.Error("gesture", "name", name, "error", err)
		}
	}()
	return nil
}

// run alternates between scan cycles and watch loops until the context
// is cancelled.
func (d *daemon) run(ctx context.Context) {
	for ctx.Err() == nil {
		d.server.UpdateStatus(func(s *web.Status) { s.Scanning = true })
		detections, err := d.scanner.RunScanCycle(ctx)
		d.publishAfterScan(len(detections))
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("scan cycle", "error", err)
			d.server.AddEvent("error", "scan cycle: "+err.Error())
			if !d.waitForNextScan(ctx, d.cfg.ScanInterval()) {
				return
			}
			continue
		}

		if d.scanner.IsWatching() {
			d.server.AddEvent("scan",
				fmt.Sprintf("found %d people, watching", len(detections)))
			d.watchLoop(ctx)
			continue
		}

		d.server.AddEvent("scan", "no people found")
		if !d.waitForNextScan(ctx, d.cfg.ScanInterval()) {
			return
		}
	}
}

func (d *daemon) publishAfterScan(peopleCount int) {
	extreme, _ := d.scanner.WatchingFromExtreme()
	pan, tilt := d.scanner.Watcher().Position()
	d.server.UpdateStatus(func(s *web.Status) {
		s.Scanning = false
		s.Watching = d.scanner.IsWatching()
		s.WatchingFromExtreme = extreme
		s.SessionID = d.scanner.SessionID()
		s.Pan, s.Tilt = pan, tilt
		s.PeopleCount = peopleCount
		s.LastScan = time.Now().Format(time.RFC3339)
	})
}

// watchLoop drives centering updates and tracking events until people
// are gone, an extreme watch times out, or a manual scan is requested.
func (d *daemon) watchLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.WatchTick())
	defer ticker.Stop()

	emptySince := time.Time{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.scanReq:
			log.Info("manual scan requested, leaving watch")
			return
		case <-ticker.C:
		}

		// Gestures own the actuator while playing.
		if d.mover.IsPlaying() {
			continue
		}

		if err := d.scanner.UpdateWatch(); err != nil {
			log.Warn("watch update", "error", err)
		}
		events, err := d.scanner.RunEventDrivenWatch()
		if err != nil {
			log.Warn("event watch", "error", err)
		}
		for _, event := range events {
			d.publishEvent(event)
		}

		people := d.peopleInFrame()
		pan, tilt := d.scanner.Watcher().Position()
		d.server.UpdateStatus(func(s *web.Status) {
			s.Pan, s.Tilt = pan, tilt
			s.PeopleCount = people
		})

		if people == 0 {
			if emptySince.IsZero() {
				emptySince = time.Now()
			} else if time.Since(emptySince) > rescanAfterEmpty {
				log.Info("nobody in frame, rescanning")
				return
			}
		} else {
			emptySince = time.Time{}
		}

		if extreme, start := d.scanner.WatchingFromExtreme(); extreme {
			if timeout := d.cfg.ScanConfig().ExtremeTimeout; timeout > 0 && time.Since(start) > timeout {
				log.Info("extreme watch timed out, rescanning")
				d.server.AddEvent("watch", "extreme watch timed out")
				return
			}
		}
	}
}

// streamFrames forwards fresh camera frames to the dashboard's camera
// websocket. Polls at the pipeline's frame interval and skips frames
// already shipped.
func (d *daemon) streamFrames(ctx context.Context, frames *detect.Pipeline) {
	ticker := time.NewTicker(d.cfg.PipelineConfig().FrameInterval)
	defer ticker.Stop()

	var shipped uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jpeg, seq := frames.LatestFrame()
			if seq == shipped || len(jpeg) == 0 {
				continue
			}
			shipped = seq
			d.server.SendCameraFrame(jpeg)
		}
	}
}

func (d *daemon) peopleInFrame() int {
	count := 0
	for _, tracked := range d.source.TrackedObjects() {
		if tracked.LastDetection.Label == "person" {
			count++
		}
	}
	return count
}

// waitForNextScan idles until the interval elapses or a manual scan is
// requested. Returns false when the context is done.
func (d *daemon) waitForNextScan(ctx context.Context, interval time.Duration) bool {
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-d.scanReq:
		log.Info("manual scan requested")
		return true
	case <-timer.C:
		return true
	}
}

func (d *daemon) publishEvent(event track.Event) {
	switch e := event.(type) {
	case track.NewPersonEvent:
		d.server.AddEvent("new_person",
			fmt.Sprintf("track %d entered from %s", e.TrackID, e.EntryEdge))
	case track.EdgeEvent:
		d.server.AddEvent("edge",
			fmt.Sprintf("track %d at %s edge", e.TrackID, e.Edge.String()))
	case track.ExitEvent:
		d.server.AddEvent("exit",
			fmt.Sprintf("track %d left via %s", e.TrackID, e.Edge.String()))
	}
}
