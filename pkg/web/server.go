// Package web provides the real-time roomwatch dashboard: JSON status,
// manual scan and gesture triggers, and websocket streams for status,
// events and camera frames.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/roomwatch/go-roomwatch/internal/log"
	"github.com/roomwatch/go-roomwatch/pkg/hub"
)

// Status is the current state of the daemon for the dashboard.
type Status struct {
	Scanning            bool    `json:"scanning"`
	Watching            bool    `json:"watching"`
	WatchingFromExtreme bool    `json:"watching_from_extreme"`
	SessionID           string  `json:"session_id"`
	Pan                 float64 `json:"pan"`
	Tilt                float64 `json:"tilt"`
	PeopleCount         int     `json:"people_count"`
	GestureActive       bool    `json:"gesture_active"`
	LastScan            string  `json:"last_scan"`
}

// EventEntry is one tracking or scan event for the dashboard feed.
type EventEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // scan, watch, edge, exit, new_person, gesture, error
	Message string `json:"message"`
}

// Server is the dashboard server.
type Server struct {
	app  *fiber.App
	port string

	// State
	status   Status
	statusMu sync.RWMutex

	// Event buffer (last 500 entries)
	events   []EventEntry
	eventsMu sync.RWMutex

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	eventHub  *hub.Hub
	cameraHub *hub.Hub

	// OnScanTrigger requests a fresh scan cycle. May return an error
	// when a scan is already in flight.
	OnScanTrigger func() error

	// OnGestureTrigger plays a named gesture.
	OnGestureTrigger func(name string) error
}

// NewServer creates the dashboard server on the given port.
func NewServer(port string) *Server {
	s := &Server{
		port:      port,
		events:    make([]EventEntry, 0, 500),
		statusHub: hub.New("status"),
		eventHub:  hub.New("events"),
		cameraHub: hub.New("camera"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Roomwatch Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/scan", s.handleTriggerScan)
	api.Get("/gestures", s.handleListGestures)
	api.Post("/gestures/:name", s.handleTriggerGesture)
	api.Get("/events", s.handleGetEvents)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/events", websocket.New(s.handleEventsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start starts the server and its broadcast hubs. Blocks.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.eventHub.Run()
	go s.cameraHub.Run()

	log.Info("dashboard listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("dashboard server", "error", err)
		}
	}()
}

// UpdateStatus mutates the status under lock and broadcasts the result.
func (s *Server) UpdateStatus(update func(*Status)) {
	s.statusMu.Lock()
	update(&s.status)
	status := s.status
	s.statusMu.Unlock()

	s.statusHub.BroadcastJSON(status)
}

// AddEvent appends an event to the buffer and broadcasts it.
func (s *Server) AddEvent(eventType, message string) {
	entry := EventEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    eventType,
		Message: message,
	}

	s.eventsMu.Lock()
	s.events = append(s.events, entry)
	if len(s.events) > 500 {
		s.events = s.events[1:]
	}
	s.eventsMu.Unlock()

	s.eventHub.BroadcastJSON(entry)
}

// SendCameraFrame broadcasts a JPEG frame to camera stream clients.
func (s *Server) SendCameraFrame(jpegData []byte) {
	s.cameraHub.BroadcastBinary(jpegData)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
