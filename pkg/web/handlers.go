package web

import (
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/roomwatch/go-roomwatch/pkg/hub"
	"github.com/roomwatch/go-roomwatch/pkg/motion"
)

// handleStatus returns the daemon's current state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return c.JSON(s.status)
}

// handleTriggerScan requests a fresh scan cycle.
func (s *Server) handleTriggerScan(c *fiber.Ctx) error {
	if s.OnScanTrigger == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "scan trigger not configured",
		})
	}
	if err := s.OnScanTrigger(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	s.AddEvent("scan", "manual scan triggered")
	return c.JSON(fiber.Map{"status": "scanning"})
}

// handleListGestures returns the available gesture names.
func (s *Server) handleListGestures(c *fiber.Ctx) error {
	names := make([]string, 0, len(motion.Gestures))
	for name := range motion.Gestures {
		names = append(names, name)
	}
	sort.Strings(names)
	return c.JSON(names)
}

// handleTriggerGesture plays a named gesture.
func (s *Server) handleTriggerGesture(c *fiber.Ctx) error {
	name := c.Params("name")
	if _, ok := motion.Gestures[name]; !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown gesture: " + name,
		})
	}
	if s.OnGestureTrigger == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "gesture trigger not configured",
		})
	}
	if err := s.OnGestureTrigger(name); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	s.AddEvent("gesture", "manual gesture: "+name)
	return c.JSON(fiber.Map{"gesture": name})
}

// handleGetEvents returns the recent event buffer.
func (s *Server) handleGetEvents(c *fiber.Ctx) error {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return c.JSON(s.events)
}

// handleStatusWS streams status updates, starting with the current one.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	s.statusMu.RLock()
	c.WriteJSON(s.status)
	s.statusMu.RUnlock()

	hub.NewClient(s.statusHub, c).Run()
}

// handleEventsWS streams events, replaying the buffer first.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	s.eventsMu.RLock()
	for _, entry := range s.events {
		c.WriteJSON(entry)
	}
	s.eventsMu.RUnlock()

	hub.NewClient(s.eventHub, c).Run()
}

// handleCameraWS streams JPEG camera frames.
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
