package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/driveturbo/transcriber/internal/logging"
)

// LogsHandler serves recent server logs and a live log stream.
type LogsHandler struct {
	ring *logging.Ring
}

// NewLogsHandler creates the handler over the logger's line buffer.
func NewLogsHandler(ring *logging.Ring) *LogsHandler {
	return &LogsHandler{ring: ring}
}

// Handle returns the buffered log lines.
func (h *LogsHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"logs": h.ring.Lines(),
	})
}

// Stream pushes log lines over a websocket as they are written.
func (h *LogsHandler) Stream(c *websocket.Conn) {
	defer c.Close()

	lines, cancel := h.ring.Subscribe()
	defer cancel()

	// Replay the backlog so the viewer has context before live lines arrive.
	for _, line := range h.ring.Lines() {
		if err := c.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return
		}
	}

	// Reads only serve to detect the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case line := <-lines:
			if err := c.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
