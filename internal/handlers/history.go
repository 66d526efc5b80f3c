package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/driveturbo/transcriber/internal/storage"
)

// HistoryHandler serves stored transcription results.
type HistoryHandler struct {
	db *storage.HistoryDB
}

// NewHistoryHandler creates the handler.
func NewHistoryHandler(db *storage.HistoryDB) *HistoryHandler {
	return &HistoryHandler{db: db}
}

// List returns the most recent transcriptions.
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	limit := 50
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}

	records, err := h.db.List(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"message": "failed to list transcriptions", "error": err.Error()})
	}
	if records == nil {
		records = []*storage.Record{}
	}
	return c.JSON(records)
}

// Get returns one transcription by session id.
func (h *HistoryHandler) Get(c *fiber.Ctx) error {
	rec, err := h.db.Get(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"message": "transcription not found"})
	}
	return c.JSON(rec)
}
