package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/driveturbo/transcriber/internal/logging"
	"github.com/driveturbo/transcriber/internal/pipeline"
	"github.com/driveturbo/transcriber/internal/storage"
)

// ProcessHandler handles multipart uploads through the full pipeline.
type ProcessHandler struct {
	pipeline *pipeline.Pipeline
	history  *storage.HistoryDB
	logger   *logging.Logger
}

// NewProcessHandler creates the handler. history may be nil.
func NewProcessHandler(p *pipeline.Pipeline, history *storage.HistoryDB, logger *logging.Logger) *ProcessHandler {
	return &ProcessHandler{
		pipeline: p,
		history:  history,
		logger:   logger.With("handler", "process"),
	}
}

// Handle processes the upload request.
func (h *ProcessHandler) Handle(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{
			"message": "no file uploaded",
		})
	}

	upload := &pipeline.Upload{
		Filename: file.Filename,
		Size:     file.Size,
		Open: func() (io.ReadCloser, error) {
			return file.Open()
		},
	}

	outcome, err := h.pipeline.Run(c.UserContext(), upload)
	if err != nil {
		return writeError(c, err)
	}

	if h.history != nil {
		rec := &storage.Record{
			SessionID:       outcome.SessionID,
			OriginalFile:    outcome.OriginalFile,
			ProcessedFormat: outcome.ProcessedFormat,
			Transcript:      outcome.Transcription,
			Confidence:      outcome.Confidence,
			ResultCount:     outcome.ResultCount,
		}
		if err := h.history.Save(rec); err != nil {
			h.logger.Warn("failed to save transcription history", "session", outcome.SessionID, "error", err)
		}
	}

	return c.JSON(fiber.Map{
		"transcription":   outcome.Transcription,
		"originalFile":    outcome.OriginalFile,
		"processedFormat": outcome.ProcessedFormat,
		"sessionId":       outcome.SessionID,
	})
}

// writeError maps a classified pipeline failure onto the response contract:
// validation failures carry only a message, everything else carries the raw
// error and a hint.
func writeError(c *fiber.Ctx, err error) error {
	perr := pipeline.AsError(err)
	if perr.Kind == pipeline.KindValidation {
		return c.Status(perr.Status).JSON(fiber.Map{
			"message": perr.Message,
		})
	}
	return c.Status(perr.Status).JSON(fiber.Map{
		"message": perr.Message,
		"error":   perr.Raw,
		"details": perr.Details,
	})
}
