package handlers

import (
	"encoding/base64"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/driveturbo/transcriber/internal/format"
	"github.com/driveturbo/transcriber/internal/logging"
	"github.com/driveturbo/transcriber/internal/pipeline"
	"github.com/driveturbo/transcriber/internal/speech"
)

// TranscribeHandler exposes the recognition call directly for callers that
// already hold encoded audio. It honors the configured staging mode the same
// way the upload pipeline does.
type TranscribeHandler struct {
	recognizer  speech.Recognizer
	store       pipeline.ObjectStore
	stagingMode string
	opts        pipeline.Options
	logger      *logging.Logger
}

// NewTranscribeHandler creates the handler. store may be nil for inline mode.
func NewTranscribeHandler(recognizer speech.Recognizer, store pipeline.ObjectStore, opts pipeline.Options, logger *logging.Logger) *TranscribeHandler {
	return &TranscribeHandler{
		recognizer:  recognizer,
		store:       store,
		stagingMode: opts.StagingMode,
		opts:        opts,
		logger:      logger.With("handler", "transcribe"),
	}
}

// TranscribeRequest is the JSON request body.
type TranscribeRequest struct {
	AudioBase64 string `json:"audioBase64"`
	AudioFormat *struct {
		Encoding        string `json:"encoding"`
		SampleRateHertz int64  `json:"sampleRateHertz"`
		Extension       string `json:"extension"`
	} `json:"audioFormat"`
}

// Handle transcribes a base64 audio payload.
func (h *TranscribeHandler) Handle(c *fiber.Ctx) error {
	var req TranscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"message": "invalid request body"})
	}
	if req.AudioBase64 == "" {
		return c.Status(400).JSON(fiber.Map{"message": "no audio data provided"})
	}

	// Normalized FLAC is the default when the caller gives no format hint,
	// matching what the upload pipeline produces.
	encoding := format.EncodingFLAC
	sampleRate := int64(16000)
	if req.AudioFormat != nil {
		switch {
		case req.AudioFormat.Encoding != "":
			encoding = req.AudioFormat.Encoding
			if req.AudioFormat.SampleRateHertz > 0 {
				sampleRate = req.AudioFormat.SampleRateHertz
			}
		case req.AudioFormat.Extension != "":
			info := format.Detect("audio." + req.AudioFormat.Extension)
			if !info.Supported {
				return c.Status(400).JSON(fiber.Map{"message": "unsupported format"})
			}
			encoding = info.Encoding
			sampleRate = info.SampleRateHertz
		}
	}

	sreq := &speech.Request{
		Encoding:                   encoding,
		SampleRateHertz:            sampleRate,
		LanguageCode:               h.opts.LanguageCode,
		EnableAutomaticPunctuation: h.opts.EnableAutomaticPunctuation,
		Model:                      h.opts.Model,
		UseEnhanced:                h.opts.UseEnhanced,
		AlternativeLanguageCodes:   h.opts.AlternativeLanguageCodes,
	}

	ctx := c.UserContext()
	var result *speech.Result
	var err error

	if h.stagingMode == pipeline.StagingDurable && h.store != nil {
		data, decodeErr := base64.StdEncoding.DecodeString(req.AudioBase64)
		if decodeErr != nil {
			return c.Status(400).JSON(fiber.Map{"message": "invalid base64 audio data"})
		}
		key := fmt.Sprintf("upload-%s.flac", uuid.New().String())
		uri, upErr := h.store.Upload(ctx, data, key, "audio/flac")
		if upErr != nil {
			return writeError(c, upErr)
		}
		defer h.store.Delete(ctx, key)

		sreq.URI = uri
		result, err = h.recognizer.LongRunningRecognize(ctx, sreq)
	} else {
		sreq.Content = req.AudioBase64
		result, err = h.recognizer.Recognize(ctx, sreq)
	}
	if err != nil {
		return writeError(c, err)
	}

	message := "transcription completed"
	if result.Transcript == "" {
		// No speech detected is a successful outcome, not an error.
		message = "no speech detected"
	}

	return c.JSON(fiber.Map{
		"transcription": result.Transcript,
		"confidence":    result.Confidence,
		"resultsCount":  result.ResultCount,
		"message":       message,
	})
}
