package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/driveturbo/transcriber/internal/format"
	"github.com/driveturbo/transcriber/internal/logging"
	"github.com/driveturbo/transcriber/internal/speech"
	"github.com/driveturbo/transcriber/internal/staging"
	"github.com/driveturbo/transcriber/internal/transcode"
)

// Staging modes.
const (
	StagingInline  = "inline"
	StagingDurable = "durable"
)

// Transcoder normalizes an input file into the canonical recognition format.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string, p transcode.Params, ev transcode.Events) error
}

// ObjectStore stages audio durably for URI-based recognition.
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, key, contentType string) (string, error)
	Delete(ctx context.Context, key string)
}

// Options parameterize one deployment of the pipeline. A single orchestrator
// covers every variant; there are no parallel code paths per configuration.
type Options struct {
	TranscodeEnabled           bool
	StagingMode                string
	MaxUploadBytes             int64
	TempDir                    string
	LanguageCode               string
	AlternativeLanguageCodes   []string
	Model                      string
	UseEnhanced                bool
	EnableAutomaticPunctuation bool
}

// Upload is the request-scoped input. Open is called at most once, after
// validation has passed.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// Outcome is the assembled success response.
type Outcome struct {
	Transcription   string
	Confidence      float64
	ResultCount     int
	OriginalFile    string
	ProcessedFormat string
	SessionID       string
}

// Pipeline runs the per-request control flow: validate, optionally transcode,
// stage, recognize, respond. Temp artifacts are released on every exit path.
type Pipeline struct {
	opts       Options
	transcoder Transcoder
	store      ObjectStore
	recognizer speech.Recognizer
	logger     *logging.Logger
}

// New creates a pipeline. store may be nil when StagingMode is inline;
// transcoder may be nil when transcoding is disabled.
func New(opts Options, transcoder Transcoder, store ObjectStore, recognizer speech.Recognizer, logger *logging.Logger) *Pipeline {
	return &Pipeline{
		opts:       opts,
		transcoder: transcoder,
		store:      store,
		recognizer: recognizer,
		logger:     logger.With("component", "pipeline"),
	}
}

// Run processes one upload. The returned error is always a *Error.
func (p *Pipeline) Run(ctx context.Context, up *Upload) (*Outcome, error) {
	if up == nil || up.Filename == "" {
		return nil, validationError("no file uploaded")
	}
	if up.Size > p.opts.MaxUploadBytes {
		return nil, validationError(fmt.Sprintf("file too large (max %dMB)",
			p.opts.MaxUploadBytes/(1024*1024)))
	}

	info := format.Detect(up.Filename)
	if !info.Supported {
		return nil, validationError("unsupported format")
	}

	sessionID := uuid.New().String()
	logger := p.logger.With("session", sessionID)
	logger.Info("processing upload", "file", up.Filename, "sizeBytes", up.Size)

	// Every temp path created below is removed when the run ends, success or
	// failure alike.
	var tempPaths []string
	defer func() {
		for _, path := range tempPaths {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logger.Warn("failed to remove temp file", "path", path, "error", err)
			}
		}
	}()

	inputPath := filepath.Join(p.opts.TempDir, fmt.Sprintf("input_%s.%s", sessionID, info.Extension))
	if err := p.saveUpload(up, inputPath); err != nil {
		return nil, storageError("failed to stage the uploaded file", err)
	}
	tempPaths = append(tempPaths, inputPath)

	stagePath := inputPath
	encoding := info.Encoding
	sampleRate := info.SampleRateHertz
	formatLabel := "original audio (no conversion)"

	if p.opts.TranscodeEnabled && p.transcoder != nil {
		outputPath := filepath.Join(p.opts.TempDir, fmt.Sprintf("normalized_%s.flac", sessionID))
		tempPaths = append(tempPaths, outputPath)
		if err := p.transcoder.Transcode(ctx, inputPath, outputPath, transcode.DefaultParams(), p.transcodeEvents(logger)); err != nil {
			return nil, &Error{
				Kind:    KindTranscode,
				Message: "failed to convert the audio",
				Raw:     err.Error(),
				Details: "the external transcoder could not process this file",
				Status:  500,
				Err:     err,
			}
		}
		stagePath = outputPath
		encoding = format.EncodingFLAC
		sampleRate = 16000
		formatLabel = "FLAC 16kHz mono"
	}

	req := &speech.Request{
		Encoding:                   encoding,
		SampleRateHertz:            sampleRate,
		LanguageCode:               p.opts.LanguageCode,
		EnableAutomaticPunctuation: p.opts.EnableAutomaticPunctuation,
		Model:                      p.opts.Model,
		UseEnhanced:                p.opts.UseEnhanced,
		AlternativeLanguageCodes:   p.opts.AlternativeLanguageCodes,
	}

	var result *speech.Result
	switch p.opts.StagingMode {
	case StagingDurable:
		data, err := os.ReadFile(stagePath)
		if err != nil {
			return nil, storageError("failed to read the staged audio", err)
		}
		key := fmt.Sprintf("upload-%s%s", sessionID, filepath.Ext(stagePath))
		uri, err := p.store.Upload(ctx, data, key, contentTypeFor(encoding))
		if err != nil {
			return nil, storageError("failed to upload the audio for transcription", err)
		}
		// The staged object only lives for this request.
		defer p.store.Delete(ctx, key)

		req.URI = uri
		result, err = p.recognizer.LongRunningRecognize(ctx, req)
		if err != nil {
			return nil, upstreamError(err)
		}

	default: // inline
		content, err := staging.EncodeFile(stagePath)
		if err != nil {
			return nil, storageError("failed to encode the audio", err)
		}
		req.Content = content
		result, err = p.recognizer.Recognize(ctx, req)
		if err != nil {
			return nil, upstreamError(err)
		}
	}

	logger.Info("transcription complete",
		"results", result.ResultCount, "confidence", result.Confidence)

	return &Outcome{
		Transcription:   result.Transcript,
		Confidence:      result.Confidence,
		ResultCount:     result.ResultCount,
		OriginalFile:    up.Filename,
		ProcessedFormat: formatLabel,
		SessionID:       sessionID,
	}, nil
}

func (p *Pipeline) saveUpload(up *Upload, dst string) error {
	src, err := up.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

func (p *Pipeline) transcodeEvents(logger *logging.Logger) transcode.Events {
	return transcode.Events{
		OnStart: func(command string) {
			logger.Info("transcode started", "command", command)
		},
		OnProgress: func(percent float64) {
			logger.Debug("transcode progress", "percent", fmt.Sprintf("%.0f", percent))
		},
		OnComplete: func(outputPath string) {
			logger.Info("transcode complete", "output", outputPath)
		},
		OnFailure: func(err error) {
			logger.Error("transcode failed", "error", err)
		},
	}
}

func contentTypeFor(encoding string) string {
	switch encoding {
	case format.EncodingFLAC:
		return "audio/flac"
	case format.EncodingLinear16:
		return "audio/wav"
	case format.EncodingMP3:
		return "audio/mpeg"
	case format.EncodingOggOpus:
		return "audio/ogg"
	case format.EncodingWebmOpus:
		return "audio/webm"
	case format.EncodingAAC, format.EncodingMP4:
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
