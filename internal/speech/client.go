package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	speechv1 "google.golang.org/api/speech/v1"

	"github.com/driveturbo/transcriber/internal/logging"
)

// Request carries one recognition call. Exactly one of Content (inline base64
// payload) or URI (staged gs:// reference) is set; which one is a caller
// policy decision driven by upstream size limits, not auto-negotiated here.
type Request struct {
	Content                    string
	URI                        string
	Encoding                   string
	SampleRateHertz            int64
	LanguageCode               string
	EnableAutomaticPunctuation bool
	Model                      string
	UseEnhanced                bool
	AlternativeLanguageCodes   []string
}

// Result is the normalized recognition outcome.
type Result struct {
	Transcript  string
	Confidence  float64
	ResultCount int
}

// Recognizer is the capability both credential modes produce.
type Recognizer interface {
	Recognize(ctx context.Context, req *Request) (*Result, error)
	LongRunningRecognize(ctx context.Context, req *Request) (*Result, error)
}

// Client calls the Speech-to-Text v1 API. It performs no retries; transient
// failures surface to the caller with their kind intact.
type Client struct {
	svc          *speechv1.Service
	logger       *logging.Logger
	pollInterval time.Duration
}

// NewClient creates a client from a credential variant. Extra options are
// appended after the token source, so tests can override the endpoint.
func NewClient(ctx context.Context, cred Credential, logger *logging.Logger, opts ...option.ClientOption) (*Client, error) {
	ts, err := cred.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	all := append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := speechv1.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("speech: create service: %w", err)
	}
	return &Client{
		svc:          svc,
		logger:       logger.With("component", "speech"),
		pollInterval: 5 * time.Second,
	}, nil
}

// Recognize runs the synchronous shape with an inline payload. Suitable for
// short clips only; longer audio must go through LongRunningRecognize.
func (c *Client) Recognize(ctx context.Context, req *Request) (*Result, error) {
	c.logger.Info("recognize", "encoding", req.Encoding, "sampleRate", req.SampleRateHertz)

	resp, err := c.svc.Speech.Recognize(&speechv1.RecognizeRequest{
		Audio:  &speechv1.RecognitionAudio{Content: req.Content},
		Config: buildConfig(req),
	}).Context(ctx).Do()
	if err != nil {
		return nil, Classify(err)
	}
	return Aggregate(resp.Results), nil
}

// LongRunningRecognize submits a URI-referenced operation and polls it to
// completion.
func (c *Client) LongRunningRecognize(ctx context.Context, req *Request) (*Result, error) {
	c.logger.Info("long-running recognize", "uri", req.URI, "encoding", req.Encoding)

	op, err := c.svc.Speech.Longrunningrecognize(&speechv1.LongRunningRecognizeRequest{
		Audio:  &speechv1.RecognitionAudio{Uri: req.URI},
		Config: buildConfig(req),
	}).Context(ctx).Do()
	if err != nil {
		return nil, Classify(err)
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, Classify(ctx.Err())
		case <-time.After(c.pollInterval):
		}
		op, err = c.svc.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return nil, Classify(err)
		}
	}

	if op.Error != nil {
		return nil, statusError(op.Error.Code, op.Error.Message)
	}

	var lrResp speechv1.LongRunningRecognizeResponse
	if err := json.Unmarshal(op.Response, &lrResp); err != nil {
		return nil, Classify(fmt.Errorf("decode operation response: %w", err))
	}
	return Aggregate(lrResp.Results), nil
}

func buildConfig(req *Request) *speechv1.RecognitionConfig {
	return &speechv1.RecognitionConfig{
		Encoding:                   req.Encoding,
		SampleRateHertz:            req.SampleRateHertz,
		LanguageCode:               req.LanguageCode,
		EnableAutomaticPunctuation: req.EnableAutomaticPunctuation,
		Model:                      req.Model,
		UseEnhanced:                req.UseEnhanced,
		AlternativeLanguageCodes:   req.AlternativeLanguageCodes,
	}
}

// Aggregate joins each result's top alternative in upstream order and averages
// the non-zero confidences. No results or no speech yields a zero Result, not
// an error.
func Aggregate(results []*speechv1.SpeechRecognitionResult) *Result {
	var (
		parts []string
		sum   float64
		n     int
	)
	for _, r := range results {
		if len(r.Alternatives) == 0 {
			continue
		}
		top := r.Alternatives[0]
		parts = append(parts, top.Transcript)
		if top.Confidence > 0 {
			sum += top.Confidence
			n++
		}
	}

	confidence := 0.0
	if n > 0 {
		confidence = sum / float64(n)
	}
	return &Result{
		Transcript:  strings.Join(parts, "\n"),
		Confidence:  confidence,
		ResultCount: len(results),
	}
}
