package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	speechv1 "google.golang.org/api/speech/v1"

	"github.com/driveturbo/transcriber/internal/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := speechv1.NewService(context.Background(),
		option.WithEndpoint(srv.URL), option.WithoutAuthentication())
	require.NoError(t, err)

	return &Client{
		svc:          svc,
		logger:       logging.NewTest(),
		pollInterval: time.Millisecond,
	}
}

func alt(transcript string, confidence float64) *speechv1.SpeechRecognitionResult {
	return &speechv1.SpeechRecognitionResult{
		Alternatives: []*speechv1.SpeechRecognitionAlternative{
			{Transcript: transcript, Confidence: confidence},
		},
	}
}

func TestAggregateAveragesNonZeroConfidences(t *testing.T) {
	result := Aggregate([]*speechv1.SpeechRecognitionResult{
		alt("primeiro", 0.9),
		alt("segundo", 0),
		alt("terceiro", 0.7),
	})

	assert.Equal(t, "primeiro\nsegundo\nterceiro", result.Transcript)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	assert.Equal(t, 3, result.ResultCount)
}

func TestAggregateAllZeroConfidences(t *testing.T) {
	result := Aggregate([]*speechv1.SpeechRecognitionResult{
		alt("um", 0),
		alt("dois", 0),
	})
	assert.Equal(t, 0.0, result.Confidence)
}

func TestAggregateEmpty(t *testing.T) {
	result := Aggregate(nil)
	assert.Equal(t, "", result.Transcript)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, 0, result.ResultCount)
}

func TestRecognize(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[{"alternatives":[{"transcript":"ola mundo","confidence":0.95}]}]}`)
	})

	result, err := client.Recognize(context.Background(), &Request{
		Content:         "ZmFrZQ==",
		Encoding:        "LINEAR16",
		SampleRateHertz: 16000,
		LanguageCode:    "pt-BR",
	})
	require.NoError(t, err)
	assert.Equal(t, "ola mundo", result.Transcript)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
	assert.Equal(t, 1, result.ResultCount)
}

func TestRecognizeEmptyResultIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	})

	result, err := client.Recognize(context.Background(), &Request{Content: "ZmFrZQ=="})
	require.NoError(t, err)
	assert.Equal(t, "", result.Transcript)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestRecognizeClassifiesUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"PERMISSION_DENIED: speech API disabled","status":"PERMISSION_DENIED"}}`)
	})

	_, err := client.Recognize(context.Background(), &Request{Content: "ZmFrZQ=="})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindPermission, apiErr.Kind)
	assert.NotEmpty(t, apiErr.Hint)
}

func TestLongRunningRecognizePollsToCompletion(t *testing.T) {
	var polls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "longrunningrecognize"):
			fmt.Fprint(w, `{"name":"op-1","done":false}`)
		case strings.Contains(r.URL.Path, "op-1"):
			polls++
			if polls < 2 {
				fmt.Fprint(w, `{"name":"op-1","done":false}`)
				return
			}
			fmt.Fprint(w, `{"name":"op-1","done":true,"response":{"results":[{"alternatives":[{"transcript":"audio longo","confidence":0.9}]}]}}`)
		default:
			http.NotFound(w, r)
		}
	})

	result, err := client.LongRunningRecognize(context.Background(), &Request{
		URI:      "gs://bucket/upload-abc.flac",
		Encoding: "FLAC",
	})
	require.NoError(t, err)
	assert.Equal(t, "audio longo", result.Transcript)
	assert.Equal(t, 2, polls)
}

func TestLongRunningRecognizeOperationError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"name":"op-1","done":true,"error":{"code":7,"message":"caller lacks permission"}}`)
	})

	_, err := client.LongRunningRecognize(context.Background(), &Request{URI: "gs://bucket/x.flac"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindPermission, apiErr.Kind)
}

func TestClassifyTypedCodes(t *testing.T) {
	cases := []struct {
		code int
		msg  string
		kind ErrorKind
	}{
		{401, "token expired", KindAuth},
		{403, "caller lacks permission", KindPermission},
		{403, "RESOURCE_EXHAUSTED: quota exceeded", KindQuota},
		{429, "too many requests", KindQuota},
		{400, "bad encoding", KindInvalidArgument},
		{500, "boom", KindUnknown},
	}
	for _, tc := range cases {
		err := &googleapi.Error{Code: tc.code, Message: tc.msg}
		assert.Equal(t, tc.kind, Classify(err).Kind, "code %d", tc.code)
	}
}

func TestClassifyMessageSubstrings(t *testing.T) {
	cases := []struct {
		msg  string
		kind ErrorKind
	}{
		{"rpc error: PERMISSION_DENIED: speech API disabled", KindPermission},
		{"UNAUTHENTICATED: invalid credentials", KindAuth},
		{"oauth2: \"invalid_grant\"", KindAuth},
		{"RESOURCE_EXHAUSTED: out of quota", KindQuota},
		{"INVALID_ARGUMENT: sample rate mismatch", KindInvalidArgument},
		{"something else entirely", KindUnknown},
	}
	for _, tc := range cases {
		apiErr := Classify(errors.New(tc.msg))
		assert.Equal(t, tc.kind, apiErr.Kind, tc.msg)
		// The raw message is preserved for the caller.
		assert.Equal(t, tc.msg, apiErr.Message)
	}
}
