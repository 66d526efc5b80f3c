package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/driveturbo/transcriber/internal/format"
)

func TestDetectSupported(t *testing.T) {
	cases := []struct {
		filename   string
		encoding   string
		sampleRate int64
	}{
		{"clip.mp3", format.EncodingMP3, 16000},
		{"clip.wav", format.EncodingLinear16, 16000},
		{"clip.flac", format.EncodingFLAC, 16000},
		{"clip.aac", format.EncodingAAC, 16000},
		{"clip.ogg", format.EncodingOggOpus, 16000},
		{"clip.m4a", format.EncodingMP4, 16000},
		{"clip.webm", format.EncodingWebmOpus, 48000},
		{"CLIP.WAV", format.EncodingLinear16, 16000},
		{"archive.tar.flac", format.EncodingFLAC, 16000},
	}

	for _, tc := range cases {
		info := format.Detect(tc.filename)
		assert.True(t, info.Supported, tc.filename)
		assert.Equal(t, tc.encoding, info.Encoding, tc.filename)
		assert.Equal(t, tc.sampleRate, info.SampleRateHertz, tc.filename)
	}
}

func TestDetectUnsupported(t *testing.T) {
	for _, filename := range []string{"movie.mp4", "doc.pdf", "noextension", "clip.", "clip.wma"} {
		info := format.Detect(filename)
		assert.False(t, info.Supported, filename)
		// Placeholder values for diagnostics only.
		assert.Equal(t, format.EncodingLinear16, info.Encoding, filename)
		assert.Equal(t, int64(16000), info.SampleRateHertz, filename)
	}
}

func TestDetectExtensionExtraction(t *testing.T) {
	assert.Equal(t, "wav", format.Detect("a.b.c.wav").Extension)
	assert.Equal(t, "", format.Detect("noextension").Extension)
}

func TestExtensions(t *testing.T) {
	exts := format.Extensions()
	assert.Len(t, exts, 7)
	assert.Contains(t, exts, "wav")
	assert.NotContains(t, exts, "mp4")
}
