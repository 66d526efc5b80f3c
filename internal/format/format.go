package format

import "strings"

// Audio encodings accepted by the Speech-to-Text v1 API.
const (
	EncodingLinear16 = "LINEAR16"
	EncodingFLAC     = "FLAC"
	EncodingMP3      = "MP3"
	EncodingAAC      = "AAC"
	EncodingOggOpus  = "OGG_OPUS"
	EncodingMP4      = "MP4"
	EncodingWebmOpus = "WEBM_OPUS"
)

// Info describes how an uploaded file maps onto a recognition config.
type Info struct {
	Extension       string
	Supported       bool
	Encoding        string
	SampleRateHertz int64
}

type formatSpec struct {
	encoding   string
	sampleRate int64
}

// Every supported extension maps to exactly one encoding/sample-rate pair.
var formats = map[string]formatSpec{
	"mp3":  {EncodingMP3, 16000},
	"wav":  {EncodingLinear16, 16000},
	"flac": {EncodingFLAC, 16000},
	"aac":  {EncodingAAC, 16000},
	"ogg":  {EncodingOggOpus, 16000},
	"m4a":  {EncodingMP4, 16000},
	"webm": {EncodingWebmOpus, 48000},
}

// Detect maps a filename to its audio format info. Unknown extensions yield
// Supported=false with a LINEAR16@16000 placeholder that must not be used for
// recognition.
func Detect(filename string) Info {
	ext := ""
	if i := strings.LastIndex(filename, "."); i >= 0 {
		ext = strings.ToLower(filename[i+1:])
	}

	if spec, ok := formats[ext]; ok {
		return Info{
			Extension:       ext,
			Supported:       true,
			Encoding:        spec.encoding,
			SampleRateHertz: spec.sampleRate,
		}
	}
	return Info{
		Extension:       ext,
		Supported:       false,
		Encoding:        EncodingLinear16,
		SampleRateHertz: 16000,
	}
}

// Extensions returns the supported extension allow-list.
func Extensions() []string {
	out := make([]string, 0, len(formats))
	for ext := range formats {
		out = append(out, ext)
	}
	return out
}
