package transcode

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/driveturbo/transcriber/internal/logging"
)

// Params control the normalization target. The defaults produce the canonical
// recognition input: mono, 16kHz, 16-bit samples, lossless FLAC.
type Params struct {
	Channels        int
	SampleRateHertz int
	Codec           string
}

// DefaultParams returns the canonical FLAC normalization target.
func DefaultParams() Params {
	return Params{Channels: 1, SampleRateHertz: 16000, Codec: "flac"}
}

// Events are optional lifecycle callbacks for a single transcode run.
type Events struct {
	OnStart    func(command string)
	OnProgress func(percent float64)
	OnComplete func(outputPath string)
	OnFailure  func(err error)
}

// Error reports a failed or unavailable external transcoder process.
type Error struct {
	Diagnostic string
	Err        error
}

func (e *Error) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("transcode: %v: %s", e.Err, e.Diagnostic)
	}
	return fmt.Sprintf("transcode: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transcoder wraps the ffmpeg binary.
type Transcoder struct {
	binary      string
	probeBinary string
	logger      *logging.Logger
}

// New creates a transcoder using ffmpeg/ffprobe from PATH.
func New(logger *logging.Logger) *Transcoder {
	return &Transcoder{
		binary:      "ffmpeg",
		probeBinary: "ffprobe",
		logger:      logger.With("component", "transcode"),
	}
}

// Transcode normalizes inputPath into outputPath. Re-running with the same
// paths overwrites the output. Progress reporting is best-effort: it requires
// a probeable input duration and an ffmpeg that emits -progress records.
func (t *Transcoder) Transcode(ctx context.Context, inputPath, outputPath string, p Params, ev Events) error {
	if _, err := exec.LookPath(t.binary); err != nil {
		terr := &Error{Diagnostic: "ffmpeg not found in PATH", Err: err}
		if ev.OnFailure != nil {
			ev.OnFailure(terr)
		}
		return terr
	}

	durationSec, _ := t.probeDuration(ctx, inputPath)

	args := buildArgs(inputPath, outputPath, p)
	cmd := exec.CommandContext(ctx, t.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &Error{Err: err}
	}

	if ev.OnStart != nil {
		ev.OnStart(t.binary + " " + strings.Join(args, " "))
	}
	t.logger.Debug("starting ffmpeg", "input", inputPath, "output", outputPath)

	if err := cmd.Start(); err != nil {
		terr := &Error{Diagnostic: stderr.String(), Err: err}
		if ev.OnFailure != nil {
			ev.OnFailure(terr)
		}
		return terr
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if pct, ok := parseProgress(scanner.Text(), durationSec); ok && ev.OnProgress != nil {
			ev.OnProgress(pct)
		}
	}

	if err := cmd.Wait(); err != nil {
		terr := &Error{Diagnostic: tail(stderr.String(), 2048), Err: err}
		if ev.OnFailure != nil {
			ev.OnFailure(terr)
		}
		return terr
	}

	if ev.OnComplete != nil {
		ev.OnComplete(outputPath)
	}
	return nil
}

// buildArgs assembles the ffmpeg invocation for a normalization run.
func buildArgs(inputPath, outputPath string, p Params) []string {
	return []string{
		"-i", inputPath,
		"-ac", strconv.Itoa(p.Channels),
		"-ar", strconv.Itoa(p.SampleRateHertz),
		"-sample_fmt", "s16",
		"-c:a", p.Codec,
		"-compression_level", "0",
		"-progress", "pipe:1",
		"-nostats",
		"-y",
		outputPath,
	}
}

// parseProgress extracts a completion percentage from an ffmpeg -progress
// record. out_time_ms carries microseconds despite its name.
func parseProgress(line string, durationSec float64) (float64, bool) {
	if durationSec <= 0 {
		return 0, false
	}
	value, ok := strings.CutPrefix(line, "out_time_ms=")
	if !ok {
		return 0, false
	}
	us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || us < 0 {
		return 0, false
	}
	pct := float64(us) / 1e6 / durationSec * 100
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

// probeDuration returns the media duration in seconds via ffprobe.
func (t *Transcoder) probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, t.probeBinary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, err
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(probe.Format.Duration, 64)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
