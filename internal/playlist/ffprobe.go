package playlist

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Default timeout for probing a single file.
const DefaultProbeTimeout = 30 * time.Second

// Prober extracts container and stream metadata from a media file.
type Prober interface {
	Probe(ctx context.Context, file string) (*ProbeResult, error)
}

// ProbeResult holds the metadata the playlist generator needs: total
// duration and the codec of each stream.
type ProbeResult struct {
	Duration float64 // seconds
	Streams  []ProbeStream
}

// ProbeStream describes one elementary stream.
type ProbeStream struct {
	CodecType string
	CodecName string
}

// IsVideo reports whether the stream carries video.
func (s ProbeStream) IsVideo() bool {
	return s.CodecType == "video"
}

// IsAudio reports whether the stream carries audio.
func (s ProbeStream) IsAudio() bool {
	return s.CodecType == "audio"
}

// FFProbe probes media files by running the ffprobe binary with JSON
// output.
type FFProbe struct {
	binPath string
	timeout time.Duration
}

// NewFFProbe creates a prober using the ffprobe binary from PATH.
func NewFFProbe() *FFProbe {
	return &FFProbe{
		binPath: "ffprobe",
		timeout: DefaultProbeTimeout,
	}
}

// Probe runs ffprobe against the file and parses its JSON report.
func (f *FFProbe) Probe(ctx context.Context, file string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binPath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		file,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", file, err)
	}
	return parseProbeJSON(out)
}

// ffprobe's JSON report shape, reduced to the fields we read.
type probeReport struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
	} `json:"streams"`
}

func parseProbeJSON(data []byte) (*ProbeResult, error) {
	var report probeReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse probe output: %w", err)
	}

	if report.Format.Duration == "" {
		return nil, fmt.Errorf("probe output has no duration")
	}
	duration, err := ParseDuration(report.Format.Duration)
	if err != nil {
		return nil, fmt.Errorf("parse probe duration: %w", err)
	}

	result := &ProbeResult{Duration: duration}
	for _, s := range report.Streams {
		result.Streams = append(result.Streams, ProbeStream{
			CodecType: s.CodecType,
			CodecName: s.CodecName,
		})
	}
	return result, nil
}

// ParseDuration parses a media duration expressed either as a plain number
// of seconds ("123.45") or as colon-separated clock parts ("01:02:03",
// "2:05").
func ParseDuration(s string) (float64, error) {
	if !strings.Contains(s, ":") {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("parse duration %q: %w", s, err)
		}
		return v, nil
	}

	parts := strings.Split(s, ":")
	total := 0.0
	// Rightmost part is seconds, each step left is a factor of 60.
	for i := range parts {
		part := strings.TrimSpace(parts[len(parts)-1-i])
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("parse duration %q: %w", s, err)
		}
		total += v * pow60(i)
	}
	return total, nil
}

func pow60(n int) float64 {
	v := 1.0
	for range n {
		v *= 60
	}
	return v
}
