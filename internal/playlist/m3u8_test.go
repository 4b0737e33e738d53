package playlist

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeProber struct {
	result *ProbeResult
	err    error
	probed string
}

func (f *fakeProber) Probe(_ context.Context, file string) (*ProbeResult, error) {
	f.probed = file
	return f.result, f.err
}

func writeMediaFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("media"), 0o600); err != nil {
		t.Fatalf("write media file: %v", err)
	}
}

func TestGenerator_MakeStream(t *testing.T) {
	t.Run("segments with remainder", func(t *testing.T) {
		dir := t.TempDir()
		writeMediaFile(t, dir, "clip.mp4")

		prober := &fakeProber{result: &ProbeResult{
			Duration: 25,
			Streams: []ProbeStream{
				{CodecType: "video", CodecName: "h264"},
				{CodecType: "audio", CodecName: "aac"},
			},
		}}
		g := NewGenerator(dir, "http://media.local", "/vod/", 10, prober)

		out, err := g.MakeStream(context.Background(), "clip.mp4")
		if err != nil {
			t.Fatalf("MakeStream: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(out), "\n")
		want := []string{
			"#EXTM3U",
			"#EXT-X-VERSION:3",
			"#EXT-X-TARGETDURATION:10",
			"#EXT-X-MEDIA-SEQUENCE:0",
			"#EXT-X-PLAYLIST-TYPE:VOD",
			"#EXTINF:10.000000, nodesc",
			"http://media.local/vod/segments/0/clip.mp4",
			"#EXTINF:10.000000, nodesc",
			"http://media.local/vod/segments/1/clip.mp4",
			"#EXTINF:5.000000, nodesc",
			"http://media.local/vod/segments/2/clip.mp4?sd=5.000000",
			"#EXT-X-ENDLIST",
		}
		if len(lines) != len(want) {
			t.Fatalf("playlist has %d lines, want %d:\n%s", len(lines), len(want), out)
		}
		for i, w := range want {
			if lines[i] != w {
				t.Errorf("line %d = %q, want %q", i, lines[i], w)
			}
		}
	})

	t.Run("flags incompatible codecs", func(t *testing.T) {
		dir := t.TempDir()
		writeMediaFile(t, dir, "clip.webm")

		prober := &fakeProber{result: &ProbeResult{
			Duration: 8,
			Streams: []ProbeStream{
				{CodecType: "video", CodecName: "vp9"},
				{CodecType: "audio", CodecName: "opus"},
			},
		}}
		g := NewGenerator(dir, "", "/", 10, prober)

		out, err := g.MakeStream(context.Background(), "clip.webm")
		if err != nil {
			t.Fatalf("MakeStream: %v", err)
		}

		if !strings.Contains(out, "/segments/0/clip.webm?vc=1&ac=1&sd=8.000000") {
			t.Errorf("expected vc/ac/sd params on the only segment:\n%s", out)
		}
	})

	t.Run("escapes segment names", func(t *testing.T) {
		dir := t.TempDir()
		writeMediaFile(t, dir, "my clip.mp4")

		prober := &fakeProber{result: &ProbeResult{Duration: 3}}
		g := NewGenerator(dir, "", "/", 6, prober)

		out, err := g.MakeStream(context.Background(), "my clip.mp4")
		if err != nil {
			t.Fatalf("MakeStream: %v", err)
		}
		if !strings.Contains(out, "/segments/0/my%20clip.mp4") {
			t.Errorf("expected path-escaped file name:\n%s", out)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		g := NewGenerator(t.TempDir(), "", "/", 6, &fakeProber{})
		if _, err := g.MakeStream(context.Background(), "nope.mp4"); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("rejects escaping paths", func(t *testing.T) {
		g := NewGenerator(t.TempDir(), "", "/", 6, &fakeProber{})
		for _, path := range []string{"../secret.mp4", "a/../../x.mp4", "/etc/passwd"} {
			if _, err := g.MakeStream(context.Background(), path); err == nil {
				t.Errorf("expected rejection of %q", path)
			}
		}
	})

	t.Run("zero duration", func(t *testing.T) {
		dir := t.TempDir()
		writeMediaFile(t, dir, "clip.mp4")

		g := NewGenerator(dir, "", "/", 6, &fakeProber{result: &ProbeResult{Duration: 0}})
		if _, err := g.MakeStream(context.Background(), "clip.mp4"); err == nil {
			t.Error("expected error for zero duration")
		}
	})
}

func TestParseProbeJSON(t *testing.T) {
	t.Run("full report", func(t *testing.T) {
		data := []byte(`{
			"format": {"duration": "123.456000"},
			"streams": [
				{"codec_type": "video", "codec_name": "h264"},
				{"codec_type": "audio", "codec_name": "aac"}
			]
		}`)

		result, err := parseProbeJSON(data)
		if err != nil {
			t.Fatalf("parseProbeJSON: %v", err)
		}
		if result.Duration != 123.456 {
			t.Errorf("duration = %v, want 123.456", result.Duration)
		}
		if len(result.Streams) != 2 {
			t.Fatalf("got %d streams, want 2", len(result.Streams))
		}
		if !result.Streams[0].IsVideo() || !result.Streams[1].IsAudio() {
			t.Error("stream types misclassified")
		}
	})

	t.Run("missing duration", func(t *testing.T) {
		if _, err := parseProbeJSON([]byte(`{"streams": []}`)); err == nil {
			t.Error("expected error for report without duration")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		if _, err := parseProbeJSON([]byte(`{`)); err == nil {
			t.Error("expected error for malformed json")
		}
	})
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"90", 90},
		{"123.45", 123.45},
		{"1:30", 90},
		{"01:02:03", 3723},
		{"00:00:10.5", 10.5},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if err != nil {
				t.Fatalf("ParseDuration(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseDuration("abc"); err == nil {
		t.Error("expected error for non-numeric duration")
	}
	if _, err := ParseDuration("1:xx"); err == nil {
		t.Error("expected error for non-numeric clock part")
	}
}
