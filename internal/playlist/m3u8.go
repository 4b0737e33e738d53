package playlist

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidPath marks a playlist request whose file name escapes the
// download directory.
var ErrInvalidPath = errors.New("path escapes download directory")

// Codecs that HLS clients play without transcoding. Streams outside these
// sets get a vc/ac query parameter so the segment endpoint knows to convert.
var (
	okVideoCodecs = map[string]bool{"h264": true, "x264": true, "avc": true}
	okAudioCodecs = map[string]bool{"aac": true, "mp3": true}
)

// Generator renders HLS VOD playlists for downloaded files, using a Prober
// for duration and codec metadata.
type Generator struct {
	downloadDir     string
	urlHost         string
	urlPrefix       string
	segmentDuration float64
	prober          Prober
}

// NewGenerator creates a playlist generator rooted at downloadDir. Segment
// URLs are prefixed with urlHost+urlPrefix.
func NewGenerator(downloadDir, urlHost, urlPrefix string, segmentDuration float64, prober Prober) *Generator {
	if segmentDuration <= 0 {
		segmentDuration = 6.0
	}
	return &Generator{
		downloadDir:     downloadDir,
		urlHost:         urlHost,
		urlPrefix:       urlPrefix,
		segmentDuration: segmentDuration,
		prober:          prober,
	}
}

// MakeStream probes the named file (relative to the download directory) and
// renders an HLS VOD playlist splitting it into fixed-length segments, the
// last segment carrying the remainder.
func (g *Generator) MakeStream(ctx context.Context, file string) (string, error) {
	real, err := g.resolve(file)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(real); err != nil {
		return "", fmt.Errorf("stat %s: %w", file, err)
	}

	probe, err := g.prober.Probe(ctx, real)
	if err != nil {
		return "", err
	}
	if probe.Duration <= 0 {
		return "", fmt.Errorf("unable to get duration of %s", file)
	}

	// Streams with codecs outside the playable sets are flagged so the
	// segment endpoint converts them.
	var params []string
	for _, stream := range probe.Streams {
		if stream.IsVideo() && !okVideoCodecs[stream.CodecName] {
			params = append(params, "vc=1")
			break
		}
	}
	for _, stream := range probe.Streams {
		if stream.IsAudio() && !okAudioCodecs[stream.CodecName] {
			params = append(params, "ac=1")
			break
		}
	}

	splits := int(math.Ceil(probe.Duration / g.segmentDuration))

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	fmt.Fprintf(&b, "#EXT-X-TARGETDURATION:%d\n", int(g.segmentDuration))
	b.WriteString("#EXT-X-MEDIA-SEQUENCE:0\n")
	b.WriteString("#EXT-X-PLAYLIST-TYPE:VOD\n")

	for i := range splits {
		segParams := params
		if i+1 == splits {
			remainder := probe.Duration - float64(i)*g.segmentDuration
			fmt.Fprintf(&b, "#EXTINF:%.6f, nodesc\n", remainder)
			segParams = append(segParams, fmt.Sprintf("sd=%.6f", remainder))
		} else {
			fmt.Fprintf(&b, "#EXTINF:%.6f, nodesc\n", g.segmentDuration)
		}

		fmt.Fprintf(&b, "%s%ssegments/%d/%s", g.urlHost, g.urlPrefix, i, url.PathEscape(file))
		if len(segParams) > 0 {
			b.WriteString("?" + strings.Join(segParams, "&"))
		}
		b.WriteString("\n")
	}

	b.WriteString("#EXT-X-ENDLIST\n")
	return b.String(), nil
}

// resolve maps a playlist-relative name onto the download directory,
// rejecting anything that escapes it.
func (g *Generator) resolve(file string) (string, error) {
	clean := filepath.Clean(file)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid playlist path %q: %w", file, ErrInvalidPath)
	}
	return filepath.Join(g.downloadDir, clean), nil
}
