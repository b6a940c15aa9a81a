// Package media holds the types shared by the resolver, the relay and the
// downloader, and the audio format selection rules.
package media

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoAudioStream    = errors.New("no audio stream found")
	ErrResolutionFailed = errors.New("resolution failed")
)

// Descriptor is one resolved video and every rendition the platform offers for it.
type Descriptor struct {
	ID       string
	Title    string
	Author   string
	Duration time.Duration
	Formats  []Format
}

// Format is a single rendition. Codecs are empty (or "none") when the
// rendition does not carry that kind of track.
type Format struct {
	Itag           int
	MimeType       string
	AudioCodec     string
	VideoCodec     string
	AverageBitrate string
	AudioChannels  int
	ContentLength  int64
	URL            string
}

type SearchResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func codecPresent(codec string) bool {
	return codec != "" && codec != "none"
}

func (f Format) HasAudio() bool {
	return codecPresent(f.AudioCodec)
}

func (f Format) HasVideo() bool {
	return codecPresent(f.VideoCodec)
}

func (f Format) AudioOnly() bool {
	return f.HasAudio() && !f.HasVideo()
}

// Bitrate returns the average bitrate as a number, 0 when it is missing or
// not a finite positive value.
func (f Format) Bitrate() float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(f.AverageBitrate), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}
	return value
}
