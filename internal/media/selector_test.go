package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func audio(bitrate, url string) Format {
	return Format{AudioCodec: "opus", AverageBitrate: bitrate, URL: url}
}

func TestSelectBestAudioPicksHighestBitrate(t *testing.T) {
	formats := []Format{
		audio("", "none"),
		audio("128", "128"),
		audio("256", "256"),
		audio("64", "64"),
	}

	best, err := SelectBestAudio(formats)
	require.NoError(t, err)
	assert.Equal(t, "256", best.URL)
}

func TestSelectBestAudioIgnoresNonFiniteBitrate(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "+Inf"} {
		t.Run(raw, func(t *testing.T) {
			formats := []Format{
				audio("128", "128"),
				audio(raw, raw),
				audio("256", "256"),
			}

			best, err := SelectBestAudio(formats)
			require.NoError(t, err)
			assert.Equal(t, "256", best.URL)
		})
	}
}

func TestSelectBestAudioNeverReturnsVideo(t *testing.T) {
	formats := []Format{
		{AudioCodec: "mp4a.40.2", VideoCodec: "avc1.64001F", AverageBitrate: "900000", URL: "muxed"},
		{VideoCodec: "vp9", AverageBitrate: "800000", URL: "video"},
		{AudioCodec: "mp4a.40.2", VideoCodec: "none", AverageBitrate: "130000", URL: "m4a"},
		{AudioCodec: "opus", AverageBitrate: "140000", URL: "opus"},
	}

	best, err := SelectBestAudio(formats)
	require.NoError(t, err)
	assert.Equal(t, "opus", best.URL)
	assert.False(t, best.HasVideo())
}

func TestSelectBestAudioNoAudioOnly(t *testing.T) {
	tests := []struct {
		name    string
		formats []Format
	}{
		{"empty", nil},
		{"video only", []Format{{VideoCodec: "avc1"}}},
		{"muxed only", []Format{{AudioCodec: "mp4a.40.2", VideoCodec: "avc1"}}},
		{"codec none", []Format{{AudioCodec: "none", VideoCodec: "none"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SelectBestAudio(tt.formats)
			assert.ErrorIs(t, err, ErrNoAudioStream)
		})
	}
}

func TestSelectBestAudioIsStable(t *testing.T) {
	t.Run("equal bitrates", func(t *testing.T) {
		best, err := SelectBestAudio([]Format{audio("128", "first"), audio("128", "second")})
		require.NoError(t, err)
		assert.Equal(t, "first", best.URL)
	})

	t.Run("missing bitrates", func(t *testing.T) {
		best, err := SelectBestAudio([]Format{audio("", "first"), audio("", "second")})
		require.NoError(t, err)
		assert.Equal(t, "first", best.URL)
	})

	t.Run("unparseable counts as zero", func(t *testing.T) {
		best, err := SelectBestAudio([]Format{audio("fast", "first"), audio("0", "second")})
		require.NoError(t, err)
		assert.Equal(t, "first", best.URL)
	})
}

func TestSelectBestAudioDeterministic(t *testing.T) {
	formats := []Format{audio("96", "a"), audio("160", "b"), audio("160", "c"), audio("x", "d")}

	first, err := SelectBestAudio(formats)
	require.NoError(t, err)
	for range 10 {
		again, err := SelectBestAudio(formats)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "b", first.URL)
	assert.Equal(t, "a", formats[0].URL, "input order must not change")
}

func TestSelectBestAudioOrMuxed(t *testing.T) {
	t.Run("prefers audio only", func(t *testing.T) {
		best, err := SelectBestAudioOrMuxed([]Format{
			{AudioCodec: "mp4a.40.2", VideoCodec: "avc1", AverageBitrate: "900000", URL: "muxed"},
			audio("64000", "audio"),
		})
		require.NoError(t, err)
		assert.Equal(t, "audio", best.URL)
	})

	t.Run("falls back to muxed", func(t *testing.T) {
		best, err := SelectBestAudioOrMuxed([]Format{
			{VideoCodec: "vp9", AverageBitrate: "2000000", URL: "video"},
			{AudioCodec: "mp4a.40.2", VideoCodec: "avc1", AverageBitrate: "500000", URL: "360p"},
			{AudioCodec: "mp4a.40.2", VideoCodec: "avc1", AverageBitrate: "900000", URL: "720p"},
		})
		require.NoError(t, err)
		assert.Equal(t, "720p", best.URL)
	})

	t.Run("no audio at all", func(t *testing.T) {
		_, err := SelectBestAudioOrMuxed([]Format{{VideoCodec: "vp9"}})
		assert.ErrorIs(t, err, ErrNoAudioStream)
	})
}

func TestFormatBitrate(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"", 0},
		{"128", 128},
		{" 129.5 ", 129.5},
		{"abc", 0},
		{"-5", 0},
		{"NaN", 0},
		{"Inf", 0},
		{"-Inf", 0},
		{"1e400", 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Format{AverageBitrate: tt.raw}.Bitrate())
		})
	}
}
