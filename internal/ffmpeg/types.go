package ffmpeg

import "strconv"

// MediaInfo contains metadata about a media file
type MediaInfo struct {
	FilePath   string
	Duration   float64
	Width      int
	Height     int
	VideoCodec string
	HasAudio   bool
	AudioCodec string
}

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args       []string
	LogHandler func(line string)
}

// EncodeOptions selects the video codec settings for re-encode operations
type EncodeOptions struct {
	VideoCodec string
	Preset     string
	CRF        int
}

// Default encoding settings
const (
	DefaultCRF        = 23
	DefaultPreset     = "fast"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
)

func (o EncodeOptions) args() []string {
	codec := o.VideoCodec
	if codec == "" {
		codec = DefaultVideoCodec
	}
	preset := o.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	crf := o.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	return []string{
		"-c:v", codec,
		"-preset", preset,
		"-crf", strconv.Itoa(crf),
	}
}
