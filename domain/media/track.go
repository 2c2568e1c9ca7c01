package media

import "strings"

// AudioPrefix is the media type prefix shared by all audio tracks
const AudioPrefix = "audio/"

// SampleFlags is a bitmask of per-sample attributes
type SampleFlags uint32

const (
	// SampleFlagSync marks a sample that can be decoded without earlier samples
	SampleFlagSync SampleFlags = 1 << iota
)

// Track describes one encoded stream inside a container
type Track struct {
	Index       int    // 0-based position in container order
	ID          uint32 // container-assigned track id
	MediaType   string // e.g. "audio/mp4a-latm"
	Timescale   uint32 // timestamp ticks per second
	Duration    uint64 // in Timescale ticks
	SampleCount int
	Format      []byte // opaque codec parameters, written unchanged into an output container
}

// IsAudio returns true if the track carries audio
func (t Track) IsAudio() bool {
	return strings.HasPrefix(t.MediaType, AudioPrefix)
}

// FirstAudioTrack returns the first audio track in container order
func FirstAudioTrack(tracks []Track) (Track, bool) {
	for _, t := range tracks {
		if t.IsAudio() {
			return t, true
		}
	}
	return Track{}, false
}

// Sample is one access unit of a track
type Sample struct {
	Data              []byte
	DecodeTime        uint64 // in track ticks
	CompositionOffset int64  // presentation time minus decode time, in track ticks
	Duration          uint32 // in track ticks
	Flags             SampleFlags
}

// IsSync returns true if the sample carries the sync flag
func (s Sample) IsSync() bool {
	return s.Flags&SampleFlagSync != 0
}

// PresentationTimeUs returns the presentation timestamp in microseconds
func (s Sample) PresentationTimeUs(timescale uint32) int64 {
	if timescale == 0 {
		return 0
	}
	pts := int64(s.DecodeTime) + s.CompositionOffset
	return pts * 1_000_000 / int64(timescale)
}
