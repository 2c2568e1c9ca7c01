//go:build integration

package steps

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-to-audio/domain/media"
	"video-to-audio/infrastructure/mp4"
)

// sampleDescription builds a minimal stsd box with one entry of the given type
func sampleDescription(entryType string, body int) []byte {
	entrySize := 8 + body
	size := 16 + entrySize
	b := make([]byte, size)
	binary.BigEndian.PutUint32(b[0:], uint32(size))
	copy(b[4:], "stsd")
	binary.BigEndian.PutUint32(b[12:], 1)
	binary.BigEndian.PutUint32(b[16:], uint32(entrySize))
	copy(b[20:], entryType)
	binary.BigEndian.PutUint16(b[30:], 1)
	return b
}

var (
	fixtureVideoTrack = media.Track{
		MediaType: "video/avc",
		Timescale: 90000,
		Format:    sampleDescription("avc1", 78),
	}
	fixtureAudioTrack = media.Track{
		MediaType: "audio/mp4a-latm",
		Timescale: 44100,
		Format:    sampleDescription("mp4a", 28),
	}
)

func fixtureVideoSample(i int) media.Sample {
	s := media.Sample{
		Data:       bytes.Repeat([]byte{byte(i)}, 400+i),
		DecodeTime: uint64(i) * 3000,
		Duration:   3000,
	}
	if i%10 == 0 {
		s.Flags = media.SampleFlagSync
	}
	return s
}

func fixtureAudioSample(i int) media.Sample {
	return media.Sample{
		Data:       bytes.Repeat([]byte{0xa0 + byte(i%16)}, 200+i%32),
		DecodeTime: uint64(i) * 1024,
		Duration:   1024,
		Flags:      media.SampleFlagSync,
	}
}

// writeVideoFixture muxes a video file with interleaved video and audio samples.
// A track is only added when it has samples.
func writeVideoFixture(path string, videoSamples, audioSamples int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating fixture: %w", err)
	}
	defer f.Close()

	m := mp4.NewMuxer(f)
	video, audio := -1, -1
	if videoSamples > 0 {
		if video, err = m.AddTrack(fixtureVideoTrack); err != nil {
			return err
		}
	}
	if audioSamples > 0 {
		if audio, err = m.AddTrack(fixtureAudioTrack); err != nil {
			return err
		}
	}
	if err := m.Start(); err != nil {
		return err
	}

	for v, a := 0, 0; v < videoSamples || a < audioSamples; {
		if v < videoSamples {
			if err := m.WriteSample(video, fixtureVideoSample(v)); err != nil {
				return err
			}
			v++
		}
		for i := 0; i < 3 && a < audioSamples; i++ {
			if err := m.WriteSample(audio, fixtureAudioSample(a)); err != nil {
				return err
			}
			a++
		}
	}

	return m.Stop()
}

// partialFiles returns in-progress outputs left in dir
func partialFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var partials []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".partial") {
			partials = append(partials, e.Name())
		}
	}
	return partials, nil
}

// expectCode checks that err carries the given error code
func expectCode(err error, code string) error {
	if err == nil {
		return fmt.Errorf("expected error %s, got success", code)
	}
	if got := media.Code(err); got != code {
		return fmt.Errorf("expected error %s, got %s (%v)", code, got, err)
	}
	return nil
}
