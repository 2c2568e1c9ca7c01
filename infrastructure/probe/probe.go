package probe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"video-to-audio/domain/media"

	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
)

// Format names reported by the prober
const (
	FormatMP4  = "mp4"
	FormatMP3  = "mp3"
	FormatFLAC = "flac"
)

// mp3BytesPerSample is the size of one decoded 16-bit stereo frame
const mp3BytesPerSample = 4

var errUnknownFormat = errors.New("unrecognized file format")

// Report describes the content of a media file
type Report struct {
	Path       string
	Format     string
	Tracks     []media.Track // MPEG-4 only
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// Prober reports what a media file contains without decoding its samples
type Prober struct {
	demuxer media.Demuxer
}

// NewProber creates a prober that reads ISO base media files through demuxer
func NewProber(demuxer media.Demuxer) *Prober {
	return &Prober{demuxer: demuxer}
}

// Probe identifies the file at path by its leading bytes and describes it
func (p *Prober) Probe(path string) (*Report, error) {
	head, err := readHead(path, 12)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", media.ErrSourceUnreadable, err)
	}

	var report *Report
	switch sniff(head) {
	case FormatFLAC:
		report, err = probeFLAC(path)
	case FormatMP3:
		report, err = probeMP3(path)
	case FormatMP4:
		report, err = p.probeMP4(path)
	default:
		err = errUnknownFormat
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", media.ErrSourceUnreadable, path, err)
	}

	report.Path = path
	return report, nil
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, n)
	read, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return head[:read], nil
}

// sniff classifies a file from its first bytes
func sniff(head []byte) string {
	switch {
	case bytes.HasPrefix(head, []byte("fLaC")):
		return FormatFLAC
	case bytes.HasPrefix(head, []byte("ID3")):
		return FormatMP3
	case len(head) >= 2 && head[0] == 0xff && head[1]&0xe0 == 0xe0 && head[1]&0x06 != 0:
		// layer bits 00 mark an ADTS AAC header, not an MPEG audio frame
		return FormatMP3
	case len(head) >= 8 && isTopLevelBox(string(head[4:8])):
		return FormatMP4
	default:
		return ""
	}
}

func isTopLevelBox(typ string) bool {
	switch typ {
	case "ftyp", "moov", "mdat", "free", "skip", "wide", "pnot":
		return true
	}
	return false
}

func (p *Prober) probeMP4(path string) (*Report, error) {
	c, err := p.demuxer.Open(path)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	report := &Report{
		Format: FormatMP4,
		Tracks: c.Tracks(),
	}
	for _, t := range report.Tracks {
		if t.Timescale == 0 {
			continue
		}
		if d := ticksToDuration(t.Duration, uint64(t.Timescale)); d > report.Duration {
			report.Duration = d
		}
	}
	return report, nil
}

func probeMP3(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	report := &Report{
		Format:     FormatMP3,
		SampleRate: decoder.SampleRate(),
		Channels:   2, // the decoder always outputs stereo
		BitDepth:   16,
	}
	if length := decoder.Length(); length > 0 && report.SampleRate > 0 {
		report.Duration = ticksToDuration(uint64(length/mp3BytesPerSample), uint64(report.SampleRate))
	}
	return report, nil
}

func probeFLAC(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	report := &Report{
		Format:     FormatFLAC,
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		BitDepth:   int(info.BitsPerSample),
	}
	if info.SampleRate > 0 {
		report.Duration = ticksToDuration(info.NSamples, uint64(info.SampleRate))
	}
	return report, nil
}

func ticksToDuration(ticks, rate uint64) time.Duration {
	secs := ticks / rate
	rem := ticks % rate
	return time.Duration(secs)*time.Second + time.Duration(rem*uint64(time.Second)/rate)
}
