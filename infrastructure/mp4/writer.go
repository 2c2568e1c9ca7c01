package mp4

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"video-to-audio/domain/media"

	"github.com/abema/go-mp4"
)

const (
	// movieTimescale is the timescale of the movie and track headers
	movieTimescale = 1000

	// maxSamplesPerChunk caps the run of consecutive samples recorded as one chunk
	maxSamplesPerChunk = 64

	// maxMdatPayload keeps the media data box within a 32-bit size field
	maxMdatPayload = math.MaxUint32 - 8
)

var (
	errMuxerStarted    = errors.New("muxer already started")
	errMuxerNotStarted = errors.New("muxer not started")
	errOutputTooLarge  = errors.New("media data exceeds 4 GiB")
)

// identityMatrix is the unity transformation of movie and track headers
var identityMatrix = [9]int32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000}

// undeterminedLanguage is ISO-639-2 "und" packed as three 5-bit letters
var undeterminedLanguage = [3]byte{'u' - 0x60, 'n' - 0x60, 'd' - 0x60}

// MuxerFactory implements media.MuxerFactory
type MuxerFactory struct{}

// NewMuxerFactory creates a new MuxerFactory
func NewMuxerFactory() *MuxerFactory {
	return &MuxerFactory{}
}

// NewMuxer implements media.MuxerFactory
func (f *MuxerFactory) NewMuxer(w io.WriteSeeker) media.Muxer {
	return NewMuxer(w)
}

// Ensure MuxerFactory implements media.MuxerFactory
var _ media.MuxerFactory = (*MuxerFactory)(nil)

type muxerState int

const (
	stateIdle muxerState = iota
	stateStarted
	stateStopped
)

// Muxer writes an ISO base media file: ftyp, then mdat with the samples in
// arrival order, then moov once the sample tables are known.
type Muxer struct {
	w      *mp4.Writer
	tracks []*muxTrack
	state  muxerState

	mdatStart uint64 // offset of the first sample byte
	pos       uint64 // offset of the next sample byte
	last      int    // track of the previous sample
}

// muxTrack accumulates the sample table of one output track
type muxTrack struct {
	track       media.Track
	handler     string
	handlerName string

	sizes        []uint32
	times        []uint64
	cts          []int64
	sync         []uint32
	chunks       []chunk
	lastDuration uint32
	hasCTS       bool
	negativeCTS  bool
}

type chunk struct {
	offset  uint64
	samples uint32
}

// NewMuxer creates a Muxer writing to w
func NewMuxer(w io.WriteSeeker) *Muxer {
	return &Muxer{
		w:    mp4.NewWriter(w),
		last: -1,
	}
}

// AddTrack implements media.Muxer. The track's Format must be a complete stsd box.
func (m *Muxer) AddTrack(track media.Track) (int, error) {
	if m.state != stateIdle {
		return 0, errMuxerStarted
	}

	handler, name, ok := handlerFor(track.MediaType)
	if !ok {
		return 0, fmt.Errorf("unsupported media type %q", track.MediaType)
	}
	if track.Timescale == 0 {
		return 0, errors.New("track timescale must not be zero")
	}
	if err := checkSampleDescription(track.Format); err != nil {
		return 0, err
	}

	m.tracks = append(m.tracks, &muxTrack{
		track:       track,
		handler:     handler,
		handlerName: name,
	})
	return len(m.tracks) - 1, nil
}

// Start implements media.Muxer
func (m *Muxer) Start() error {
	if m.state != stateIdle {
		return errMuxerStarted
	}
	if len(m.tracks) == 0 {
		return errors.New("no tracks added")
	}

	if err := m.writeBox(mp4.BoxTypeFtyp(), m.ftyp()); err != nil {
		return fmt.Errorf("writing ftyp: %w", err)
	}

	bi, err := m.w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeMdat()})
	if err != nil {
		return fmt.Errorf("writing mdat header: %w", err)
	}
	m.mdatStart = bi.Offset + bi.HeaderSize
	m.pos = m.mdatStart
	m.state = stateStarted
	return nil
}

// WriteSample implements media.Muxer
func (m *Muxer) WriteSample(track int, sample media.Sample) error {
	if m.state != stateStarted {
		return errMuxerNotStarted
	}
	if track < 0 || track >= len(m.tracks) {
		return fmt.Errorf("track %d out of range (%d tracks)", track, len(m.tracks))
	}
	t := m.tracks[track]

	if n := len(t.times); n > 0 {
		prev := t.times[n-1]
		if sample.DecodeTime < prev {
			return fmt.Errorf("track %d: decode time %d precedes %d", track, sample.DecodeTime, prev)
		}
		if sample.DecodeTime-prev > math.MaxUint32 {
			return fmt.Errorf("track %d: gap of %d ticks after sample %d", track, sample.DecodeTime-prev, n-1)
		}
	}
	if m.pos-m.mdatStart+uint64(len(sample.Data)) > maxMdatPayload {
		return errOutputTooLarge
	}

	offset := m.pos
	if _, err := m.w.Write(sample.Data); err != nil {
		return err
	}
	m.pos += uint64(len(sample.Data))

	if c := len(t.chunks) - 1; m.last == track && c >= 0 && t.chunks[c].samples < maxSamplesPerChunk {
		t.chunks[c].samples++
	} else {
		t.chunks = append(t.chunks, chunk{offset: offset, samples: 1})
	}
	m.last = track

	t.sizes = append(t.sizes, uint32(len(sample.Data)))
	t.times = append(t.times, sample.DecodeTime)
	t.cts = append(t.cts, sample.CompositionOffset)
	if sample.CompositionOffset != 0 {
		t.hasCTS = true
	}
	if sample.CompositionOffset < 0 {
		t.negativeCTS = true
	}
	if sample.IsSync() {
		t.sync = append(t.sync, uint32(len(t.sizes)))
	}
	t.lastDuration = sample.Duration
	return nil
}

// Stop implements media.Muxer. It closes the media data and writes the movie box.
func (m *Muxer) Stop() error {
	if m.state != stateStarted {
		return errMuxerNotStarted
	}

	if _, err := m.w.EndBox(); err != nil {
		return fmt.Errorf("closing mdat: %w", err)
	}
	if err := m.writeMoov(); err != nil {
		return fmt.Errorf("writing moov: %w", err)
	}

	m.state = stateStopped
	return nil
}

// Ensure Muxer implements media.Muxer
var _ media.Muxer = (*Muxer)(nil)

func (m *Muxer) ftyp() *mp4.Ftyp {
	for _, t := range m.tracks {
		if t.handler != handlerSound {
			return &mp4.Ftyp{
				MajorBrand:   brand("isom"),
				MinorVersion: 0x200,
				CompatibleBrands: []mp4.CompatibleBrandElem{
					{CompatibleBrand: brand("isom")},
					{CompatibleBrand: brand("iso2")},
					{CompatibleBrand: brand("mp41")},
				},
			}
		}
	}
	return &mp4.Ftyp{
		MajorBrand:   brand("M4A "),
		MinorVersion: 0x200,
		CompatibleBrands: []mp4.CompatibleBrandElem{
			{CompatibleBrand: brand("M4A ")},
			{CompatibleBrand: brand("mp42")},
			{CompatibleBrand: brand("isom")},
		},
	}
}

func (m *Muxer) writeMoov() error {
	if _, err := m.w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeMoov()}); err != nil {
		return err
	}

	var movieDuration uint64
	for _, t := range m.tracks {
		if d := t.movieDuration(); d > movieDuration {
			movieDuration = d
		}
	}

	mvhd := &mp4.Mvhd{
		Timescale:   movieTimescale,
		Rate:        0x00010000,
		Volume:      0x0100,
		Matrix:      identityMatrix,
		NextTrackID: uint32(len(m.tracks) + 1),
	}
	if movieDuration > math.MaxUint32 {
		mvhd.Version = 1
		mvhd.DurationV1 = movieDuration
	} else {
		mvhd.DurationV0 = uint32(movieDuration)
	}
	if err := m.writeBox(mp4.BoxTypeMvhd(), mvhd); err != nil {
		return err
	}

	for i, t := range m.tracks {
		if err := m.writeTrak(t, uint32(i+1)); err != nil {
			return fmt.Errorf("track %d: %w", i, err)
		}
	}

	_, err := m.w.EndBox()
	return err
}

func (m *Muxer) writeTrak(t *muxTrack, id uint32) error {
	if _, err := m.w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeTrak()}); err != nil {
		return err
	}

	tkhd := &mp4.Tkhd{
		FullBox: mp4.FullBox{Flags: [3]byte{0, 0, 3}},
		TrackID: id,
		Matrix:  identityMatrix,
	}
	if t.handler == handlerSound {
		tkhd.Volume = 0x0100
	}
	if d := t.movieDuration(); d > math.MaxUint32 {
		tkhd.Version = 1
		tkhd.DurationV1 = d
	} else {
		tkhd.DurationV0 = uint32(d)
	}
	if err := m.writeBox(mp4.BoxTypeTkhd(), tkhd); err != nil {
		return err
	}

	if _, err := m.w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeMdia()}); err != nil {
		return err
	}

	mdhd := &mp4.Mdhd{
		Timescale: t.track.Timescale,
		Language:  undeterminedLanguage,
	}
	if d := t.duration(); d > math.MaxUint32 {
		mdhd.Version = 1
		mdhd.DurationV1 = d
	} else {
		mdhd.DurationV0 = uint32(d)
	}
	if err := m.writeBox(mp4.BoxTypeMdhd(), mdhd); err != nil {
		return err
	}

	hdlr := &mp4.Hdlr{
		HandlerType: brand(t.handler),
		Name:        t.handlerName,
	}
	if err := m.writeBox(mp4.BoxTypeHdlr(), hdlr); err != nil {
		return err
	}

	if _, err := m.w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeMinf()}); err != nil {
		return err
	}
	if t.handler == handlerSound {
		if err := m.writeBox(mp4.BoxTypeSmhd(), &mp4.Smhd{}); err != nil {
			return err
		}
	} else {
		vmhd := &mp4.Vmhd{FullBox: mp4.FullBox{Flags: [3]byte{0, 0, 1}}}
		if err := m.writeBox(mp4.BoxTypeVmhd(), vmhd); err != nil {
			return err
		}
	}
	if err := m.writeDinf(); err != nil {
		return err
	}
	if err := m.writeStbl(t); err != nil {
		return err
	}

	// minf, mdia, trak
	for i := 0; i < 3; i++ {
		if _, err := m.w.EndBox(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Muxer) writeDinf() error {
	if _, err := m.w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeDinf()}); err != nil {
		return err
	}
	if _, err := m.w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeDref()}); err != nil {
		return err
	}
	if _, err := mp4.Marshal(m.w, &mp4.Dref{EntryCount: 1}, mp4.Context{}); err != nil {
		return err
	}
	// self-contained: media data lives in this file
	url := &mp4.Url{FullBox: mp4.FullBox{Flags: [3]byte{0, 0, 1}}}
	if err := m.writeBox(mp4.BoxTypeUrl(), url); err != nil {
		return err
	}
	if _, err := m.w.EndBox(); err != nil {
		return err
	}
	_, err := m.w.EndBox()
	return err
}

func (m *Muxer) writeStbl(t *muxTrack) error {
	if _, err := m.w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeStbl()}); err != nil {
		return err
	}

	if _, err := m.w.Write(t.track.Format); err != nil {
		return err
	}

	if err := m.writeBox(mp4.BoxTypeStts(), t.stts()); err != nil {
		return err
	}
	if t.hasCTS {
		if err := m.writeBox(mp4.BoxTypeCtts(), t.ctts()); err != nil {
			return err
		}
	}
	if err := m.writeBox(mp4.BoxTypeStsc(), t.stsc()); err != nil {
		return err
	}
	stsz := &mp4.Stsz{
		SampleCount: uint32(len(t.sizes)),
		EntrySize:   t.sizes,
	}
	if err := m.writeBox(mp4.BoxTypeStsz(), stsz); err != nil {
		return err
	}
	if err := m.writeChunkOffsets(t); err != nil {
		return err
	}
	if len(t.sync) != len(t.sizes) {
		stss := &mp4.Stss{
			EntryCount:   uint32(len(t.sync)),
			SampleNumber: t.sync,
		}
		if err := m.writeBox(mp4.BoxTypeStss(), stss); err != nil {
			return err
		}
	}

	_, err := m.w.EndBox()
	return err
}

func (m *Muxer) writeChunkOffsets(t *muxTrack) error {
	large := false
	for _, c := range t.chunks {
		if c.offset > math.MaxUint32 {
			large = true
			break
		}
	}

	if large {
		co64 := &mp4.Co64{EntryCount: uint32(len(t.chunks))}
		for _, c := range t.chunks {
			co64.ChunkOffset = append(co64.ChunkOffset, c.offset)
		}
		return m.writeBox(mp4.BoxTypeCo64(), co64)
	}

	stco := &mp4.Stco{EntryCount: uint32(len(t.chunks))}
	for _, c := range t.chunks {
		stco.ChunkOffset = append(stco.ChunkOffset, uint32(c.offset))
	}
	return m.writeBox(mp4.BoxTypeStco(), stco)
}

func (m *Muxer) writeBox(typ mp4.BoxType, box mp4.IImmutableBox) error {
	if _, err := m.w.StartBox(&mp4.BoxInfo{Type: typ}); err != nil {
		return err
	}
	if _, err := mp4.Marshal(m.w, box, mp4.Context{}); err != nil {
		return err
	}
	_, err := m.w.EndBox()
	return err
}

// deltas returns each sample's duration: the distance to the next decode
// time, and the reported duration for the last sample
func (t *muxTrack) deltas() []uint32 {
	n := len(t.times)
	deltas := make([]uint32, n)
	for i := 0; i+1 < n; i++ {
		deltas[i] = uint32(t.times[i+1] - t.times[i])
	}
	if n > 0 {
		deltas[n-1] = t.lastDuration
	}
	return deltas
}

// duration is the track length in media timescale ticks
func (t *muxTrack) duration() uint64 {
	n := len(t.times)
	if n == 0 {
		return 0
	}
	return t.times[n-1] - t.times[0] + uint64(t.lastDuration)
}

// movieDuration is the track length in movie timescale ticks
func (t *muxTrack) movieDuration() uint64 {
	d := t.duration()
	return d/uint64(t.track.Timescale)*movieTimescale +
		d%uint64(t.track.Timescale)*movieTimescale/uint64(t.track.Timescale)
}

func (t *muxTrack) stts() *mp4.Stts {
	stts := &mp4.Stts{}
	for _, d := range t.deltas() {
		if n := len(stts.Entries); n > 0 && stts.Entries[n-1].SampleDelta == d {
			stts.Entries[n-1].SampleCount++
			continue
		}
		stts.Entries = append(stts.Entries, mp4.SttsEntry{SampleCount: 1, SampleDelta: d})
	}
	stts.EntryCount = uint32(len(stts.Entries))
	return stts
}

func (t *muxTrack) ctts() *mp4.Ctts {
	ctts := &mp4.Ctts{}
	if t.negativeCTS {
		ctts.Version = 1
	}
	var prev int64
	for _, off := range t.cts {
		if n := len(ctts.Entries); n > 0 && off == prev {
			ctts.Entries[n-1].SampleCount++
			continue
		}
		entry := mp4.CttsEntry{SampleCount: 1}
		if t.negativeCTS {
			entry.SampleOffsetV1 = int32(off)
		} else {
			entry.SampleOffsetV0 = uint32(off)
		}
		ctts.Entries = append(ctts.Entries, entry)
		prev = off
	}
	ctts.EntryCount = uint32(len(ctts.Entries))
	return ctts
}

func (t *muxTrack) stsc() *mp4.Stsc {
	stsc := &mp4.Stsc{}
	for i, c := range t.chunks {
		if n := len(stsc.Entries); n > 0 && stsc.Entries[n-1].SamplesPerChunk == c.samples {
			continue
		}
		stsc.Entries = append(stsc.Entries, mp4.StscEntry{
			FirstChunk:             uint32(i + 1),
			SamplesPerChunk:        c.samples,
			SampleDescriptionIndex: 1,
		})
	}
	stsc.EntryCount = uint32(len(stsc.Entries))
	return stsc
}

// checkSampleDescription verifies that format is a single stsd box
func checkSampleDescription(format []byte) error {
	if len(format) < 16 || !bytes.Equal(format[4:8], []byte("stsd")) {
		return errors.New("track format is not a sample description box")
	}
	size := uint64(binary.BigEndian.Uint32(format))
	if size == 1 {
		// 64-bit largesize follows the type
		size = binary.BigEndian.Uint64(format[8:])
	}
	if size != uint64(len(format)) {
		return fmt.Errorf("sample description box declares %d bytes, have %d", size, len(format))
	}
	return nil
}

func brand(s string) [4]byte {
	var b [4]byte
	copy(b[:], s)
	return b
}
