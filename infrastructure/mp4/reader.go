package mp4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"video-to-audio/domain/media"

	"github.com/abema/go-mp4"
	"github.com/sunfish-shogi/bufseekio"
)

const (
	readBufferSize  = 128 * 1024
	readBufferCount = 4

	// maxFormatSize bounds the sample description box copied as a track's format
	maxFormatSize = 1 << 20
)

var (
	errNoMovieBox = errors.New("no movie box found; not an ISO base media file")
	errFragmented = errors.New("fragmented files are not supported")
)

// Demuxer implements media.Demuxer for ISO base media files (MP4, M4A, MOV, 3GP)
type Demuxer struct{}

// NewDemuxer creates a new ISO base media demuxer
func NewDemuxer() *Demuxer {
	return &Demuxer{}
}

// Open implements media.Demuxer
func (d *Demuxer) Open(path string) (media.Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	file, err := NewFile(bufseekio.NewReadSeeker(f, readBufferSize, readBufferCount))
	if err != nil {
		f.Close()
		return nil, err
	}
	file.closer = f
	return file, nil
}

// Ensure Demuxer implements media.Demuxer
var _ media.Demuxer = (*Demuxer)(nil)

// File is a parsed ISO base media file whose samples are read on demand
type File struct {
	r        io.ReadSeeker
	closer   io.Closer
	tracks   []*trackTable
	selected *trackTable
	cursor   int
}

// NewFile parses the movie box of r
func NewFile(r io.ReadSeeker) (*File, error) {
	tables, err := parseTracks(r)
	if err != nil {
		return nil, err
	}
	return &File{r: r, tracks: tables}, nil
}

// Tracks implements media.Container
func (f *File) Tracks() []media.Track {
	tracks := make([]media.Track, len(f.tracks))
	for i, t := range f.tracks {
		tracks[i] = t.Track
	}
	return tracks
}

// SelectTrack implements media.Container
func (f *File) SelectTrack(index int) error {
	if index < 0 || index >= len(f.tracks) {
		return fmt.Errorf("track %d out of range (%d tracks)", index, len(f.tracks))
	}
	f.selected = f.tracks[index]
	f.cursor = 0
	return nil
}

// ReadSample implements media.Container
func (f *File) ReadSample(buf []byte) (media.Sample, error) {
	t := f.selected
	if t == nil {
		return media.Sample{}, errors.New("no track selected")
	}
	if f.cursor >= len(t.sizes) {
		return media.Sample{}, io.EOF
	}

	i := f.cursor
	size := t.sizes[i]
	if uint64(size) > uint64(len(buf)) {
		return media.Sample{}, fmt.Errorf("%w: sample %d of track %d is %d bytes, buffer holds %d",
			media.ErrSampleTooLarge, i, t.Index, size, len(buf))
	}

	if _, err := f.r.Seek(int64(t.offsets[i]), io.SeekStart); err != nil {
		return media.Sample{}, fmt.Errorf("seeking to sample %d: %w", i, err)
	}
	if _, err := io.ReadFull(f.r, buf[:size]); err != nil {
		if errors.Is(err, io.EOF) {
			// a missing sample is a truncated file, not the end of the track
			err = io.ErrUnexpectedEOF
		}
		return media.Sample{}, fmt.Errorf("reading sample %d: %w", i, err)
	}
	f.cursor++

	return media.Sample{
		Data:              buf[:size],
		DecodeTime:        t.times[i],
		CompositionOffset: t.compositionOffset(i),
		Duration:          t.deltas[i],
		Flags:             t.flags(i),
	}, nil
}

// Close implements media.Container
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// Ensure File implements media.Container
var _ media.Container = (*File)(nil)

// trackTable is a track descriptor plus its expanded sample table
type trackTable struct {
	media.Track

	offsets []uint64
	sizes   []uint32
	times   []uint64
	deltas  []uint32
	cts     []int64 // nil when the track has no composition offsets
	sync    []bool  // nil when every sample is a sync sample
}

func (t *trackTable) compositionOffset(i int) int64 {
	if t.cts == nil {
		return 0
	}
	return t.cts[i]
}

func (t *trackTable) flags(i int) media.SampleFlags {
	if t.sync == nil || t.sync[i] {
		return media.SampleFlagSync
	}
	return 0
}

func parseTracks(r io.ReadSeeker) ([]*trackTable, error) {
	fileSize, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	top, err := mp4.ExtractBoxes(r, nil, []mp4.BoxPath{
		{mp4.BoxTypeMoov()},
		{mp4.BoxTypeMoof()},
	})
	if err != nil {
		return nil, fmt.Errorf("reading box structure: %w", err)
	}

	var moov *mp4.BoxInfo
	for _, bi := range top {
		switch bi.Type {
		case mp4.BoxTypeMoof():
			return nil, errFragmented
		case mp4.BoxTypeMoov():
			if moov == nil {
				moov = bi
			}
		}
	}
	if moov == nil {
		return nil, errNoMovieBox
	}

	traks, err := mp4.ExtractBox(r, moov, mp4.BoxPath{mp4.BoxTypeTrak()})
	if err != nil {
		return nil, fmt.Errorf("reading tracks: %w", err)
	}

	tables := make([]*trackTable, 0, len(traks))
	for i, bi := range traks {
		t, err := parseTrak(r, bi, fileSize)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		t.Index = i
		tables = append(tables, t)
	}
	return tables, nil
}

// parseTrak builds the sample table of one track. Declared sample counts are
// checked against fileSize before any per-sample slice is allocated.
func parseTrak(r io.ReadSeeker, bi *mp4.BoxInfo, fileSize int64) (*trackTable, error) {
	stbl := []mp4.BoxType{mp4.BoxTypeMdia(), mp4.BoxTypeMinf(), mp4.BoxTypeStbl()}
	inStbl := func(t mp4.BoxType) mp4.BoxPath {
		return append(append(mp4.BoxPath{}, stbl...), t)
	}

	bips, err := mp4.ExtractBoxesWithPayload(r, bi, []mp4.BoxPath{
		{mp4.BoxTypeTkhd()},
		{mp4.BoxTypeMdia(), mp4.BoxTypeMdhd()},
		{mp4.BoxTypeMdia(), mp4.BoxTypeHdlr()},
		inStbl(mp4.BoxTypeStts()),
		inStbl(mp4.BoxTypeCtts()),
		inStbl(mp4.BoxTypeStsc()),
		inStbl(mp4.BoxTypeStsz()),
		inStbl(mp4.BoxTypeStco()),
		inStbl(mp4.BoxTypeCo64()),
		inStbl(mp4.BoxTypeStss()),
	})
	if err != nil {
		return nil, err
	}

	var tkhd *mp4.Tkhd
	var mdhd *mp4.Mdhd
	var hdlr *mp4.Hdlr
	var stts *mp4.Stts
	var ctts *mp4.Ctts
	var stsc *mp4.Stsc
	var stsz *mp4.Stsz
	var stco *mp4.Stco
	var co64 *mp4.Co64
	var stss *mp4.Stss

	for _, bip := range bips {
		switch bip.Info.Type {
		case mp4.BoxTypeTkhd():
			tkhd = bip.Payload.(*mp4.Tkhd)
		case mp4.BoxTypeMdhd():
			mdhd = bip.Payload.(*mp4.Mdhd)
		case mp4.BoxTypeHdlr():
			hdlr = bip.Payload.(*mp4.Hdlr)
		case mp4.BoxTypeStts():
			stts = bip.Payload.(*mp4.Stts)
		case mp4.BoxTypeCtts():
			ctts = bip.Payload.(*mp4.Ctts)
		case mp4.BoxTypeStsc():
			stsc = bip.Payload.(*mp4.Stsc)
		case mp4.BoxTypeStsz():
			stsz = bip.Payload.(*mp4.Stsz)
		case mp4.BoxTypeStco():
			stco = bip.Payload.(*mp4.Stco)
		case mp4.BoxTypeCo64():
			co64 = bip.Payload.(*mp4.Co64)
		case mp4.BoxTypeStss():
			stss = bip.Payload.(*mp4.Stss)
		}
	}

	if tkhd == nil {
		return nil, errors.New("tkhd box not found")
	}
	if mdhd == nil {
		return nil, errors.New("mdhd box not found")
	}
	if hdlr == nil {
		return nil, errors.New("hdlr box not found")
	}

	stsds, err := mp4.ExtractBox(r, bi, inStbl(mp4.BoxTypeStsd()))
	if err != nil {
		return nil, err
	}
	if len(stsds) == 0 {
		return nil, errors.New("stsd box not found")
	}
	format, err := readRawBox(r, stsds[0])
	if err != nil {
		return nil, fmt.Errorf("reading stsd: %w", err)
	}

	t := &trackTable{
		Track: media.Track{
			ID:        tkhd.TrackID,
			MediaType: mediaType(string(hdlr.HandlerType[:]), sampleEntryType(format)),
			Timescale: mdhd.Timescale,
			Duration:  mdhd.GetDuration(),
			Format:    format,
		},
	}

	if err := t.buildSizes(stsz, fileSize); err != nil {
		return nil, err
	}
	if err := t.buildTimes(stts, ctts); err != nil {
		return nil, err
	}
	if err := t.buildOffsets(stsc, stco, co64); err != nil {
		return nil, err
	}
	if err := t.buildSync(stss); err != nil {
		return nil, err
	}

	t.SampleCount = len(t.sizes)
	return t, nil
}

func (t *trackTable) buildTimes(stts *mp4.Stts, ctts *mp4.Ctts) error {
	if stts == nil {
		return errors.New("stts box not found")
	}

	// stts must describe exactly the samples stsz sized
	count := uint64(len(t.sizes))
	var total uint64
	for _, entry := range stts.Entries {
		total += uint64(entry.SampleCount)
		if total > count {
			break
		}
	}
	if total != count {
		return fmt.Errorf("stts lists more or fewer samples than the %d in stsz", count)
	}

	t.times = make([]uint64, 0, count)
	t.deltas = make([]uint32, 0, count)
	var time uint64
	for _, entry := range stts.Entries {
		for i := uint32(0); i < entry.SampleCount; i++ {
			t.times = append(t.times, time)
			t.deltas = append(t.deltas, entry.SampleDelta)
			time += uint64(entry.SampleDelta)
		}
	}

	if ctts != nil {
		t.cts = make([]int64, len(t.times))
		var si int
		for ci, entry := range ctts.Entries {
			for i := uint32(0); i < entry.SampleCount && si < len(t.cts); i++ {
				t.cts[si] = ctts.GetSampleOffset(ci)
				si++
			}
		}
	}
	return nil
}

func (t *trackTable) buildSizes(stsz *mp4.Stsz, fileSize int64) error {
	if stsz == nil {
		return errors.New("stsz box not found")
	}

	if stsz.SampleSize == 0 {
		if len(stsz.EntrySize) != int(stsz.SampleCount) {
			return fmt.Errorf("stsz declares %d samples but sizes %d", stsz.SampleCount, len(stsz.EntrySize))
		}
		t.sizes = stsz.EntrySize
		return nil
	}

	// samples of one shared size must all fit in the file
	if uint64(stsz.SampleCount)*uint64(stsz.SampleSize) > uint64(fileSize) {
		return fmt.Errorf("stsz declares %d samples of %d bytes in a %d byte file",
			stsz.SampleCount, stsz.SampleSize, fileSize)
	}
	t.sizes = make([]uint32, stsz.SampleCount)
	for i := range t.sizes {
		t.sizes[i] = stsz.SampleSize
	}
	return nil
}

func (t *trackTable) buildOffsets(stsc *mp4.Stsc, stco *mp4.Stco, co64 *mp4.Co64) error {
	var chunkOffsets []uint64
	switch {
	case stco != nil:
		chunkOffsets = make([]uint64, len(stco.ChunkOffset))
		for i, off := range stco.ChunkOffset {
			chunkOffsets[i] = uint64(off)
		}
	case co64 != nil:
		chunkOffsets = co64.ChunkOffset
	default:
		return errors.New("stco/co64 box not found")
	}

	if stsc == nil {
		return errors.New("stsc box not found")
	}

	samplesPerChunk := make([]uint32, len(chunkOffsets))
	for si, entry := range stsc.Entries {
		if entry.FirstChunk == 0 {
			return errors.New("stsc entry refers to chunk 0")
		}
		end := uint32(len(chunkOffsets))
		if si != len(stsc.Entries)-1 && stsc.Entries[si+1].FirstChunk-1 < end {
			end = stsc.Entries[si+1].FirstChunk - 1
		}
		for ci := entry.FirstChunk - 1; ci < end; ci++ {
			samplesPerChunk[ci] = entry.SamplesPerChunk
		}
	}

	t.offsets = make([]uint64, len(t.sizes))
	var si int
	for ci, off := range chunkOffsets {
		for k := uint32(0); k < samplesPerChunk[ci] && si < len(t.sizes); k++ {
			t.offsets[si] = off
			off += uint64(t.sizes[si])
			si++
		}
	}
	if si != len(t.sizes) {
		return fmt.Errorf("chunk table covers %d of %d samples", si, len(t.sizes))
	}
	return nil
}

func (t *trackTable) buildSync(stss *mp4.Stss) error {
	if stss == nil {
		return nil
	}

	t.sync = make([]bool, len(t.sizes))
	for _, n := range stss.SampleNumber {
		if n == 0 || int(n) > len(t.sync) {
			return fmt.Errorf("stss refers to sample %d of %d", n, len(t.sync))
		}
		t.sync[n-1] = true
	}
	return nil
}

// readRawBox reads a whole box and returns it with a compact 8-byte header
func readRawBox(r io.ReadSeeker, bi *mp4.BoxInfo) ([]byte, error) {
	if bi.Size > maxFormatSize || bi.Size < bi.HeaderSize {
		return nil, fmt.Errorf("box is %d bytes", bi.Size)
	}
	if _, err := bi.SeekToPayload(r); err != nil {
		return nil, err
	}
	payload := bi.Size - bi.HeaderSize
	raw := make([]byte, mp4.SmallHeaderSize+payload)
	binary.BigEndian.PutUint32(raw, uint32(len(raw)))
	copy(raw[4:8], bi.Type[:])
	if _, err := io.ReadFull(r, raw[mp4.SmallHeaderSize:]); err != nil {
		return nil, err
	}
	return raw, nil
}

// sampleEntryType returns the type of the first entry of a raw stsd box
func sampleEntryType(stsd []byte) string {
	// box header (8) + full box header (4) + entry count (4) + entry size (4)
	const off = mp4.SmallHeaderSize + 12
	if len(stsd) < off+4 || binary.BigEndian.Uint32(stsd[mp4.SmallHeaderSize+4:]) == 0 {
		return ""
	}
	return string(stsd[off : off+4])
}
