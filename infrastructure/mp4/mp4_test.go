package mp4

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"video-to-audio/domain/media"

	"github.com/abema/go-mp4"
)

// sampleDescription builds a raw stsd box with a single entry of the given type.
// body is the entry length after its 8-byte header.
func sampleDescription(entryType string, body int) []byte {
	entrySize := 8 + body
	size := 16 + entrySize
	b := make([]byte, size)
	binary.BigEndian.PutUint32(b[0:], uint32(size))
	copy(b[4:], "stsd")
	binary.BigEndian.PutUint32(b[12:], 1)
	binary.BigEndian.PutUint32(b[16:], uint32(entrySize))
	copy(b[20:], entryType)
	binary.BigEndian.PutUint16(b[30:], 1) // data reference index
	return b
}

var (
	videoTrack = media.Track{
		MediaType: "video/avc",
		Timescale: 90000,
		Format:    sampleDescription("avc1", 78),
	}
	audioTrack = media.Track{
		MediaType: "audio/mp4a-latm",
		Timescale: 44100,
		Format:    sampleDescription("mp4a", 28),
	}
)

func videoSample(i int) media.Sample {
	s := media.Sample{
		Data:       bytes.Repeat([]byte{byte(i)}, 300+i*3),
		DecodeTime: uint64(i) * 3000,
		Duration:   3000,
	}
	// reordered frames carry a presentation delay
	if i%3 != 0 {
		s.CompositionOffset = 6000
	}
	if i%10 == 0 {
		s.Flags = media.SampleFlagSync
	}
	return s
}

func audioSample(i int) media.Sample {
	return media.Sample{
		Data:       bytes.Repeat([]byte{0xa0 + byte(i%16)}, 180+(i*11)%40),
		DecodeTime: uint64(i) * 1024,
		Duration:   1024,
		Flags:      media.SampleFlagSync,
	}
}

// writeFixture muxes an interleaved video and audio file into dir
func writeFixture(t *testing.T, dir string, videoSamples, audioSamples int) string {
	t.Helper()

	path := filepath.Join(dir, "fixture.mp4")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating fixture: %v", err)
	}
	defer f.Close()

	m := NewMuxer(f)
	v, err := m.AddTrack(videoTrack)
	if err != nil {
		t.Fatalf("AddTrack(video) error: %v", err)
	}
	a, err := m.AddTrack(audioTrack)
	if err != nil {
		t.Fatalf("AddTrack(audio) error: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	vi, ai := 0, 0
	for vi < videoSamples || ai < audioSamples {
		if vi < videoSamples {
			if err := m.WriteSample(v, videoSample(vi)); err != nil {
				t.Fatalf("WriteSample(video %d) error: %v", vi, err)
			}
			vi++
		}
		for k := 0; k < 3 && ai < audioSamples; k++ {
			if err := m.WriteSample(a, audioSample(ai)); err != nil {
				t.Fatalf("WriteSample(audio %d) error: %v", ai, err)
			}
			ai++
		}
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	return path
}

// remuxFirstAudio copies the first audio track of src into dst
func remuxFirstAudio(t *testing.T, src, dst string) {
	t.Helper()

	c, err := NewDemuxer().Open(src)
	if err != nil {
		t.Fatalf("Open(%s) error: %v", src, err)
	}
	defer c.Close()

	track, ok := media.FirstAudioTrack(c.Tracks())
	if !ok {
		t.Fatal("no audio track in fixture")
	}
	if err := c.SelectTrack(track.Index); err != nil {
		t.Fatalf("SelectTrack() error: %v", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		t.Fatalf("creating output: %v", err)
	}
	defer f.Close()

	m := NewMuxerFactory().NewMuxer(f)
	out, err := m.AddTrack(track)
	if err != nil {
		t.Fatalf("AddTrack() error: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	buf := make([]byte, media.DefaultBufferSize)
	for {
		s, err := c.ReadSample(buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadSample() error: %v", err)
		}
		if err := m.WriteSample(out, s); err != nil {
			t.Fatalf("WriteSample() error: %v", err)
		}
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
}

func readAll(t *testing.T, c media.Container, index int) []media.Sample {
	t.Helper()

	if err := c.SelectTrack(index); err != nil {
		t.Fatalf("SelectTrack(%d) error: %v", index, err)
	}
	var samples []media.Sample
	buf := make([]byte, 4096)
	for {
		s, err := c.ReadSample(buf)
		if errors.Is(err, io.EOF) {
			return samples
		}
		if err != nil {
			t.Fatalf("ReadSample() error after %d samples: %v", len(samples), err)
		}
		s.Data = append([]byte(nil), s.Data...)
		samples = append(samples, s)
	}
}

func assertSamplesEqual(t *testing.T, got []media.Sample, want func(int) media.Sample, n int) {
	t.Helper()

	if len(got) != n {
		t.Fatalf("got %d samples, want %d", len(got), n)
	}
	for i, s := range got {
		w := want(i)
		if !bytes.Equal(s.Data, w.Data) {
			t.Errorf("sample %d: data differs (%d bytes, want %d)", i, len(s.Data), len(w.Data))
		}
		if s.DecodeTime != w.DecodeTime {
			t.Errorf("sample %d: DecodeTime = %d, want %d", i, s.DecodeTime, w.DecodeTime)
		}
		if s.CompositionOffset != w.CompositionOffset {
			t.Errorf("sample %d: CompositionOffset = %d, want %d", i, s.CompositionOffset, w.CompositionOffset)
		}
		if s.Duration != w.Duration {
			t.Errorf("sample %d: Duration = %d, want %d", i, s.Duration, w.Duration)
		}
		if s.IsSync() != w.IsSync() {
			t.Errorf("sample %d: IsSync() = %v, want %v", i, s.IsSync(), w.IsSync())
		}
	}
}

func TestDemuxer_Open_Tracks(t *testing.T) {
	path := writeFixture(t, t.TempDir(), 30, 90)

	c, err := NewDemuxer().Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer c.Close()

	tracks := c.Tracks()
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}

	tests := []struct {
		index     int
		mediaType string
		timescale uint32
		samples   int
		duration  uint64
		id        uint32
	}{
		{index: 0, mediaType: "video/avc", timescale: 90000, samples: 30, duration: 30 * 3000, id: 1},
		{index: 1, mediaType: "audio/mp4a-latm", timescale: 44100, samples: 90, duration: 90 * 1024, id: 2},
	}
	for _, tt := range tests {
		got := tracks[tt.index]
		if got.Index != tt.index || got.ID != tt.id {
			t.Errorf("track %d: Index/ID = %d/%d, want %d/%d", tt.index, got.Index, got.ID, tt.index, tt.id)
		}
		if got.MediaType != tt.mediaType {
			t.Errorf("track %d: MediaType = %q, want %q", tt.index, got.MediaType, tt.mediaType)
		}
		if got.Timescale != tt.timescale {
			t.Errorf("track %d: Timescale = %d, want %d", tt.index, got.Timescale, tt.timescale)
		}
		if got.SampleCount != tt.samples {
			t.Errorf("track %d: SampleCount = %d, want %d", tt.index, got.SampleCount, tt.samples)
		}
		if got.Duration != tt.duration {
			t.Errorf("track %d: Duration = %d, want %d", tt.index, got.Duration, tt.duration)
		}
	}

	if !bytes.Equal(tracks[1].Format, audioTrack.Format) {
		t.Error("audio sample description was not preserved")
	}

	track, ok := media.FirstAudioTrack(tracks)
	if !ok || track.Index != 1 {
		t.Errorf("FirstAudioTrack() = %d, %v; want 1, true", track.Index, ok)
	}
}

func TestDemuxer_ReadSamples(t *testing.T) {
	path := writeFixture(t, t.TempDir(), 25, 80)

	c, err := NewDemuxer().Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer c.Close()

	assertSamplesEqual(t, readAll(t, c, 0), videoSample, 25)
	assertSamplesEqual(t, readAll(t, c, 1), audioSample, 80)
}

func TestRemux_PreservesAudioTrack(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, 40, 120)
	dst := filepath.Join(dir, "audio.m4a")

	remuxFirstAudio(t, src, dst)

	c, err := NewDemuxer().Open(dst)
	if err != nil {
		t.Fatalf("Open(output) error: %v", err)
	}
	defer c.Close()

	tracks := c.Tracks()
	if len(tracks) != 1 {
		t.Fatalf("output has %d tracks, want 1", len(tracks))
	}
	if tracks[0].MediaType != "audio/mp4a-latm" || tracks[0].Timescale != 44100 {
		t.Errorf("output track = %s @ %d, want audio/mp4a-latm @ 44100", tracks[0].MediaType, tracks[0].Timescale)
	}
	if !bytes.Equal(tracks[0].Format, audioTrack.Format) {
		t.Error("output sample description differs from the source")
	}

	samples := readAll(t, c, 0)
	assertSamplesEqual(t, samples, audioSample, 120)
	for i, s := range samples {
		want := audioSample(i).PresentationTimeUs(44100)
		if got := s.PresentationTimeUs(tracks[0].Timescale); got != want {
			t.Errorf("sample %d: pts = %dus, want %dus", i, got, want)
		}
	}

	raw, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(raw[8:12]) != "M4A " {
		t.Errorf("major brand = %q, want %q", raw[8:12], "M4A ")
	}
}

func TestRemux_IsDeterministic(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, 10, 30)
	first := filepath.Join(dir, "first.m4a")
	second := filepath.Join(dir, "second.m4a")

	remuxFirstAudio(t, src, first)
	remuxFirstAudio(t, src, second)

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("repeated remux produced different bytes")
	}
}

func TestFile_ReadSample_BufferTooSmall(t *testing.T) {
	path := writeFixture(t, t.TempDir(), 2, 4)

	c, err := NewDemuxer().Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer c.Close()

	if err := c.SelectTrack(1); err != nil {
		t.Fatal(err)
	}
	_, err = c.ReadSample(make([]byte, 16))
	if !errors.Is(err, media.ErrSampleTooLarge) {
		t.Fatalf("ReadSample() error = %v, want ErrSampleTooLarge", err)
	}

	// the sample is still readable with a large enough buffer
	s, err := c.ReadSample(make([]byte, 1024))
	if err != nil {
		t.Fatalf("ReadSample() retry error: %v", err)
	}
	if !bytes.Equal(s.Data, audioSample(0).Data) {
		t.Error("retry returned the wrong sample")
	}
}

func TestFile_ReadSample_NoTrackSelected(t *testing.T) {
	path := writeFixture(t, t.TempDir(), 1, 1)

	c, err := NewDemuxer().Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer c.Close()

	if _, err := c.ReadSample(make([]byte, 1024)); err == nil || errors.Is(err, io.EOF) {
		t.Errorf("ReadSample() error = %v, want a selection error", err)
	}
	if err := c.SelectTrack(5); err == nil {
		t.Error("SelectTrack(5) should fail for a two-track file")
	}
}

func TestFile_ReadSample_Truncated(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, 5, 15)

	c, err := NewDemuxer().Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	tracks := c.Tracks()
	c.Close()

	// rewrite the file with the media data cut short but the movie box intact
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	f, err := NewFile(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("NewFile() error: %v", err)
	}
	last := f.tracks[1]
	end := last.offsets[len(last.offsets)-1]
	truncated := &truncatedReader{data: raw, limit: int64(end)}

	f.r = truncated
	if err := f.SelectTrack(1); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 1024)
	var readErr error
	for i := 0; i < tracks[1].SampleCount; i++ {
		if _, readErr = f.ReadSample(buf); readErr != nil {
			break
		}
	}
	if readErr == nil || errors.Is(readErr, io.EOF) {
		t.Errorf("ReadSample() error = %v, want an unexpected EOF", readErr)
	}
}

// truncatedReader serves data but pretends the file ends at limit
type truncatedReader struct {
	data  []byte
	limit int64
	pos   int64
}

func (r *truncatedReader) Read(p []byte) (int, error) {
	if r.pos >= r.limit {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:r.limit])
	r.pos += int64(n)
	return n, nil
}

func (r *truncatedReader) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		r.pos = offset
	case io.SeekCurrent:
		r.pos += offset
	case io.SeekEnd:
		r.pos = r.limit + offset
	}
	return r.pos, nil
}

func TestDemuxer_Open_Errors(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(garbage, []byte("this is not a movie at all, just text"), 0644); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.mp4")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.mp4")},
		{name: "not a container", path: garbage},
		{name: "empty file", path: empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewDemuxer().Open(tt.path)
			if err == nil {
				c.Close()
				t.Fatal("Open() expected error, got nil")
			}
		})
	}
}

// patchTable overwrites the 32-bit payload word at index word of the given
// sample table box of a track. Word 0 is the version and flags.
func patchTable(t *testing.T, data []byte, track int, typ mp4.BoxType, word int, value uint32) {
	t.Helper()

	boxes, err := mp4.ExtractBoxes(bytes.NewReader(data), nil, []mp4.BoxPath{{
		mp4.BoxTypeMoov(), mp4.BoxTypeTrak(), mp4.BoxTypeMdia(), mp4.BoxTypeMinf(), mp4.BoxTypeStbl(), typ,
	}})
	if err != nil {
		t.Fatalf("locating %s: %v", typ, err)
	}
	if track >= len(boxes) {
		t.Fatalf("track %d has no %s box (%d found)", track, typ, len(boxes))
	}
	bi := boxes[track]
	binary.BigEndian.PutUint32(data[bi.Offset+bi.HeaderSize+uint64(4*word):], value)
}

func TestDemuxer_Open_MalformedTables(t *testing.T) {
	// 12 video samples with sync samples 1 and 11; 36 audio samples in 12 chunks of 3
	const video, audio = 0, 1
	pristine, err := os.ReadFile(writeFixture(t, t.TempDir(), 12, 36))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		patch func(t *testing.T, data []byte)
	}{
		{
			name: "stts declares four billion samples",
			patch: func(t *testing.T, data []byte) {
				patchTable(t, data, audio, mp4.BoxTypeStts(), 2, 0xFFFFFFFF)
			},
		},
		{
			name: "stts and stsz disagree",
			patch: func(t *testing.T, data []byte) {
				patchTable(t, data, audio, mp4.BoxTypeStts(), 2, 35)
			},
		},
		{
			name: "shared sample size larger than the file",
			patch: func(t *testing.T, data []byte) {
				patchTable(t, data, audio, mp4.BoxTypeStsz(), 1, 1000)
				patchTable(t, data, audio, mp4.BoxTypeStsz(), 2, 0xFFFFFFFF)
			},
		},
		{
			name: "stsc refers to chunk 0",
			patch: func(t *testing.T, data []byte) {
				patchTable(t, data, audio, mp4.BoxTypeStsc(), 2, 0)
			},
		},
		{
			name: "chunks hold fewer samples than stsz lists",
			patch: func(t *testing.T, data []byte) {
				patchTable(t, data, audio, mp4.BoxTypeStsc(), 3, 2)
			},
		},
		{
			name: "stss refers to a sample past the end",
			patch: func(t *testing.T, data []byte) {
				patchTable(t, data, video, mp4.BoxTypeStss(), 2, 99)
			},
		},
		{
			name: "stss refers to sample 0",
			patch: func(t *testing.T, data []byte) {
				patchTable(t, data, video, mp4.BoxTypeStss(), 2, 0)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := bytes.Clone(pristine)
			tt.patch(t, data)

			path := filepath.Join(t.TempDir(), "broken.mp4")
			if err := os.WriteFile(path, data, 0644); err != nil {
				t.Fatal(err)
			}

			c, err := NewDemuxer().Open(path)
			if err == nil {
				c.Close()
				t.Fatal("Open() expected error, got nil")
			}
		})
	}
}

func TestTrackTable_RejectsImpossibleCounts(t *testing.T) {
	t.Run("shared size beyond file size", func(t *testing.T) {
		var tt trackTable
		err := tt.buildSizes(&mp4.Stsz{SampleSize: 1000, SampleCount: 0xFFFFFFFF}, 2048)
		if err == nil {
			t.Fatal("buildSizes() expected error, got nil")
		}
		if tt.sizes != nil {
			t.Errorf("sizes allocated for a rejected table: %d entries", len(tt.sizes))
		}
	})

	t.Run("shared size within file size", func(t *testing.T) {
		var tt trackTable
		if err := tt.buildSizes(&mp4.Stsz{SampleSize: 100, SampleCount: 20}, 2048); err != nil {
			t.Fatalf("buildSizes() unexpected error: %v", err)
		}
		if len(tt.sizes) != 20 {
			t.Errorf("len(sizes) = %d, want 20", len(tt.sizes))
		}
	})

	t.Run("stts count beyond stsz count", func(t *testing.T) {
		tt := trackTable{sizes: []uint32{10, 10, 10, 10}}
		stts := &mp4.Stts{Entries: []mp4.SttsEntry{
			{SampleCount: 2, SampleDelta: 1024},
			{SampleCount: 0xFFFFFFFF, SampleDelta: 1024},
			{SampleCount: 0xFFFFFFFF, SampleDelta: 1024},
		}}
		if err := tt.buildTimes(stts, nil); err == nil {
			t.Fatal("buildTimes() expected error, got nil")
		}
		if tt.times != nil {
			t.Errorf("times allocated for a rejected table: %d entries", len(tt.times))
		}
	})

	t.Run("stts count matches", func(t *testing.T) {
		tt := trackTable{sizes: []uint32{10, 10, 10, 10}}
		stts := &mp4.Stts{Entries: []mp4.SttsEntry{
			{SampleCount: 3, SampleDelta: 1024},
			{SampleCount: 1, SampleDelta: 512},
		}}
		if err := tt.buildTimes(stts, nil); err != nil {
			t.Fatalf("buildTimes() unexpected error: %v", err)
		}
		want := []uint64{0, 1024, 2048, 3072}
		for i, w := range want {
			if tt.times[i] != w {
				t.Errorf("times[%d] = %d, want %d", i, tt.times[i], w)
			}
		}
	})
}

// largeHeader rewrites a compact box with a 64-bit size header
func largeHeader(box []byte) []byte {
	out := make([]byte, len(box)+8)
	binary.BigEndian.PutUint32(out, 1)
	copy(out[4:8], box[4:8])
	binary.BigEndian.PutUint64(out[8:], uint64(len(out)))
	copy(out[16:], box[8:])
	return out
}

func TestReadRawBox_CompactsLargeHeader(t *testing.T) {
	compact := sampleDescription("mp4a", 28)
	r := bytes.NewReader(largeHeader(compact))

	boxes, err := mp4.ExtractBox(r, nil, mp4.BoxPath{mp4.BoxTypeStsd()})
	if err != nil || len(boxes) != 1 {
		t.Fatalf("ExtractBox() = %d boxes, %v", len(boxes), err)
	}
	if boxes[0].HeaderSize != mp4.LargeHeaderSize {
		t.Fatalf("HeaderSize = %d, want %d", boxes[0].HeaderSize, mp4.LargeHeaderSize)
	}

	raw, err := readRawBox(r, boxes[0])
	if err != nil {
		t.Fatalf("readRawBox() error: %v", err)
	}
	if !bytes.Equal(raw, compact) {
		t.Errorf("readRawBox() = %x, want %x", raw, compact)
	}
	if got := sampleEntryType(raw); got != "mp4a" {
		t.Errorf("sampleEntryType() = %q, want mp4a", got)
	}
}

func TestMuxer_AddTrack_AcceptsLargeHeaderFormat(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.m4a"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	track := audioTrack
	track.Format = largeHeader(audioTrack.Format)
	if _, err := NewMuxer(f).AddTrack(track); err != nil {
		t.Errorf("AddTrack() unexpected error: %v", err)
	}
}

func TestMuxer_AddTrack_Rejects(t *testing.T) {
	badSize := sampleDescription("mp4a", 28)
	binary.BigEndian.PutUint32(badSize, 99)

	tests := []struct {
		name  string
		track media.Track
	}{
		{name: "subtitle track", track: media.Track{MediaType: "text/3gpp-tt", Timescale: 1000, Format: sampleDescription("tx3g", 30)}},
		{name: "zero timescale", track: media.Track{MediaType: "audio/mp4a-latm", Format: audioTrack.Format}},
		{name: "missing format", track: media.Track{MediaType: "audio/mp4a-latm", Timescale: 44100}},
		{name: "format is not stsd", track: media.Track{MediaType: "audio/mp4a-latm", Timescale: 44100, Format: bytes.Repeat([]byte{1}, 32)}},
		{name: "format size mismatch", track: media.Track{MediaType: "audio/mp4a-latm", Timescale: 44100, Format: badSize}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := os.Create(filepath.Join(t.TempDir(), "out.m4a"))
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()

			if _, err := NewMuxer(f).AddTrack(tt.track); err == nil {
				t.Error("AddTrack() expected error, got nil")
			}
		})
	}
}

func TestMuxer_StateErrors(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.m4a"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	m := NewMuxer(f)
	if err := m.Start(); err == nil {
		t.Error("Start() without tracks should fail")
	}
	if err := m.WriteSample(0, audioSample(0)); !errors.Is(err, errMuxerNotStarted) {
		t.Errorf("WriteSample() before Start() error = %v, want errMuxerNotStarted", err)
	}

	a, err := m.AddTrack(audioTrack)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddTrack(audioTrack); !errors.Is(err, errMuxerStarted) {
		t.Errorf("AddTrack() after Start() error = %v, want errMuxerStarted", err)
	}
	if err := m.WriteSample(a, audioSample(5)); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteSample(a, audioSample(4)); err == nil {
		t.Error("WriteSample() with a decreasing decode time should fail")
	}
	if err := m.WriteSample(3, audioSample(6)); err == nil {
		t.Error("WriteSample() to an unknown track should fail")
	}
	if err := m.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := m.Stop(); !errors.Is(err, errMuxerNotStarted) {
		t.Errorf("second Stop() error = %v, want errMuxerNotStarted", err)
	}
}

func TestMediaType(t *testing.T) {
	tests := []struct {
		handler string
		entry   string
		want    string
	}{
		{handler: "soun", entry: "mp4a", want: "audio/mp4a-latm"},
		{handler: "soun", entry: ".mp3", want: "audio/mpeg"},
		{handler: "soun", entry: "Opus", want: "audio/opus"},
		{handler: "soun", entry: "mp4v", want: "audio/mp4v"},
		{handler: "soun", entry: "XYZW", want: "audio/xyzw"},
		{handler: "soun", entry: "", want: "audio/unknown"},
		{handler: "vide", entry: "avc1", want: "video/avc"},
		{handler: "vide", entry: "hvc1", want: "video/hevc"},
		{handler: "vide", entry: "abcd", want: "video/abcd"},
		{handler: "text", entry: "tx3g", want: "text/3gpp-tt"},
		{handler: "sbtl", entry: "zzzz", want: "application/zzzz"},
	}

	for _, tt := range tests {
		t.Run(tt.handler+"/"+tt.entry, func(t *testing.T) {
			if got := mediaType(tt.handler, tt.entry); got != tt.want {
				t.Errorf("mediaType(%q, %q) = %q, want %q", tt.handler, tt.entry, got, tt.want)
			}
		})
	}
}
