//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"video-to-audio/cmd"
	"video-to-audio/domain/media"
	"video-to-audio/infrastructure/filesystem"
	"video-to-audio/infrastructure/mp4"

	"github.com/cucumber/godog"
)

type extractContext struct {
	tempDir    string
	videoDir   string
	outputDir  string
	bufferSize int
	output     *bytes.Buffer
	err        error
}

var SharedExtractContext = &extractContext{}

func InitializeExtractScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedExtractContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "extract-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.videoDir = filepath.Join(tempDir, "Movies")
		testCtx.outputDir = filepath.Join(tempDir, "Music", "VideoMusic")
		testCtx.bufferSize = media.DefaultBufferSize
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, os.MkdirAll(testCtx.videoDir, 0755)
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a video "([^"]*)" with (\d+) video samples and (\d+) audio samples$`, testCtx.aVideoWithSamples)
	ctx.Step(`^a text file "([^"]*)" posing as a video$`, testCtx.aTextFilePosingAsAVideo)
	ctx.Step(`^a sample buffer of (\d+) bytes$`, testCtx.aSampleBufferOf)
	ctx.Step(`^I extract audio from "([^"]*)" as "([^"]*)"$`, testCtx.iExtractAudioFromAs)
	ctx.Step(`^I extract audio from "([^"]*)"$`, testCtx.iExtractAudioFrom)
	ctx.Step(`^the extraction should succeed$`, testCtx.theExtractionShouldSucceed)
	ctx.Step(`^the extraction should fail with "([^"]*)"$`, testCtx.theExtractionShouldFailWith)
	ctx.Step(`^the audio file "([^"]*)" should contain (\d+) audio samples$`, testCtx.theAudioFileShouldContainAudioSamples)
	ctx.Step(`^the audio file "([^"]*)" should not exist$`, testCtx.theAudioFileShouldNotExist)
	ctx.Step(`^no partial audio files should remain$`, testCtx.noPartialAudioFilesShouldRemain)
}

func (e *extractContext) aVideoWithSamples(name string, videoSamples, audioSamples int) error {
	return writeVideoFixture(filepath.Join(e.videoDir, name), videoSamples, audioSamples)
}

func (e *extractContext) aTextFilePosingAsAVideo(name string) error {
	return os.WriteFile(filepath.Join(e.videoDir, name), []byte("this is not a video\n"), 0644)
}

func (e *extractContext) aSampleBufferOf(size int) error {
	e.bufferSize = size
	return nil
}

func (e *extractContext) iExtractAudioFromAs(name, hint string) error {
	e.err = cmd.RunExtractAudioWithDependencies(
		context.Background(),
		mp4.NewDemuxer(),
		mp4.NewMuxerFactory(),
		filesystem.NewSinks(),
		filesystem.NewChecker(),
		nil,
		e.outputDir,
		e.bufferSize,
		filepath.Join(e.videoDir, name),
		hint,
		e.output,
	)
	return nil
}

func (e *extractContext) iExtractAudioFrom(name string) error {
	return e.iExtractAudioFromAs(name, media.NameHintFromSource(name))
}

func (e *extractContext) theExtractionShouldSucceed() error {
	if e.err != nil {
		return fmt.Errorf("expected success, got: %w", e.err)
	}
	return nil
}

func (e *extractContext) theExtractionShouldFailWith(code string) error {
	return expectCode(e.err, code)
}

func (e *extractContext) theAudioFileShouldContainAudioSamples(name string, count int) error {
	path := filepath.Join(e.outputDir, name)
	c, err := mp4.NewDemuxer().Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer c.Close()

	tracks := c.Tracks()
	if len(tracks) != 1 || !tracks[0].IsAudio() {
		return fmt.Errorf("expected exactly one audio track, got %+v", tracks)
	}
	if tracks[0].Timescale != fixtureAudioTrack.Timescale {
		return fmt.Errorf("timescale = %d, want %d", tracks[0].Timescale, fixtureAudioTrack.Timescale)
	}
	if err := c.SelectTrack(0); err != nil {
		return err
	}

	buf := make([]byte, 64*1024)
	for i := 0; ; i++ {
		s, err := c.ReadSample(buf)
		if errors.Is(err, io.EOF) {
			if i != count {
				return fmt.Errorf("read %d samples, want %d", i, count)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		want := fixtureAudioSample(i)
		if !bytes.Equal(s.Data, want.Data) {
			return fmt.Errorf("sample %d payload differs", i)
		}
		if s.DecodeTime != want.DecodeTime {
			return fmt.Errorf("sample %d decode time = %d, want %d", i, s.DecodeTime, want.DecodeTime)
		}
	}
}

func (e *extractContext) theAudioFileShouldNotExist(name string) error {
	path := filepath.Join(e.outputDir, name)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return fmt.Errorf("expected %s not to exist", path)
	}
	return nil
}

func (e *extractContext) noPartialAudioFilesShouldRemain() error {
	partials, err := partialFiles(e.outputDir)
	if err != nil {
		return err
	}
	if len(partials) > 0 {
		return fmt.Errorf("partial files left behind: %v", partials)
	}
	return nil
}
