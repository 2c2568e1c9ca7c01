//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-to-audio/cmd"
	"video-to-audio/infrastructure/filesystem"

	"github.com/cucumber/godog"
)

type concatContext struct {
	tempDir  string
	audioDir string
	mergeDir string
	contents map[string][]byte
	output   *bytes.Buffer
	err      error
}

var SharedConcatContext = &concatContext{}

func InitializeConcatScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedConcatContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "concat-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.audioDir = filepath.Join(tempDir, "Music")
		testCtx.mergeDir = filepath.Join(tempDir, "Music", "MergeMusic")
		testCtx.contents = make(map[string][]byte)
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, os.MkdirAll(testCtx.audioDir, 0755)
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^an audio file "([^"]*)" of (\d+) bytes$`, testCtx.anAudioFileOfBytes)
	ctx.Step(`^I join "([^"]*)" into "([^"]*)"$`, testCtx.iJoinInto)
	ctx.Step(`^I join nothing into "([^"]*)"$`, testCtx.iJoinNothingInto)
	ctx.Step(`^the join should succeed$`, testCtx.theJoinShouldSucceed)
	ctx.Step(`^the join should fail with "([^"]*)"$`, testCtx.theJoinShouldFailWith)
	ctx.Step(`^the merged file "([^"]*)" should be (\d+) bytes$`, testCtx.theMergedFileShouldBeBytes)
	ctx.Step(`^the merged file "([^"]*)" should hold "([^"]*)" in order$`, testCtx.theMergedFileShouldHoldInOrder)
	ctx.Step(`^the join output should report "([^"]*)" as skipped$`, testCtx.theJoinOutputShouldReportAsSkipped)
}

func (c *concatContext) anAudioFileOfBytes(name string, size int) error {
	// each file gets a distinct fill byte so order is checkable
	data := bytes.Repeat([]byte{byte(len(c.contents) + 1)}, size)
	c.contents[name] = data
	return os.WriteFile(filepath.Join(c.audioDir, name), data, 0644)
}

func (c *concatContext) sourcePaths(list string) []string {
	var paths []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			paths = append(paths, filepath.Join(c.audioDir, name))
		}
	}
	return paths
}

func (c *concatContext) join(sources []string, output string) {
	c.err = cmd.RunConcatWithDependencies(
		context.Background(),
		filesystem.NewOpener(),
		filesystem.NewSinks(),
		c.mergeDir,
		sources,
		output,
		c.output,
	)
}

func (c *concatContext) iJoinInto(list, output string) error {
	c.join(c.sourcePaths(list), output)
	return nil
}

func (c *concatContext) iJoinNothingInto(output string) error {
	c.join(nil, output)
	return nil
}

func (c *concatContext) theJoinShouldSucceed() error {
	if c.err != nil {
		return fmt.Errorf("expected success, got: %w", c.err)
	}
	if partials, err := partialFiles(c.mergeDir); err != nil || len(partials) > 0 {
		return fmt.Errorf("partial files left behind: %v %v", partials, err)
	}
	return nil
}

func (c *concatContext) theJoinShouldFailWith(code string) error {
	return expectCode(c.err, code)
}

func (c *concatContext) theMergedFileShouldBeBytes(name string, size int) error {
	info, err := os.Stat(filepath.Join(c.mergeDir, name))
	if err != nil {
		return err
	}
	if info.Size() != int64(size) {
		return fmt.Errorf("merged size = %d, want %d", info.Size(), size)
	}
	return nil
}

func (c *concatContext) theMergedFileShouldHoldInOrder(name, list string) error {
	got, err := os.ReadFile(filepath.Join(c.mergeDir, name))
	if err != nil {
		return err
	}
	var want []byte
	for _, src := range strings.Split(list, ",") {
		want = append(want, c.contents[strings.TrimSpace(src)]...)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("merged content does not match %s in order", list)
	}
	return nil
}

func (c *concatContext) theJoinOutputShouldReportAsSkipped(name string) error {
	want := "Skipped missing file: " + filepath.Join(c.audioDir, name)
	if !strings.Contains(c.output.String(), want) {
		return fmt.Errorf("expected output to contain %q, got %q", want, c.output.String())
	}
	return nil
}
