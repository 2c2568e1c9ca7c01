//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"video-to-audio/cmd"
	"video-to-audio/domain/library"
	"video-to-audio/infrastructure/config"
	"video-to-audio/infrastructure/filesystem"

	"github.com/cucumber/godog"
	"gopkg.in/yaml.v3"
)

type libraryContext struct {
	tempDir      string
	libraryDir   string
	ringtoneDir  string
	ringtoneFile string
	output       *bytes.Buffer
	err          error
}

var SharedLibraryContext = &libraryContext{}

func InitializeLibraryScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedLibraryContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "library-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.libraryDir = filepath.Join(tempDir, "Library")
		testCtx.ringtoneDir = filepath.Join(tempDir, "Ringtones")
		testCtx.ringtoneFile = filepath.Join(tempDir, "ringtone.yaml")
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, os.MkdirAll(testCtx.libraryDir, 0755)
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a library file "([^"]*)" added (\d+) minutes ago$`, testCtx.aLibraryFileAddedMinutesAgo)
	ctx.Step(`^I list "([^"]*)" media$`, testCtx.iListMedia)
	ctx.Step(`^the listing should be:$`, testCtx.theListingShouldBe)
	ctx.Step(`^the listing should be empty$`, testCtx.theListingShouldBeEmpty)
	ctx.Step(`^the listing should fail with "([^"]*)"$`, testCtx.theListingShouldFailWith)
	ctx.Step(`^I set "([^"]*)" as the ringtone$`, testCtx.iSetAsTheRingtone)
	ctx.Step(`^the ringtone should be set to "([^"]*)"$`, testCtx.theRingtoneShouldBeSetTo)
	ctx.Step(`^the ringtone should fail with "([^"]*)"$`, testCtx.theRingtoneShouldFailWith)
}

func (l *libraryContext) aLibraryFileAddedMinutesAgo(name string, minutes int) error {
	path := filepath.Join(l.libraryDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(name), 0644); err != nil {
		return err
	}
	added := time.Now().Add(-time.Duration(minutes) * time.Minute)
	return os.Chtimes(path, added, added)
}

func (l *libraryContext) iListMedia(kind string) error {
	defaults := config.Default().Library
	index := filesystem.NewIndex([]string{l.libraryDir}, defaults.VideoExtensions, defaults.AudioExtensions)
	l.err = cmd.RunListMediaWithDependencies(context.Background(), index, kind, true, l.output)
	return nil
}

func (l *libraryContext) listed() ([]string, error) {
	if l.err != nil {
		return nil, fmt.Errorf("listing failed: %w", l.err)
	}
	var entries []library.Entry
	if err := yaml.Unmarshal(l.output.Bytes(), &entries); err != nil {
		return nil, fmt.Errorf("parsing listing: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		rel, err := filepath.Rel(l.libraryDir, e.Path)
		if err != nil {
			return nil, err
		}
		names = append(names, filepath.ToSlash(rel))
	}
	return names, nil
}

func (l *libraryContext) theListingShouldBe(table *godog.Table) error {
	got, err := l.listed()
	if err != nil {
		return err
	}
	var want []string
	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header row
		}
		want = append(want, row.Cells[0].Value)
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("listing = %v, want %v", got, want)
	}
	return nil
}

func (l *libraryContext) theListingShouldBeEmpty() error {
	got, err := l.listed()
	if err != nil {
		return err
	}
	if len(got) != 0 {
		return fmt.Errorf("expected empty listing, got %v", got)
	}
	return nil
}

func (l *libraryContext) theListingShouldFailWith(code string) error {
	return expectCode(l.err, code)
}

func (l *libraryContext) iSetAsTheRingtone(name string) error {
	registrar := filesystem.NewRingtones(l.ringtoneDir, l.ringtoneFile)
	l.err = cmd.RunSetRingtoneWithDependencies(
		context.Background(),
		registrar,
		filesystem.NewChecker(),
		filepath.Join(l.libraryDir, name),
		l.output,
	)
	return nil
}

func (l *libraryContext) theRingtoneShouldBeSetTo(name string) error {
	if l.err != nil {
		return fmt.Errorf("expected success, got: %w", l.err)
	}
	copied := filepath.Join(l.ringtoneDir, filepath.Base(name))
	if _, err := os.Stat(copied); err != nil {
		return fmt.Errorf("ringtone copy missing: %w", err)
	}

	state, err := filesystem.NewRingtones(l.ringtoneDir, l.ringtoneFile).Current()
	if err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("no ringtone state recorded")
	}
	if state.Source != filepath.Join(l.libraryDir, name) || state.Default != copied {
		return fmt.Errorf("unexpected ringtone state %+v", state)
	}
	return nil
}

func (l *libraryContext) theRingtoneShouldFailWith(code string) error {
	return expectCode(l.err, code)
}
