//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-to-audio/cmd"
	"video-to-audio/infrastructure/config"

	"github.com/cucumber/godog"
)

type configContext struct {
	tempDir    string
	configPath string
	output     *bytes.Buffer
	err        error
}

var SharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedConfigContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.configPath = filepath.Join(tempDir, "config.yaml")
		testCtx.output = &bytes.Buffer{}
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a default config file$`, testCtx.aDefaultConfigFile)
	ctx.Step(`^I add library directory "([^"]*)"$`, testCtx.iAddLibraryDirectory)
	ctx.Step(`^I remove library directory "([^"]*)"$`, testCtx.iRemoveLibraryDirectory)
	ctx.Step(`^I add (video|audio) extension "([^"]*)"$`, testCtx.iAddExtension)
	ctx.Step(`^I show the config$`, testCtx.iShowTheConfig)
	ctx.Step(`^the saved config should list library directories "([^"]*)"$`, testCtx.theSavedConfigShouldListLibraryDirectories)
	ctx.Step(`^the saved config should include (video|audio) extension "([^"]*)"$`, testCtx.theSavedConfigShouldIncludeExtension)
	ctx.Step(`^the config command should fail because the entry (already exists|is not configured)$`, testCtx.theConfigCommandShouldFailBecause)
	ctx.Step(`^the config output should contain "([^"]*)"$`, testCtx.theConfigOutputShouldContain)
}

func (c *configContext) aDefaultConfigFile() error {
	return config.Save(config.Default(), c.configPath)
}

func (c *configContext) load() (*config.Config, error) {
	return config.Load(c.configPath)
}

func (c *configContext) iAddLibraryDirectory(dir string) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	c.err = cmd.RunConfigLibraryAddWithDependencies(cfg, c.configPath, dir, c.output)
	return nil
}

func (c *configContext) iRemoveLibraryDirectory(dir string) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	c.err = cmd.RunConfigLibraryRemoveWithDependencies(cfg, c.configPath, dir, c.output)
	return nil
}

func (c *configContext) iAddExtension(kind, ext string) error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	c.err = cmd.RunConfigExtensionAddWithDependencies(cfg, c.configPath, kind, ext, c.output)
	return nil
}

func (c *configContext) iShowTheConfig() error {
	cfg, err := c.load()
	if err != nil {
		return err
	}
	c.err = cmd.RunConfigShowWithDependencies(cfg, c.configPath, c.output)
	return nil
}

func (c *configContext) theSavedConfigShouldListLibraryDirectories(list string) error {
	if c.err != nil {
		return fmt.Errorf("config command failed: %w", c.err)
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}
	if got := strings.Join(cfg.Library.Directories, ","); got != list {
		return fmt.Errorf("library directories = %q, want %q", got, list)
	}
	return nil
}

func (c *configContext) theSavedConfigShouldIncludeExtension(kind, ext string) error {
	if c.err != nil {
		return fmt.Errorf("config command failed: %w", c.err)
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}
	exts := cfg.Library.AudioExtensions
	if kind == "video" {
		exts = cfg.Library.VideoExtensions
	}
	for _, e := range exts {
		if e == ext {
			return nil
		}
	}
	return fmt.Errorf("%s extension %q not found in %v", kind, ext, exts)
}

func (c *configContext) theConfigCommandShouldFailBecause(reason string) error {
	want := config.ErrDuplicateKey
	if reason == "is not configured" {
		want = config.ErrDirectoryNotFound
	}
	if !errors.Is(c.err, want) {
		return fmt.Errorf("expected %v, got %v", want, c.err)
	}
	return nil
}

func (c *configContext) theConfigOutputShouldContain(text string) error {
	if !strings.Contains(c.output.String(), text) {
		return fmt.Errorf("expected output to contain %q, got %q", text, c.output.String())
	}
	return nil
}
