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
	"video-to-audio/infrastructure/config"
	"video-to-audio/infrastructure/filesystem"

	"github.com/cucumber/godog"
)

// answer is one scripted reply to a setup prompt
type answer struct {
	confirm bool // true for yes/no questions
	value   string
}

// ScriptedPrompter implements cmd.Prompter by replaying answers in prompt order
type ScriptedPrompter struct {
	answers []answer
	asked   []string
}

func (p *ScriptedPrompter) next(message string, confirm bool) (answer, bool, error) {
	p.asked = append(p.asked, message)
	if len(p.answers) == 0 {
		return answer{}, false, nil
	}
	a := p.answers[0]
	if a.confirm != confirm {
		return answer{}, false, fmt.Errorf("prompt %q answered with %q of the wrong kind", message, a.value)
	}
	p.answers = p.answers[1:]
	return a, true, nil
}

func (p *ScriptedPrompter) Input(message string, defaultValue string) (string, error) {
	a, ok, err := p.next(message, false)
	if err != nil {
		return "", err
	}
	if !ok {
		return defaultValue, nil
	}
	return a.value, nil
}

func (p *ScriptedPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	a, ok, err := p.next(message, true)
	if err != nil {
		return false, err
	}
	if !ok {
		return defaultValue, nil
	}
	return strings.EqualFold(a.value, "y"), nil
}

type setupContext struct {
	workDir    string
	configPath string
	before     []byte
	prompter   *ScriptedPrompter
	out        *bytes.Buffer
	err        error
}

var SharedSetupContext = &setupContext{}

func InitializeSetupScenario(ctx *godog.ScenarioContext) {
	sc := SharedSetupContext

	ctx.Before(func(c context.Context, _ *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "setup-test-*")
		if err != nil {
			return c, err
		}
		*sc = setupContext{
			workDir:    dir,
			configPath: filepath.Join(dir, "config", "config.yaml"),
			out:        &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		if sc.workDir != "" {
			os.RemoveAll(sc.workDir)
		}
		return c, nil
	})

	ctx.Step(`^no config file exists for setup$`, sc.noConfigFile)
	ctx.Step(`^a config file already exists for setup$`, sc.existingConfigFile)
	ctx.Step(`^I run the setup command with inputs:$`, sc.runSetupWithTable)
	ctx.Step(`^I run the setup command with confirmation "([^"]*)"$`, sc.runSetupWithConfirmation)
	ctx.Step(`^a config file should exist$`, sc.configFileExists)
	ctx.Step(`^the config should have music_directory "([^"]*)"$`, sc.musicDirectoryIs)
	ctx.Step(`^the config should have extract_directory "([^"]*)"$`, sc.extractDirectoryIs)
	ctx.Step(`^the config should list library directory "([^"]*)"$`, sc.libraryDirectoryListed)
	ctx.Step(`^the config should have ffmpeg fallback (enabled|disabled)$`, sc.fallbackIs)
	ctx.Step(`^the folder "([^"]*)" should exist$`, sc.folderExists)
	ctx.Step(`^the setup should be cancelled$`, sc.setupCancelled)
	ctx.Step(`^the existing config should be unchanged$`, sc.configUnchanged)
}

// expand substitutes the scenario work directory for {tmp}
func (s *setupContext) expand(value string) string {
	return strings.ReplaceAll(value, "{tmp}", s.workDir)
}

func (s *setupContext) noConfigFile() error {
	return os.MkdirAll(filepath.Dir(s.configPath), 0755)
}

func (s *setupContext) existingConfigFile() error {
	cfg := config.Default()
	cfg.Paths.MusicDirectory = "/original/Music"
	cfg.Extract.FFmpegFallback = true
	if err := config.Save(cfg, s.configPath); err != nil {
		return err
	}

	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return err
	}
	s.before = data
	return nil
}

func (s *setupContext) run() {
	s.err = cmd.RunSetupWithPrompter(s.prompter, s.configPath, filesystem.NewFolders(), s.out)
}

// runSetupWithTable answers prompts in table order. Prompts starting with a
// verb (add, scan, use) are yes/no questions.
func (s *setupContext) runSetupWithTable(table *godog.Table) error {
	s.prompter = &ScriptedPrompter{}
	for _, row := range table.Rows[1:] {
		prompt := strings.ToLower(row.Cells[0].Value)
		confirm := false
		for _, verb := range []string{"add", "scan", "use"} {
			if strings.HasPrefix(prompt, verb) {
				confirm = true
			}
		}
		s.prompter.answers = append(s.prompter.answers, answer{confirm: confirm, value: s.expand(row.Cells[1].Value)})
	}

	s.run()
	if s.err != nil {
		return fmt.Errorf("setup failed after prompts %q: %w", s.prompter.asked, s.err)
	}
	if len(s.prompter.answers) > 0 {
		return fmt.Errorf("%d answers were never asked for", len(s.prompter.answers))
	}
	return nil
}

func (s *setupContext) runSetupWithConfirmation(reply string) error {
	s.prompter = &ScriptedPrompter{answers: []answer{{confirm: true, value: reply}}}
	s.run()
	return nil
}

func (s *setupContext) savedConfig() (*config.Config, error) {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return nil, fmt.Errorf("reading saved config: %w", err)
	}
	return cfg, nil
}

func (s *setupContext) configFileExists() error {
	if _, err := os.Stat(s.configPath); err != nil {
		return fmt.Errorf("config file missing: %w", err)
	}
	return nil
}

func (s *setupContext) musicDirectoryIs(want string) error {
	cfg, err := s.savedConfig()
	if err != nil {
		return err
	}
	if got := cfg.Paths.MusicDirectory; got != s.expand(want) {
		return fmt.Errorf("music_directory = %q, want %q", got, s.expand(want))
	}
	return nil
}

func (s *setupContext) extractDirectoryIs(want string) error {
	cfg, err := s.savedConfig()
	if err != nil {
		return err
	}
	if got := cfg.Paths.ExtractDirectory; got != want {
		return fmt.Errorf("extract_directory = %q, want %q", got, want)
	}
	return nil
}

func (s *setupContext) libraryDirectoryListed(want string) error {
	cfg, err := s.savedConfig()
	if err != nil {
		return err
	}
	for _, d := range cfg.Library.Directories {
		if d == s.expand(want) {
			return nil
		}
	}
	return fmt.Errorf("%q not among library directories %v", s.expand(want), cfg.Library.Directories)
}

func (s *setupContext) fallbackIs(state string) error {
	cfg, err := s.savedConfig()
	if err != nil {
		return err
	}
	if want := state == "enabled"; cfg.Extract.FFmpegFallback != want {
		return fmt.Errorf("ffmpeg_fallback = %v, want %v", cfg.Extract.FFmpegFallback, want)
	}
	return nil
}

func (s *setupContext) folderExists(path string) error {
	info, err := os.Stat(s.expand(path))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.expand(path))
	}
	return nil
}

func (s *setupContext) setupCancelled() error {
	if s.err != nil {
		return fmt.Errorf("declining the overwrite should not fail: %w", s.err)
	}
	if !strings.Contains(s.out.String(), "Setup cancelled.") {
		return fmt.Errorf("expected cancellation message, got %q", s.out.String())
	}
	return nil
}

func (s *setupContext) configUnchanged() error {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return err
	}
	if !bytes.Equal(data, s.before) {
		return fmt.Errorf("config was rewritten")
	}
	return nil
}
