package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"video-to-audio/domain/library"
	"video-to-audio/domain/media"

	"gopkg.in/yaml.v3"
)

// RingtoneState is the persisted default ringtone selection
type RingtoneState struct {
	Default string    `yaml:"default"` // registered copy inside the ringtone directory
	Source  string    `yaml:"source"`  // file the copy was made from
	SetAt   time.Time `yaml:"set_at"`
}

// Ringtones implements library.RingtoneRegistrar. A registered ringtone is
// copied into the ringtone directory and recorded in a YAML state file.
type Ringtones struct {
	dir       string
	stateFile string
	sinks     *Sinks
	now       func() time.Time
}

// RingtonesOption is a functional option for configuring Ringtones
type RingtonesOption func(*Ringtones)

// WithClock sets the time source used for SetAt
func WithClock(now func() time.Time) RingtonesOption {
	return func(r *Ringtones) {
		r.now = now
	}
}

// NewRingtones creates a registrar storing copies in dir and state in stateFile
func NewRingtones(dir, stateFile string, opts ...RingtonesOption) *Ringtones {
	r := &Ringtones{
		dir:       dir,
		stateFile: stateFile,
		sinks:     NewSinks(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// SetDefault copies path into the ringtone directory and records it as the default
func (r *Ringtones) SetDefault(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s does not exist", media.ErrSourceUnreadable, path)
		}
		return "", fmt.Errorf("%w: opening %s: %w", media.ErrIOFailure, path, err)
	}
	defer src.Close()

	dest := filepath.Join(r.dir, filepath.Base(path))
	if err := r.writeAtomic(dest, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	}); err != nil {
		return "", fmt.Errorf("%w: copying ringtone: %w", media.ErrIOFailure, err)
	}

	state := RingtoneState{
		Default: dest,
		Source:  path,
		SetAt:   r.now().UTC().Truncate(time.Second),
	}
	data, err := yaml.Marshal(&state)
	if err != nil {
		return "", fmt.Errorf("failed to serialize ringtone state: %w", err)
	}
	if err := r.writeAtomic(r.stateFile, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return "", fmt.Errorf("%w: writing ringtone state: %w", media.ErrIOFailure, err)
	}

	return dest, nil
}

// Current returns the recorded default ringtone, or nil if none was set
func (r *Ringtones) Current() (*RingtoneState, error) {
	data, err := os.ReadFile(r.stateFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ringtone state: %w", err)
	}

	var state RingtoneState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse ringtone state: %w", err)
	}
	return &state, nil
}

func (r *Ringtones) writeAtomic(dest string, fill func(io.Writer) error) error {
	sink, err := r.sinks.Create(dest)
	if err != nil {
		return err
	}
	if err := fill(sink); err != nil {
		return errors.Join(err, sink.Abort())
	}
	if err := sink.Commit(); err != nil {
		return errors.Join(err, sink.Abort())
	}
	return nil
}

// Ensure Ringtones implements library.RingtoneRegistrar
var _ library.RingtoneRegistrar = (*Ringtones)(nil)
