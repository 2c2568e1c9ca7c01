package media

import "errors"

// Error kinds returned by the extract and concatenate operations.
// Callers match them with errors.Is; the underlying cause stays wrapped.
var (
	ErrSourceUnreadable = errors.New("source unreadable")
	ErrNoAudioTrack     = errors.New("no audio track")
	ErrSampleTooLarge   = errors.New("sample too large")
	ErrIOFailure        = errors.New("i/o failure")
	ErrInvalidArguments = errors.New("invalid arguments")
)

// Error codes reported to callers of the command surface
const (
	CodeSourceUnreadable = "SOURCE_UNREADABLE"
	CodeNoAudioTrack     = "NO_AUDIO_TRACK"
	CodeSampleTooLarge   = "SAMPLE_TOO_LARGE"
	CodeIOFailure        = "IO_FAILURE"
	CodeInvalidArguments = "INVALID_ARGUMENTS"
	CodeUnknown          = "ERROR"
)

// Code returns the error code for err, or CodeUnknown if err is not one of the media error kinds
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidArguments):
		return CodeInvalidArguments
	case errors.Is(err, ErrSourceUnreadable):
		return CodeSourceUnreadable
	case errors.Is(err, ErrNoAudioTrack):
		return CodeNoAudioTrack
	case errors.Is(err, ErrSampleTooLarge):
		return CodeSampleTooLarge
	case errors.Is(err, ErrIOFailure):
		return CodeIOFailure
	default:
		return CodeUnknown
	}
}
