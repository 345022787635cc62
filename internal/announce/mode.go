package announce

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects where announcements go.
type Mode string

const (
	// ModeVoice shows and speaks announcements.
	ModeVoice Mode = "voice"
	// ModeText only shows announcements.
	ModeText Mode = "text"
)

// ErrInvalidMode is returned for unknown mode names.
var ErrInvalidMode = errors.New("invalid announce mode")

// ParseMode parses "voice" or "text", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeVoice, ModeText:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Speaks reports whether announcements are spoken in this mode.
func (m Mode) Speaks() bool {
	return m == ModeVoice
}

func (m Mode) String() string {
	return string(m)
}
