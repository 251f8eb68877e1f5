package store

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/gmsas95/dosekeeper-cli/internal/errors"
)

// ThemeKey holds the display theme preference
const ThemeKey = "@theme_mode"

type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
	ThemeAuto  ThemeMode = "auto"
)

func ParseThemeMode(s string) (ThemeMode, error) {
	switch mode := ThemeMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case ThemeLight, ThemeDark, ThemeAuto:
		return mode, nil
	}
	return "", apperrors.From(apperrors.ErrBadThemeMode, nil)
}

// IsDark resolves a mode to a palette. Auto follows the local clock:
// dark from 19:00 until 07:00.
func (t ThemeMode) IsDark(now time.Time) bool {
	switch t {
	case ThemeDark:
		return true
	case ThemeLight:
		return false
	}
	hour := now.Hour()
	return hour >= 19 || hour < 7
}

// Preferences stores user settings next to the medicine collection
type Preferences struct {
	kv KV
}

func NewPreferences(kv KV) *Preferences {
	return &Preferences{kv: kv}
}

// Theme returns the saved mode, or auto when none was saved or the value is unknown
func (p *Preferences) Theme(ctx context.Context) (ThemeMode, error) {
	data, err := p.kv.Get(ctx, ThemeKey)
	if errors.Is(err, ErrKeyNotFound) {
		return ThemeAuto, nil
	}
	if err != nil {
		return ThemeAuto, apperrors.From(apperrors.ErrStoreRead, err)
	}
	mode, err := ParseThemeMode(string(data))
	if err != nil {
		return ThemeAuto, nil
	}
	return mode, nil
}

func (p *Preferences) SetTheme(ctx context.Context, mode ThemeMode) error {
	if _, err := ParseThemeMode(string(mode)); err != nil {
		return err
	}
	if err := p.kv.Set(ctx, ThemeKey, []byte(mode)); err != nil {
		return apperrors.From(apperrors.ErrStoreWrite, err)
	}
	return nil
}
