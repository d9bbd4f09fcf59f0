// Package defaults holds the application-wide fallback values for unset reader settings.
package defaults

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/listenupapp/listenup-reader/internal/color"
	"github.com/listenupapp/listenup-reader/internal/domain"
	"github.com/listenupapp/listenup-reader/internal/validation"
	"github.com/listenupapp/listenup-reader/internal/watcher"
)

// ReloadRecorder is notified after every reload attempt.
type ReloadRecorder interface {
	DefaultsReloaded(ok bool)
}

// fileDefaults is the override file layout. Absent keys keep the configured value.
type fileDefaults struct {
	FontSizePx      *float32 `json:"font_size_px,omitempty" validate:"omitempty,gt=0,lte=200"`
	LineHeightPx    *float32 `json:"line_height_px,omitempty" validate:"omitempty,gt=0,lte=400"`
	PaddingDp       *float32 `json:"padding_dp,omitempty" validate:"omitempty,gte=0,lte=200"`
	NightMode       *bool    `json:"night_mode,omitempty"`
	BackgroundColor *string  `json:"background_color,omitempty" validate:"omitempty,readercolor"`
}

// Provider serves the active defaults. Safe for concurrent use.
type Provider struct {
	mu       sync.RWMutex
	base     domain.Defaults
	current  domain.Defaults
	file     string
	onChange []func(domain.Defaults)

	validator *validation.Validator
	reloads   ReloadRecorder
	logger    *slog.Logger
}

// NewProvider creates a provider starting from base. file may be empty.
func NewProvider(base domain.Defaults, file string, logger *slog.Logger) *Provider {
	return &Provider{
		base:      base,
		current:   base,
		file:      file,
		validator: validation.New(),
		logger:    logger,
	}
}

// Get returns the active defaults.
func (p *Provider) Get() domain.Defaults {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// File returns the override file path, or "" when none is configured.
func (p *Provider) File() string {
	return p.file
}

// OnChange registers fn to be called after the active defaults change.
func (p *Provider) OnChange(fn func(domain.Defaults)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = append(p.onChange, fn)
}

// SetReloadRecorder sets the hook notified after each reload.
func (p *Provider) SetReloadRecorder(r ReloadRecorder) {
	p.reloads = r
}

// Load reads the override file and applies it on top of the configured defaults.
// A missing file restores the configured defaults. On any other error the
// previous defaults stay active.
func (p *Provider) Load() error {
	if p.file == "" {
		return nil
	}

	next, err := p.read()
	if p.reloads != nil {
		p.reloads.DefaultsReloaded(err == nil)
	}
	if err != nil {
		return err
	}

	p.apply(next)
	return nil
}

// Run reloads the defaults whenever the watcher reports a change to the file.
// It blocks until ctx is cancelled or the watcher's event channel closes.
func (p *Provider) Run(ctx context.Context, w *watcher.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-w.Events():
			if !ok {
				return
			}
			p.logger.Info("defaults file changed", "path", evt.Path, "event", evt.Type.String())
			if err := p.Load(); err != nil {
				p.logger.Warn("keeping previous defaults", "path", p.file, "error", err)
			}
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			p.logger.Warn("defaults watcher error", "error", err)
		}
	}
}

func (p *Provider) read() (domain.Defaults, error) {
	data, err := os.ReadFile(p.file)
	if errors.Is(err, fs.ErrNotExist) {
		p.logger.Info("defaults file not found, using configured defaults", "path", p.file)
		return p.base, nil
	}
	if err != nil {
		return domain.Defaults{}, fmt.Errorf("read defaults file: %w", err)
	}

	var f fileDefaults
	if err := json.Unmarshal(data, &f, json.RejectUnknownMembers(true)); err != nil {
		return domain.Defaults{}, fmt.Errorf("parse defaults file: %w", err)
	}
	if err := p.validator.Validate(f); err != nil {
		return domain.Defaults{}, fmt.Errorf("invalid defaults file: %w", err)
	}

	d := p.base
	if f.FontSizePx != nil {
		d.FontSizePx = *f.FontSizePx
	}
	if f.LineHeightPx != nil {
		d.LineHeightPx = *f.LineHeightPx
	}
	if f.PaddingDp != nil {
		d.PaddingDp = *f.PaddingDp
	}
	if f.NightMode != nil {
		d.NightMode = *f.NightMode
	}
	if f.BackgroundColor != nil {
		normalized, err := color.Normalize(*f.BackgroundColor)
		if err != nil {
			return domain.Defaults{}, err
		}
		d.BackgroundColor = normalized
	}
	return d, nil
}

func (p *Provider) apply(next domain.Defaults) {
	p.mu.Lock()
	changed := next != p.current
	p.current = next
	listeners := p.onChange
	p.mu.Unlock()

	if !changed {
		return
	}

	p.logger.Info("reader defaults updated",
		"font_size_px", next.FontSizePx,
		"line_height_px", next.LineHeightPx,
		"padding_dp", next.PaddingDp,
		"night_mode", next.NightMode,
		"background_color", next.BackgroundColor)

	for _, fn := range listeners {
		fn(next)
	}
}
