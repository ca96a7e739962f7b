package location

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/citypulse/citypulse/internal/citydata"
)

// DirectorySource fetches the state-to-cities directory.
type DirectorySource interface {
	Locations(ctx context.Context) (citydata.Directory, error)
}

// Picker is the location selection state machine. It holds two fields,
// selected state and selected city, and moves through three states:
// nothing selected, state selected, and state plus city selected.
// Selecting a state always clears the city.
type Picker struct {
	source DirectorySource
	logger zerolog.Logger

	mu           sync.Mutex
	directory    citydata.Directory
	usedFallback bool
	state        string
	city         string
}

// NewPicker creates a picker backed by the given directory source.
func NewPicker(source DirectorySource, logger zerolog.Logger) *Picker {
	return &Picker{source: source, logger: logger}
}

// Load fetches the directory once. On failure it falls back to the built-in
// directory so selection keeps working offline, and reports the fallback via
// the returned flag rather than an error: a missing directory is a notice,
// not a blocking failure.
func (p *Picker) Load(ctx context.Context) (usedFallback bool) {
	dir, err := p.source.Locations(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil || len(dir) == 0 {
		p.logger.Warn().Err(err).Msg("location directory unavailable, using built-in directory")
		p.directory = FallbackDirectory()
		p.usedFallback = true
		return true
	}
	p.directory = dir
	p.usedFallback = false
	return false
}

// Directory returns the loaded directory, or the built-in one when Load was
// never called.
func (p *Picker) Directory() citydata.Directory {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.directory == nil {
		return FallbackDirectory()
	}
	return p.directory
}

// UsedFallback reports whether the built-in directory is in use.
func (p *Picker) UsedFallback() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.usedFallback
}

// SelectState selects a state and always resets the city, whatever was
// selected before.
func (p *Picker) SelectState(state string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.dir()[state]; !ok {
		return fmt.Errorf("unknown state %q: %w", state, citydata.ErrInvalidInput)
	}
	p.state = state
	p.city = ""
	return nil
}

// SelectCity selects a city within the currently selected state.
func (p *Picker) SelectCity(city string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == "" {
		return fmt.Errorf("no state selected: %w", citydata.ErrInvalidInput)
	}
	if !p.dir().Contains(p.state, city) {
		return fmt.Errorf("unknown city %q in %s: %w", city, p.state, citydata.ErrInvalidInput)
	}
	p.city = city
	return nil
}

// Selection returns the current selection. ok is true only when both state
// and city are selected.
func (p *Picker) Selection() (state, city string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.city, p.state != "" && p.city != ""
}

// dir returns the active directory; callers must hold the mutex.
func (p *Picker) dir() citydata.Directory {
	if p.directory == nil {
		p.directory = FallbackDirectory()
	}
	return p.directory
}
