package chart

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"klineChart/internal/domain"
	"klineChart/internal/ports"
)

// State is the presenter's lifecycle state.
type State int

const (
	// StateIdle means nothing has been rendered yet.
	StateIdle State = iota
	// StateRendered means an engine instance is alive on the surface.
	StateRendered
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRendered:
		return "rendered"
	default:
		return "unknown"
	}
}

// PresenterConfig holds the presenter's collaborators.
type PresenterConfig struct {
	Engine   Engine
	Surface  Surface
	Settings Settings
	Logger   ports.Logger
	// OnRender, when set, observes every render attempt.
	OnRender func(engine string, err error)
}

// Presenter owns one engine instance bound to one surface. Each render disposes
// the previous instance before creating the next; there is no incremental update.
type Presenter struct {
	engine   Engine
	surface  Surface
	settings Settings
	logger   ports.Logger
	onRender func(engine string, err error)

	mu       sync.Mutex // serialises instance use with its disposal
	instance Instance
	state    State
}

// NewPresenter creates a presenter in the Idle state.
func NewPresenter(cfg PresenterConfig) (*Presenter, error) {
	if cfg.Engine == nil || cfg.Surface == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Presenter")
	}
	return &Presenter{
		engine:   cfg.Engine,
		surface:  cfg.Surface,
		settings: cfg.Settings,
		logger:   cfg.Logger,
		onRender: cfg.OnRender,
	}, nil
}

// State returns the current lifecycle state.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Render draws the dataset. With no klines it does nothing and the presenter keeps
// its current state. If configuring the new instance fails, that instance is
// disposed before returning and the presenter is left Idle.
func (p *Presenter) Render(ctx context.Context, ds domain.Dataset) (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	opt := BuildOption(p.settings, ds)
	candles, _ := opt.CandlestickSeries()
	if len(opt.XAxis.Data) == 0 || len(candles.Candles) == 0 {
		p.logger.Debug(ctx, "No chart data yet, staying "+p.state.String(), map[string]interface{}{"surface": p.surface.ID()})
		return nil
	}

	if p.instance != nil {
		prev := p.instance
		p.instance = nil
		p.state = StateIdle
		if derr := prev.Dispose(); derr != nil {
			p.logger.Warn(ctx, "Failed to dispose previous chart instance", map[string]interface{}{"surface": p.surface.ID(), "error": derr.Error()})
		}
	}

	defer func() {
		if p.onRender != nil {
			p.onRender(p.engine.Name(), err)
		}
	}()

	inst, err := p.engine.Init(p.surface)
	if err != nil {
		return fmt.Errorf("init %s engine on surface %s: %w", p.engine.Name(), p.surface.ID(), err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, inst.Dispose())
			return
		}
		p.instance = inst
		p.state = StateRendered
	}()

	if err = inst.SetOption(opt); err != nil {
		return fmt.Errorf("set option on surface %s: %w", p.surface.ID(), err)
	}

	p.logger.Debug(ctx, "Chart rendered", map[string]interface{}{
		"surface": p.surface.ID(),
		"engine":  p.engine.Name(),
		"klines":  len(ds.Klines),
		"series":  len(opt.Series),
	})
	return nil
}

// Close disposes the live instance, if any. The presenter keeps its last state;
// a closed presenter should not be rendered again.
func (p *Presenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.instance == nil {
		return nil
	}
	inst := p.instance
	p.instance = nil
	if err := inst.Dispose(); err != nil {
		return fmt.Errorf("dispose chart instance on surface %s: %w", p.surface.ID(), err)
	}
	return nil
}
