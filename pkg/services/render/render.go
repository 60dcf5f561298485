// Package render turns a parsed inspection into a PDF artifact. Each
// strategy is a Renderer behind a shared registry, selected by name at
// startup.
package render

import (
	"context"
	"fmt"
	"sync"

	"github.com/pi-tools/report-forge/pkg/models/domain"
	"github.com/pi-tools/report-forge/pkg/services/assets"
	"github.com/pi-tools/report-forge/pkg/services/config"
)

// Request carries everything a renderer needs for one run. RunDir is the
// per-run working directory; the renderer writes the artifact and any
// intermediates there.
type Request struct {
	Inspection *domain.Inspection
	Cache      *assets.Cache
	RunDir     string
	Profile    *domain.InspectorProfile
}

// Result points at the produced artifact.
type Result struct {
	ArtifactPath string
	// PageCount is 0 when the strategy cannot know it without reading
	// the artifact back.
	PageCount int
}

type Renderer interface {
	Render(ctx context.Context, req Request) (*Result, error)
}

// RendererFactory builds a Renderer from the render configuration.
type RendererFactory func(cfg config.RenderConfig) (Renderer, error)

// Registry manages renderer factories by strategy name.
type Registry interface {
	Register(strategy string, factory RendererFactory) error
	Create(strategy string, cfg config.RenderConfig) (Renderer, error)
	ListStrategies() []string
}

type registry struct {
	mu        sync.RWMutex
	factories map[string]RendererFactory
}

func NewRegistry() Registry {
	return &registry{factories: make(map[string]RendererFactory)}
}

func (r *registry) Register(strategy string, factory RendererFactory) error {
	if strategy == "" {
		return fmt.Errorf("strategy name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[strategy]; exists {
		return fmt.Errorf("strategy %q is already registered", strategy)
	}

	r.factories[strategy] = factory
	return nil
}

func (r *registry) Create(strategy string, cfg config.RenderConfig) (Renderer, error) {
	r.mu.RLock()
	factory, exists := r.factories[strategy]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("strategy %q is not registered", strategy)
	}

	return factory(cfg)
}

func (r *registry) ListStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	strategies := make([]string, 0, len(r.factories))
	for s := range r.factories {
		strategies = append(strategies, s)
	}
	return strategies
}

// DefaultRegistry returns a registry with both built-in strategies.
func DefaultRegistry() Registry {
	r := NewRegistry()
	_ = r.Register(StrategyLaTeX, NewLaTeXRenderer)
	_ = r.Register(StrategyDirect, NewDirectRenderer)
	return r
}
