package mode

import "sync"

// Registry maps mode IDs to plugins so the engine selects modes by tag
// rather than by type inspection.
type Registry struct {
	mu      sync.RWMutex
	plugins map[ID]Plugin
	order   []ID
}

func NewRegistry() *Registry {
	return &Registry{plugins: make(map[ID]Plugin)}
}

// Register adds or replaces a plugin under its configured ID.
func (r *Registry) Register(p Plugin) {
	id := p.Config().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[id]; !exists {
		r.order = append(r.order, id)
	}
	r.plugins[id] = p
}

// Get returns the plugin registered under id.
func (r *Registry) Get(id ID) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[id]
	return p, ok
}

// Configs lists registered mode configurations in registration order.
func (r *Registry) Configs() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	configs := make([]Config, 0, len(r.order))
	for _, id := range r.order {
		configs = append(configs, r.plugins[id].Config())
	}
	return configs
}

// DefaultRegistry registers the built-in modes.
func DefaultRegistry(speed SpeedConfig) *Registry {
	r := NewRegistry()
	r.Register(NewClassic())
	r.Register(NewSpeedRound(speed))
	r.Register(NewMultiplayer())
	return r
}
