package provider

import (
	"fmt"
	"net/http"
	"slices"
	"sync"
)

// Settings selects and configures a provider by type.
type Settings struct {
	Type       string // "anthropic", "openai", or a name added with Register
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	HTTPClient *http.Client
}

// Factory creates a Provider from settings.
type Factory func(s Settings) (Provider, error)

// Registry maps provider types to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a Registry with the built-in anthropic and openai
// factories registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.factories["anthropic"] = anthropicFactory
	r.factories["openai"] = openaiFactory
	return r
}

// Register adds a factory. Returns an error if the type is already registered.
func (r *Registry) Register(typ string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[typ]; exists {
		return fmt.Errorf("provider %q already registered", typ)
	}
	r.factories[typ] = f
	return nil
}

// New builds the provider named by s.Type.
func (r *Registry) New(s Settings) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[s.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider type %q (available: %v)", s.Type, r.Types())
	}
	return f(s)
}

// Types returns the registered provider types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

func anthropicFactory(s Settings) (Provider, error) {
	return NewAnthropicProvider(AnthropicConfig{
		APIKey:     s.APIKey,
		Model:      s.Model,
		BaseURL:    s.BaseURL,
		MaxTokens:  s.MaxTokens,
		HTTPClient: s.HTTPClient,
	}), nil
}

func openaiFactory(s Settings) (Provider, error) {
	return NewOpenAIProvider(OpenAIConfig{
		APIKey:     s.APIKey,
		Model:      s.Model,
		BaseURL:    s.BaseURL,
		MaxTokens:  s.MaxTokens,
		JSONMode:   true,
		HTTPClient: s.HTTPClient,
	}), nil
}
