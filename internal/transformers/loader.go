package transformers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/mihaisavezi/llmgateway/internal/config"
)

// init wires config.KnownTransformerClasses back to this package's
// builtin registry, letting UserConfig.Validate reject unknown
// transformer classes at reload time without config importing
// transformers directly (transformers already imports config for
// TransformerRef/ProviderConfig, so the reverse import would cycle).
func init() {
	config.KnownTransformerClasses = isKnownClass
}

func isKnownClass(class string) bool {
	for _, known := range KnownClasses() {
		if known == class {
			return true
		}
	}
	return false
}

// Factory builds a transformer instance from a params block declared in
// a TransformerRef. The returned value must implement at least one of
// RequestTransformer, ResponseTransformer, or StreamTransformer.
type Factory func(params map[string]any) (any, error)

var builtin = map[string]Factory{}

// register adds a factory to the built-in namespace. Called from each
// transformer file's init(), mirroring a package-level registry rather
// than a single hand-maintained switch statement.
func register(class string, f Factory) {
	if _, exists := builtin[class]; exists {
		panic(fmt.Sprintf("transformers: duplicate registration for %q", class))
	}
	builtin[class] = f
}

// Loader resolves qualified transformer class names to cached instances.
// Go has no runtime plugin loading without cgo, so unlike the original
// Python implementation's importable search paths, the loader here only
// resolves against the compiled-in builtin namespace; a class name the
// builtin namespace does not recognize is a config_error, not a
// lazily-imported module (see DESIGN.md).
type Loader struct {
	mu    sync.Mutex
	cache map[string]any
}

// NewLoader builds an empty instance cache. searchPaths is accepted for
// config-shape compatibility (UserConfig.TransformerPaths) but is
// presently unused; see the Loader doc comment.
func NewLoader(searchPaths []string) *Loader {
	return &Loader{cache: make(map[string]any)}
}

// Resolve returns a cached or newly constructed transformer instance for
// class+params, constructing it via the builtin factory on first use.
// Instances are cached by (class, param hash) so identical TransformerRef
// entries across multiple providers share one instance.
func (l *Loader) Resolve(class string, params map[string]any) (any, error) {
	key := cacheKey(class, params)

	l.mu.Lock()
	defer l.mu.Unlock()

	if inst, ok := l.cache[key]; ok {
		return inst, nil
	}

	factory, ok := builtin[class]
	if !ok {
		return nil, fmt.Errorf("unknown transformer class %q", class)
	}

	inst, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("construct transformer %q: %w", class, err)
	}

	l.cache[key] = inst

	return inst, nil
}

// ResolveRequest is a typed convenience wrapper over Resolve.
func (l *Loader) ResolveRequest(class string, params map[string]any) (RequestTransformer, error) {
	inst, err := l.Resolve(class, params)
	if err != nil {
		return nil, err
	}
	rt, ok := inst.(RequestTransformer)
	if !ok {
		return nil, fmt.Errorf("transformer %q does not implement RequestTransformer", class)
	}
	return rt, nil
}

// ResolveResponse is a typed convenience wrapper over Resolve.
func (l *Loader) ResolveResponse(class string, params map[string]any) (ResponseTransformer, error) {
	inst, err := l.Resolve(class, params)
	if err != nil {
		return nil, err
	}
	rt, ok := inst.(ResponseTransformer)
	if !ok {
		return nil, fmt.Errorf("transformer %q does not implement ResponseTransformer", class)
	}
	return rt, nil
}

// KnownClasses lists every registered builtin transformer class, used by
// the config validator to reject unresolvable refs at reload time rather
// than at request time (spec: transformer resolution errors are
// config_error, not a per-request failure).
func KnownClasses() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cacheKey(class string, params map[string]any) string {
	data, err := json.Marshal(normalizeParams(params))
	if err != nil {
		data = []byte(fmt.Sprintf("%v", params))
	}
	sum := sha256.Sum256(data)
	return class + ":" + hex.EncodeToString(sum[:])
}

// normalizeParams sorts map keys recursively by marshalling through a
// canonical structure, so equivalent params produce the same hash
// regardless of map iteration order.
func normalizeParams(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		ordered := make([]any, 0, len(keys)*2)
		for _, k := range keys {
			ordered = append(ordered, k, normalizeParams(t[k]))
		}

		return ordered
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeParams(item)
		}
		return out
	default:
		return t
	}
}
