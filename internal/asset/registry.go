package asset

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type registryKey struct {
	chainID uint64
	address common.Address
}

// Registry is a thread-safe index of known tokens.
type Registry struct {
	mu       sync.RWMutex
	byKey    map[registryKey]*Asset
	bySymbol map[string]*Asset // upper-cased symbol, first registration wins
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:    make(map[registryKey]*Asset),
		bySymbol: make(map[string]*Asset),
	}
}

// Register adds a token. Registering the same token twice panics.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKey[registryKey{a.chainID, a.address}]; exists {
		panic(fmt.Sprintf("asset: %s already registered", a.Key()))
	}
	r.insert(a)
}

func (r *Registry) insert(a *Asset) {
	r.byKey[registryKey{a.chainID, a.address}] = a

	sym := strings.ToUpper(a.symbol)
	if _, taken := r.bySymbol[sym]; !taken {
		r.bySymbol[sym] = a
	}
}

// Token looks a token up by chain and address.
func (r *Registry) Token(chainID uint64, address common.Address) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byKey[registryKey{chainID, address}]
	return a, ok
}

// BySymbol looks a token up by case-insensitive symbol.
func (r *Registry) BySymbol(symbol string) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.bySymbol[strings.ToUpper(symbol)]
	return a, ok
}

// Resolve returns the registered token for chain and address, or registers a
// new one with the given metadata.
func (r *Registry) Resolve(chainID uint64, address common.Address, symbol string, decimals uint8) *Asset {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.byKey[registryKey{chainID, address}]; ok {
		return a
	}

	a := NewToken(chainID, address, symbol, "", decimals)
	r.insert(a)
	return a
}

// All returns every token sorted by symbol.
func (r *Registry) All() []*Asset {
	r.mu.RLock()
	out := make([]*Asset, 0, len(r.byKey))
	for _, a := range r.byKey {
		out = append(out, a)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].symbol < out[j].symbol })
	return out
}

// Count returns the number of registered tokens.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}
