package module

import (
	"fmt"
	"slices"
	"sync"
)

// process wide registry of port sets, filled once while main wires modules
var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register stores the port set for a module name. Registering a name twice
// means two modules were wired under one name and panics
func Register(name string, ports any) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := reg[name]; dup {
		panic(fmt.Sprintf("module: %q registered twice", name))
	}
	reg[name] = ports
}

// PortsAs fetches the port set registered for name as T
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	v, ok := reg[name]
	mu.RUnlock()
	out, ok2 := v.(T)
	return out, ok && ok2
}

// Names lists registered module names in order
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(reg))
	for n := range reg {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Reset clears the registry for tests
func Reset() {
	mu.Lock()
	reg = map[string]any{}
	mu.Unlock()
}
