package hostbus

import (
	"context"
	"sort"
	"sync"

	"github.com/camlink/camlink-go/internal/core/domain"
)

// CommandFunc handles a host command invocation.
type CommandFunc func(ctx context.Context) (any, error)

// Commands is the registry of commands the host UI can invoke.
type Commands struct {
	mu       sync.RWMutex
	handlers map[string]CommandFunc
}

// NewCommands creates an empty registry.
func NewCommands() *Commands {
	return &Commands{handlers: make(map[string]CommandFunc)}
}

// Register adds a command. It panics on an empty name, a nil handler or a
// duplicate registration, like http.ServeMux.
func (c *Commands) Register(name string, fn CommandFunc) {
	if name == "" {
		panic("hostbus: empty command name")
	}
	if fn == nil {
		panic("hostbus: nil handler for command " + name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.handlers[name]; exists {
		panic("hostbus: command registered twice: " + name)
	}
	c.handlers[name] = fn
}

// Invoke runs the named command.
func (c *Commands) Invoke(ctx context.Context, name string) (any, error) {
	c.mu.RLock()
	fn, ok := c.handlers[name]
	c.mu.RUnlock()

	if !ok {
		return nil, domain.ErrUnknownCommand.WithDetails(name)
	}
	return fn(ctx)
}

// Names returns the registered command names in sorted order.
func (c *Commands) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.handlers))
	for name := range c.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
