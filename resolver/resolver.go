package resolver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"plugin"
	"slices"
	"strings"

	"querybench/bench"
)

// Handle identifies the driver a Resolver has loaded.
type Handle struct {
	Name     string
	Location string // plugin path; empty for builtin or database/sql drivers
	Proxied  bool   // registered by this resolver and removed by Unload
}

// Symbols is the part of *plugin.Plugin the resolver needs.
type Symbols interface {
	Lookup(name string) (plugin.Symbol, error)
}

// PluginOpener opens a Go plugin at path.
type PluginOpener func(path string) (Symbols, error)

// Resolver loads exactly one driver and hands out connectors for it.
// It is not safe for concurrent use; the Registry it shares is.
type Resolver struct {
	registry   *Registry
	openPlugin PluginOpener
	log        *slog.Logger

	handle *Handle
	drv    driver.Driver
}

type Option func(*Resolver)

// WithPluginOpener replaces plugin.Open, mainly for tests.
func WithPluginOpener(open PluginOpener) Option {
	return func(r *Resolver) { r.openPlugin = open }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// New creates a resolver backed by registry. A nil registry gets a private one.
func New(registry *Registry, opts ...Option) *Resolver {
	if registry == nil {
		registry = NewRegistry()
	}
	r := &Resolver{
		registry:   registry,
		openPlugin: openPlugin,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Registry() *Registry { return r.registry }

// Handle returns the loaded driver, or nil.
func (r *Resolver) Handle() *Handle { return r.handle }

// Load resolves name. Without a location the registry is searched first and
// then database/sql's drivers. With a location, name is looked up as a symbol
// in the plugin at that path and registered behind a proxy.
func (r *Resolver) Load(_ context.Context, name, location string) (*Handle, error) {
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)
	if name == "" {
		return nil, &bench.ConfigError{Op: "load driver", Cause: errors.New("driver name is empty")}
	}
	if r.handle != nil {
		return nil, &bench.DriverLoadError{Driver: name, Cause: fmt.Errorf("resolver already holds driver %q", r.handle.Name)}
	}

	if location == "" {
		d, err := r.discover(name)
		if err != nil {
			return nil, &bench.DriverLoadError{Driver: name, Cause: err}
		}
		r.drv = d
		r.handle = &Handle{Name: name}
		r.log.Debug("driver resolved", "driver", name)
		return r.handle, nil
	}

	d, err := r.loadPlugin(name, location)
	if err != nil {
		return nil, &bench.DriverLoadError{Driver: name, Cause: err}
	}
	p := &proxy{target: d}
	if err := r.registry.Register(name, p); err != nil {
		return nil, &bench.DriverLoadError{Driver: name, Cause: err}
	}
	r.drv = p
	r.handle = &Handle{Name: name, Location: location, Proxied: true}
	r.log.Debug("driver loaded from plugin", "driver", name, "location", location)
	return r.handle, nil
}

func (r *Resolver) discover(name string) (driver.Driver, error) {
	if d, ok := r.registry.Lookup(name); ok {
		return d, nil
	}
	if !slices.Contains(sql.Drivers(), name) {
		return nil, fmt.Errorf("no driver named %q (known: %s)", name, strings.Join(r.known(), ", "))
	}
	db, err := sql.Open(name, "")
	if err != nil {
		return nil, err
	}
	d := db.Driver()
	if err := db.Close(); err != nil {
		r.log.Debug("close discovery handle", "driver", name, "error", err)
	}
	return d, nil
}

func (r *Resolver) known() []string {
	names := append(r.registry.Names(), sql.Drivers()...)
	slices.Sort(names)
	return slices.Compact(names)
}

func (r *Resolver) loadPlugin(symbol, location string) (driver.Driver, error) {
	syms, err := r.openPlugin(location)
	if err != nil {
		return nil, fmt.Errorf("open plugin %s: %w", location, err)
	}
	sym, err := syms.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("lookup %s in %s: %w", symbol, location, err)
	}

	var d driver.Driver
	switch s := sym.(type) {
	case driver.Driver:
		d = s
	case *driver.Driver:
		if s != nil {
			d = *s
		}
	case func() driver.Driver:
		d = s()
	case func() (driver.Driver, error):
		if d, err = s(); err != nil {
			return nil, fmt.Errorf("instantiate %s: %w", symbol, err)
		}
	default:
		return nil, fmt.Errorf("symbol %s in %s is %T, not a database/sql driver", symbol, location, sym)
	}
	if d == nil {
		return nil, fmt.Errorf("symbol %s in %s yielded a nil driver", symbol, location)
	}
	return d, nil
}

// Connector returns a connector for dsn on the loaded driver. Plugin drivers
// are looked up in the registry again so a deregistered proxy cannot be used.
func (r *Resolver) Connector(dsn string) (driver.Connector, error) {
	if r.handle == nil {
		return nil, errors.New("no driver loaded")
	}
	d := r.drv
	if r.handle.Proxied {
		var ok bool
		if d, ok = r.registry.Lookup(r.handle.Name); !ok {
			return nil, fmt.Errorf("driver %q is no longer registered", r.handle.Name)
		}
	}
	return connectorFor(d, dsn)
}

// Unload deregisters a plugin driver. Safe to call any number of times;
// deregistration errors are only logged.
func (r *Resolver) Unload() {
	if r.handle == nil {
		return
	}
	if r.handle.Proxied {
		if err := r.registry.Deregister(r.handle.Name); err != nil {
			r.log.Warn("deregister driver", "driver", r.handle.Name, "error", err)
		}
	}
	r.handle = nil
	r.drv = nil
}

func openPlugin(path string) (Symbols, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}
