package napp

import (
	"context"
	"fmt"
	"sync"

	"github.com/kyco-project/kyco/internal/logger"
	"github.com/kyco-project/kyco/internal/telemetry"
	"github.com/kyco-project/kyco/pkg/listener"
	"github.com/kyco-project/kyco/pkg/metrics"
)

type loaded struct {
	napp    NApp
	handles []listener.Handle
}

// Manager loads, starts, stops, and unloads NApps resolved from the
// compile-time registry, merging and removing their listener entries
// atomically against a shared listener.Table.
type Manager struct {
	table      *listener.Table
	controller any

	mu     sync.Mutex
	loaded map[string]*loaded
}

// NewManager constructs a Manager that registers listeners against table
// and hands controller to every NApp it instantiates.
func NewManager(table *listener.Table, controller any) *Manager {
	return &Manager{
		table:      table,
		controller: controller,
		loaded:     make(map[string]*loaded),
	}
}

// LoadNApp resolves name from the compile-time registry, instantiates it,
// registers its declared listeners, and invokes Start. If instantiation
// fails the NApp is not registered. If Start fails, every listener just
// registered is compensated with Unsubscribe and the NApp is not added to
// the registry.
func (m *Manager) LoadNApp(name string) error {
	factory, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("napp: %q is not registered", name)
	}

	ctx, span := telemetry.StartNAppSpan(context.Background(), telemetry.SpanNAppLoad, name)
	defer span.End()

	m.mu.Lock()
	if _, exists := m.loaded[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("napp: %q is already loaded", name)
	}
	m.mu.Unlock()

	instance := factory(m.controller)

	handles := make([]listener.Handle, 0)
	for pattern, fns := range instance.Listeners() {
		for _, fn := range fns {
			handles = append(handles, m.table.Subscribe(pattern, fn, name))
		}
	}

	if err := instance.Start(); err != nil {
		for _, h := range handles {
			m.table.Unsubscribe(h)
		}
		logger.ErrorCtx(ctx, "napp start failed, listeners rolled back", logger.NApp(name), logger.Err(err))
		return fmt.Errorf("napp: %q failed to start: %w", name, err)
	}

	m.mu.Lock()
	m.loaded[name] = &loaded{napp: instance, handles: handles}
	m.mu.Unlock()

	metrics.SetNAppsLoaded(m.Len())
	logger.InfoCtx(ctx, "napp loaded", logger.NApp(name), logger.Active(len(handles)))
	return nil
}

// LoadNApps loads each named NApp. A failure to load one name is logged
// and does not prevent the remaining names from loading.
func (m *Manager) LoadNApps(names ...string) {
	for _, name := range names {
		if err := m.LoadNApp(name); err != nil {
			logger.Error("napp load failed", logger.NApp(name), logger.Err(err))
		}
	}
}

// UnloadNApp drops name from the registry, invokes Shutdown, and then
// removes every listener registered by name.
func (m *Manager) UnloadNApp(name string) error {
	m.mu.Lock()
	entry, ok := m.loaded[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("napp: %q is not loaded", name)
	}
	delete(m.loaded, name)
	m.mu.Unlock()

	ctx, span := telemetry.StartNAppSpan(context.Background(), telemetry.SpanNAppUnload, name)
	defer span.End()

	err := entry.napp.Shutdown()
	m.table.UnsubscribeNApp(name)
	metrics.SetNAppsLoaded(m.Len())
	if err != nil {
		logger.ErrorCtx(ctx, "napp shutdown error", logger.NApp(name), logger.Err(err))
		return fmt.Errorf("napp: %q shutdown: %w", name, err)
	}

	logger.InfoCtx(ctx, "napp unloaded", logger.NApp(name))
	return nil
}

// UnloadNApps unloads every non-core NApp currently loaded. Core NApps are
// left in place; the controller is responsible for unloading them last,
// via UnloadCoreNApps.
func (m *Manager) UnloadNApps() {
	for _, name := range m.namesWhere(func(l *loaded) bool { return !l.napp.IsCore() }) {
		if err := m.UnloadNApp(name); err != nil {
			logger.Error("napp unload failed", logger.NApp(name), logger.Err(err))
		}
	}
}

// UnloadCoreNApps unloads every core NApp currently loaded. Called by the
// controller after UnloadNApps, as the very last step of Stop.
func (m *Manager) UnloadCoreNApps() {
	for _, name := range m.namesWhere(func(l *loaded) bool { return l.napp.IsCore() }) {
		if err := m.UnloadNApp(name); err != nil {
			logger.Error("core napp unload failed", logger.NApp(name), logger.Err(err))
		}
	}
}

func (m *Manager) namesWhere(pred func(*loaded) bool) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.loaded))
	for name, l := range m.loaded {
		if pred(l) {
			names = append(names, name)
		}
	}
	return names
}

// Len returns the number of currently loaded NApps.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

// Loaded reports whether name is currently loaded.
func (m *Manager) Loaded(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.loaded[name]
	return ok
}
