// Package napp defines the pluggable application module contract and the
// compile-time registry NApps are resolved from, plus the manager that
// loads, starts, stops, and unloads them.
package napp

import "github.com/kyco-project/kyco/pkg/listener"

// ListenerSet maps a subscription pattern to the handlers a NApp wants
// registered under it when loaded.
type ListenerSet map[string][]listener.Func

// NApp is a pluggable application module that subscribes to events and
// publishes events and/or outbound messages. A NApp is handed the
// controller at construction time to call back into the core (SendTo,
// GetSwitchByDPID, NotifyListeners, ...); it is passed as `any` to avoid
// an import cycle, and each NApp's Factory asserts it to a narrow
// interface that the NApp declares itself (see pkg/napp/builtin).
type NApp interface {
	// Start is invoked once, after the NApp's declared listeners have been
	// registered. A non-nil error aborts the load and triggers a
	// compensating unsubscribe of everything just registered.
	Start() error

	// Shutdown is invoked once, before the NApp's listeners are removed
	// during unload.
	Shutdown() error

	// Listeners returns the pattern->handlers this NApp wants registered.
	// Called once, immediately before Start.
	Listeners() ListenerSet

	// IsCore reports whether this NApp is protected from automatic unload
	// during controller shutdown; core NApps are unloaded last, by the
	// controller itself.
	IsCore() bool
}

// Factory constructs a NApp instance, given a back-reference to the
// controller (typed as `any` here; concrete NApp packages assert it to
// their expected controller interface).
type Factory func(controller any) NApp
