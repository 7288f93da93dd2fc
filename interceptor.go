// interceptor.go: Named request interceptor registry
//
// The registry plays the part of the host framework's extension registry:
// interceptors are registered under a unique name at startup and invoked
// synchronously, in registration order, for every event the pipeline emits
// before a request is dispatched.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"strings"
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// EventConfigRequest is emitted once per request, after the descriptor is
// built and before its parameters are serialized.
const EventConfigRequest = "configRequest"

// RequestInterceptor is the capability an extension implements to take part
// in request construction. OnConfigureRequest receives a mutable view of the
// request path and parameters and may change both in place.
type RequestInterceptor interface {
	OnConfigureRequest(view ConfigRequestView)
}

// RequestInterceptorFunc adapts a function to RequestInterceptor.
type RequestInterceptorFunc func(view ConfigRequestView)

// OnConfigureRequest implements RequestInterceptor.
func (f RequestInterceptorFunc) OnConfigureRequest(view ConfigRequestView) {
	f(view)
}

// InterceptorInfo describes a registered interceptor.
type InterceptorInfo struct {
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registered_at"`
	Invocations  int64     `json:"invocations"`
}

type registeredInterceptor struct {
	name         string
	interceptor  RequestInterceptor
	registeredAt time.Time
	invocations  int64
}

// InterceptorRegistry holds interceptors keyed by name and dispatches events to them.
//
// The registry is safe for concurrent use. Dispatch takes a snapshot of the
// current interceptor list, so registration changes never affect a request
// that is already being configured.
type InterceptorRegistry struct {
	mu      sync.RWMutex
	entries []*registeredInterceptor
	index   map[string]*registeredInterceptor
	logger  Logger
	metrics MetricsCollector
}

// NewInterceptorRegistry creates an empty registry.
func NewInterceptorRegistry(logger any) *InterceptorRegistry {
	return &InterceptorRegistry{
		index:  make(map[string]*registeredInterceptor),
		logger: NewLogger(logger),
	}
}

// SetMetricsCollector makes Dispatch count invocations per interceptor.
func (r *InterceptorRegistry) SetMetricsCollector(collector MetricsCollector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = collector
}

// Register adds an interceptor under name. Names must be unique and non-blank.
func (r *InterceptorRegistry) Register(name string, interceptor RequestInterceptor) error {
	if strings.TrimSpace(name) == "" {
		return NewInvalidInterceptorNameError(name)
	}
	if interceptor == nil {
		return NewNilInterceptorError(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[name]; exists {
		return NewDuplicateInterceptorNameError(name)
	}

	entry := &registeredInterceptor{
		name:         name,
		interceptor:  interceptor,
		registeredAt: timecache.CachedTime(),
	}
	r.entries = append(r.entries, entry)
	r.index[name] = entry

	r.logger.Debug("Interceptor registered", "interceptor", name, "total", len(r.entries))
	return nil
}

// Unregister removes the interceptor registered under name.
func (r *InterceptorRegistry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[name]; !exists {
		return NewInterceptorNotFoundError(name)
	}
	delete(r.index, name)

	kept := r.entries[:0]
	for _, entry := range r.entries {
		if entry.name != name {
			kept = append(kept, entry)
		}
	}
	// clear the tail so the removed entry can be collected
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = nil
	}
	r.entries = kept

	r.logger.Debug("Interceptor unregistered", "interceptor", name)
	return nil
}

// Get returns the interceptor registered under name.
func (r *InterceptorRegistry) Get(name string) (RequestInterceptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.index[name]
	if !exists {
		return nil, NewInterceptorNotFoundError(name)
	}
	return entry.interceptor, nil
}

// Names returns the registered names in dispatch order.
func (r *InterceptorRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.entries))
	for i, entry := range r.entries {
		names[i] = entry.name
	}
	return names
}

// Info returns registration details in dispatch order.
func (r *InterceptorRegistry) Info() []InterceptorInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]InterceptorInfo, len(r.entries))
	for i, entry := range r.entries {
		infos[i] = InterceptorInfo{
			Name:         entry.name,
			RegisteredAt: entry.registeredAt,
			Invocations:  entry.invocations,
		}
	}
	return infos
}

// Dispatch delivers event to every registered interceptor in order. Only
// EventConfigRequest is routed to RequestInterceptor; other events are ignored.
func (r *InterceptorRegistry) Dispatch(event string, view ConfigRequestView) {
	if event != EventConfigRequest {
		return
	}

	r.mu.Lock()
	entries := make([]*registeredInterceptor, len(r.entries))
	copy(entries, r.entries)
	for _, entry := range entries {
		entry.invocations++
	}
	metrics := r.metrics
	r.mu.Unlock()

	for _, entry := range entries {
		entry.interceptor.OnConfigureRequest(view)
		if metrics != nil {
			metrics.IncrementCounter(MetricInterceptorDispatches, map[string]string{"interceptor": entry.name}, 1)
		}
	}
}
