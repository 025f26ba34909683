package errors

import (
	"sync"
	"sync/atomic"
)

// ErrorHook is called for every EnhancedError built while at least one hook is registered.
type ErrorHook func(ee *EnhancedError)

type registeredHook struct {
	id   uint64
	hook ErrorHook
}

var (
	hooksMu        sync.RWMutex
	errorHooks     []registeredHook
	nextHookID     uint64
	hasActiveHooks atomic.Bool
)

// AddErrorHook registers a hook for the life of the process. Hooks must not
// block; they run on the caller's goroutine.
func AddErrorHook(hook ErrorHook) {
	RegisterErrorHook(hook)
}

// RegisterErrorHook registers a hook and returns a func that removes it.
// The remove func is idempotent.
func RegisterErrorHook(hook ErrorHook) (remove func()) {
	if hook == nil {
		return func() {}
	}
	hooksMu.Lock()
	defer hooksMu.Unlock()
	nextHookID++
	id := nextHookID
	errorHooks = append(errorHooks, registeredHook{id: id, hook: hook})
	hasActiveHooks.Store(true)

	var once sync.Once
	return func() {
		once.Do(func() { removeErrorHook(id) })
	}
}

func removeErrorHook(id uint64) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	for i, h := range errorHooks {
		if h.id == id {
			errorHooks = append(errorHooks[:i:i], errorHooks[i+1:]...)
			break
		}
	}
	hasActiveHooks.Store(len(errorHooks) > 0)
}

// ErrorHookCount returns the number of registered hooks.
func ErrorHookCount() int {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return len(errorHooks)
}

// ClearErrorHooks removes every registered hook and restores the fast build path.
func ClearErrorHooks() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	errorHooks = nil
	hasActiveHooks.Store(false)
}

func runHooks(ee *EnhancedError) {
	hooksMu.RLock()
	hooks := make([]ErrorHook, len(errorHooks))
	for i, h := range errorHooks {
		hooks[i] = h.hook
	}
	hooksMu.RUnlock()

	for _, hook := range hooks {
		hook(ee)
	}
}
