package pairing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nextlevelbuilder/gopair/pkg/protocol"
)

// Handle binds a pair to its in-world character. A Pair owns at most one
// Handle at a time and disposes it when the pair goes offline.
type Handle interface {
	// Name is the addressable "Name@World" of the character.
	Name() string
	// ApplyIPC pushes status interop data onto the character. Calls on a
	// disposed handle must be harmless.
	ApplyIPC(ctx context.Context, data protocol.IPCData) error
	Dispose()
}

// HandleFactory resolves the in-world character for an online pair.
type HandleFactory interface {
	CreateHandle(ctx context.Context, user protocol.UserData, ident string) (Handle, error)
}

// HandleFactoryFunc adapts a function to HandleFactory.
type HandleFactoryFunc func(ctx context.Context, user protocol.UserData, ident string) (Handle, error)

func (f HandleFactoryFunc) CreateHandle(ctx context.Context, user protocol.UserData, ident string) (Handle, error) {
	return f(ctx, user, ident)
}

// LogHandleFactory creates handles that only log what they would apply.
// Used when no game layer is attached (headless runs, diagnostics).
type LogHandleFactory struct {
	Logger *slog.Logger
}

func (f LogHandleFactory) CreateHandle(_ context.Context, user protocol.UserData, ident string) (Handle, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &logHandle{
		name:   fmt.Sprintf("%s@%s", user.AliasOrUID(), ident),
		logger: logger.With("uid", user.UID),
	}, nil
}

type logHandle struct {
	name   string
	logger *slog.Logger

	mu       sync.Mutex
	disposed bool
}

func (h *logHandle) Name() string { return h.name }

func (h *logHandle) ApplyIPC(_ context.Context, data protocol.IPCData) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed {
		return nil
	}
	h.logger.Info("pairing: ipc applied", "handle", h.name,
		"statuses", len(data.Statuses), "presets", len(data.Presets))
	return nil
}

func (h *logHandle) Dispose() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.disposed {
		h.disposed = true
		h.logger.Debug("pairing: handle disposed", "handle", h.name)
	}
}
