package client

import (
	"context"
	"sync"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// AdminLoginPath is where the guard sends anyone without an admin session.
const AdminLoginPath = "/admin-login"

type GuardState string

const (
	GuardLoading  GuardState = "loading"
	GuardAllowed  GuardState = "allowed"
	GuardRedirect GuardState = "redirect"
)

// FlagStore persists the "signed in as admin" hint between page loads.
type FlagStore interface {
	Load() bool
	Store(bool)
}

// MemoryFlagStore keeps the flag in process memory.
type MemoryFlagStore struct {
	mu  sync.Mutex
	set bool
}

func (m *MemoryFlagStore) Load() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set
}

func (m *MemoryFlagStore) Store(v bool) {
	m.mu.Lock()
	m.set = v
	m.mu.Unlock()
}

type adminAPI interface {
	AdminLogin(ctx context.Context, email, password string) (*Tokens, error)
	AdminSession(ctx context.Context) (bool, error)
	Logout(ctx context.Context) error
}

// AdminGuard gates the admin console. It starts in GuardLoading and only
// reaches GuardAllowed after the persisted flag and the server agree.
type AdminGuard struct {
	api   adminAPI
	flags FlagStore

	mu    sync.Mutex
	state GuardState
}

func NewAdminGuard(api adminAPI, flags FlagStore) *AdminGuard {
	if flags == nil {
		flags = &MemoryFlagStore{}
	}
	return &AdminGuard{api: api, flags: flags, state: GuardLoading}
}

func (g *AdminGuard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// RedirectTarget is the login path when the guard redirects, else "".
func (g *AdminGuard) RedirectTarget() string {
	if g.State() == GuardRedirect {
		return AdminLoginPath
	}
	return ""
}

func (g *AdminGuard) set(state GuardState) GuardState {
	g.mu.Lock()
	g.state = state
	g.mu.Unlock()
	return state
}

// Resolve settles the guard. A missing flag redirects without a network call;
// a server that no longer recognises the admin clears the flag. Transport
// failures leave the guard loading and are returned.
func (g *AdminGuard) Resolve(ctx context.Context) (GuardState, error) {
	if !g.flags.Load() {
		return g.set(GuardRedirect), nil
	}
	ok, err := g.api.AdminSession(ctx)
	if err != nil {
		return g.set(GuardLoading), err
	}
	if !ok {
		g.flags.Store(false)
		return g.set(GuardRedirect), nil
	}
	return g.set(GuardAllowed), nil
}

// Login authenticates against the admin endpoint. Non-admins are rejected by
// the server, which also revokes the session it just created, so the flag is
// only set on success.
func (g *AdminGuard) Login(ctx context.Context, email, password string) (GuardState, error) {
	if _, err := g.api.AdminLogin(ctx, email, password); err != nil {
		g.flags.Store(false)
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeForbidden {
			return g.set(GuardRedirect), pkgerrors.New(pkgerrors.CodeForbidden, "Access denied")
		}
		return g.set(GuardRedirect), err
	}
	g.flags.Store(true)
	return g.set(GuardAllowed), nil
}

// Logout clears both the server session and the local flag. The guard ends
// in GuardRedirect even when the server call fails.
func (g *AdminGuard) Logout(ctx context.Context) (GuardState, error) {
	err := g.api.Logout(ctx)
	g.flags.Store(false)
	return g.set(GuardRedirect), err
}
