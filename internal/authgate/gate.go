// Package authgate decides whether a protected view may render for the
// current session. A Gate resolves once: it asks the server who the caller
// is (and, for admin views, whether they are an admin) and falls back to a
// cached identity only when configured to.
package authgate

import (
	"context"
	"sync"
	"time"

	"infinite-experiment/hangar/internal/gateway"
	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/models/dtos"

	"go.uber.org/zap"
)

type State int

const (
	StateResolving State = iota
	StateAuthenticated
	StateUnauthenticated
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateTimedOut:
		return "timed_out"
	}
	return "unknown"
}

type Outcome int

const (
	OutcomeRender Outcome = iota
	OutcomeRedirectLogin
	OutcomeRedirectUnauthorized
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRender:
		return "render"
	case OutcomeRedirectLogin:
		return "redirect_login"
	case OutcomeRedirectUnauthorized:
		return "redirect_unauthorized"
	}
	return "unknown"
}

// Decision is final for the lifetime of a Gate.
type Decision struct {
	Outcome  Outcome
	State    State
	Identity *dtos.Identity
	// FromCache is set when access was granted from a cached identity after
	// the server did not answer in time.
	FromCache bool
}

type NoticeKind string

const (
	NoticeTimeout     NoticeKind = "auth_timeout"
	NoticeAdminDenied NoticeKind = "admin_denied"
)

type Notice struct {
	Kind    NoticeKind
	Message string
}

type Notifier interface {
	Notify(Notice)
}

type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// IdentitySource is satisfied by *gateway.Gateway.
type IdentitySource interface {
	WhoAmI(ctx context.Context) gateway.Result[dtos.Identity]
	CheckAdmin(ctx context.Context) gateway.Result[bool]
}

type Config struct {
	Timeout      time.Duration
	Grace        time.Duration
	RequireAdmin bool

	// AllowCachedFallback grants access from the cached identity when the
	// server does not answer within Timeout. MaxCachedAge bounds how stale
	// that identity may be; zero means no bound.
	AllowCachedFallback bool
	MaxCachedAge        time.Duration
}

func DefaultConfig() Config {
	return Config{
		Timeout: 5 * time.Second,
		Grace:   200 * time.Millisecond,
	}
}

type Gate struct {
	src      IdentitySource
	cache    IdentityCache
	notifier Notifier
	cfg      Config
	log      *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State
	graceUp  bool
	grace    *time.Timer
	once     sync.Once
	decision Decision
}

type Option func(*Gate)

func WithCache(c IdentityCache) Option { return func(g *Gate) { g.cache = c } }

func WithNotifier(n Notifier) Option { return func(g *Gate) { g.notifier = n } }

func WithLogger(l *zap.SugaredLogger) Option { return func(g *Gate) { g.log = l } }

// New starts the grace window immediately. Zero durations in cfg take the
// defaults.
func New(src IdentitySource, cfg Config, opts ...Option) *Gate {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Grace <= 0 {
		cfg.Grace = def.Grace
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := &Gate{
		src:      src,
		cfg:      cfg,
		notifier: NotifierFunc(func(Notice) {}),
		ctx:      ctx,
		cancel:   cancel,
		state:    StateResolving,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logging.Named("authgate")
	}

	g.grace = time.AfterFunc(cfg.Grace, func() {
		g.mu.Lock()
		g.graceUp = true
		g.mu.Unlock()
	})
	return g
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// ShowLoading is true once the grace window has passed without a decision.
func (g *Gate) ShowLoading() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.graceUp && g.state == StateResolving
}

// Close stops the timers and abandons an in-flight resolution.
func (g *Gate) Close() {
	g.grace.Stop()
	g.cancel()
}

// Resolve blocks until a decision is reached. Later calls return the same
// decision without contacting the server or notifying again.
func (g *Gate) Resolve(ctx context.Context) Decision {
	g.once.Do(func() {
		d := g.resolve(ctx)
		g.grace.Stop()

		g.mu.Lock()
		g.state = d.State
		g.decision = d
		g.mu.Unlock()

		g.log.Debugw("Auth gate resolved", "state", d.State.String(), "outcome", d.Outcome.String(), "from_cache", d.FromCache)
	})

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

type lookup struct {
	identity  dtos.Identity
	whoErr    string
	rejected  bool
	isAdmin   bool
	adminErr  string
	adminDone bool
}

func (g *Gate) resolve(ctx context.Context) Decision {
	lctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan lookup, 1)
	go func() { done <- g.lookup(lctx) }()

	timer := time.NewTimer(g.cfg.Timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return g.decide(ctx, res)
	case <-timer.C:
		return g.timedOut(ctx)
	case <-ctx.Done():
		return Decision{Outcome: OutcomeRedirectLogin, State: StateUnauthenticated}
	case <-g.ctx.Done():
		return Decision{Outcome: OutcomeRedirectLogin, State: StateUnauthenticated}
	}
}

func (g *Gate) lookup(ctx context.Context) lookup {
	var res lookup

	who := g.src.WhoAmI(ctx)
	if !who.Success {
		res.whoErr = who.Error
		res.rejected = who.Unauthorized
		return res
	}
	res.identity = who.Data

	if g.cfg.RequireAdmin {
		admin := g.src.CheckAdmin(ctx)
		if admin.Unauthorized {
			res.whoErr = admin.Error
			res.rejected = true
			return res
		}
		res.adminDone = true
		res.isAdmin = admin.Success && admin.Data
		if !admin.Success {
			res.adminErr = admin.Error
		}
	}
	return res
}

func (g *Gate) decide(ctx context.Context, res lookup) Decision {
	if res.whoErr != "" {
		// Only an explicit rejection revokes the cached identity; transport
		// failures leave it for the timeout fallback.
		if res.rejected {
			g.forget(ctx)
		}
		g.log.Infow("Not signed in", "error", res.whoErr)
		return Decision{Outcome: OutcomeRedirectLogin, State: StateUnauthenticated}
	}

	identity := res.identity
	if res.adminDone {
		identity.IsAdmin = res.isAdmin
	}
	g.remember(ctx, identity)

	if g.cfg.RequireAdmin && !res.isAdmin {
		if res.adminErr != "" {
			g.log.Warnw("Admin check failed", "user_id", identity.UserID, "error", res.adminErr)
		}
		g.notifier.Notify(Notice{Kind: NoticeAdminDenied, Message: "You do not have access to this page"})
		return Decision{Outcome: OutcomeRedirectUnauthorized, State: StateAuthenticated, Identity: &identity}
	}

	return Decision{Outcome: OutcomeRender, State: StateAuthenticated, Identity: &identity}
}

func (g *Gate) timedOut(ctx context.Context) Decision {
	g.log.Warnw("Auth check timed out", "timeout", g.cfg.Timeout.String())
	g.notifier.Notify(Notice{Kind: NoticeTimeout, Message: "Sign-in check timed out"})

	d := Decision{Outcome: OutcomeRedirectLogin, State: StateTimedOut}
	if !g.cfg.AllowCachedFallback || g.cache == nil {
		return d
	}

	cached, ok, err := g.cache.Load(ctx)
	if err != nil {
		g.log.Warnw("Failed to read cached identity", "error", err)
		return d
	}
	if !ok || (g.cfg.MaxCachedAge > 0 && time.Since(cached.CachedAt) > g.cfg.MaxCachedAge) {
		return d
	}
	if g.cfg.RequireAdmin && !cached.Identity.IsAdmin {
		return d
	}

	identity := cached.Identity
	return Decision{Outcome: OutcomeRender, State: StateTimedOut, Identity: &identity, FromCache: true}
}

func (g *Gate) remember(ctx context.Context, identity dtos.Identity) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Store(ctx, CachedIdentity{Identity: identity, CachedAt: time.Now()}); err != nil {
		g.log.Warnw("Failed to cache identity", "error", err)
	}
}

func (g *Gate) forget(ctx context.Context) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Clear(ctx); err != nil {
		g.log.Warnw("Failed to clear cached identity", "error", err)
	}
}
