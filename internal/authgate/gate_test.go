package authgate

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"infinite-experiment/hangar/internal/gateway"
	"infinite-experiment/hangar/internal/models/dtos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockSource implements IdentitySource for testing
type mockSource struct {
	whoAmIFunc     func(ctx context.Context) gateway.Result[dtos.Identity]
	checkAdminFunc func(ctx context.Context) gateway.Result[bool]
	calls          atomic.Int32
}

func (m *mockSource) WhoAmI(ctx context.Context) gateway.Result[dtos.Identity] {
	m.calls.Add(1)
	return m.whoAmIFunc(ctx)
}

func (m *mockSource) CheckAdmin(ctx context.Context) gateway.Result[bool] {
	if m.checkAdminFunc == nil {
		return gateway.Result[bool]{Success: true}
	}
	return m.checkAdminFunc(ctx)
}

func hanging(ctx context.Context) gateway.Result[dtos.Identity] {
	<-ctx.Done()
	return gateway.Result[dtos.Identity]{Error: "The request was cancelled"}
}

func signedIn(ctx context.Context) gateway.Result[dtos.Identity] {
	return gateway.Result[dtos.Identity]{Success: true, Data: dtos.Identity{UserID: "u1", Name: "Amelia", Role: "authenticated"}}
}

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *noticeLog) Notify(x Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, x)
}

func (n *noticeLog) kinds() []NoticeKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []NoticeKind
	for _, x := range n.notices {
		out = append(out, x.Kind)
	}
	return out
}

func quiet() Option { return WithLogger(zap.NewNop().Sugar()) }

func TestGate_TimeoutWithoutCacheRedirectsOnce(t *testing.T) {
	src := &mockSource{whoAmIFunc: hanging}
	notes := &noticeLog{}
	g := New(src, Config{Timeout: 30 * time.Millisecond}, WithNotifier(notes), quiet())
	defer g.Close()

	d := g.Resolve(context.Background())
	assert.Equal(t, OutcomeRedirectLogin, d.Outcome)
	assert.Equal(t, StateTimedOut, d.State)
	assert.False(t, d.FromCache)

	again := g.Resolve(context.Background())
	assert.Equal(t, d, again)
	assert.Equal(t, []NoticeKind{NoticeTimeout}, notes.kinds())
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestGate_TimeoutWithCachedAdminRenders(t *testing.T) {
	cache := NewMemoryIdentityCache(0)
	require.NoError(t, cache.Store(context.Background(), CachedIdentity{
		Identity: dtos.Identity{UserID: "u1", IsAdmin: true},
		CachedAt: time.Now(),
	}))

	notes := &noticeLog{}
	g := New(&mockSource{whoAmIFunc: hanging}, Config{
		Timeout:             30 * time.Millisecond,
		RequireAdmin:        true,
		AllowCachedFallback: true,
		MaxCachedAge:        time.Hour,
	}, WithCache(cache), WithNotifier(notes), quiet())
	defer g.Close()

	d := g.Resolve(context.Background())
	assert.Equal(t, OutcomeRender, d.Outcome)
	assert.True(t, d.FromCache)
	require.NotNil(t, d.Identity)
	assert.Equal(t, "u1", d.Identity.UserID)
	assert.Equal(t, []NoticeKind{NoticeTimeout}, notes.kinds())
}

func TestGate_CachedFallbackRespectsConfig(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		cached CachedIdentity
	}{
		{
			name:   "fallback disabled",
			cfg:    Config{Timeout: 20 * time.Millisecond},
			cached: CachedIdentity{Identity: dtos.Identity{UserID: "u1"}, CachedAt: time.Now()},
		},
		{
			name:   "too old",
			cfg:    Config{Timeout: 20 * time.Millisecond, AllowCachedFallback: true, MaxCachedAge: time.Minute},
			cached: CachedIdentity{Identity: dtos.Identity{UserID: "u1"}, CachedAt: time.Now().Add(-time.Hour)},
		},
		{
			name:   "cached non-admin on admin view",
			cfg:    Config{Timeout: 20 * time.Millisecond, AllowCachedFallback: true, RequireAdmin: true},
			cached: CachedIdentity{Identity: dtos.Identity{UserID: "u1"}, CachedAt: time.Now()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewMemoryIdentityCache(0)
			require.NoError(t, cache.Store(context.Background(), tt.cached))

			g := New(&mockSource{whoAmIFunc: hanging}, tt.cfg, WithCache(cache), quiet())
			defer g.Close()

			d := g.Resolve(context.Background())
			assert.Equal(t, OutcomeRedirectLogin, d.Outcome)
			assert.False(t, d.FromCache)
		})
	}
}

func TestGate_AdminDenied(t *testing.T) {
	notes := &noticeLog{}
	src := &mockSource{
		whoAmIFunc: signedIn,
		checkAdminFunc: func(ctx context.Context) gateway.Result[bool] {
			return gateway.Result[bool]{Success: true, Data: false}
		},
	}
	g := New(src, Config{RequireAdmin: true}, WithNotifier(notes), quiet())
	defer g.Close()

	d := g.Resolve(context.Background())
	assert.Equal(t, OutcomeRedirectUnauthorized, d.Outcome)
	assert.Equal(t, StateAuthenticated, d.State)
	assert.Equal(t, []NoticeKind{NoticeAdminDenied}, notes.kinds())

	g.Resolve(context.Background())
	assert.Len(t, notes.kinds(), 1)
}

func TestGate_AdminCheckFailureIsUnauthorized(t *testing.T) {
	src := &mockSource{
		whoAmIFunc: signedIn,
		checkAdminFunc: func(ctx context.Context) gateway.Result[bool] {
			return gateway.Result[bool]{Error: "Internal server error"}
		},
	}
	g := New(src, Config{RequireAdmin: true}, quiet())
	defer g.Close()

	assert.Equal(t, OutcomeRedirectUnauthorized, g.Resolve(context.Background()).Outcome)
}

func TestGate_AuthenticatedRendersAndCaches(t *testing.T) {
	cache := NewMemoryIdentityCache(0)
	src := &mockSource{
		whoAmIFunc: signedIn,
		checkAdminFunc: func(ctx context.Context) gateway.Result[bool] {
			return gateway.Result[bool]{Success: true, Data: true}
		},
	}
	g := New(src, Config{RequireAdmin: true}, WithCache(cache), quiet())
	defer g.Close()

	d := g.Resolve(context.Background())
	assert.Equal(t, OutcomeRender, d.Outcome)
	assert.Equal(t, StateAuthenticated, g.State())

	cached, ok, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, cached.Identity.IsAdmin)
	assert.Equal(t, "Amelia", cached.Identity.Name)
}

func TestGate_SignedOutRedirectsToLogin(t *testing.T) {
	notes := &noticeLog{}
	g := New(&mockSource{whoAmIFunc: func(ctx context.Context) gateway.Result[dtos.Identity] {
		return gateway.Result[dtos.Identity]{Error: "Authentication required"}
	}}, Config{}, WithNotifier(notes), quiet())
	defer g.Close()

	d := g.Resolve(context.Background())
	assert.Equal(t, OutcomeRedirectLogin, d.Outcome)
	assert.Equal(t, StateUnauthenticated, d.State)
	assert.Empty(t, notes.kinds())
}

func TestGate_ShowLoadingAfterGrace(t *testing.T) {
	release := make(chan struct{})
	g := New(&mockSource{whoAmIFunc: func(ctx context.Context) gateway.Result[dtos.Identity] {
		<-release
		return signedIn(ctx)
	}}, Config{Grace: 10 * time.Millisecond}, quiet())
	defer g.Close()

	assert.False(t, g.ShowLoading())
	assert.Eventually(t, g.ShowLoading, time.Second, 5*time.Millisecond)

	close(release)
	g.Resolve(context.Background())
	assert.False(t, g.ShowLoading())
}

func TestFileIdentityCache(t *testing.T) {
	ctx := context.Background()
	c := NewFileIdentityCache(filepath.Join(t.TempDir(), "nested", "identity.yaml"))

	_, ok, err := c.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.Store(ctx, CachedIdentity{
		Identity: dtos.Identity{UserID: "u1", Email: "a@example.com", IsAdmin: true},
		CachedAt: at,
	}))

	got, ok, err := c.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a@example.com", got.Identity.Email)
	assert.True(t, got.Identity.IsAdmin)
	assert.True(t, at.Equal(got.CachedAt))

	require.NoError(t, c.Clear(ctx))
	require.NoError(t, c.Clear(ctx))
	_, ok, _ = c.Load(ctx)
	assert.False(t, ok)
}

func TestGate_RejectionRevokesCachedIdentity(t *testing.T) {
	cache := NewMemoryIdentityCache(0)
	cfg := Config{
		Timeout:             50 * time.Millisecond,
		RequireAdmin:        true,
		AllowCachedFallback: true,
		MaxCachedAge:        time.Hour,
	}
	admin := func(ctx context.Context) gateway.Result[bool] { return gateway.Result[bool]{Success: true, Data: true} }
	resolve := func(src *mockSource) Decision {
		g := New(src, cfg, WithCache(cache), quiet())
		defer g.Close()
		return g.Resolve(context.Background())
	}

	d := resolve(&mockSource{whoAmIFunc: signedIn, checkAdminFunc: admin})
	require.Equal(t, OutcomeRender, d.Outcome)
	_, ok, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	d = resolve(&mockSource{whoAmIFunc: func(context.Context) gateway.Result[dtos.Identity] {
		return gateway.Result[dtos.Identity]{Error: "You must be signed in to do that", Unauthorized: true}
	}})
	assert.Equal(t, OutcomeRedirectLogin, d.Outcome)

	d = resolve(&mockSource{whoAmIFunc: hanging})
	assert.Equal(t, OutcomeRedirectLogin, d.Outcome)
	assert.Equal(t, StateTimedOut, d.State)
	assert.False(t, d.FromCache)
}

func TestGate_TransportFailureKeepsCachedIdentity(t *testing.T) {
	cache := NewMemoryIdentityCache(0)
	require.NoError(t, cache.Store(context.Background(), CachedIdentity{
		Identity: dtos.Identity{UserID: "u1", IsAdmin: true},
		CachedAt: time.Now(),
	}))

	g := New(&mockSource{whoAmIFunc: func(context.Context) gateway.Result[dtos.Identity] {
		return gateway.Result[dtos.Identity]{Error: "connection refused"}
	}}, Config{Timeout: time.Second, AllowCachedFallback: true}, WithCache(cache), quiet())
	defer g.Close()

	d := g.Resolve(context.Background())
	assert.Equal(t, OutcomeRedirectLogin, d.Outcome)

	_, ok, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGate_AdminCheckRejectionRevokesCache(t *testing.T) {
	cache := NewMemoryIdentityCache(0)
	require.NoError(t, cache.Store(context.Background(), CachedIdentity{
		Identity: dtos.Identity{UserID: "u1", IsAdmin: true},
		CachedAt: time.Now(),
	}))

	g := New(&mockSource{
		whoAmIFunc: signedIn,
		checkAdminFunc: func(context.Context) gateway.Result[bool] {
			return gateway.Result[bool]{Error: "You must be signed in to do that", Unauthorized: true}
		},
	}, Config{Timeout: time.Second, RequireAdmin: true}, WithCache(cache), quiet())
	defer g.Close()

	d := g.Resolve(context.Background())
	assert.Equal(t, OutcomeRedirectLogin, d.Outcome)
	assert.Equal(t, StateUnauthenticated, d.State)

	_, ok, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
