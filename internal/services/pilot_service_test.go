package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"infinite-experiment/hangar/internal/auth"
	"infinite-experiment/hangar/internal/common"
	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/models/dtos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimsFor(userID string) auth.UserClaims {
	return &auth.JWTClaims{UserUUID: userID, EmailValue: userID + "@example.com", RoleValue: auth.RoleAuthenticated}
}

func TestPilotService_RegisterAndWhoAmI(t *testing.T) {
	stack := newTestStack(t, nil, nil)
	ctx := context.Background()

	pilot, err := stack.pilotSvc.Register(ctx, claimsFor("user-1"), dtos.RegisterPilotRequest{Name: " Amelia ", Email: "amelia@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Amelia", pilot.Name)
	require.NotNil(t, pilot.AuthUserID)

	_, err = stack.pilotSvc.Register(ctx, claimsFor("user-1"), dtos.RegisterPilotRequest{Name: "Again", Email: "again@example.com"})
	assert.Equal(t, constants.ErrCodeConflict, CodeOf(err))

	me, err := stack.pilotSvc.WhoAmI(ctx, claimsFor("user-1"))
	require.NoError(t, err)
	assert.Equal(t, pilot.ID, me.PilotID)
	assert.Equal(t, "Amelia", me.Name)
	assert.False(t, me.IsAdmin)
}

func TestPilotService_ResolveViewer(t *testing.T) {
	stack := newTestStack(t, nil, nil)
	pilot := stack.seedPilot(t, "alpha", "user-1", false)
	stack.seedPilot(t, "chief", "user-2", true)
	ctx := context.Background()

	v, err := stack.pilotSvc.ResolveViewer(ctx, claimsFor("user-1"))
	require.NoError(t, err)
	assert.Equal(t, pilot.ID, v.PilotID)
	assert.False(t, v.Privileged)

	v, err = stack.pilotSvc.ResolveViewer(ctx, claimsFor("user-2"))
	require.NoError(t, err)
	assert.True(t, v.Privileged)

	v, err = stack.pilotSvc.ResolveViewer(ctx, claimsFor("stranger"))
	require.NoError(t, err)
	assert.Empty(t, v.PilotID)
	assert.False(t, v.Privileged)
}

func TestPilotService_RegisterClaimsUnlinkedRecord(t *testing.T) {
	stack := newTestStack(t, nil, nil)
	seeded := stack.seedPilot(t, "walt", "", false)

	pilot, err := stack.pilotSvc.Register(context.Background(), claimsFor("user-9"), dtos.RegisterPilotRequest{Name: "Walt", Email: "WALT@example.com"})
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, pilot.ID)
	assert.Equal(t, "user-9", *pilot.AuthUserID)
}

func TestPilotService_HideExcludesFromDefaultList(t *testing.T) {
	stack := newTestStack(t, nil, nil)
	stack.seedPilot(t, "alpha", "user-1", false)
	bravo := stack.seedPilot(t, "bravo", "user-2", false)
	ctx := context.Background()

	_, err := stack.pilotSvc.Hide(ctx, dtos.IDRequest{ID: bravo.ID})
	require.NoError(t, err)

	visible, err := stack.pilotSvc.List(ctx, Actor{}, dtos.ListPilotsRequest{IncludeHidden: true})
	require.NoError(t, err)
	assert.Len(t, visible, 1, "non-admins never see hidden pilots")

	all, err := stack.pilotSvc.List(ctx, Actor{IsAdmin: true}, dtos.ListPilotsRequest{IncludeHidden: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPilotService_UpdatePilotInvalidatesAdminCache(t *testing.T) {
	stack := newTestStack(t, nil, nil)
	p := stack.seedPilot(t, "alpha", "user-1", false)
	ctx := context.Background()

	isAdmin, err := stack.admin.IsAdmin(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, isAdmin)

	_, err = stack.pilotSvc.UpdatePilot(ctx, dtos.UpdatePilotRequest{ID: p.ID, IsAdmin: boolPtr(true)})
	require.NoError(t, err)

	isAdmin, err = stack.admin.IsAdmin(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestPilotService_LinkAndProfile(t *testing.T) {
	stack := newTestStack(t, nil, nil)
	p := stack.seedPilot(t, "alpha", "", false)
	stack.seedPilot(t, "bravo", "user-2", false)
	ctx := context.Background()

	_, err := stack.pilotSvc.Link(ctx, dtos.LinkPilotRequest{ID: p.ID, AuthUserID: "user-2"})
	assert.Equal(t, constants.ErrCodeConflict, CodeOf(err))

	linked, err := stack.pilotSvc.Link(ctx, dtos.LinkPilotRequest{ID: p.ID, AuthUserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", *linked.AuthUserID)

	actor, err := stack.pilotSvc.ResolveActor(ctx, claimsFor("user-1"))
	require.NoError(t, err)
	assert.Equal(t, p.ID, actor.PilotID)

	updated, err := stack.pilotSvc.UpdateProfile(ctx, actor, dtos.UpdateProfileRequest{Name: strPtr("Alpha One")})
	require.NoError(t, err)
	assert.Equal(t, "Alpha One", updated.Name)

	_, err = stack.pilotSvc.UpdateProfile(ctx, Actor{}, dtos.UpdateProfileRequest{Name: strPtr("x")})
	assert.Equal(t, constants.ErrCodeNotFound, CodeOf(err))
}

type countingLookup struct {
	calls   atomic.Int32
	release chan struct{}
	isAdmin bool
}

func (c *countingLookup) IsAdmin(ctx context.Context, authUserID string) (bool, error) {
	c.calls.Add(1)
	<-c.release
	return c.isAdmin, nil
}

func TestAdminService_SharesConcurrentLookups(t *testing.T) {
	lookup := &countingLookup{release: make(chan struct{}), isAdmin: true}
	svc := NewAdminService(lookup, common.NewMemoryCache(time.Minute, time.Minute), time.Minute, nil)

	var wg sync.WaitGroup
	results := make([]bool, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = svc.IsAdmin(context.Background(), "user-1")
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(lookup.release)
	wg.Wait()

	for _, r := range results {
		assert.True(t, r)
	}
	assert.LessOrEqual(t, lookup.calls.Load(), int32(5))

	before := lookup.calls.Load()
	ok, err := svc.IsAdmin(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, before, lookup.calls.Load(), "second call served from cache")
}

func TestAdminService_ReadsThroughCache(t *testing.T) {
	lookup := &countingLookup{release: make(chan struct{}), isAdmin: true}
	close(lookup.release)
	cache := common.NewMemoryCache(time.Minute, time.Minute)
	svc := NewAdminService(lookup, cache, time.Minute, nil)
	ctx := context.Background()

	cache.Set(ctx, adminKey("user-1"), false, time.Minute)
	ok, err := svc.IsAdmin(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok, "cached flag wins")
	assert.Equal(t, int32(0), lookup.calls.Load())

	cache.Set(ctx, adminKey("user-1"), "yes", time.Minute)
	ok, err = svc.IsAdmin(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), lookup.calls.Load())
	repaired, _ := cache.Get(ctx, adminKey("user-1"))
	assert.Equal(t, true, repaired)

	ok, err = svc.IsAdmin(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, ok)
	cached, found := cache.Get(ctx, adminKey("user-2"))
	require.True(t, found)
	assert.Equal(t, true, cached)
}

func boolPtr(b bool) *bool { return &b }
