package cascade

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/cosmoclear/internal/cache"
	"github.com/imamik/cosmoclear/internal/metrics"
	"github.com/imamik/cosmoclear/internal/remote"
	"github.com/imamik/cosmoclear/internal/remote/fake"
	"github.com/imamik/cosmoclear/internal/resource"
	"github.com/imamik/cosmoclear/internal/session"
)

type env struct {
	port   *fake.Port
	store  *session.Store
	cache  *cache.Cache
	group  resource.AccountGroup
	acc    resource.DataAccount
	db     string
	c1, c2 string
	other  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	port := fake.New()
	store := session.NewStore()
	store.SignIn(session.New(session.StaticCredential("tenant", "token")))
	port.Store = store

	e := &env{port: port, store: store}
	e.group = port.AddGroup("sub", "Dev", "tenant")
	e.acc = port.AddAccount("sub", "shop", remote.DocumentAccountKind)
	e.db = port.AddDatabase(e.acc.ID, "main")
	e.c1 = port.AddContainer(e.db, "orders")
	e.c2 = port.AddContainer(e.db, "empty")
	port.AddItems(e.c1, "a", "b", "c")

	otherDB := port.AddDatabase(e.acc.ID, "logs")
	e.other = port.AddContainer(otherDB, "requests")
	port.AddItems(e.other, "x", "y")

	e.cache = cache.New(port, store)
	t.Cleanup(e.cache.Close)
	return e
}

func (e *env) node(t *testing.T, path ...string) resource.Node {
	t.Helper()
	var parent *resource.Node
	var current resource.Node
	for _, name := range path {
		children, err := e.cache.ChildrenOf(context.Background(), parent)
		require.NoError(t, err)
		found := false
		for _, c := range children {
			if c.DisplayName() == name {
				current = c
				found = true
				break
			}
		}
		require.True(t, found, "node %q not found", name)
		parent = &current
	}
	return current
}

func TestClear_DatabaseDeletesEveryItem(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	engine := New(e.cache, e.port)

	report, err := engine.Clear(context.Background(), e.node(t, "Dev", "shop", "main"))
	require.NoError(t, err)
	require.NoError(t, report.Err())

	assert.Equal(t, 2, report.ContainersVisited)
	assert.Equal(t, 3, report.ItemsFound)
	assert.Equal(t, 3, report.ItemsDeleted)
	assert.Equal(t, 3, e.port.CallCount("delete"))
	assert.Zero(t, e.port.ItemCount(e.c1))
	assert.Equal(t, 2, e.port.ItemCount(e.other), "sibling database untouched")
}

func TestClear_SubscriptionReachesAllContainers(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	engine := New(e.cache, e.port, WithConcurrency(2))

	report, err := engine.Clear(context.Background(), e.node(t, "Dev"))
	require.NoError(t, err)

	assert.Equal(t, 3, report.ContainersVisited)
	assert.Equal(t, 5, report.ItemsDeleted)
	assert.Zero(t, e.port.ItemCount(e.c1))
	assert.Zero(t, e.port.ItemCount(e.other))
}

func TestClear_SingleContainer(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	engine := New(e.cache, e.port)

	report, err := engine.Clear(context.Background(), e.node(t, "Dev", "shop", "logs", "requests"))
	require.NoError(t, err)

	assert.Equal(t, 1, report.ContainersVisited)
	assert.Equal(t, 2, report.ItemsDeleted)
	assert.Equal(t, 3, e.port.ItemCount(e.c1))
}

func TestClear_UsesCachedLists(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	db := e.node(t, "Dev", "shop", "main")
	_, err := e.cache.ChildrenOf(context.Background(), &db)
	require.NoError(t, err)

	_, err = New(e.cache, e.port).Clear(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, e.port.CallCount("containers:"+e.db))
}

func TestClear_IsIdempotent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	engine := New(e.cache, e.port)
	db := e.node(t, "Dev", "shop", "main")

	_, err := engine.Clear(context.Background(), db)
	require.NoError(t, err)

	report, err := engine.Clear(context.Background(), db)
	require.NoError(t, err)
	assert.NoError(t, report.Err())
	assert.Zero(t, report.ItemsDeleted)
	assert.Equal(t, 3, e.port.CallCount("delete"))
}

func TestClear_ItemFailureDoesNotStopSiblings(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	boom := errors.New("precondition failed")
	e.port.Errors["delete:"+e.c1+"/b"] = boom
	rec := metrics.New()

	report, err := New(e.cache, e.port, WithMetrics(rec)).Clear(context.Background(), e.node(t, "Dev", "shop"))
	require.NoError(t, err)

	assert.Equal(t, 4, report.ItemsDeleted)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, e.c1, report.Failures[0].Container)
	assert.Equal(t, "b", report.Failures[0].Item)
	assert.ErrorIs(t, report.Err(), boom)
	assert.Equal(t, 1, e.port.ItemCount(e.c1))
	assert.Zero(t, e.port.ItemCount(e.other))
}

func TestClear_ListItemsFailureIsReported(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.port.Errors["items:"+e.c1] = remote.ErrUnauthorized

	report, err := New(e.cache, e.port).Clear(context.Background(), e.node(t, "Dev"))
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Empty(t, report.Failures[0].Item)
	assert.ErrorIs(t, report.Err(), remote.ErrUnauthorized)
	assert.Equal(t, 2, report.ItemsDeleted)
}

func TestClear_SkipsPlaceholders(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.port.Errors["containers:"+e.db] = remote.ErrUnauthorized

	report, err := New(e.cache, e.port).Clear(context.Background(), e.node(t, "Dev", "shop"))
	require.NoError(t, err)

	assert.Equal(t, 1, report.ContainersVisited)
	assert.Equal(t, 2, report.ItemsDeleted)
	assert.Equal(t, 3, e.port.ItemCount(e.c1))
	require.Len(t, report.Failures, 1, "an unlistable database leaves documents behind")
	assert.Equal(t, e.db, report.Failures[0].Parent)
	assert.ErrorIs(t, report.Err(), ErrChildrenUnavailable)
}

func TestClear_UnlistableTargetIsReported(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	account := e.node(t, "Dev", "shop")
	e.port.Errors["databases:"+e.acc.ID] = remote.ErrUnauthorized
	rec := metrics.New()

	report, err := New(e.cache, e.port, WithMetrics(rec)).Clear(context.Background(), account)
	require.NoError(t, err)

	assert.Zero(t, report.ContainersVisited)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, e.acc.ID, report.Failures[0].Parent)
	assert.ErrorIs(t, report.Err(), ErrChildrenUnavailable)
	assert.Equal(t, 3, e.port.ItemCount(e.c1))
	assert.Equal(t, 2, e.port.ItemCount(e.other))
}

func TestClear_ItemWithoutIDIsReported(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.port.AddItems(e.c1, "")

	report, err := New(e.cache, e.port).Clear(context.Background(), e.node(t, "Dev", "shop", "main", "orders"))
	require.NoError(t, err)

	assert.Equal(t, 4, report.ItemsFound)
	assert.Equal(t, 3, report.ItemsDeleted)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, e.c1, report.Failures[0].Container)
	assert.ErrorIs(t, report.Err(), ErrMissingItemID)
	assert.Equal(t, report.ItemsFound, report.ItemsDeleted+len(report.Failures))
}

func TestClear_PlaceholderNodeIsRejected(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	_, err := New(e.cache, e.port).Clear(context.Background(), resource.NoResourcesFound())
	require.ErrorIs(t, err, cache.ErrSentinelNode)
	assert.Zero(t, e.port.CallCount("delete"))
}

func TestClear_NotSignedInIsHardError(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	group := e.node(t, "Dev")
	e.store.SignOut()

	report, err := New(e.cache, e.port).Clear(context.Background(), group)
	require.ErrorIs(t, err, session.ErrNotSignedIn)
	assert.Zero(t, report.ItemsDeleted)
}

func TestClear_CredentialDesyncIsHardError(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	group := e.node(t, "Dev")
	e.store.SignIn(session.New(session.StaticCredential("someone-else", "token")))

	_, err := New(e.cache, e.port).Clear(context.Background(), group)
	require.ErrorIs(t, err, session.ErrCredentialNotFound)
}

type recordingArchiver struct {
	mu    sync.Mutex
	fail  map[string]bool
	saved []string
}

func (a *recordingArchiver) Archive(_ context.Context, _ resource.Container, item resource.Item) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail[item.ID] {
		return errors.New("bucket unavailable")
	}
	a.saved = append(a.saved, item.ID)
	return nil
}

func TestClear_ArchivesBeforeDelete(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	archiver := &recordingArchiver{fail: map[string]bool{"c": true}}

	report, err := New(e.cache, e.port, WithArchiver(archiver)).Clear(context.Background(), e.node(t, "Dev", "shop", "main"))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a", "b"}, archiver.saved)
	assert.Equal(t, 2, report.ItemsDeleted)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "c", report.Failures[0].Item)
	assert.Equal(t, 1, e.port.ItemCount(e.c1), "unarchived item must be kept")
}

func TestClear_CancelledContext(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	db := e.node(t, "Dev", "shop", "main")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(e.cache, e.port).Clear(ctx, db)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFailure_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "container c1: boom", Failure{Container: "c1", Err: errors.New("boom")}.Error())
	assert.Equal(t, "container c1 item x: boom", Failure{Container: "c1", Item: "x", Err: errors.New("boom")}.Error())
	assert.Equal(t, "listing below acc: boom", Failure{Parent: "acc", Err: errors.New("boom")}.Error())
	assert.NoError(t, (&Report{}).Err())
}
