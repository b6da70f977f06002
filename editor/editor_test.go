package editor

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchbook/branchbook-api/client"
	"github.com/branchbook/branchbook-api/models"
	"github.com/branchbook/branchbook-api/router"
	"github.com/branchbook/branchbook-api/testutil"
)

var errBoom = errors.New("boom")

// fakeAPI is an in-memory server for one user.
type fakeAPI struct {
	branches    []models.Branch
	nodes       map[uint]*models.Node
	connections []models.Connection
	nextID      uint

	updates        []models.UpdateNodeRequest
	failConnection bool
	failDelete     bool
}

func newFakeAPI() *fakeAPI {
	f := &fakeAPI{nodes: map[uint]*models.Node{}, nextID: 100}
	f.branches = []models.Branch{{ID: 1, Name: models.DefaultBranchName}, {ID: 2, Name: "Other"}}
	f.nodes[10] = &models.Node{ID: 10, BranchID: 1, Name: "Root", Role: models.RoleRoot}
	f.nodes[11] = &models.Node{ID: 11, BranchID: 2, Name: "Elsewhere", X: 5, Y: 5}
	return f
}

func (f *fakeAPI) ListBranches(ctx context.Context) ([]models.Branch, error) {
	return f.branches, nil
}

func (f *fakeAPI) ListNodes(ctx context.Context, branchID uint) ([]models.Node, error) {
	var out []models.Node
	for id := uint(0); id <= f.nextID; id++ {
		if n, ok := f.nodes[id]; ok && n.BranchID == branchID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeAPI) ListConnections(ctx context.Context, branchID uint) ([]models.Connection, error) {
	var out []models.Connection
	for _, c := range f.connections {
		if c.BranchID == branchID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeAPI) CreateNode(ctx context.Context, branchID uint, req models.CreateNodeRequest) (*models.Node, error) {
	f.nextID++
	n := &models.Node{ID: f.nextID, BranchID: branchID, Name: req.Name, X: req.X, Y: req.Y, Role: models.RoleDefault}
	f.nodes[n.ID] = n
	out := *n
	return &out, nil
}

func (f *fakeAPI) UpdateNode(ctx context.Context, branchID, nodeID uint, req models.UpdateNodeRequest) (*models.Node, error) {
	f.updates = append(f.updates, req)
	n, ok := f.nodes[nodeID]
	if !ok {
		return nil, errBoom
	}
	if req.Name != nil {
		n.Name = *req.Name
	}
	if req.X != nil {
		n.X = *req.X
	}
	if req.Y != nil {
		n.Y = *req.Y
	}
	if req.Version != nil {
		n.Version = *req.Version
	}
	out := *n
	return &out, nil
}

func (f *fakeAPI) DeleteNode(ctx context.Context, branchID, nodeID uint) error {
	if f.failDelete {
		return errBoom
	}
	delete(f.nodes, nodeID)
	return nil
}

func (f *fakeAPI) CreateConnection(ctx context.Context, branchID, from, to uint) (*models.Connection, error) {
	if f.failConnection {
		return nil, errBoom
	}
	c := models.Connection{ID: uint(len(f.connections) + 1), BranchID: branchID, FromNodeID: from, ToNodeID: to}
	f.connections = append(f.connections, c)
	return &c, nil
}

func loadedEditor(t *testing.T) (*Editor, *fakeAPI) {
	t.Helper()
	api := newFakeAPI()
	e := New(api)
	require.NoError(t, e.LoadBranches(context.Background()))
	return e, api
}

func TestLoadBranches_OpensFirst(t *testing.T) {
	e, _ := loadedEditor(t)

	assert.Equal(t, Idle, e.State())
	assert.Equal(t, uint(1), e.BranchID())
	assert.Len(t, e.Branches(), 2)
	require.Len(t, e.Nodes(), 1)
	assert.Equal(t, "Root", e.Nodes()[0].Name)
}

func TestLoadBranches_Empty(t *testing.T) {
	api := newFakeAPI()
	api.branches = nil
	e := New(api)

	require.NoError(t, e.LoadBranches(context.Background()))
	assert.Equal(t, NoBranch, e.State())

	_, err := e.ClickNode(10)
	assert.ErrorIs(t, err, ErrNoBranch)
	_, err = e.AddChild(context.Background())
	assert.ErrorIs(t, err, ErrNoBranch)
}

func TestSelection(t *testing.T) {
	e, _ := loadedEditor(t)

	name, err := e.ClickNode(10)
	require.NoError(t, err)
	assert.Equal(t, "Root", name)
	assert.Equal(t, Selected, e.State())
	assert.Equal(t, "Root", e.NameField())

	_, err = e.ClickNode(11)
	assert.ErrorIs(t, err, ErrUnknownNode)
	assert.Equal(t, uint(10), e.SelectedID())

	e.ClickCanvas()
	assert.Equal(t, Idle, e.State())
	assert.Empty(t, e.NameField())

	_, err = e.AddChild(context.Background())
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestSelectBranch_ReplacesCanvas(t *testing.T) {
	e, _ := loadedEditor(t)
	_, err := e.ClickNode(10)
	require.NoError(t, err)

	require.NoError(t, e.SelectBranch(context.Background(), 2))
	assert.Equal(t, Idle, e.State())
	assert.Zero(t, e.SelectedID())
	require.Len(t, e.Nodes(), 1)
	assert.Equal(t, uint(11), e.Nodes()[0].ID)
}

func TestDrag_OptimisticThenOnePersist(t *testing.T) {
	e, api := loadedEditor(t)
	ctx := context.Background()

	require.NoError(t, e.PointerDown(10, 15, 20))
	assert.Equal(t, Dragging, e.State())

	e.PointerMove(50, 60)
	e.PointerMove(115, 120)

	n, _ := e.Node(10)
	assert.Equal(t, 100.0, n.X)
	assert.Equal(t, 100.0, n.Y)
	assert.Empty(t, api.updates, "moves stay local")

	require.NoError(t, e.PointerUp(ctx))
	assert.Equal(t, Idle, e.State())
	require.Len(t, api.updates, 1)
	assert.Equal(t, 100.0, *api.updates[0].X)
	assert.Equal(t, 100.0, *api.updates[0].Y)
	assert.Nil(t, api.updates[0].Name)

	// Nothing more once the drag is over.
	e.PointerMove(0, 0)
	require.NoError(t, e.PointerUp(ctx))
	assert.Len(t, api.updates, 1)
}

func TestDrag_ResumesSelection(t *testing.T) {
	e, _ := loadedEditor(t)

	_, err := e.ClickNode(10)
	require.NoError(t, err)
	require.NoError(t, e.PointerDown(10, 0, 0))
	require.NoError(t, e.PointerUp(context.Background()))
	assert.Equal(t, Selected, e.State())
}

func TestSegmentsFollowDrag(t *testing.T) {
	e, _ := loadedEditor(t)
	ctx := context.Background()

	_, err := e.ClickNode(10)
	require.NoError(t, err)
	child, err := e.AddChild(ctx)
	require.NoError(t, err)

	segments := e.Segments()
	require.Len(t, segments, 1)
	assert.Equal(t, Edge{From: 10, To: child.ID}, segments[0].Edge)
	assert.Equal(t, float64(NodeWidth), segments[0].X1)
	assert.Equal(t, float64(ChildOffsetX), segments[0].X2)

	require.NoError(t, e.PointerDown(child.ID, ChildOffsetX, 0))
	e.PointerMove(ChildOffsetX+30, 40)
	segments = e.Segments()
	assert.Equal(t, float64(ChildOffsetX+30), segments[0].X2)
	assert.Equal(t, float64(40+AnchorDepth), segments[0].Y2)
}

func TestAddChild_StacksChildren(t *testing.T) {
	e, api := loadedEditor(t)
	ctx := context.Background()

	_, err := e.ClickNode(10)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		child, err := e.AddChild(ctx)
		require.NoError(t, err)
		assert.Equal(t, NewNodeName, child.Name)
		assert.Equal(t, float64(ChildOffsetX), child.X)
		assert.Equal(t, float64(ChildSpacing*i), child.Y)
	}

	assert.Len(t, e.Nodes(), 4)
	assert.Len(t, e.Connections(), 3)
	assert.Len(t, api.connections, 3)
	assert.Equal(t, Selected, e.State())
}

func TestAddChild_ConnectionFailureKeepsNode(t *testing.T) {
	e, api := loadedEditor(t)
	api.failConnection = true

	_, err := e.ClickNode(10)
	require.NoError(t, err)

	child, err := e.AddChild(context.Background())
	var partial *PartialAddError
	require.ErrorAs(t, err, &partial)
	assert.ErrorIs(t, err, errBoom)
	require.NotNil(t, child)

	_, onCanvas := e.Node(child.ID)
	assert.True(t, onCanvas)
	_, onServer := api.nodes[child.ID]
	assert.True(t, onServer)
	assert.Empty(t, e.Connections())
}

func TestRemoveSelected(t *testing.T) {
	e, api := loadedEditor(t)
	ctx := context.Background()

	_, err := e.ClickNode(10)
	require.NoError(t, err)
	a, err := e.AddChild(ctx)
	require.NoError(t, err)
	b, err := e.AddChild(ctx)
	require.NoError(t, err)

	_, err = e.ClickNode(a.ID)
	require.NoError(t, err)
	grandchild, err := e.AddChild(ctx)
	require.NoError(t, err)

	require.NoError(t, e.RemoveSelected(ctx))
	assert.Equal(t, Idle, e.State())
	assert.Zero(t, e.SelectedID())

	_, ok := e.Node(a.ID)
	assert.False(t, ok)
	_, ok = api.nodes[a.ID]
	assert.False(t, ok)

	assert.Equal(t, []Edge{{From: 10, To: b.ID}}, e.Connections())
	_, ok = e.Node(grandchild.ID)
	assert.True(t, ok)
}

func TestRemoveSelected_ServerFailureKeepsCanvas(t *testing.T) {
	e, api := loadedEditor(t)
	api.failDelete = true

	_, err := e.ClickNode(10)
	require.NoError(t, err)

	assert.ErrorIs(t, e.RemoveSelected(context.Background()), errBoom)
	assert.Equal(t, Selected, e.State())
	assert.Len(t, e.Nodes(), 1)
}

func TestVersionsIncrease(t *testing.T) {
	e, api := loadedEditor(t)
	ctx := context.Background()

	_, err := e.ClickNode(10)
	require.NoError(t, err)
	require.NoError(t, e.Rename(ctx, "Start"))
	require.NoError(t, e.PointerDown(10, 0, 0))
	e.PointerMove(5, 5)
	require.NoError(t, e.PointerUp(ctx))
	require.NoError(t, e.Rename(ctx, "Begin"))

	require.Len(t, api.updates, 3)
	for i, u := range api.updates {
		require.NotNil(t, u.Version)
		assert.Equal(t, int64(i+1), *u.Version)
	}

	n, _ := e.Node(10)
	assert.Equal(t, "Begin", n.Name)
	assert.Equal(t, int64(3), n.Version)
	assert.Equal(t, "Begin", api.nodes[10].Name)
}

func TestEditor_AgainstServer(t *testing.T) {
	srv := httptest.NewServer(router.NewRouter(testutil.SetupTestDB(t), testutil.TestEnvironment()))
	t.Cleanup(srv.Close)

	api, err := client.New(srv.URL, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, api.Register(ctx, "ada", "pw", "ada@example.com"))

	e := New(api)
	require.NoError(t, e.LoadBranches(ctx))
	require.Len(t, e.Nodes(), 1)
	root := e.Nodes()[0]

	_, err = e.ClickNode(root.ID)
	require.NoError(t, err)
	child, err := e.AddChild(ctx)
	require.NoError(t, err)

	require.NoError(t, e.PointerDown(child.ID, child.X, child.Y))
	e.PointerMove(child.X+10, child.Y+10)
	require.NoError(t, e.PointerUp(ctx))
	require.NoError(t, e.Rename(ctx, "Renamed root"))

	// A fresh editor sees what the first one persisted.
	fresh := New(api)
	require.NoError(t, fresh.LoadBranches(ctx))
	moved, ok := fresh.Node(child.ID)
	require.True(t, ok)
	assert.Equal(t, child.X+10, moved.X)
	assert.Equal(t, int64(1), moved.Version)
	renamed, _ := fresh.Node(root.ID)
	assert.Equal(t, "Renamed root", renamed.Name)
	assert.Equal(t, []Edge{{From: root.ID, To: child.ID}}, fresh.Connections())

	_, err = e.ClickNode(child.ID)
	require.NoError(t, err)
	require.NoError(t, e.RemoveSelected(ctx))

	require.NoError(t, fresh.SelectBranch(ctx, fresh.BranchID()))
	assert.Len(t, fresh.Nodes(), 1)
	assert.Empty(t, fresh.Connections())
}
