// Package editor is the interactive branch editor: a state machine over one
// branch's nodes and connections that persists every change through the API.
//
// An Editor is owned by a single goroutine (the UI event loop) and is not safe
// for concurrent use.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/branchbook/branchbook-api/models"
)

// Layout of children added with AddChild.
const (
	ChildOffsetX = 220
	ChildSpacing = 80

	// Connection anchors: right edge of the source, left edge of the target.
	NodeWidth   = 140
	AnchorDepth = 25

	NewNodeName = "Node"
)

var (
	ErrNoBranch    = errors.New("no branch loaded")
	ErrNoSelection = errors.New("no node selected")
	ErrUnknownNode = errors.New("node not on this branch")
)

type State int

const (
	NoBranch State = iota
	Idle
	Selected
	Dragging
)

func (s State) String() string {
	switch s {
	case NoBranch:
		return "no-branch"
	case Idle:
		return "idle"
	case Selected:
		return "selected"
	case Dragging:
		return "dragging"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// API is the part of the REST client the editor drives.
type API interface {
	ListBranches(ctx context.Context) ([]models.Branch, error)
	ListNodes(ctx context.Context, branchID uint) ([]models.Node, error)
	ListConnections(ctx context.Context, branchID uint) ([]models.Connection, error)
	CreateNode(ctx context.Context, branchID uint, req models.CreateNodeRequest) (*models.Node, error)
	UpdateNode(ctx context.Context, branchID, nodeID uint, req models.UpdateNodeRequest) (*models.Node, error)
	DeleteNode(ctx context.Context, branchID, nodeID uint) error
	CreateConnection(ctx context.Context, branchID, from, to uint) (*models.Connection, error)
}

// Edge is a connection as the editor tracks it locally.
type Edge struct {
	From uint
	To   uint
}

// Segment is a drawable connection between two anchor points.
type Segment struct {
	Edge
	X1, Y1, X2, Y2 float64
}

// PartialAddError is returned by AddChild when the child node was created but
// linking it to its parent failed. The node stays on the canvas unlinked.
type PartialAddError struct {
	Node *models.Node
	Err  error
}

func (e *PartialAddError) Error() string {
	return fmt.Sprintf("node %d created but not connected: %v", e.Node.ID, e.Err)
}

func (e *PartialAddError) Unwrap() error { return e.Err }

type Editor struct {
	api API

	state    State
	branches []models.Branch
	branchID uint
	nodes    []models.Node
	edges    []Edge

	selected uint
	dragging uint
	offsetX  float64
	offsetY  float64
	resume   State

	// highest version sent per node; versions only grow
	sent map[uint]int64
}

func New(api API) *Editor {
	return &Editor{api: api, state: NoBranch, sent: make(map[uint]int64)}
}

func (e *Editor) State() State              { return e.state }
func (e *Editor) BranchID() uint            { return e.branchID }
func (e *Editor) SelectedID() uint          { return e.selected }
func (e *Editor) Branches() []models.Branch { return append([]models.Branch(nil), e.branches...) }
func (e *Editor) Nodes() []models.Node      { return append([]models.Node(nil), e.nodes...) }
func (e *Editor) Connections() []Edge       { return append([]Edge(nil), e.edges...) }

// Node returns the local copy of a node on the loaded branch.
func (e *Editor) Node(id uint) (models.Node, bool) {
	if i := e.indexOf(id); i >= 0 {
		return e.nodes[i], true
	}
	return models.Node{}, false
}

// NameField is the contents of the rename field: the selected node's name.
func (e *Editor) NameField() string {
	if n, ok := e.Node(e.selected); ok && e.state != NoBranch && e.selected != 0 {
		return n.Name
	}
	return ""
}

// Segments computes connection geometry from the current local positions.
func (e *Editor) Segments() []Segment {
	segments := make([]Segment, 0, len(e.edges))
	for _, edge := range e.edges {
		from, okFrom := e.Node(edge.From)
		to, okTo := e.Node(edge.To)
		if !okFrom || !okTo {
			continue
		}
		segments = append(segments, Segment{
			Edge: edge,
			X1:   from.X + NodeWidth,
			Y1:   from.Y + AnchorDepth,
			X2:   to.X,
			Y2:   to.Y + AnchorDepth,
		})
	}
	return segments
}

// LoadBranches fetches the user's branches and opens the first one.
func (e *Editor) LoadBranches(ctx context.Context) error {
	branches, err := e.api.ListBranches(ctx)
	if err != nil {
		return err
	}
	e.branches = branches
	if len(branches) == 0 {
		e.reset()
		return nil
	}
	return e.SelectBranch(ctx, branches[0].ID)
}

// SelectBranch replaces the canvas with the given branch's nodes and
// connections. On failure the previous canvas is kept.
func (e *Editor) SelectBranch(ctx context.Context, branchID uint) error {
	nodes, err := e.api.ListNodes(ctx, branchID)
	if err != nil {
		return err
	}
	connections, err := e.api.ListConnections(ctx, branchID)
	if err != nil {
		return err
	}

	e.reset()
	e.branchID = branchID
	e.nodes = nodes
	e.edges = make([]Edge, 0, len(connections))
	for _, c := range connections {
		e.edges = append(e.edges, Edge{From: c.FromNodeID, To: c.ToNodeID})
	}
	e.state = Idle
	return nil
}

// ClickCanvas clears the selection.
func (e *Editor) ClickCanvas() {
	if e.state == NoBranch {
		return
	}
	e.selected = 0
	e.state = Idle
}

// ClickNode selects a node and returns its name for the rename field.
func (e *Editor) ClickNode(id uint) (string, error) {
	if e.state == NoBranch {
		return "", ErrNoBranch
	}
	n, ok := e.Node(id)
	if !ok {
		return "", ErrUnknownNode
	}
	e.selected = id
	e.state = Selected
	return n.Name, nil
}

// PointerDown starts dragging a node. The offset between the pointer and the
// node origin is kept for the whole drag.
func (e *Editor) PointerDown(id uint, px, py float64) error {
	if e.state == NoBranch {
		return ErrNoBranch
	}
	n, ok := e.Node(id)
	if !ok {
		return ErrUnknownNode
	}
	if e.state != Dragging {
		e.resume = e.state
	}
	e.dragging = id
	e.offsetX = px - n.X
	e.offsetY = py - n.Y
	e.state = Dragging
	return nil
}

// PointerMove moves the dragged node locally. Nothing is sent to the server.
func (e *Editor) PointerMove(px, py float64) {
	if e.state != Dragging {
		return
	}
	i := e.indexOf(e.dragging)
	if i < 0 {
		return
	}
	e.nodes[i].X = px - e.offsetX
	e.nodes[i].Y = py - e.offsetY
}

// PointerUp ends a drag and persists the final position with a single
// update. A stale-version rejection means a newer write already landed.
func (e *Editor) PointerUp(ctx context.Context) error {
	if e.state != Dragging {
		return nil
	}
	id := e.dragging
	e.dragging = 0
	e.state = e.resume
	if e.state == Selected && e.indexOf(e.selected) < 0 {
		e.selected = 0
		e.state = Idle
	}

	i := e.indexOf(id)
	if i < 0 {
		return nil
	}
	x, y := e.nodes[i].X, e.nodes[i].Y
	return e.update(ctx, id, models.UpdateNodeRequest{X: &x, Y: &y})
}

// AddChild creates a node to the right of the selected node and connects the
// two. Children stack downwards by the number of existing outgoing edges.
func (e *Editor) AddChild(ctx context.Context) (*models.Node, error) {
	parent, err := e.selectedNode()
	if err != nil {
		return nil, err
	}

	children := 0
	for _, edge := range e.edges {
		if edge.From == parent.ID {
			children++
		}
	}

	child, err := e.api.CreateNode(ctx, e.branchID, models.CreateNodeRequest{
		Name: NewNodeName,
		X:    parent.X + ChildOffsetX,
		Y:    parent.Y + float64(ChildSpacing*children),
	})
	if err != nil {
		return nil, err
	}
	e.nodes = append(e.nodes, *child)

	if _, err := e.api.CreateConnection(ctx, e.branchID, parent.ID, child.ID); err != nil {
		return child, &PartialAddError{Node: child, Err: err}
	}
	e.edges = append(e.edges, Edge{From: parent.ID, To: child.ID})
	return child, nil
}

// RemoveSelected deletes the selected node on the server, then drops it and
// every connection touching it from the canvas.
func (e *Editor) RemoveSelected(ctx context.Context) error {
	n, err := e.selectedNode()
	if err != nil {
		return err
	}
	if err := e.api.DeleteNode(ctx, e.branchID, n.ID); err != nil {
		return err
	}

	nodes := e.nodes[:0]
	for _, node := range e.nodes {
		if node.ID != n.ID {
			nodes = append(nodes, node)
		}
	}
	e.nodes = nodes

	edges := e.edges[:0]
	for _, edge := range e.edges {
		if edge.From != n.ID && edge.To != n.ID {
			edges = append(edges, edge)
		}
	}
	e.edges = edges

	delete(e.sent, n.ID)
	e.selected = 0
	e.state = Idle
	return nil
}

// Rename sets the selected node's name locally and on the server.
func (e *Editor) Rename(ctx context.Context, name string) error {
	n, err := e.selectedNode()
	if err != nil {
		return err
	}
	e.nodes[e.indexOf(n.ID)].Name = name
	return e.update(ctx, n.ID, models.UpdateNodeRequest{Name: &name})
}

func (e *Editor) update(ctx context.Context, id uint, req models.UpdateNodeRequest) error {
	version := e.nextVersion(id)
	req.Version = &version

	updated, err := e.api.UpdateNode(ctx, e.branchID, id, req)
	if err != nil {
		return err
	}
	if i := e.indexOf(id); i >= 0 && updated.Version >= e.nodes[i].Version {
		e.nodes[i].Version = updated.Version
	}
	return nil
}

func (e *Editor) nextVersion(id uint) int64 {
	v := e.sent[id]
	if i := e.indexOf(id); i >= 0 && e.nodes[i].Version > v {
		v = e.nodes[i].Version
	}
	v++
	e.sent[id] = v
	return v
}

func (e *Editor) selectedNode() (models.Node, error) {
	if e.state == NoBranch {
		return models.Node{}, ErrNoBranch
	}
	if e.selected == 0 {
		return models.Node{}, ErrNoSelection
	}
	n, ok := e.Node(e.selected)
	if !ok {
		return models.Node{}, ErrUnknownNode
	}
	return n, nil
}

func (e *Editor) indexOf(id uint) int {
	for i := range e.nodes {
		if e.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) reset() {
	e.state = NoBranch
	e.branchID = 0
	e.nodes = nil
	e.edges = nil
	e.selected = 0
	e.dragging = 0
	e.resume = NoBranch
	e.sent = make(map[uint]int64)
}
