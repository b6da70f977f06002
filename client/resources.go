package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/branchbook/branchbook-api/models"
)

// Todos

func (c *Client) ListTodos(ctx context.Context) ([]models.Todo, error) {
	var todos []models.Todo
	err := c.do(ctx, http.MethodGet, "/feature/todo/", nil, &todos)
	return todos, err
}

func (c *Client) CreateTodo(ctx context.Context, content string) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(ctx, http.MethodPost, "/feature/todo/", models.CreateTodoRequest{Content: content}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) SetTodoCompleted(ctx context.Context, id uint, completed bool) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/feature/todo/%d", id), models.UpdateTodoRequest{Completed: &completed}, nil)
}

func (c *Client) DeleteTodo(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/feature/todo/%d", id), nil, nil)
}

// Branches

func (c *Client) ListBranches(ctx context.Context) ([]models.Branch, error) {
	var branches []models.Branch
	err := c.do(ctx, http.MethodGet, "/feature/branches/", nil, &branches)
	return branches, err
}

func (c *Client) CreateBranch(ctx context.Context, name string) (*models.Branch, error) {
	var branch models.Branch
	if err := c.do(ctx, http.MethodPost, "/feature/branches/", models.CreateBranchRequest{Name: name}, &branch); err != nil {
		return nil, err
	}
	return &branch, nil
}

func (c *Client) DeleteBranch(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/feature/branches/%d", id), nil, nil)
}

// Nodes

func (c *Client) ListNodes(ctx context.Context, branchID uint) ([]models.Node, error) {
	var nodes []models.Node
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/feature/branches/%d/nodes", branchID), nil, &nodes)
	return nodes, err
}

func (c *Client) CreateNode(ctx context.Context, branchID uint, req models.CreateNodeRequest) (*models.Node, error) {
	var node models.Node
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/feature/branches/%d/nodes", branchID), req, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (c *Client) UpdateNode(ctx context.Context, branchID, nodeID uint, req models.UpdateNodeRequest) (*models.Node, error) {
	var node models.Node
	path := fmt.Sprintf("/feature/branches/%d/nodes/%d", branchID, nodeID)
	if err := c.do(ctx, http.MethodPut, path, req, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (c *Client) DeleteNode(ctx context.Context, branchID, nodeID uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/feature/branches/%d/nodes/%d", branchID, nodeID), nil, nil)
}

// Connections

func (c *Client) ListConnections(ctx context.Context, branchID uint) ([]models.Connection, error) {
	var connections []models.Connection
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/feature/branches/%d/connections", branchID), nil, &connections)
	return connections, err
}

func (c *Client) CreateConnection(ctx context.Context, branchID, from, to uint) (*models.Connection, error) {
	var connection models.Connection
	req := models.CreateConnectionRequest{From: &from, To: &to}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/feature/branches/%d/connections", branchID), req, &connection); err != nil {
		return nil, err
	}
	return &connection, nil
}
