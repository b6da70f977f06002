package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchbook/branchbook-api/auth"
	"github.com/branchbook/branchbook-api/models"
	"github.com/branchbook/branchbook-api/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(testutil.SetupTestDB(t), testutil.TestEnvironment())
}

func registerUser(t *testing.T, h http.Handler, name string) string {
	t.Helper()
	w := testutil.MakeRequest(t, h, http.MethodPost, "/auth/register",
		models.RegisterRequest{Username: name, Password: "pw", Email: name + "@example.com"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.DecodeJSON[models.TokenResponse](t, w).AccessToken
}

func TestHealth(t *testing.T) {
	w := testutil.MakeRequest(t, newTestRouter(t), http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSessionGuardOnFeatureRoutes(t *testing.T) {
	h := newTestRouter(t)
	expired, err := auth.NewTokenManager(testutil.AccessSecret, testutil.RefreshSecret, -time.Minute, time.Hour).CreateAccessToken(1)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"no header", nil, http.StatusUnauthorized},
		{"malformed header", map[string]string{"Authorization": "Bearer"}, http.StatusUnauthorized},
		{"bad signature", testutil.Bearer("a.b.c"), http.StatusUnauthorized},
		{"expired", testutil.Bearer(expired), http.StatusForbidden},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for _, path := range []string{"/feature/todo/", "/feature/branches/", "/feature/branches/1/nodes"} {
				w := testutil.MakeRequest(t, h, http.MethodGet, path, nil, tc.headers)
				assert.Equal(t, tc.status, w.Code, path)
			}
		})
	}
}

// TestTodoWorkflow walks a new user through the todo list:
// 1. Register
// 2. See the welcome todo
// 3. Add, complete and delete a todo
func TestTodoWorkflow(t *testing.T) {
	h := newTestRouter(t)
	token := registerUser(t, h, "ada")

	// Step 1: welcome todo, with and without the trailing slash
	for _, path := range []string{"/feature/todo", "/feature/todo/"} {
		w := testutil.MakeRequest(t, h, http.MethodGet, path, nil, testutil.Bearer(token))
		require.Equal(t, http.StatusOK, w.Code, path)
		todos := testutil.DecodeJSON[[]models.Todo](t, w)
		require.Len(t, todos, 1)
		assert.False(t, todos[0].Completed)
	}

	// Step 2: add
	w := testutil.MakeRequest(t, h, http.MethodPost, "/feature/todo/", models.CreateTodoRequest{Content: "x"}, testutil.Bearer(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	todo := testutil.DecodeJSON[models.Todo](t, w)
	assert.Equal(t, "x", todo.Content)
	assert.False(t, todo.Completed)

	// Step 3: complete
	path := fmt.Sprintf("/feature/todo/%d", todo.ID)
	w = testutil.MakeRequest(t, h, http.MethodPut, path, `{"completed":true}`, testutil.Bearer(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.MakeRequest(t, h, http.MethodGet, "/feature/todo/", nil, testutil.Bearer(token))
	todos := testutil.DecodeJSON[[]models.Todo](t, w)
	require.Len(t, todos, 2)
	assert.True(t, todos[1].Completed)

	// Step 4: delete
	w = testutil.MakeRequest(t, h, http.MethodDelete, path, nil, testutil.Bearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	w = testutil.MakeRequest(t, h, http.MethodGet, "/feature/todo/", nil, testutil.Bearer(token))
	assert.Len(t, testutil.DecodeJSON[[]models.Todo](t, w), 1)
}

func TestCrossUserIsolation(t *testing.T) {
	h := newTestRouter(t)
	ada := registerUser(t, h, "ada")
	grace := registerUser(t, h, "grace")

	w := testutil.MakeRequest(t, h, http.MethodGet, "/feature/branches/", nil, testutil.Bearer(ada))
	adaBranch := testutil.DecodeJSON[[]models.Branch](t, w)[0]

	w = testutil.MakeRequest(t, h, http.MethodGet, "/feature/todo/", nil, testutil.Bearer(ada))
	adaTodo := testutil.DecodeJSON[[]models.Todo](t, w)[0]

	nodes := fmt.Sprintf("/feature/branches/%d/nodes", adaBranch.ID)
	assert.Equal(t, http.StatusNotFound, testutil.MakeRequest(t, h, http.MethodGet, nodes, nil, testutil.Bearer(grace)).Code)
	assert.Equal(t, http.StatusNotFound, testutil.MakeRequest(t, h, http.MethodPost, nodes, models.CreateNodeRequest{Name: "n"}, testutil.Bearer(grace)).Code)
	assert.Equal(t, http.StatusNotFound, testutil.MakeRequest(t, h, http.MethodDelete, fmt.Sprintf("/feature/branches/%d", adaBranch.ID), nil, testutil.Bearer(grace)).Code)
	assert.Equal(t, http.StatusNotFound, testutil.MakeRequest(t, h, http.MethodPut, fmt.Sprintf("/feature/todo/%d", adaTodo.ID), `{"completed":true}`, testutil.Bearer(grace)).Code)

	w = testutil.MakeRequest(t, h, http.MethodGet, "/feature/branches/", nil, testutil.Bearer(grace))
	for _, b := range testutil.DecodeJSON[[]models.Branch](t, w) {
		assert.NotEqual(t, adaBranch.ID, b.ID)
	}
}

// TestBranchWorkflow builds a small graph:
// 1. Open the seeded root branch
// 2. Add a child and connect it to the root
// 3. Delete the child and check its connection went with it
func TestBranchWorkflow(t *testing.T) {
	h := newTestRouter(t)
	token := registerUser(t, h, "ada")

	// Step 1
	w := testutil.MakeRequest(t, h, http.MethodGet, "/feature/branches", nil, testutil.Bearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	branches := testutil.DecodeJSON[[]models.Branch](t, w)
	require.Len(t, branches, 1)
	assert.Equal(t, models.DefaultBranchName, branches[0].Name)

	base := fmt.Sprintf("/feature/branches/%d", branches[0].ID)
	w = testutil.MakeRequest(t, h, http.MethodGet, base+"/nodes", nil, testutil.Bearer(token))
	nodes := testutil.DecodeJSON[[]models.Node](t, w)
	require.Len(t, nodes, 1)
	root := nodes[0]
	assert.Equal(t, models.RoleRoot, root.Role)

	// Step 2
	w = testutil.MakeRequest(t, h, http.MethodPost, base+"/nodes",
		models.CreateNodeRequest{Name: "Node", X: root.X + 220, Y: root.Y}, testutil.Bearer(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	child := testutil.DecodeJSON[models.Node](t, w)

	w = testutil.MakeRequest(t, h, http.MethodPost, base+"/connections",
		map[string]uint{"from": root.ID, "to": child.ID}, testutil.Bearer(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = testutil.MakeRequest(t, h, http.MethodGet, base+"/connections", nil, testutil.Bearer(token))
	connections := testutil.DecodeJSON[[]models.Connection](t, w)
	require.Len(t, connections, 1)
	assert.Equal(t, root.ID, connections[0].FromNodeID)
	assert.Equal(t, child.ID, connections[0].ToNodeID)

	// Step 3
	w = testutil.MakeRequest(t, h, http.MethodDelete, fmt.Sprintf("%s/nodes/%d", base, child.ID), nil, testutil.Bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	w = testutil.MakeRequest(t, h, http.MethodGet, base+"/connections", nil, testutil.Bearer(token))
	assert.Empty(t, testutil.DecodeJSON[[]models.Connection](t, w))
	w = testutil.MakeRequest(t, h, http.MethodGet, base+"/nodes", nil, testutil.Bearer(token))
	assert.Len(t, testutil.DecodeJSON[[]models.Node](t, w), 1)
}

func TestAuthRateLimit(t *testing.T) {
	env := testutil.TestEnvironment()
	env.AuthRateLimit = 0
	env.AuthRateBurst = 2
	h := NewRouter(testutil.SetupTestDB(t), env)

	body := models.LoginRequest{Username: "nobody", Password: "pw"}
	assert.Equal(t, http.StatusNotFound, testutil.MakeRequest(t, h, http.MethodPost, "/auth/login", body, nil).Code)
	assert.Equal(t, http.StatusNotFound, testutil.MakeRequest(t, h, http.MethodPost, "/auth/login", body, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, testutil.MakeRequest(t, h, http.MethodPost, "/auth/login", body, nil).Code)

	// Logout is not limited.
	assert.Equal(t, http.StatusOK, testutil.MakeRequest(t, h, http.MethodPost, "/auth/logout", nil, nil).Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/feature/todo/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
