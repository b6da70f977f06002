package models

// Request and response bodies for the REST surface.

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreateTodoRequest struct {
	Content string `json:"content"`
}

type UpdateTodoRequest struct {
	Completed *bool `json:"completed"`
}

type CreateBranchRequest struct {
	Name string `json:"name"`
}

type CreateNodeRequest struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Role string  `json:"role,omitempty"`
}

// UpdateNodeRequest is a partial update; nil fields are left untouched.
type UpdateNodeRequest struct {
	Name    *string  `json:"name,omitempty"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Role    *string  `json:"role,omitempty"`
	Version *int64   `json:"version,omitempty"`
}

type CreateConnectionRequest struct {
	From *uint `json:"from"`
	To   *uint `json:"to"`
}
