package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"todo-manager/internal/models"
)

// Todo is the client-side view of a task. Identifiers are opaque strings:
// server-assigned ones are object ids, offline-fabricated ones are uuids.
type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	OwnerEmail  string     `json:"userEmail"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CreateTodoInput carries the fields for a new todo.
type CreateTodoInput struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	Category    string
	Tags        []string
}

// TodoPatch is a client-side partial update; only fields that are set are
// sent, so the server can tell "absent" from "explicitly cleared".
type TodoPatch struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *string
	Category    *string
	Tags        *[]string

	// DueDateSet with a nil DueDate clears the stored due date.
	DueDateSet bool
	DueDate    *time.Time
}

func (p TodoPatch) body() map[string]interface{} {
	body := map[string]interface{}{}
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.Completed != nil {
		body["completed"] = *p.Completed
	}
	if p.Priority != nil {
		body["priority"] = *p.Priority
	}
	if p.Category != nil {
		body["category"] = *p.Category
	}
	if p.Tags != nil {
		body["tags"] = *p.Tags
	}
	if p.DueDateSet {
		if p.DueDate != nil {
			body["dueDate"] = p.DueDate.Format(time.RFC3339)
		} else {
			body["dueDate"] = nil
		}
	}
	return body
}

// APIError is a response the server produced deliberately (4xx/5xx). It
// is never grounds for the offline fallback; only transport failures are.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// State is a snapshot of the client's view: the current identity, todo
// collection, aggregate stats and flags. Offline reports that the most
// recent operation was served by the local fallback store.
type State struct {
	User    *models.User
	Todos   []Todo
	Stats   models.Stats
	Loading bool
	Err     string
	Offline bool
}

// Client is the state layer between a front end and the todo API. All
// reads and writes go through the server; when the server is unreachable
// they degrade to a per-owner local store, explicitly flagged as offline.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  *TokenStore
	local   *LocalStore

	mu    sync.Mutex
	token string
	state State
}

// New builds a client against baseURL (e.g. "http://localhost:3001").
// stateDir overrides the default per-user config directory; pass "" for
// the default.
func New(baseURL, stateDir string) (*Client, error) {
	tokens, err := NewTokenStore(stateDir)
	if err != nil {
		return nil, err
	}
	localDir := ""
	if stateDir != "" {
		localDir = stateDir + "/offline"
	}
	local, err := NewLocalStore(localDir)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		local:   local,
	}, nil
}

// State returns a copy of the current client state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.state
	state.Todos = append([]Todo(nil), c.state.Todos...)
	return state
}

// Init restores a stored session: if a token exists it is verified
// remotely before being trusted; on any failure it is discarded and the
// client starts logged out.
func (c *Client) Init(ctx context.Context) error {
	token, err := c.tokens.Load()
	if err != nil || token == "" {
		return err
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	var resp struct {
		Success bool        `json:"success"`
		User    models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/verify", nil, &resp); err != nil {
		if isTransport(err) {
			// Server unreachable: enter explicit offline mode with the
			// identity the token claims, without trusting it for anything
			// beyond selecting the local copy.
			user, perr := parseTokenIdentity(token)
			if perr != nil {
				return perr
			}
			c.mu.Lock()
			c.state.User = &user
			c.mu.Unlock()
			return c.refreshOffline()
		}
		// The server rejected the token; discard it and start logged out.
		c.mu.Lock()
		c.token = ""
		c.state.User = nil
		c.mu.Unlock()
		return c.tokens.Clear()
	}

	c.mu.Lock()
	c.state.User = &resp.User
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// Login authenticates and, on success, stores the token durably and
// loads the todo collection and stats.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Success bool        `json:"success"`
		Token   string      `json:"token"`
		User    models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		c.setErr(err)
		return err
	}

	c.mu.Lock()
	c.token = resp.Token
	c.state.User = &resp.User
	c.state.Err = ""
	c.mu.Unlock()

	if err := c.tokens.Save(resp.Token); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// Logout discards the session client-side; the server holds no state.
func (c *Client) Logout(ctx context.Context) error {
	// Best effort; the endpoint has no server-side effect.
	_ = c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)

	c.mu.Lock()
	c.token = ""
	c.state = State{}
	c.mu.Unlock()

	return c.tokens.Clear()
}

// Refresh reloads the todo collection and stats from the server, or from
// the local fallback when the server is unreachable.
func (c *Client) Refresh(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)

	var todos []Todo
	err := c.do(ctx, http.MethodGet, "/api/todos", nil, &todos)
	if err != nil {
		if isTransport(err) {
			return c.refreshOffline()
		}
		c.setErr(err)
		return err
	}

	c.mu.Lock()
	c.state.Todos = todos
	c.state.Offline = false
	c.state.Err = ""
	c.mu.Unlock()

	return c.refreshStats(ctx)
}

func (c *Client) refreshStats(ctx context.Context) error {
	var stats models.Stats
	if err := c.do(ctx, http.MethodGet, "/api/todos/stats", nil, &stats); err != nil {
		if isTransport(err) {
			return c.refreshOffline()
		}
		return err
	}
	c.mu.Lock()
	c.state.Stats = stats
	c.mu.Unlock()
	return nil
}

func (c *Client) refreshOffline() error {
	owner := c.ownerEmail()
	if owner == "" {
		return fmt.Errorf("not logged in")
	}
	todos, err := c.local.List(owner)
	if err != nil {
		return err
	}
	stats, err := c.local.Stats(owner, time.Now())
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.state.Todos = todos
	c.state.Stats = *stats
	c.state.Offline = true
	c.mu.Unlock()
	return nil
}

// Create adds a todo. Stats are refetched from the authoritative store
// after the write rather than recomputed incrementally.
func (c *Client) Create(ctx context.Context, input CreateTodoInput) (*Todo, error) {
	body := map[string]interface{}{
		"title":       input.Title,
		"description": input.Description,
		"category":    input.Category,
		"tags":        input.Tags,
	}
	if input.Priority != "" {
		body["priority"] = input.Priority
	}
	if input.DueDate != nil {
		body["dueDate"] = input.DueDate.Format(time.RFC3339)
	}

	var todo Todo
	if err := c.do(ctx, http.MethodPost, "/api/todos", body, &todo); err != nil {
		if isTransport(err) {
			return c.createOffline(input)
		}
		c.setErr(err)
		return nil, err
	}

	c.mu.Lock()
	c.state.Todos = append([]Todo{todo}, c.state.Todos...)
	c.state.Offline = false
	c.state.Err = ""
	c.mu.Unlock()

	return &todo, c.refreshStats(ctx)
}

func (c *Client) createOffline(input CreateTodoInput) (*Todo, error) {
	owner := c.ownerEmail()
	if owner == "" {
		return nil, fmt.Errorf("not logged in")
	}
	todo, err := c.local.Create(owner, input)
	if err != nil {
		return nil, err
	}
	if err := c.refreshOffline(); err != nil {
		return nil, err
	}
	return todo, nil
}

// Update applies a partial update to one todo.
func (c *Client) Update(ctx context.Context, id string, patch TodoPatch) (*Todo, error) {
	var todo Todo
	if err := c.do(ctx, http.MethodPut, "/api/todos/"+id, patch.body(), &todo); err != nil {
		if isTransport(err) {
			return c.mutateOffline(func() (*Todo, error) { return c.local.Update(c.ownerEmail(), id, patch) })
		}
		c.setErr(err)
		return nil, err
	}
	c.replaceTodo(todo)
	return &todo, c.refreshStats(ctx)
}

// Toggle flips a todo's completion state.
func (c *Client) Toggle(ctx context.Context, id string) (*Todo, error) {
	var todo Todo
	if err := c.do(ctx, http.MethodPatch, "/api/todos/"+id+"/toggle", nil, &todo); err != nil {
		if isTransport(err) {
			return c.mutateOffline(func() (*Todo, error) { return c.local.Toggle(c.ownerEmail(), id) })
		}
		c.setErr(err)
		return nil, err
	}
	c.replaceTodo(todo)
	return &todo, c.refreshStats(ctx)
}

// Delete removes a todo by identifier.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/todos/"+id, nil, nil); err != nil {
		if isTransport(err) {
			owner := c.ownerEmail()
			if owner == "" {
				return fmt.Errorf("not logged in")
			}
			if err := c.local.Delete(owner, id); err != nil {
				return err
			}
			return c.refreshOffline()
		}
		c.setErr(err)
		return err
	}

	c.mu.Lock()
	for i := range c.state.Todos {
		if c.state.Todos[i].ID == id {
			c.state.Todos = append(c.state.Todos[:i], c.state.Todos[i+1:]...)
			break
		}
	}
	c.state.Offline = false
	c.mu.Unlock()

	return c.refreshStats(ctx)
}

func (c *Client) mutateOffline(op func() (*Todo, error)) (*Todo, error) {
	if c.ownerEmail() == "" {
		return nil, fmt.Errorf("not logged in")
	}
	todo, err := op()
	if err != nil {
		return nil, err
	}
	if err := c.refreshOffline(); err != nil {
		return nil, err
	}
	return todo, nil
}

func (c *Client) replaceTodo(todo Todo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.state.Todos {
		if c.state.Todos[i].ID == todo.ID {
			c.state.Todos[i] = todo
			break
		}
	}
	c.state.Offline = false
	c.state.Err = ""
}

func (c *Client) ownerEmail() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.User == nil {
		return ""
	}
	return c.state.User.Email
}

func (c *Client) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Err = err.Error()
}

func (c *Client) setLoading(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = v
}

// do performs one JSON round trip. Responses with an error status come
// back as *APIError; anything else (connection refused, timeout) is a
// transport failure and a candidate for the offline fallback.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// parseTokenIdentity decodes the unverified token payload. The claims are
// only used to key the local offline copy; the server re-verifies the
// token on every request once connectivity returns.
func parseTokenIdentity(token string) (models.User, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return models.User{}, fmt.Errorf("malformed token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return models.User{}, fmt.Errorf("malformed token payload: %w", err)
	}
	var user models.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return models.User{}, fmt.Errorf("malformed token claims: %w", err)
	}
	if user.Email == "" {
		return models.User{}, fmt.Errorf("token carries no identity")
	}
	return user, nil
}

func isTransport(err error) bool {
	var apiErr *APIError
	return !errors.As(err, &apiErr)
}
