// Package api is an HTTP client for the catalog API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/CoverCatalog/internal/models"
)

// Product is a product as returned by the server.
type Product struct {
	models.Product
	FormattedPrice string `json:"formatted_price"`
}

// Session describes the principal after a successful login.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        struct {
		Username string      `json:"username"`
		Role     models.Role `json:"role"`
	} `json:"user"`
}

// Error is a non-2xx response from the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

// Client talks to the catalog API and keeps the bearer token in memory.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for the server at baseURL. A nil httpClient uses
// a client with a 10 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// LoggedIn reports whether the client holds a token.
func (c *Client) LoggedIn() bool { return c.token != "" }

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	var s Session
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &s); err != nil {
		return Session{}, err
	}
	c.token = s.AccessToken
	return s, nil
}

// Logout revokes the current token on the server and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.token = ""
	return err
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// List returns all products.
func (c *Client) List(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the product with the given id.
func (c *Client) Get(ctx context.Context, id int64) (Product, error) {
	var out Product
	err := c.do(ctx, http.MethodGet, productPath(id), nil, &out)
	return out, err
}

// Create adds a product. Every field of p must be set.
func (c *Client) Create(ctx context.Context, p models.ProductPatch) (Product, error) {
	var out Product
	err := c.do(ctx, http.MethodPost, "/api/products", p, &out)
	return out, err
}

// Update changes the fields set in p.
func (c *Client) Update(ctx context.Context, id int64, p models.ProductPatch) (Product, error) {
	var out Product
	err := c.do(ctx, http.MethodPut, productPath(id), p, &out)
	return out, err
}

// Delete removes a product and returns it.
func (c *Client) Delete(ctx context.Context, id int64) (Product, error) {
	var out struct {
		DeletedProduct Product `json:"deleted_product"`
	}
	err := c.do(ctx, http.MethodDelete, productPath(id), nil, &out)
	return out.DeletedProduct, err
}

func productPath(id int64) string {
	return "/api/products/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &Error{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
