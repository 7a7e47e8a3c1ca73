// Package client is a small typed SDK for the storefront API, plus the
// client-side state machines the storefront and admin console rely on.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const defaultTimeout = 15 * time.Second

// Client speaks JSON to the API and carries the caller's bearer token.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

// WithHTTPClient swaps the transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken seeds the bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Do sends body as JSON and decodes the "data" member of a success envelope
// into out. Error envelopes come back as *pkgerrors.Error carrying the
// server's code and message.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request failed")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, payload)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(payload) == 0 {
		return nil
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func decodeError(status int, payload []byte) error {
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Error == "" {
		return pkgerrors.New(codeForStatus(status), http.StatusText(status))
	}
	code := pkgerrors.Code(envelope.Code)
	if code == "" {
		code = codeForStatus(status)
	}
	typed := pkgerrors.New(code, envelope.Error)
	if envelope.Details != nil {
		typed = typed.WithDetails(envelope.Details)
	}
	return typed
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusServiceUnavailable:
		return pkgerrors.CodeDependency
	default:
		return pkgerrors.CodeInternal
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Tokens is the subset of the login response the SDK keeps.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Role         string `json:"role"`
}

// AdminLogin signs in through the admin endpoint and stores the access token.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (*Tokens, error) {
	var out Tokens
	if err := c.Do(ctx, http.MethodPost, "/api/admin/login", credentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

// AdminSession reports whether the current token still belongs to an admin.
// Unauthorized and forbidden answers are a plain false.
func (c *Client) AdminSession(ctx context.Context) (bool, error) {
	if c.Token() == "" {
		return false, nil
	}
	var out struct {
		Admin bool `json:"admin"`
	}
	err := c.Do(ctx, http.MethodGet, "/api/admin/session", nil, &out)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			switch typed.Code() {
			case pkgerrors.CodeUnauthorized, pkgerrors.CodeForbidden:
				return false, nil
			}
		}
		return false, err
	}
	return out.Admin, nil
}

// Logout revokes the server session and always forgets the local token.
func (c *Client) Logout(ctx context.Context) error {
	if c.Token() == "" {
		return nil
	}
	err := c.Do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

// ToggleWishlist flips the product on the caller's wishlist and returns the
// server's resulting state.
func (c *Client) ToggleWishlist(ctx context.Context, productID uuid.UUID) (bool, error) {
	var out struct {
		Wishlisted bool `json:"wishlisted"`
	}
	body := map[string]string{"product_id": productID.String()}
	if err := c.Do(ctx, http.MethodPost, "/api/wishlist", body, &out); err != nil {
		return false, err
	}
	return out.Wishlisted, nil
}

func (c *Client) CheckWishlist(ctx context.Context, productID uuid.UUID) (bool, error) {
	var out struct {
		Wishlisted bool `json:"wishlisted"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/wishlist/check?product_id="+productID.String(), nil, &out); err != nil {
		return false, err
	}
	return out.Wishlisted, nil
}
