// Package auth resolves bearer tokens to users, either through the hosted
// auth service or from a static token table.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/gateway"
	"financas/internal/log"
)

const requestTimeout = 10 * time.Second

// Remote talks to the hosted auth REST API: GET {url}/user resolves a token
// and POST {url}/logout revokes it. Resolved users are cached per token.
type Remote struct {
	baseURL string
	apiKey  string
	client  *http.Client
	users   cache.Cache[core.User]
	logger  *log.Logger
}

var _ gateway.Authenticator = (*Remote)(nil)

// NewRemote builds a Remote. users may be nil to disable caching.
func NewRemote(baseURL, apiKey string, users cache.Cache[core.User], logger *log.Logger) *Remote {
	if logger == nil {
		logger = log.Discard()
	}
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: requestTimeout},
		users:   users,
		logger:  logger.WithComponent(log.ComponentAuth),
	}
}

// WithHTTPClient replaces the HTTP client.
func (r *Remote) WithHTTPClient(c *http.Client) *Remote {
	r.client = c
	return r
}

// cacheKey keeps raw tokens out of the cache keys.
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type remoteUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		DisplayName string `json:"display_name"`
		FullName    string `json:"full_name"`
	} `json:"user_metadata"`
}

func (u remoteUser) toUser() core.User {
	name := u.UserMetadata.DisplayName
	if name == "" {
		name = u.UserMetadata.FullName
	}
	return core.User{ID: u.ID, Email: u.Email, DisplayName: name}
}

func (r *Remote) CurrentUser(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, gateway.ErrUnauthorized
	}
	key := cacheKey(token)
	if r.users != nil {
		if u, ok := r.users.Get(key); ok {
			return u, nil
		}
	}

	resp, err := r.do(ctx, http.MethodGet, "/user", token)
	if err != nil {
		return core.User{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return core.User{}, err
	}

	var ru remoteUser
	if err := json.NewDecoder(resp.Body).Decode(&ru); err != nil {
		return core.User{}, fmt.Errorf("decode user: %w", err)
	}
	if ru.ID == "" {
		return core.User{}, gateway.ErrUnauthorized
	}

	user := ru.toUser()
	if r.users != nil {
		r.users.Set(key, user)
	}
	r.logger.DebugContext(ctx, "Resolved user", log.FieldOwnerID, user.ID)
	return user, nil
}

func (r *Remote) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return gateway.ErrUnauthorized
	}
	if r.users != nil {
		r.users.Delete(cacheKey(token))
	}

	resp, err := r.do(ctx, http.MethodPost, "/logout", token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (r *Remote) do(ctx context.Context, method, path, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("apikey", r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth %s %s: %w", method, path, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return gateway.ErrUnauthorized
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("auth service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
