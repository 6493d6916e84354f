// Package billing starts subscription checkouts through the hosted
// checkout function.
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"financas/internal/core"
	"financas/internal/gateway"
	"financas/internal/log"
)

// Client posts checkout requests to a serverless function which answers
// with the payment provider's redirect URL.
type Client struct {
	functionURL string
	apiKey      string
	plans       []string
	client      *http.Client
	logger      *log.Logger
}

var _ gateway.Checkout = (*Client)(nil)

func NewClient(functionURL, apiKey string, plans []string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		functionURL: functionURL,
		apiKey:      apiKey,
		plans:       slices.Clone(plans),
		client:      &http.Client{Timeout: 15 * time.Second},
		logger:      logger.WithComponent(log.ComponentBilling),
	}
}

// WithHTTPClient replaces the HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

// Plans returns the accepted plan ids.
func (c *Client) Plans() []string {
	return slices.Clone(c.plans)
}

type checkoutRequest struct {
	PlanID string `json:"plan_id"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

func (c *Client) StartCheckout(ctx context.Context, user core.User, planID string) (string, error) {
	planID = strings.TrimSpace(planID)
	if !slices.Contains(c.plans, planID) {
		return "", fmt.Errorf("%w: %q", gateway.ErrUnknownPlan, planID)
	}
	if user.ID == "" {
		return "", gateway.ErrUnauthorized
	}

	body, err := json.Marshal(checkoutRequest{PlanID: planID, UserID: user.ID, Email: user.Email})
	if err != nil {
		return "", fmt.Errorf("marshal checkout request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.functionURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("checkout request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("checkout function returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out checkoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode checkout response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("checkout function returned no redirect URL")
	}

	c.logger.InfoContext(ctx, "Checkout started",
		log.FieldOperation, log.OpCheckout,
		log.FieldOwnerID, user.ID,
		"plan", planID)
	return out.URL, nil
}
