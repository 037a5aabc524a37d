package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CartClient handles communication with the cart-service
type CartClient struct {
	baseURL    string
	httpClient *http.Client
}

// CartItem is the add-item payload accepted by cart-service
type CartItem struct {
	ProductID string `json:"productId"`
	SKU       string `json:"sku,omitempty"`
	Name      string `json:"name,omitempty"`
	Price     string `json:"price,omitempty"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Quantity  int    `json:"quantity"`
}

// CartItemResponse from cart-service
type CartItemResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message *string         `json:"message,omitempty"`
}

// NewCartClient creates a new cart client for baseURL
func NewCartClient(baseURL string) *CartClient {
	return &CartClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// AddItem adds an already validated item to cartID. Any non-2xx answer is
// returned as an error carrying the status and response body.
func (c *CartClient) AddItem(ctx context.Context, tenantID, cartID string, item CartItem) (*CartItemResponse, error) {
	if cartID == "" {
		return nil, fmt.Errorf("cart id is required")
	}
	if cartID == "." || cartID == ".." {
		return nil, fmt.Errorf("invalid cart id %q", cartID)
	}

	body, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart item: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/carts/%s/items", c.baseURL, url.PathEscape(cartID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Tenant-ID", tenantID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cart-service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("cart-service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart-service response: %w", err)
	}
	// 204 and other empty 2xx replies mean the item was added
	if len(bytes.TrimSpace(respBody)) == 0 {
		return &CartItemResponse{Success: true}, nil
	}

	var result CartItemResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cart-service response: %w", err)
	}
	return &result, nil
}
