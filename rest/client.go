package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client provides REST API access to the backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new REST API client.
// baseURL should be the base URL of the API, e.g., "https://api.example.com/api/v1".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// SetToken sets the bearer token for authenticated requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Authentication endpoints

// Login authenticates with existing credentials and returns a token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.post(ctx, "/auth/login", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Organization and venue endpoints

// ListOrganizations returns the organizations the caller belongs to.
func (c *Client) ListOrganizations(ctx context.Context) ([]Organization, error) {
	var resp []Organization
	if err := c.get(ctx, "/organizations", &resp, true); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetOrganization returns a single organization by id.
func (c *Client) GetOrganization(ctx context.Context, orgID string) (*Organization, error) {
	var resp Organization
	if err := c.get(ctx, "/organizations/"+url.PathEscape(orgID), &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListVenues returns all venues of an organization.
func (c *Client) ListVenues(ctx context.Context, orgID string) ([]Venue, error) {
	var resp []Venue
	path := fmt.Sprintf("/organizations/%s/venues", url.PathEscape(orgID))
	if err := c.get(ctx, path, &resp, true); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListMenus returns the menus of a venue.
func (c *Client) ListMenus(ctx context.Context, venueID string) ([]Menu, error) {
	var resp []Menu
	path := fmt.Sprintf("/venues/%s/menus", url.PathEscape(venueID))
	if err := c.get(ctx, path, &resp, true); err != nil {
		return nil, err
	}
	return resp, nil
}

// Order endpoints

// ListOrders returns the current orders of a venue.
func (c *Client) ListOrders(ctx context.Context, venueID string) ([]Order, error) {
	var resp []Order
	path := fmt.Sprintf("/venues/%s/orders", url.PathEscape(venueID))
	if err := c.get(ctx, path, &resp, true); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetOrder returns a single order by id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var resp Order
	if err := c.get(ctx, "/orders/"+url.PathEscape(orderID), &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateOrderStatus moves an order to a new lifecycle state.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status OrderStatus) (*Order, error) {
	var resp Order
	path := fmt.Sprintf("/orders/%s/status", url.PathEscape(orderID))
	if err := c.patch(ctx, path, UpdateOrderStatusRequest{Status: status}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateOrderItemStatus moves a single line item to a new state.
func (c *Client) UpdateOrderItemStatus(ctx context.Context, orderID, itemID string, status OrderStatus) (*Order, error) {
	var resp Order
	path := fmt.Sprintf("/orders/%s/items/%s/status", url.PathEscape(orderID), url.PathEscape(itemID))
	if err := c.patch(ctx, path, UpdateOrderItemStatusRequest{Status: status}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Table endpoints

// ListTables returns the tables of a venue.
func (c *Client) ListTables(ctx context.Context, venueID string) ([]Table, error) {
	var resp []Table
	path := fmt.Sprintf("/venues/%s/tables", url.PathEscape(venueID))
	if err := c.get(ctx, path, &resp, true); err != nil {
		return nil, err
	}
	return resp, nil
}

// UpdateTable patches mutable table fields (status, guest count,
// linked order). Nil request fields are left unchanged.
func (c *Client) UpdateTable(ctx context.Context, tableID string, req UpdateTableRequest) (*Table, error) {
	var resp Table
	if err := c.patch(ctx, "/tables/"+url.PathEscape(tableID), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QR code endpoints

// CreateQRCode mints a QR code record for a table.
func (c *Client) CreateQRCode(ctx context.Context, venueID string, req CreateQRCodeRequest) (*QRCode, error) {
	var resp QRCode
	path := fmt.Sprintf("/venues/%s/qrcodes", url.PathEscape(venueID))
	if err := c.post(ctx, path, req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListQRCodes returns all QR codes of a venue.
func (c *Client) ListQRCodes(ctx context.Context, venueID string) ([]QRCode, error) {
	var resp []QRCode
	path := fmt.Sprintf("/venues/%s/qrcodes", url.PathEscape(venueID))
	if err := c.get(ctx, path, &resp, true); err != nil {
		return nil, err
	}
	return resp, nil
}

// Billing endpoints

// GetSubscription returns the billing summary of an organization.
func (c *Client) GetSubscription(ctx context.Context, orgID string) (*Subscription, error) {
	var resp Subscription
	path := fmt.Sprintf("/organizations/%s/subscription", url.PathEscape(orgID))
	if err := c.get(ctx, path, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Helper methods

func (c *Client) post(ctx context.Context, path string, body, dest any, requireAuth bool) error {
	return c.send(ctx, http.MethodPost, path, body, dest, requireAuth)
}

func (c *Client) patch(ctx context.Context, path string, body, dest any) error {
	return c.send(ctx, http.MethodPatch, path, body, dest, true)
}

func (c *Client) send(ctx context.Context, method, path string, body, dest any, requireAuth bool) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if requireAuth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.do(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any, requireAuth bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if requireAuth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	// Handle error responses
	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("api error (status %d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("http error: %s (status %d)", string(body), resp.StatusCode)
	}

	// Unmarshal success response
	if dest != nil {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
