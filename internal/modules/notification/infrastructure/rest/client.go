package rest

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

	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unexpected status %d on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Body)
}

type notificationsEnvelope struct {
	Data struct {
		Notifications []domain.Notification `json:"notifications"`
	} `json:"data"`
}

type markReadRequest struct {
	UserID          string                  `json:"userId"`
	NotificationIDs []domain.NotificationID `json:"notification_ids"`
}

type deleteRequest struct {
	NotificationIDs []domain.NotificationID `json:"notification_ids"`
}

// Client talks to the notification REST API with a bearer token. It
// implements domain.Gateway.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client rooted at baseURL (e.g. https://api.example.com/api).
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) FetchHistory(ctx context.Context, subscriberID string) ([]domain.Notification, error) {
	var out notificationsEnvelope
	path := "/notifications/" + url.PathEscape(subscriberID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data.Notifications, nil
}

func (c *Client) MarkRead(ctx context.Context, subscriberID string, ids []domain.NotificationID) error {
	body := markReadRequest{UserID: subscriberID, NotificationIDs: ids}
	return c.do(ctx, http.MethodPost, "/notifications/mark-read", body, nil)
}

func (c *Client) Delete(ctx context.Context, ids []domain.NotificationID) error {
	return c.do(ctx, http.MethodPost, "/notifications/delete", deleteRequest{NotificationIDs: ids}, nil)
}

func (c *Client) Create(ctx context.Context, req domain.SendRequest) ([]domain.Notification, error) {
	var out notificationsEnvelope
	if err := c.do(ctx, http.MethodPost, "/notifications/", req, &out); err != nil {
		return nil, err
	}
	return out.Data.Notifications, nil
}

// do builds the request, sets auth and content headers, and decodes a JSON
// response into result when result is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}
