package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Dispatcher sends templated mail through an external provider. Delivery is
// best-effort from the caller's perspective.
type Dispatcher interface {
	Send(ctx context.Context, to string, params map[string]string) error
}

type Client struct {
	apiURL     string
	serviceID  string
	templateID string
	publicKey  string
	httpClient *http.Client
}

func NewClient(apiURL, serviceID, templateID, publicKey string) *Client {
	return &Client{
		apiURL:     apiURL,
		serviceID:  serviceID,
		templateID: templateID,
		publicKey:  publicKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

type sendError struct {
	Error string `json:"error"`
}

func (c *Client) Send(ctx context.Context, to string, params map[string]string) error {
	templateParams := map[string]string{"to_email": to}
	for key, value := range params {
		templateParams[key] = value
	}
	payload, err := json.Marshal(sendRequest{
		ServiceID:      c.serviceID,
		TemplateID:     c.templateID,
		UserID:         c.publicKey,
		TemplateParams: templateParams,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var decoded sendError
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err == nil && decoded.Error != "" {
		return fmt.Errorf("mail dispatch failed: %s", decoded.Error)
	}
	return fmt.Errorf("mail dispatch failed: status %d", resp.StatusCode)
}
