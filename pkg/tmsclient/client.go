/**
 * @description
 * This package provides a client for the upstream transaction monitoring
 * service (TMS) that fronts the fraud-evaluation pipeline. It encapsulates
 * posting ISO 20022 payloads to the evaluation endpoint, tenant routing via
 * the x-tenant-id header, and classification of failures into transport
 * errors versus upstream rejections.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, io, net/http, time: Standard Go libraries.
 */
package tmsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the TMS evaluation endpoint.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new TMS client. The timeout bounds each forwarded
// call; a timeout surfaces as a transport error to the caller.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// StatusError reports a non-2xx response from the TMS. The body is kept so
// the gateway can relay the upstream's reason to its own caller.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tms returned status %d", e.StatusCode)
}

// Evaluate POSTs an ISO 20022 payload to /v1/evaluate/iso20022/{msgType}
// with the tenant in the x-tenant-id header. It returns the raw JSON body on
// 2xx, a *StatusError on any other status, and a wrapped transport error
// when the TMS cannot be reached at all.
func (c *Client) Evaluate(ctx context.Context, msgType, tenantID string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}

	url := fmt.Sprintf("%s/v1/evaluate/iso20022/%s", c.BaseURL, msgType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", msgType, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-tenant-id", tenantID)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach tms at %s: %w", c.BaseURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tms response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("level=warn component=tms_client msg_type=%s tenant_id=%s status=%d msg=\"tms rejected payload\"", msgType, tenantID, resp.StatusCode)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return json.RawMessage(respBody), nil
}
