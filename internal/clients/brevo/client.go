package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.brevo.com/v3"

// ErrNotConfigured is returned when no API key was provided. Callers treat
// it as "skip the send", not as a delivery failure.
var ErrNotConfigured = errors.New("brevo api key is not configured")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	httpClient  HTTPClient
	rateLimiter *rate.Limiter
	validate    *validator.Validate
	apiKey      string
	baseURL     string
}

func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{},
		validate:   validator.New(),
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
	}
}

func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}

func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// SendEmail submits a transactional email. A non-2xx provider response is a
// hard failure for that send.
func (c *Client) SendEmail(ctx context.Context, email Email) (string, error) {

	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	if err := c.validate.Struct(email); err != nil {
		return "", fmt.Errorf("invalid email payload: %w", err)
	}

	payload, err := json.Marshal(email)
	if err != nil {
		return "", fmt.Errorf("error encoding email payload: %w", err)
	}

	body, err := c.sendRequest(ctx, "POST", c.baseURL+"/smtp/email", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	var response sendResponse
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&response); err != nil {
		return "", fmt.Errorf("error decoding JSON response: %v", err)
	}

	return response.MessageID, nil
}

func (c *Client) sendRequest(ctx context.Context, method string, url string, body io.Reader) ([]byte, error) {

	if c.rateLimiter != nil {
		err := c.rateLimiter.Wait(ctx)
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %v", err)
	}
	defer resp.Body.Close()

	return c.handleResponse(resp)
}

func (c *Client) handleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("request failed with status %v, body: %v", resp.StatusCode, string(body))
	}

	return body, nil
}
