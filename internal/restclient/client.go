// Package restclient binds the trading backend's REST contract. One Client
// is constructed per app lifetime; it attaches the current session
// credential to every outgoing request and reacts to authentication
// failures on any response so views never repeat auth plumbing.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stockpulse/tradedesk/internal/session"
)

const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	contentTypeJSON     = "application/json"
	bearerPrefix        = "Bearer "
)

// AuthFailureHandler runs after a 401 response has cleared the credential.
// The app wires navigation to /login here.
type AuthFailureHandler func()

// ClientOption configures a Client.
type ClientOption func(*Client)

// Client issues authenticated requests against the backend base URL.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	sessions      session.Store
	onAuthFailure AuthFailureHandler
}

// NewClient wires a Client. The session store is read before every request
// and cleared on authentication failures.
func NewClient(baseURL string, sessions session.Store, options ...ClientOption) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store dependency is nil")
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: http.DefaultClient,
		sessions:   sessions,
	}
	for _, option := range options {
		if option != nil {
			option(client)
		}
	}
	return client, nil
}

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(client *Client) {
		if httpClient != nil {
			client.httpClient = httpClient
		}
	}
}

// WithAuthFailureHandler wires the post-401 hook.
func WithAuthFailureHandler(handler AuthFailureHandler) ClientOption {
	return func(client *Client) {
		client.onAuthFailure = handler
	}
}

// do sends one request and decodes the {success, data} envelope into out.
// A present credential is attached as a bearer header; on a 401 the
// credential is cleared, then the auth-failure hook runs, then the error
// is returned, in that order.
func (client *Client) do(ctx context.Context, method string, path string, requestBody any, out any) error {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set(headerContentType, contentTypeJSON)
	}
	if token, present := client.sessions.Read(ctx); present {
		request.Header.Set(headerAuthorization, bearerPrefix+token)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if response.StatusCode == http.StatusUnauthorized {
		_ = client.sessions.Clear(ctx)
		if client.onAuthFailure != nil {
			client.onAuthFailure()
		}
		return decodeAPIError(response.StatusCode, responseBody)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(response.StatusCode, responseBody)
	}

	if out == nil {
		return nil
	}
	return decodePayload(responseBody, out)
}

func decodePayload(responseBody []byte, out any) error {
	if len(responseBody) == 0 {
		return nil
	}
	var wrapped envelope
	if err := json.Unmarshal(responseBody, &wrapped); err == nil && wrapped.Data != nil {
		return json.Unmarshal(wrapped.Data, out)
	}
	return json.Unmarshal(responseBody, out)
}

func decodeAPIError(statusCode int, responseBody []byte) error {
	var details struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(responseBody, &details)
	detail := details.Detail
	if detail == "" {
		detail = details.Message
	}
	return &APIError{StatusCode: statusCode, Detail: detail}
}
