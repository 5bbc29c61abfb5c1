// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bureau-foundation/multiverse/lib/netutil"
	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/lib/secret"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// HomeserverURL is the base URL of the Matrix homeserver (e.g., "https://matrix.example.org").
	HomeserverURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client is an unauthenticated Matrix client.
// It holds the homeserver URL and HTTP transport, shared across sessions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new unauthenticated Matrix client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.HomeserverURL == "" {
		return nil, fmt.Errorf("messaging: HomeserverURL is required")
	}

	// Validate the URL structure. We store the string form (with trailing
	// slash stripped) and build request URLs by direct concatenation. This
	// avoids double-encoding issues with Go's url.URL.String(), which
	// re-encodes Path even when RawPath is set if it doesn't consider
	// RawPath a valid encoding of Path.
	if _, err := url.Parse(config.HomeserverURL); err != nil {
		return nil, fmt.Errorf("messaging: invalid HomeserverURL %q: %w", config.HomeserverURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.HomeserverURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool. Call this after a network disruption to
// force subsequent requests to establish fresh TCP connections instead
// of reusing a poisoned pooled connection.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// ServerVersions returns the Matrix protocol versions and unstable features
// supported by the homeserver. This is an unauthenticated endpoint — useful
// for checking whether the homeserver is reachable and what it supports.
func (c *Client) ServerVersions(ctx context.Context) (*ServerVersionsResponse, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/_matrix/client/versions", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: server versions failed: %w", err)
	}

	var response ServerVersionsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse versions response: %w", err)
	}
	return &response, nil
}

// Login authenticates with username and password, returning a DirectSession.
// The password Buffer is read but not closed — the caller retains ownership.
func (c *Client) Login(ctx context.Context, username string, password *secret.Buffer) (*DirectSession, error) {
	if username == "" {
		return nil, fmt.Errorf("messaging: username is required for login")
	}
	if password == nil {
		return nil, fmt.Errorf("messaging: password is required for login")
	}

	// Password is converted to string at the JSON serialization boundary.
	loginRequest := LoginRequest{
		Type:                     "m.login.password",
		User:                     username,
		Password:                 password.String(),
		InitialDeviceDisplayName: "multiverse",
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/_matrix/client/v3/login", nil, loginRequest)
	if err != nil {
		return nil, fmt.Errorf("messaging: login failed: %w", err)
	}

	var authResponse AuthResponse
	if err := json.Unmarshal(body, &authResponse); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse login response: %w", err)
	}

	c.logger.Info("logged in to matrix",
		"user_id", authResponse.UserID,
		"device_id", authResponse.DeviceID,
	)

	return c.sessionFromAuth(&authResponse)
}

// SessionFromToken creates a DirectSession from an existing access token string.
// The token is moved into mmap-backed memory (locked against swap, excluded
// from core dumps). The original string remains on the heap briefly — it will
// be collected by the GC, but the mmap buffer is the durable copy.
//
// This does NOT validate the token — the first API call will fail if invalid.
// Use [DirectSession.WhoAmI] to check a restored session before relying on it.
//
// The caller must call Close on the returned DirectSession when done.
func (c *Client) SessionFromToken(userID ref.UserID, deviceID, accessToken string) (*DirectSession, error) {
	tokenBuffer, err := secret.NewFromBytes([]byte(accessToken))
	if err != nil {
		return nil, fmt.Errorf("messaging: protecting access token: %w", err)
	}
	return &DirectSession{
		client:      c,
		accessToken: tokenBuffer,
		userID:      userID,
		deviceID:    deviceID,
	}, nil
}

func (c *Client) sessionFromAuth(auth *AuthResponse) (*DirectSession, error) {
	tokenBuffer, err := secret.NewFromBytes([]byte(auth.AccessToken))
	if err != nil {
		return nil, fmt.Errorf("messaging: protecting access token: %w", err)
	}
	return &DirectSession{
		client:      c,
		accessToken: tokenBuffer,
		userID:      auth.UserID,
		deviceID:    auth.DeviceID,
	}, nil
}

// doRequest performs an HTTP request to the homeserver and returns the response body.
// On 2xx, returns the body. On 4xx/5xx, returns a *MatrixError.
// accessToken may be nil for unauthenticated endpoints.
// query may be nil for endpoints without query parameters.
func (c *Client) doRequest(ctx context.Context, method, path string, accessToken *secret.Buffer, requestBody any, query ...url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 && query[0] != nil {
		requestURL += "?" + query[0].Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("messaging: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to create request: %w", err)
	}

	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if accessToken != nil {
		request.Header.Set("Authorization", "Bearer "+accessToken.String())
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("messaging: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	// All Matrix error responses use the same JSON shape.
	var matrixErr MatrixError
	if jsonErr := json.Unmarshal(responseBody, &matrixErr); jsonErr != nil {
		// Server returned non-JSON error. This should not happen with a
		// spec-compliant server, but fail loud with the raw body.
		return nil, fmt.Errorf("messaging: unexpected %d response from %s %s: %s",
			response.StatusCode, method, path, string(responseBody))
	}
	matrixErr.StatusCode = response.StatusCode

	return responseBody, &matrixErr
}
