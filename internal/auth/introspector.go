package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ccooksey/bsi-server/internal/apperror"
)

const introspectPath = "/auth/token/introspect"

type introspectRequest struct {
	ClientID     string `json:"client_id"`
	GrantType    string `json:"grant_type"`
	Token        string `json:"token"`
	ClientSecret string `json:"client_secret"`
}

type introspectResponse struct {
	Response struct {
		Username string `json:"username"`
	} `json:"response"`
}

// HTTPIntrospector validates access tokens against the OAuth2 server's introspection endpoint
// on every call, so revocations take effect immediately.
type HTTPIntrospector struct {
	url          string
	clientID     string
	clientSecret string
	client       *http.Client
}

func NewHTTPIntrospector(baseURL, clientID, clientSecret string, timeout time.Duration) *HTTPIntrospector {
	return &HTTPIntrospector{
		url:          strings.TrimRight(baseURL, "/") + introspectPath,
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: timeout},
	}
}

// Introspect returns the username the token belongs to.
func (that *HTTPIntrospector) Introspect(ctx context.Context, token string) (string, error) {
	body, err := json.Marshal(introspectRequest{
		ClientID:     that.clientID,
		GrantType:    "password",
		Token:        token,
		ClientSecret: that.clientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal introspect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, that.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := that.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("introspect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: introspect returned %s", apperror.ErrAuthRejected, resp.Status)
	}

	var result introspectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode introspect response: %w", err)
	}

	if result.Response.Username == "" {
		return "", fmt.Errorf("%w: no username in introspect response", apperror.ErrAuthRejected)
	}

	return result.Response.Username, nil
}

// TokenFromHeader extracts the token from an Authorization header value. Everything after the
// first space is the token; a value without a space is taken whole.
func TokenFromHeader(header string) (string, error) {
	if header == "" {
		return "", apperror.ErrNoToken
	}

	if _, token, found := strings.Cut(header, " "); found {
		return token, nil
	}

	return header, nil
}
