package vcs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
	"git.home.luguber.info/inful/cmsbridge/internal/retry"
)

// BaseClient provides common HTTP operations for REST version-control clients:
// URL building, auth headers, JSON plumbing, error classification, and retry
// of idempotent reads. Concrete clients embed it.
type BaseClient struct {
	httpClient *http.Client
	apiURL     string
	token      string

	authHeaderPrefix string
	retryPolicy      retry.Policy
}

// NewBaseClient creates a BaseClient with common HTTP client settings.
func NewBaseClient(httpClient *http.Client, apiURL, token string, policy retry.Policy) *BaseClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &BaseClient{
		httpClient:       httpClient,
		apiURL:           apiURL,
		token:            token,
		authHeaderPrefix: "token ",
		retryPolicy:      policy,
	}
}

// SetAuthHeaderPrefix customizes the authorization header format.
func (b *BaseClient) SetAuthHeaderPrefix(prefix string) {
	b.authHeaderPrefix = prefix
}

// NewRequest creates an HTTP request with common client patterns.
// Endpoint should be a relative path like "/user" or "repos/{owner}/{repo}";
// query strings inside the endpoint are preserved.
func (b *BaseClient) NewRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	cleanEndpoint := strings.TrimPrefix(endpoint, "/")

	var rawQuery string
	if idx := strings.Index(cleanEndpoint, "?"); idx != -1 {
		rawQuery = cleanEndpoint[idx+1:]
		cleanEndpoint = cleanEndpoint[:idx]
	}

	u, err := url.Parse(b.apiURL)
	if err != nil {
		return nil, ferrors.VCSError("failed to parse API URL").
			WithCause(err).
			WithContext("api_url", b.apiURL).
			Build()
	}

	// Join paths while preserving the base path
	basePath := strings.TrimSuffix(u.Path, "/")
	u.Path = path.Join(basePath, cleanEndpoint)
	if rawQuery != "" {
		u.RawQuery = rawQuery
	}

	var req *http.Request
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, ferrors.VCSError("failed to marshal request body").
				WithCause(err).
				Build()
		}
		req, err = http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(jsonBody))
		if err != nil {
			return nil, ferrors.VCSError("failed to create request").
				WithCause(err).
				WithContext("method", method).
				WithContext("url", u.String()).
				Build()
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), http.NoBody)
		if err != nil {
			return nil, ferrors.VCSError("failed to create request").
				WithCause(err).
				WithContext("method", method).
				WithContext("url", u.String()).
				Build()
		}
	}

	req.Header.Set("Authorization", b.authHeaderPrefix+b.token)
	req.Header.Set("User-Agent", "CMSBridge/1.0")

	return req, nil
}

// DoRequest executes a request and decodes a JSON response into result.
// GET requests are retried per the configured policy on transient failures.
func (b *BaseClient) DoRequest(req *http.Request, result any) error {
	attempt := 0
	for {
		err := b.doOnce(req, result)
		if err == nil {
			return nil
		}
		if req.Method != http.MethodGet || !isTransient(err) {
			return err
		}
		attempt++
		if attempt > b.retryPolicy.MaxRetries {
			return err
		}
		select {
		case <-req.Context().Done():
			return err
		case <-time.After(b.retryPolicy.Delay(attempt)):
		}
	}
}

// DoRequestRaw executes a request and returns the raw response body.
// Like DoRequest, transient GET failures are retried per the policy.
func (b *BaseClient) DoRequestRaw(req *http.Request) ([]byte, error) {
	attempt := 0
	for {
		data, err := b.doOnceRaw(req)
		if err == nil {
			return data, nil
		}
		if req.Method != http.MethodGet || !isTransient(err) {
			return nil, err
		}
		attempt++
		if attempt > b.retryPolicy.MaxRetries {
			return nil, err
		}
		select {
		case <-req.Context().Done():
			return nil, err
		case <-time.After(b.retryPolicy.Delay(attempt)):
		}
	}
}

func (b *BaseClient) doOnceRaw(req *http.Request) ([]byte, error) {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, ferrors.NetworkError("failed to execute request").
			WithCause(err).
			WithContext("method", req.Method).
			WithContext("url", req.URL.String()).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, classifyStatus(resp, req)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ferrors.VCSError("failed to read response body").
			WithCause(err).
			Build()
	}
	return data, nil
}

func (b *BaseClient) doOnce(req *http.Request, result any) error {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return ferrors.NetworkError("failed to execute request").
			WithCause(err).
			WithContext("method", req.Method).
			WithContext("url", req.URL.String()).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return classifyStatus(resp, req)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return ferrors.VCSError("failed to decode response").
				WithCause(err).
				Build()
		}
	}

	return nil
}

func isTransient(err error) bool {
	if classified, ok := ferrors.AsClassified(err); ok {
		return classified.IsTransient()
	}
	return false
}

// classifyStatus maps an HTTP error response onto a classified error,
// keeping a bounded slice of the body for diagnostics.
func classifyStatus(resp *http.Response, req *http.Request) error {
	limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	bodyStr := strings.ReplaceAll(string(limitedBody), "\n", " ")

	builder := ferrors.VCSError("remote API error")
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		builder = ferrors.AuthError("remote API rejected credentials")
	case resp.StatusCode == http.StatusNotFound:
		builder = ferrors.NotFoundError("remote object not found")
	case resp.StatusCode == http.StatusConflict:
		builder = ferrors.NewError(ferrors.CategoryAlreadyExists, "remote object already exists")
	case resp.StatusCode == http.StatusTooManyRequests:
		builder = ferrors.VCSError("remote API rate limited").WithRetry(ferrors.RetryRateLimit)
	case resp.StatusCode >= 500:
		builder = ferrors.VCSError("remote API server error")
	default:
		builder = builder.WithRetry(ferrors.RetryNever)
	}

	return builder.
		WithContext("status", resp.Status).
		WithContext("code", resp.StatusCode).
		WithContext("url", req.URL.String()).
		WithContext("response", bodyStr).
		Build()
}
