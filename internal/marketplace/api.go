package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/ZilDuck/opensea-trader/internal/log"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type ApiError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e ApiError) Error() string {
	return fmt.Sprintf("marketplace %s %s: %d %s", e.Method, e.Path, e.StatusCode, strings.TrimSpace(e.Body))
}

func NewHttpClient(timeout time.Duration, retries int) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = retries
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient.Timeout = timeout

	return client
}

type apiClient struct {
	baseUrl string
	apiKey  string
	client  *retryablehttp.Client
	limiter *rate.Limiter
}

func (c apiClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c apiClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c apiClient) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	uri := strings.TrimRight(c.baseUrl, "/") + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	var rawBody interface{}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rawBody = payload
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, uri, rawBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	log.FromContext(ctx).With(zap.String("method", method), zap.String("path", path)).Debug("Marketplace: API Request")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ApiError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	return nil
}
