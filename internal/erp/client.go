package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"sales_pricing_backend/platform/apperr"
	"sales_pricing_backend/platform/config"
	"sales_pricing_backend/platform/logger"

	"golang.org/x/time/rate"
)

const apiPath = "/api/data/v9.2"

var entityIDPattern = regexp.MustCompile(`\(([0-9a-fA-F-]{36})\)\s*$`)

// Client talks to the remote catalog/order-storage collaborator.
// All calls go through a bounded retry loop: transport errors and 5xx
// responses are retried with exponential backoff, 4xx responses never are.
// A 401 forces one token refresh before surfacing as apperr.Unauthorized.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenProvider
	limiter    *rate.Limiter
	maxRetries int
	log        *logger.Logger
}

// NewClient creates a collaborator client from configuration.
func NewClient(cfg config.ERPConfig, tokens TokenProvider, log *logger.Logger) *Client {
	rps := cfg.GetERPRateLimitRPS()
	if rps <= 0 {
		rps = 25
	}
	maxRetries := cfg.GetERPMaxRetries()
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.GetERPTimeout()},
		baseURL:    cfg.GetERPBaseURL(),
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)),
		maxRetries: maxRetries,
		log:        log,
	}
}

// Ping verifies the collaborator is reachable and the credential works.
// Used by readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	reqURL := fmt.Sprintf("%s%s/WhoAmI", c.baseURL, apiPath)
	_, _, err := c.do(ctx, http.MethodGet, reqURL, nil, "WhoAmI")
	return err
}

// listEnvelope is the collaborator's wrapper around collection reads.
type listEnvelope struct {
	Value json.RawMessage `json:"value"`
}

// List runs a filtered query against a collection and decodes the rows into out.
func (c *Client) List(ctx context.Context, collection string, q *Query, out interface{}) error {
	reqURL := fmt.Sprintf("%s%s/%s", c.baseURL, apiPath, collection)
	if encoded := q.Encode().Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	body, _, err := c.do(ctx, http.MethodGet, reqURL, nil, collection)
	if err != nil {
		return err
	}

	var envelope listEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apperr.Wrap(apperr.KindUpstream, "malformed collection response", err).WithOp("erp.List")
	}
	if err := json.Unmarshal(envelope.Value, out); err != nil {
		return apperr.Wrap(apperr.KindUpstream, "malformed collection rows", err).WithOp("erp.List")
	}
	return nil
}

// Get fetches a single record by id.
func (c *Client) Get(ctx context.Context, collection, id string, q *Query, out interface{}) error {
	reqURL := fmt.Sprintf("%s%s/%s(%s)", c.baseURL, apiPath, collection, id)
	if encoded := q.Encode().Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	body, _, err := c.do(ctx, http.MethodGet, reqURL, nil, collection)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.Wrap(apperr.KindUpstream, "malformed record response", err).WithOp("erp.Get")
	}
	return nil
}

// Create inserts a record with a partial field set and returns the new
// record's id, taken from the OData-EntityId response header.
func (c *Client) Create(ctx context.Context, collection string, record interface{}) (string, error) {
	reqURL := fmt.Sprintf("%s%s/%s", c.baseURL, apiPath, collection)

	payload, err := json.Marshal(record)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "encode create payload", err)
	}

	_, header, err := c.do(ctx, http.MethodPost, reqURL, payload, collection)
	if err != nil {
		return "", err
	}

	match := entityIDPattern.FindStringSubmatch(header.Get("OData-EntityId"))
	if len(match) < 2 {
		return "", apperr.Upstream("create response carried no entity id").WithOp("erp.Create")
	}
	return match[1], nil
}

// Update patches a record with a partial field set.
func (c *Client) Update(ctx context.Context, collection, id string, record interface{}) error {
	reqURL := fmt.Sprintf("%s%s/%s(%s)", c.baseURL, apiPath, collection, id)

	payload, err := json.Marshal(record)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "encode update payload", err)
	}

	_, _, err = c.do(ctx, http.MethodPatch, reqURL, payload, collection)
	return err
}

// do performs one logical call with retries. It returns the response body and
// headers on success.
func (c *Client) do(ctx context.Context, method, reqURL string, payload []byte, collection string) ([]byte, http.Header, error) {
	var lastErr error
	refreshed := false

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, apperr.Wrap(apperr.KindUpstreamTimeout, "throttle wait cancelled", err)
		}

		body, header, status, err := c.attempt(ctx, method, reqURL, payload)
		switch {
		case err == nil && status < 400:
			return body, header, nil

		case err == nil && status == http.StatusUnauthorized:
			// One forced refresh covers an expired cached credential.
			if !refreshed {
				refreshed = true
				c.tokens.Invalidate()
				continue
			}
			c.log.UpstreamError(method, collection, status, errors.New("credential rejected"))
			return nil, nil, apperr.Unauthorized("upstream rejected service credential")

		case err == nil && status == http.StatusNotFound:
			return nil, nil, apperr.NotFound("record not found")

		case err == nil && !retryableStatus(status):
			// Permanent upstream failure: surfaced immediately, never retried.
			detail := upstreamDetail(body)
			c.log.UpstreamError(method, collection, status, errors.New(detail))
			return nil, nil, apperr.Upstream(fmt.Sprintf("upstream returned status %d: %s", status, detail))

		case err == nil:
			lastErr = fmt.Errorf("upstream returned status %d", status)

		default:
			lastErr = err
		}

		if attempt >= c.maxRetries {
			break
		}
		c.log.UpstreamRetry(method+" "+collection, attempt+1, lastErr)

		select {
		case <-ctx.Done():
			return nil, nil, apperr.Wrap(apperr.KindUpstreamTimeout, "upstream call cancelled", ctx.Err())
		case <-time.After(backoffDelay(attempt)):
		}
	}

	if errors.Is(lastErr, context.DeadlineExceeded) {
		return nil, nil, apperr.Wrap(apperr.KindUpstreamTimeout, "upstream timed out", lastErr)
	}
	return nil, nil, apperr.Wrap(apperr.KindUpstream, "upstream unavailable", lastErr)
}

// attempt performs a single HTTP exchange.
func (c *Client) attempt(ctx context.Context, method, reqURL string, payload []byte) ([]byte, http.Header, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, nil, 0, err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("acquire token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("OData-MaxVersion", "4.0")
	req.Header.Set("OData-Version", "4.0")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, nil, 0, err
	}
	return body, resp.Header, resp.StatusCode, nil
}

// upstreamDetail extracts the error message from a collaborator error body.
func upstreamDetail(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
