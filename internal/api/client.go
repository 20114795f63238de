// Package api is the resource client: one thin request wrapper per entity type
// with per-resource response envelopes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"casting-admin/internal/common/errors"
	commonhttp "casting-admin/internal/common/http"
	"casting-admin/internal/common/logger"
	"casting-admin/internal/common/metrics"
	"casting-admin/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TokenSource yields the bearer token at call time.
type TokenSource interface {
	CurrentToken(ctx context.Context) (string, bool)
}

// Invalidator is told when the API rejects the session.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Options struct {
	HTTPClient  *commonhttp.Client
	Hosts       map[string]string
	Tokens      TokenSource
	Invalidator Invalidator
	Logger      logger.Logger
	Tracer      trace.Tracer
}

type Client struct {
	http        *commonhttp.Client
	hosts       map[string]string
	tokens      TokenSource
	invalidator Invalidator
	logger      logger.Logger
	tracer      trace.Tracer

	mu        sync.RWMutex
	resources map[string]*Resource
}

func NewClient(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = commonhttp.NewClient(commonhttp.DefaultTimeout)
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("")
	}
	hosts := make(map[string]string, len(opts.Hosts))
	for k, v := range opts.Hosts {
		hosts[k] = strings.TrimSuffix(v, "/")
	}
	return &Client{
		http:        opts.HTTPClient,
		hosts:       hosts,
		tokens:      opts.Tokens,
		invalidator: opts.Invalidator,
		logger:      opts.Logger,
		tracer:      opts.Tracer,
		resources:   make(map[string]*Resource),
	}
}

// Register adds resource definitions. A later definition replaces an earlier one.
func (c *Client) Register(resources ...*Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range resources {
		c.resources[r.Name] = r
	}
}

// Resource returns a registered definition.
func (c *Client) Resource(name string) (*Resource, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.resources[name]
	if !ok {
		return nil, errors.NewConfigError(fmt.Sprintf("unknown resource %q", name))
	}
	return r, nil
}

// ==========================
// Resource operations
// ==========================

// List fetches a collection. An empty collection is not an error.
func (c *Client) List(ctx context.Context, resource string) ([]models.ResourceRecord, error) {
	res, ep, err := c.endpoint(resource, OpList)
	if err != nil {
		return nil, err
	}

	doc, err := c.do(ctx, res, OpList, res.Host, ep.Method, ep.Path, nil)
	if err != nil {
		return nil, err
	}

	items, err := res.ListEnvelope.Items(res.Name, doc)
	if err != nil {
		return nil, err
	}

	records := make([]models.ResourceRecord, 0, len(items))
	for _, item := range items {
		rec, err := res.toRecord(item)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetByID fetches one record. An empty payload is NOT_FOUND.
func (c *Client) GetByID(ctx context.Context, resource string, id int) (models.ResourceRecord, error) {
	res, ep, err := c.endpoint(resource, OpGet)
	if err != nil {
		return models.ResourceRecord{}, err
	}

	doc, err := c.do(ctx, res, OpGet, res.Host, ep.Method, ep.resolve(id), nil)
	if err != nil {
		if errors.Is(err, errors.ErrCodeAPI) && statusOf(err) == http.StatusNotFound {
			return models.ResourceRecord{}, errors.NewNotFoundError(res.Name, id)
		}
		return models.ResourceRecord{}, err
	}

	item, err := res.DetailEnvelope.Item(res.Name, doc)
	if err != nil {
		return models.ResourceRecord{}, err
	}
	if item == nil {
		return models.ResourceRecord{}, errors.NewNotFoundError(res.Name, id)
	}
	return res.toRecord(item)
}

func (c *Client) Create(ctx context.Context, resource string, payload Payload) (models.ResourceRecord, error) {
	res, ep, err := c.endpoint(resource, OpCreate)
	if err != nil {
		return models.ResourceRecord{}, err
	}

	doc, err := c.do(ctx, res, OpCreate, res.Host, ep.Method, ep.resolve(0), &payload)
	if err != nil {
		return models.ResourceRecord{}, err
	}
	return c.mutationRecord(res, doc, 0, payload), nil
}

func (c *Client) Update(ctx context.Context, resource string, id int, payload Payload) (models.ResourceRecord, error) {
	res, ep, err := c.endpoint(resource, OpUpdate)
	if err != nil {
		return models.ResourceRecord{}, err
	}

	doc, err := c.do(ctx, res, OpUpdate, res.Host, ep.Method, ep.resolve(id), &payload)
	if err != nil {
		return models.ResourceRecord{}, err
	}
	return c.mutationRecord(res, doc, id, payload), nil
}

func (c *Client) Delete(ctx context.Context, resource string, id int) error {
	res, ep, err := c.endpoint(resource, OpDelete)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, res, OpDelete, res.Host, ep.Method, ep.resolve(id), nil)
	return err
}

// SetStatus sends the status mutation and returns the decoded response.
func (c *Client) SetStatus(ctx context.Context, resource string, id int, body map[string]interface{}) (map[string]interface{}, error) {
	res, ep, err := c.endpoint(resource, OpStatus)
	if err != nil {
		return nil, err
	}
	payload := JSONPayload(body)
	doc, err := c.do(ctx, res, OpStatus, res.Host, ep.Method, ep.resolve(id), &payload)
	if err != nil {
		return nil, err
	}
	m, _ := doc.(map[string]interface{})
	return m, nil
}

// Call issues a request outside the resource catalog, such as a moderation
// transition. The decoded body is returned as is.
func (c *Client) Call(ctx context.Context, name, host, method, path string, payload *Payload) (interface{}, error) {
	res := &Resource{Name: name, Host: host}
	return c.do(ctx, res, name, host, method, path, payload)
}

func (c *Client) endpoint(resource, op string) (*Resource, *Endpoint, error) {
	res, err := c.Resource(resource)
	if err != nil {
		return nil, nil, err
	}
	ep, err := res.Endpoint(op)
	if err != nil {
		return nil, nil, err
	}
	return res, ep, nil
}

// mutationRecord prefers the record echoed by the server and falls back to the
// submitted values when the response only carries a message.
func (c *Client) mutationRecord(res *Resource, doc interface{}, id int, payload Payload) models.ResourceRecord {
	if item, err := res.DetailEnvelope.Item(res.Name, doc); err == nil && item != nil {
		if rec, err := res.toRecord(item); err == nil {
			return rec
		}
	}

	fields := make(map[string]interface{}, len(payload.Values))
	for k, v := range payload.Values {
		fields[k] = v
	}
	return models.ResourceRecord{ID: id, Fields: fields}
}

// ==========================
// Transport
// ==========================

func (c *Client) do(ctx context.Context, res *Resource, op, host, method, path string, payload *Payload) (interface{}, error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "api."+op, trace.WithAttributes(
		attribute.String("resource", res.Name),
		attribute.String("http.method", method),
	))
	defer span.End()

	doc, err := c.roundTrip(ctx, res.Name, host, method, path, payload)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = string(errors.CodeOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, errors.UserMessage(err))
	}
	metrics.APIRequestsTotal.WithLabelValues(res.Name, op, outcome).Inc()
	metrics.APIRequestDuration.WithLabelValues(res.Name, op).Observe(time.Since(start).Seconds())

	fields := map[string]interface{}{
		"resource":   res.Name,
		"operation":  op,
		"method":     method,
		"path":       path,
		"durationMs": time.Since(start).Milliseconds(),
	}
	if sc := span.SpanContext(); sc.HasTraceID() {
		fields["traceId"] = sc.TraceID().String()
	}
	if err != nil {
		fields["errorCode"] = string(errors.CodeOf(err))
		c.logger.Warn("API request failed", fields)
	} else {
		c.logger.Debug("API request completed", fields)
	}
	return doc, err
}

func (c *Client) roundTrip(ctx context.Context, resource, host, method, path string, payload *Payload) (interface{}, error) {
	base, ok := c.hosts[host]
	if !ok || base == "" {
		return nil, errors.NewConfigError(fmt.Sprintf("no base URL for host %q", host))
	}
	url := fmt.Sprintf("%s/%s", base, strings.TrimPrefix(path, "/"))

	var body io.Reader
	contentType := ""
	if payload != nil {
		var err error
		body, contentType, err = payload.Encode()
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("failed to create request: %w", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	// read at call time so a logout takes effect on the next request
	if c.tokens != nil {
		if token, ok := c.tokens.CurrentToken(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(fmt.Sprintf("%s %s", method, path), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetworkError(fmt.Sprintf("%s %s", method, path), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := serverMessage(raw)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			if c.invalidator != nil {
				c.invalidator.Invalidate(ctx)
			}
			return nil, errors.NewUnauthorizedError(resp.StatusCode, msg)
		}
		return nil, errors.NewAPIError(resp.StatusCode, msg)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewShapeError(resource, fmt.Sprintf("response is not JSON: %v", err))
	}
	return doc, nil
}

// serverMessage extracts "message" or "error" from an error body.
func serverMessage(raw []byte) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error", "msg"} {
		if s, ok := body[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func statusOf(err error) int {
	if stdErr, ok := errors.AsStandard(err); ok {
		return stdErr.Status
	}
	return 0
}
