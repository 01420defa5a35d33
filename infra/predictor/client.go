// Package predictor is the gateway to the external prediction service. It
// forwards validated feature payloads verbatim and classifies every failure
// into the prediction error taxonomy.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/wellcast/auth"
	"github.com/kilianp07/wellcast/core/features"
	"github.com/kilianp07/wellcast/core/logger"
	coremetrics "github.com/kilianp07/wellcast/core/metrics"
	"github.com/kilianp07/wellcast/core/model"
	infralogger "github.com/kilianp07/wellcast/infra/logger"
)

// Client posts feature payloads to <base_url>/predict.
type Client struct {
	endpoint   string
	http       *http.Client
	timeout    time.Duration
	retry      bool
	maxBody    int64
	defaultMAE float64
	rec        coremetrics.UpstreamRecorder
	creds      *auth.ClientCred
	log        logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithRecorder reports every outbound exchange to rec.
func WithRecorder(rec coremetrics.UpstreamRecorder) Option {
	return func(c *Client) {
		if rec != nil {
			c.rec = rec
		}
	}
}

func WithLogger(l logger.Logger) Option { return func(c *Client) { c.log = l } }

// New builds a Client. defaultMAE fills responses that carry no mae.
func New(cfg Config, defaultMAE float64, opts ...Option) *Client {
	cfg.SetDefaults()
	c := &Client{
		endpoint:   strings.TrimSuffix(cfg.BaseURL, "/") + "/predict",
		http:       &http.Client{},
		timeout:    cfg.Timeout(),
		retry:      cfg.RetryTransport,
		maxBody:    cfg.MaxBodyBytes,
		defaultMAE: defaultMAE,
		rec:        coremetrics.NopSink{},
		log:        infralogger.New("predictor"),
	}
	if cfg.Auth.Enabled() {
		c.creds = auth.NewClientCred(cfg.Auth)
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Endpoint returns the resolved predict URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Forward relays raw to the predictor and returns its answer as a decoded
// JSON object. Numbers are kept as json.Number so a relayed answer encodes
// back unchanged.
func (c *Client) Forward(ctx context.Context, raw []byte) (map[string]any, error) {
	if _, err := features.ParseObject(raw); err != nil {
		return nil, err
	}

	start := time.Now()
	status, body, attempts, err := c.exchange(ctx, raw)
	call := model.UpstreamCall{StatusCode: status, Attempts: attempts, Latency: time.Since(start), Time: start}
	if err != nil {
		var uerr *model.UpstreamUnavailableError
		if errors.As(err, &uerr) {
			call.Timeout = uerr.Timeout
		}
		call.Err = err.Error()
	}
	if rerr := c.rec.RecordUpstreamCall(call); rerr != nil {
		c.log.Warnf("record upstream call: %v", rerr)
	}
	if err != nil {
		return nil, err
	}
	return decodeObject(body)
}

// Predict forwards raw and normalizes the answer into a PredictionResult.
func (c *Client) Predict(ctx context.Context, raw []byte) (model.PredictionResult, error) {
	body, err := c.Forward(ctx, raw)
	if err != nil {
		return model.PredictionResult{}, err
	}
	return Normalize(body, c.defaultMAE)
}

// exchange performs the POST, retrying once on transport failure when
// enabled. Non-2xx answers are never retried.
func (c *Client) exchange(ctx context.Context, raw []byte) (int, []byte, int, error) {
	attempts := 0
	for {
		attempts++
		status, body, err := c.post(ctx, raw)
		if err == nil {
			return status, body, attempts, nil
		}
		var uerr *model.UpstreamUnavailableError
		transport := errors.As(err, &uerr) && uerr.StatusCode == 0
		if !c.retry || attempts > 1 || !transport || ctx.Err() != nil {
			return status, nil, attempts, err
		}
		c.log.Warnf("predictor attempt %d failed, retrying: %v", attempts, err)
	}
}

func (c *Client) post(ctx context.Context, raw []byte) (int, []byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, &model.UpstreamUnavailableError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.creds != nil {
		if err := c.creds.SetAuthHeader(req); err != nil {
			return 0, nil, &model.UpstreamUnavailableError{Err: fmt.Errorf("predictor auth: %w", err)}
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &model.UpstreamUnavailableError{Timeout: isTimeout(ctx, err), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized && c.creds != nil {
		c.creds.Invalidate()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBody))
		return resp.StatusCode, nil, &model.UpstreamUnavailableError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return resp.StatusCode, nil, &model.UpstreamUnavailableError{Timeout: isTimeout(ctx, err), Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > c.maxBody {
		return resp.StatusCode, nil, &model.MalformedUpstreamResponseError{Reason: fmt.Sprintf("body exceeds %d bytes", c.maxBody)}
	}
	return resp.StatusCode, body, nil
}

func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &model.MalformedUpstreamResponseError{Reason: "body is not valid JSON", Err: err}
	}
	if dec.More() {
		return nil, &model.MalformedUpstreamResponseError{Reason: "trailing data after JSON body"}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &model.MalformedUpstreamResponseError{Reason: fmt.Sprintf("body must be a JSON object, got %T", v)}
	}
	return obj, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
