// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package client provides a WS-Security SOAP client for the calculator
// service.
//
// The client secures each request through an outbound pipeline and
// unsecures the response through an inbound one. Fault responses arrive
// in two shapes: security rejections come back as plain faults (no
// Security header, the server refuses to secure a reply to a peer that
// failed authentication), while processing faults such as division by
// zero are secured like any other response. [Client.Call] handles both
// and surfaces them as a [*FaultError].
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sirosfoundation/go-wscalc/pkg/calc"
	"github.com/sirosfoundation/go-wscalc/pkg/envelope"
	"github.com/sirosfoundation/go-wscalc/pkg/wssec"
)

// FaultError is a SOAP fault returned by the service
type FaultError struct {
	Code       string
	Reason     string
	Kind       string
	DetailCode string
}

func (e *FaultError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("soap fault %s: %s (%s)", e.Code, e.Reason, e.Kind)
	}
	return fmt.Sprintf("soap fault %s: %s", e.Code, e.Reason)
}

func faultError(info *envelope.FaultInfo) *FaultError {
	return &FaultError{
		Code:       info.Code,
		Reason:     info.Reason,
		Kind:       info.Kind,
		DetailCode: info.DetailCode,
	}
}

// Client calls the calculator service over HTTP
type Client struct {
	endpoint string
	outbound *wssec.Outbound
	inbound  *wssec.Inbound
	httpc    *http.Client
	logger   *slog.Logger
}

// New creates a client for the given endpoint URL. The outbound pipeline
// secures requests, the inbound one unsecures responses.
func New(endpoint string, outbound *wssec.Outbound, inbound *wssec.Inbound, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint: endpoint,
		outbound: outbound,
		inbound:  inbound,
		httpc:    &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

// SetHTTPClient replaces the underlying HTTP client, e.g. to configure
// TLS or proxying
func (c *Client) SetHTTPClient(httpc *http.Client) {
	c.httpc = httpc
}

// Call invokes an operation ("add", "subtract", "multiply", "divide")
// and returns its result. Service faults are returned as [*FaultError].
func (c *Client) Call(ctx context.Context, operation string, a, b int64) (int64, error) {
	env := envelope.New()
	env.SetBodyContent(calc.RequestElement(operation, a, b))

	secured, err := c.outbound.Secure(env)
	if err != nil {
		return 0, fmt.Errorf("securing request: %w", err)
	}
	payload, err := secured.Bytes()
	if err != nil {
		return 0, fmt.Errorf("serializing request: %w", err)
	}

	resp, err := c.do(ctx, payload)
	if err != nil {
		return 0, err
	}

	// Security rejections come back unsecured
	if resp.SecurityHeader() == nil {
		if info, ok := resp.FaultInfo(); ok {
			c.logger.Debug("received plain fault", "kind", info.Kind, "reason", info.Reason)
			return 0, faultError(info)
		}
		return 0, fmt.Errorf("response carries no security header")
	}

	plain, result := c.inbound.Unsecure(resp)
	if !result.OK() {
		return 0, fmt.Errorf("unsecuring response: %s: %s", result.Fault.Kind, result.Fault.Message)
	}

	if info, ok := plain.FaultInfo(); ok {
		return 0, faultError(info)
	}

	value, err := calc.ParseResponse(plain.BodyContent())
	if err != nil {
		return 0, fmt.Errorf("parsing response: %w", err)
	}
	return value, nil
}

// Add returns a + b
func (c *Client) Add(ctx context.Context, a, b int64) (int64, error) {
	return c.Call(ctx, "add", a, b)
}

// Subtract returns a - b
func (c *Client) Subtract(ctx context.Context, a, b int64) (int64, error) {
	return c.Call(ctx, "subtract", a, b)
}

// Multiply returns a * b
func (c *Client) Multiply(ctx context.Context, a, b int64) (int64, error) {
	return c.Call(ctx, "multiply", a, b)
}

// Divide returns a / b truncated toward zero
func (c *Client) Divide(ctx context.Context, a, b int64) (int64, error) {
	return c.Call(ctx, "divide", a, b)
}

func (c *Client) do(ctx context.Context, payload []byte) (*envelope.Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	httpResp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", c.endpoint, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	// SOAP 1.1 faults come with HTTP 500; anything else is a transport
	// level failure
	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusInternalServerError {
		return nil, fmt.Errorf("unexpected HTTP status %d from %s", httpResp.StatusCode, c.endpoint)
	}

	env, err := envelope.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing response envelope: %w", err)
	}
	return env, nil
}
