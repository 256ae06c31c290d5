// Copyright (c) 2025 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

package dispatch

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-wscalc/pkg/calc"
	"github.com/sirosfoundation/go-wscalc/pkg/envelope"
	"github.com/sirosfoundation/go-wscalc/pkg/wssec"
)

// Handler processes one decrypted request element and produces either a
// response element or a fault
type Handler func(req *etree.Element) (*etree.Element, *wssec.Fault)

// RouteOutcome describes what happened to one request, for logging and
// metrics
type RouteOutcome struct {
	// Operation is the request element's local name, "" when the message
	// never got far enough to expose one
	Operation string
	// Identity is the authenticated token principal, if any
	Identity string
	// Fault is set when the request produced a fault response
	Fault *wssec.Fault
}

// Router runs inbound security, dispatches by body root element and
// secures the response
type Router struct {
	inbound  *wssec.Inbound
	outbound *wssec.Outbound
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewRouter builds a router. outbound is the response pipeline, normally
// the request policy without UsernameToken and with the identities
// swapped. A nil logger falls back to slog.Default.
func NewRouter(inbound *wssec.Inbound, outbound *wssec.Outbound, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		inbound:  inbound,
		outbound: outbound,
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register binds a handler to a request element local name such as
// "addRequest"
func (r *Router) Register(requestName string, h Handler) {
	r.handlers[requestName] = h
}

// RegisterCalculator registers handlers for all calculator operations
func (r *Router) RegisterCalculator() {
	for name, op := range calc.Operations() {
		r.Register(name+"Request", calculatorHandler(op))
	}
}

func calculatorHandler(op calc.Operation) Handler {
	return func(reqElem *etree.Element) (*etree.Element, *wssec.Fault) {
		req, err := calc.ParseRequest(reqElem)
		if err != nil {
			return nil, wssec.NewFault(wssec.FaultInvalidRequest, err.Error())
		}

		result, err := op(req.A, req.B)
		if err != nil {
			if errors.Is(err, calc.ErrDivisionByZero) {
				return nil, wssec.NewFault(wssec.FaultDivisionByZero, "division by zero")
			}
			return nil, wssec.NewFault(wssec.FaultInternal, "operation failed")
		}

		return calc.ResponseElement(req.Operation, result), nil
	}
}

// Route processes one request envelope end to end: inbound security,
// handler dispatch, response securing. It always produces a response
// envelope; protocol failures come back as SOAP faults, never as errors.
func (r *Router) Route(env *envelope.Envelope) (*envelope.Envelope, RouteOutcome) {
	plain, auth := r.inbound.Unsecure(env)
	if !auth.OK() {
		// The sender was never authenticated, so the fault goes back plain
		return faultEnvelope(auth.Fault), RouteOutcome{Fault: auth.Fault}
	}

	operation := plain.OperationName()
	outcome := RouteOutcome{Operation: operation, Identity: auth.Identity}

	handler, ok := r.handlers[operation]
	if !ok {
		r.logger.Warn("no handler for operation", "operation", operation, "identity", auth.Identity)
		outcome.Fault = wssec.NewFault(wssec.FaultUnknownOperation,
			fmt.Sprintf("no handler for %s", operation))
		return r.secureResponse(faultEnvelope(outcome.Fault)), outcome
	}

	respElem, fault := handler(plain.BodyContent())
	if fault != nil {
		outcome.Fault = fault
		return r.secureResponse(faultEnvelope(fault)), outcome
	}

	r.logger.Info("request handled", "operation", operation, "identity", auth.Identity)

	resp := envelope.New()
	resp.SetBodyContent(respElem)
	return r.secureResponse(resp), outcome
}

// secureResponse applies the response pipeline. If securing fails the
// caller still gets a response: a plain internal fault, since sending the
// unsecured payload would leak what encryption was meant to protect.
func (r *Router) secureResponse(resp *envelope.Envelope) *envelope.Envelope {
	secured, err := r.outbound.Secure(resp)
	if err != nil {
		r.logger.Error("failed to secure response", "error", err)
		return faultEnvelope(wssec.NewFault(wssec.FaultInternal, "failed to secure response"))
	}
	return secured
}

// faultEnvelope renders a fault as a SOAP fault envelope
func faultEnvelope(f *wssec.Fault) *envelope.Envelope {
	code := envelope.FaultCodeServer
	if f.ClientFault() {
		code = envelope.FaultCodeClient
	}
	return envelope.NewFault(code, f.Message, string(f.Kind), f.DetailCode)
}
