// Copyright 2026 The StealthIM Go Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes recorded in stealthim_client_requests_total.
const (
	OutcomeOK             = "ok"
	OutcomeResultError    = "result_error"
	OutcomeRetryExhausted = "retry_exhausted"
	OutcomeHTTPError      = "http_error"
	OutcomeSchemaError    = "schema_error"
	OutcomeCanceled       = "canceled"
	OutcomeNetworkError   = "network_error"
)

// metrics holds the client-side collectors. A nil *metrics records
// nothing.
type metrics struct {
	requests       *prometheus.CounterVec
	attempts       *prometheus.CounterVec
	retries        *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	streamMessages prometheus.Counter
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stealthim_client_requests_total",
			Help: "Logical requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stealthim_client_attempts_total",
			Help: "HTTP attempts by operation, including retries.",
		}, []string{"operation"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stealthim_client_retries_total",
			Help: "Retries caused by transient result codes.",
		}, []string{"operation"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stealthim_client_request_duration_seconds",
			Help:    "Latency of logical requests including retry back-off.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		streamMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stealthim_client_stream_messages_total",
			Help: "Messages delivered by message streams.",
		}),
	}

	var err error
	if m.requests, err = register(registerer, m.requests); err != nil {
		return nil, err
	}
	if m.attempts, err = register(registerer, m.attempts); err != nil {
		return nil, err
	}
	if m.retries, err = register(registerer, m.retries); err != nil {
		return nil, err
	}
	if m.duration, err = register(registerer, m.duration); err != nil {
		return nil, err
	}
	if m.streamMessages, err = register(registerer, m.streamMessages); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers collector, reusing an identical collector already
// registered by another Server sharing the registry.
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) (C, error) {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return collector, fmt.Errorf("messaging: registering metrics: %w", err)
	}
	return collector, nil
}

func (m *metrics) observeRequest(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *metrics) observeAttempt(operation string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(operation).Inc()
}

func (m *metrics) observeRetry(operation string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(operation).Inc()
}

func (m *metrics) observeStreamMessage() {
	if m == nil {
		return
	}
	m.streamMessages.Inc()
}

// outcomeOf classifies err for the requests counter.
func outcomeOf(err error) string {
	var (
		resultErr    *ResultError
		exhaustedErr *RetryExhaustedError
		transportErr *TransportError
		schemaErr    *SchemaError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &resultErr):
		return OutcomeResultError
	case errors.As(err, &exhaustedErr):
		return OutcomeRetryExhausted
	case errors.As(err, &transportErr):
		return OutcomeHTTPError
	case errors.As(err, &schemaErr):
		return OutcomeSchemaError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeNetworkError
	}
}
