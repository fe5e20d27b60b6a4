// Package prometheus implements metrics.Client on top of a dedicated Prometheus registry.
package prometheus

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/architeacher/gateways/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
)

type (
	Client struct {
		namespace   string
		registry    *prometheus.Registry
		descriptors map[string]metrics.Descriptor

		mu         sync.Mutex
		counters   map[string]*labeled[*prometheus.CounterVec]
		histograms map[string]*labeled[*prometheus.HistogramVec]
	}

	labeled[V any] struct {
		vec    V
		labels []string
	}

	Option func(*Client)
)

// WithDescriptors sets help text and buckets for known metric keys.
func WithDescriptors(descriptors map[string]metrics.Descriptor) Option {
	return func(c *Client) {
		for k, v := range descriptors {
			c.descriptors[metrics.SanitizeName(k)] = v
		}
	}
}

// WithRuntimeCollectors registers the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(c *Client) {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

func NewClient(namespace string, opts ...Option) *Client {
	c := &Client{
		namespace:   metrics.SanitizeName(namespace),
		registry:    prometheus.NewRegistry(),
		descriptors: make(map[string]metrics.Descriptor),
		counters:    make(map[string]*labeled[*prometheus.CounterVec]),
		histograms:  make(map[string]*labeled[*prometheus.HistogramVec]),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Inc(_ context.Context, key string, value any, attributes ...attribute.KeyValue) {
	v, ok := metrics.ToFloat(value)
	if !ok || v < 0 {
		return
	}

	counter, err := c.counter(key, attributes)
	if err != nil {
		return
	}

	counter.vec.WithLabelValues(labelValues(counter.labels, attributes)...).Add(v)
}

func (c *Client) Observe(_ context.Context, key string, value float64, attributes ...attribute.KeyValue) {
	histogram, err := c.histogram(key, attributes)
	if err != nil {
		return
	}

	histogram.vec.WithLabelValues(labelValues(histogram.labels, attributes)...).Observe(value)
}

func (c *Client) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Client) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Client) Shutdown(_ context.Context) error {
	return nil
}

func (c *Client) counter(key string, attributes []attribute.KeyValue) (*labeled[*prometheus.CounterVec], error) {
	name := metrics.SanitizeName(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.counters[name]; ok {
		return existing, nil
	}

	labels := labelNames(attributes)
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      c.help(name),
	}, labels)

	if err := c.registry.Register(vec); err != nil {
		return nil, err
	}

	entry := &labeled[*prometheus.CounterVec]{vec: vec, labels: labels}
	c.counters[name] = entry

	return entry, nil
}

func (c *Client) histogram(key string, attributes []attribute.KeyValue) (*labeled[*prometheus.HistogramVec], error) {
	name := metrics.SanitizeName(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.histograms[name]; ok {
		return existing, nil
	}

	buckets := prometheus.ExponentialBuckets(0.005, 2, 10)
	if d, ok := c.descriptors[name]; ok && len(d.Buckets) > 0 {
		buckets = d.Buckets
	}

	labels := labelNames(attributes)
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.namespace,
		Name:      name,
		Help:      c.help(name),
		Buckets:   buckets,
	}, labels)

	if err := c.registry.Register(vec); err != nil {
		return nil, err
	}

	entry := &labeled[*prometheus.HistogramVec]{vec: vec, labels: labels}
	c.histograms[name] = entry

	return entry, nil
}

func (c *Client) help(name string) string {
	if d, ok := c.descriptors[name]; ok && d.Description != "" {
		return d.Description
	}

	return name
}

func labelNames(attributes []attribute.KeyValue) []string {
	names := make([]string, 0, len(attributes))

	for _, attr := range attributes {
		names = append(names, metrics.SanitizeName(string(attr.Key)))
	}

	sort.Strings(names)

	return names
}

// labelValues aligns attribute values with the label set fixed at registration.
// Unknown attributes are dropped and missing ones are left empty.
func labelValues(labels []string, attributes []attribute.KeyValue) []string {
	values := make([]string, len(labels))

	for i, label := range labels {
		for _, attr := range attributes {
			if metrics.SanitizeName(string(attr.Key)) == label {
				values[i] = attr.Value.Emit()

				break
			}
		}
	}

	return values
}
