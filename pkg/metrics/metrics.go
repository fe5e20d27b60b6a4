package metrics

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"go.opentelemetry.io/otel/attribute"
)

type (
	Client interface {
		// Inc adds value to the counter identified by key.
		Inc(ctx context.Context, key string, value any, attributes ...attribute.KeyValue)
		// Observe records value in the histogram identified by key.
		Observe(ctx context.Context, key string, value float64, attributes ...attribute.KeyValue)
		Handler() http.Handler
		Shutdown(ctx context.Context) error
	}

	// Descriptor holds the help text and buckets used when a collector is first registered.
	Descriptor struct {
		Description string
		Buckets     []float64
	}
)

// SanitizeName turns a dotted key such as "commands.attach_device.success" into a
// valid Prometheus metric name.
func SanitizeName(key string) string {
	var b strings.Builder

	b.Grow(len(key))

	for i, r := range key {
		switch {
		case r == '_' || unicode.IsLetter(r) && r < unicode.MaxASCII:
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsDigit(r) && i > 0:
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	return b.String()
}

// ToFloat converts the numeric values accepted by Client.Inc.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
