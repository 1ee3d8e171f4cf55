package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchRoutingKey(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		key     string
		want    bool
	}{
		{"exacto", "event.orderplaced", "event.orderplaced", true},
		{"exacto distinto", "event.orderplaced", "event.ordercancelled", false},
		{"asterisco un segmento", "event.*", "event.orderplaced", true},
		{"asterisco no cubre dos segmentos", "event.*", "event.order.placed", false},
		{"asterisco en medio", "event.*.failed", "event.payment.failed", true},
		{"almohadilla cero segmentos", "event.#", "event", true},
		{"almohadilla un segmento", "event.#", "event.orderplaced", true},
		{"almohadilla varios segmentos", "event.#", "event.order.placed.today", true},
		{"almohadilla inicial", "#.failed", "event.payment.failed", true},
		{"prefijo no coincide", "order.*", "event.orderplaced", false},
		{"clave mas corta que el patron", "event.orderplaced.extra", "event.orderplaced", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MatchRoutingKey(tc.pattern, tc.key))
		})
	}
}

func TestBindingMatches(t *testing.T) {
	b := Binding{
		QueueName:   "analytics-service-allevents",
		RoutingKeys: []string{"event.orderplaced", "event.orderconfirmed"},
	}

	assert.True(t, b.Matches("event.orderplaced"))
	assert.True(t, b.Matches("event.orderconfirmed"))
	assert.False(t, b.Matches("event.inventoryreserved"))
}
