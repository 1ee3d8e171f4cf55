package gateway

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/ordersaga/internal/payment/domain"
)

// MockGateway simula una pasarela externa: latencia variable y un
// porcentaje configurable de aprobaciones. Suficiente para ejercitar los
// dos caminos del saga sin una pasarela real.
type MockGateway struct {
	successRate float64
	minLatency  time.Duration
	maxLatency  time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockGateway crea la pasarela simulada. successRate en [0,1]; el rng
// se inyecta para que los tests sean deterministas.
func NewMockGateway(successRate float64, rng *rand.Rand) *MockGateway {
	return &MockGateway{
		successRate: successRate,
		minLatency:  50 * time.Millisecond,
		maxLatency:  200 * time.Millisecond,
		rng:         rng,
	}
}

func (g *MockGateway) Charge(ctx context.Context, orderID uuid.UUID, amount float64, method string) (*domain.GatewayResult, error) {
	g.mu.Lock()
	roll := g.rng.Float64()
	latency := g.minLatency + time.Duration(g.rng.Int63n(int64(g.maxLatency-g.minLatency)))
	g.mu.Unlock()

	select {
	case <-time.After(latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if roll < g.successRate {
		return &domain.GatewayResult{
			Approved:      true,
			TransactionID: "TXN-" + uuid.New().String(),
		}, nil
	}

	return &domain.GatewayResult{
		Approved:  false,
		Reason:    "Payment declined by gateway",
		ErrorCode: "INSUFFICIENT_FUNDS",
	}, nil
}

// Verificación estática
var _ domain.PaymentGateway = (*MockGateway)(nil)
