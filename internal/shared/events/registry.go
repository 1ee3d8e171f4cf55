package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ErrUnknownEventType indica un tag de evento que este binario no conoce.
// Los consumidores lo tratan como aviso, nunca como fallo fatal.
var ErrUnknownEventType = errors.New("unknown event type")

// Registry mapea el tag de cada evento a su tipo concreto de Go,
// para reconstruir eventos tipados desde JSON (event store y consumidores).
func Registry() map[string]reflect.Type {
	return map[string]reflect.Type{
		TypeOrderPlaced:                reflect.TypeOf(OrderPlaced{}),
		TypeOrderConfirmed:             reflect.TypeOf(OrderConfirmed{}),
		TypeOrderCancelled:             reflect.TypeOf(OrderCancelled{}),
		TypeInventoryReserved:          reflect.TypeOf(InventoryReserved{}),
		TypeInventoryReservationFailed: reflect.TypeOf(InventoryReservationFailed{}),
		TypeInventoryReleased:          reflect.TypeOf(InventoryReleased{}),
		TypePaymentProcessed:           reflect.TypeOf(PaymentProcessed{}),
		TypePaymentFailed:              reflect.TypeOf(PaymentFailed{}),
		TypePaymentRefunded:            reflect.TypeOf(PaymentRefunded{}),
	}
}

// Decode reconstruye un evento tipado a partir de su tag y el JSON del envelope.
func Decode(eventType string, data []byte) (Event, error) {
	typ, ok := Registry()[eventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, eventType)
	}

	ptr := reflect.New(typ).Interface()
	if err := json.Unmarshal(data, ptr); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", eventType, err)
	}

	evt, ok := reflect.ValueOf(ptr).Elem().Interface().(Event)
	if !ok {
		return nil, fmt.Errorf("type %s does not implement Event", eventType)
	}
	return evt, nil
}
