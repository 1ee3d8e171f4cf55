package domain

import (
	"time"

	"github.com/google/uuid"
)

// ---------------- Tipos y estados ----------------

type NotificationType string

const (
	NotificationOrderPlaced    NotificationType = "order_placed"
	NotificationOrderConfirmed NotificationType = "order_confirmed"
	NotificationOrderCancelled NotificationType = "order_cancelled"
)

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Notification es el apunte de un aviso enviado (o intentado) al cliente.
type Notification struct {
	ID         uuid.UUID           `json:"id"`
	OrderID    uuid.UUID           `json:"order_id"`
	CustomerID uuid.UUID           `json:"customer_id"`
	Type       NotificationType    `json:"type"`
	Channel    NotificationChannel `json:"channel"`
	Subject    string              `json:"subject"`
	Body       string              `json:"body"`
	Status     NotificationStatus  `json:"status"`
	SentAt     time.Time           `json:"sent_at"`
}
