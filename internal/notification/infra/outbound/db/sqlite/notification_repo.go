package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davicafu/ordersaga/internal/notification/domain"
)

type NotificationRepoSQLite struct {
	db *sql.DB
}

func NewNotificationRepoSQLite(db *sql.DB) *NotificationRepoSQLite {
	return &NotificationRepoSQLite{db: db}
}

// ------------------ Avisos ------------------

func (r *NotificationRepoSQLite) Save(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, order_id, customer_id, type, channel, subject, body, status, sent_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		n.ID.String(), n.OrderID.String(), n.CustomerID.String(),
		string(n.Type), string(n.Channel), n.Subject, n.Body, string(n.Status), n.SentAt,
	)
	return err
}

func (r *NotificationRepoSQLite) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, customer_id, type, channel, subject, body, status, sent_at
		 FROM notifications WHERE order_id = ? ORDER BY sent_at`,
		orderID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var idStr, orderIDStr, customerIDStr, typ, channel, status string
		if err := rows.Scan(&idStr, &orderIDStr, &customerIDStr, &typ, &channel, &n.Subject, &n.Body, &status, &n.SentAt); err != nil {
			return nil, err
		}
		if n.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		if n.OrderID, err = uuid.Parse(orderIDStr); err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		if n.CustomerID, err = uuid.Parse(customerIDStr); err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		n.Type = domain.NotificationType(typ)
		n.Channel = domain.NotificationChannel(channel)
		n.Status = domain.NotificationStatus(status)
		result = append(result, &n)
	}
	return result, rows.Err()
}

// ------------------ Proyección de clientes ------------------

func (r *NotificationRepoSQLite) RecordOrderCustomer(ctx context.Context, orderID, customerID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO order_customers (order_id, customer_id) VALUES (?,?)
		 ON CONFLICT(order_id) DO NOTHING`,
		orderID.String(), customerID.String(),
	)
	return err
}

func (r *NotificationRepoSQLite) GetOrderCustomer(ctx context.Context, orderID uuid.UUID) (uuid.UUID, error) {
	var customerIDStr string
	err := r.db.QueryRowContext(ctx,
		`SELECT customer_id FROM order_customers WHERE order_id = ?`, orderID.String(),
	).Scan(&customerIDStr)
	if err == sql.ErrNoRows {
		return uuid.Nil, domain.ErrUnknownCustomer
	}
	if err != nil {
		return uuid.Nil, err
	}

	customerID, err := uuid.Parse(customerIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	return customerID, nil
}

// ------------------ Inicialización de DB ------------------

// InitSQLite crea las tablas del servicio de notificaciones si no existen.
func InitSQLite(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS notifications (
            id TEXT PRIMARY KEY,
            order_id TEXT NOT NULL,
            customer_id TEXT NOT NULL,
            type TEXT NOT NULL,
            channel TEXT NOT NULL,
            subject TEXT NOT NULL,
            body TEXT NOT NULL,
            status TEXT NOT NULL,
            sent_at DATETIME NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS ix_notifications_order ON notifications (order_id)`,
		`CREATE TABLE IF NOT EXISTS order_customers (
            order_id TEXT PRIMARY KEY,
            customer_id TEXT NOT NULL
        )`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Verificación estática
var _ domain.NotificationRepository = (*NotificationRepoSQLite)(nil)
