package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davicafu/ordersaga/internal/payment/domain"
)

type PaymentRepoSQLite struct {
	db *sql.DB
}

func NewPaymentRepoSQLite(db *sql.DB) *PaymentRepoSQLite {
	return &PaymentRepoSQLite{db: db}
}

// ------------------ Pagos ------------------

func (r *PaymentRepoSQLite) Save(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (id, order_id, amount, payment_method, status, transaction_id, failure_reason, created_at, processed_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		p.ID.String(), p.OrderID.String(), p.Amount, p.PaymentMethod, string(p.Status),
		p.TransactionID, p.FailureReason, p.CreatedAt, p.ProcessedAt,
	)
	return err
}

func (r *PaymentRepoSQLite) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, order_id, amount, payment_method, status, transaction_id, failure_reason, created_at, processed_at
		 FROM payments WHERE order_id = ? ORDER BY created_at DESC LIMIT 1`,
		orderID.String(),
	)

	var p domain.Payment
	var idStr, orderIDStr, status string
	if err := row.Scan(&idStr, &orderIDStr, &p.Amount, &p.PaymentMethod, &status, &p.TransactionID, &p.FailureReason, &p.CreatedAt, &p.ProcessedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	var err error
	if p.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	if p.OrderID, err = uuid.Parse(orderIDStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}

func (r *PaymentRepoSQLite) UpdateResult(ctx context.Context, p *domain.Payment) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE payments
		 SET status = ?, transaction_id = ?, failure_reason = ?, processed_at = ?
		 WHERE id = ?`,
		string(p.Status), p.TransactionID, p.FailureReason, p.ProcessedAt, p.ID.String(),
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

// ------------------ Proyección de importes ------------------

// RecordOrderAmount es idempotente: el mismo OrderPlaced entregado dos
// veces no cambia nada.
func (r *PaymentRepoSQLite) RecordOrderAmount(ctx context.Context, orderID uuid.UUID, amount float64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO order_amounts (order_id, amount) VALUES (?,?)
		 ON CONFLICT(order_id) DO NOTHING`,
		orderID.String(), amount,
	)
	return err
}

func (r *PaymentRepoSQLite) GetOrderAmount(ctx context.Context, orderID uuid.UUID) (float64, error) {
	var amount float64
	err := r.db.QueryRowContext(ctx,
		`SELECT amount FROM order_amounts WHERE order_id = ?`, orderID.String(),
	).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, domain.ErrUnknownOrder
	}
	return amount, err
}

// ------------------ Inicialización de DB ------------------

// InitSQLite crea las tablas del servicio de pagos si no existen.
func InitSQLite(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS payments (
            id TEXT PRIMARY KEY,
            order_id TEXT NOT NULL,
            amount REAL NOT NULL,
            payment_method TEXT NOT NULL,
            status TEXT NOT NULL,
            transaction_id TEXT,
            failure_reason TEXT,
            created_at DATETIME NOT NULL,
            processed_at DATETIME
        )`,
		`CREATE INDEX IF NOT EXISTS ix_payments_order ON payments (order_id)`,
		`CREATE TABLE IF NOT EXISTS order_amounts (
            order_id TEXT PRIMARY KEY,
            amount REAL NOT NULL
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
var _ domain.PaymentRepository = (*PaymentRepoSQLite)(nil)
