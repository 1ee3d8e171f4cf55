package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davicafu/ordersaga/internal/order/domain"
)

type OrderRepoSQLite struct {
	db *sql.DB
}

func NewOrderRepoSQLite(db *sql.DB) *OrderRepoSQLite {
	return &OrderRepoSQLite{db: db}
}

// Create inserta pedido y líneas en una transacción.
func (r *OrderRepoSQLite) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, customer_id, total_amount, status, created_at, updated_at)
		 VALUES (?,?,?,?,?,?)`,
		o.ID.String(), o.CustomerID.String(), o.TotalAmount, string(o.Status), o.CreatedAt, o.UpdatedAt,
	); err != nil {
		return err
	}

	for _, item := range o.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price, total_price)
			 VALUES (?,?,?,?,?,?,?)`,
			item.ID.String(), item.OrderID.String(), item.ProductID.String(),
			item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OrderRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, total_amount, status, created_at, updated_at
		 FROM orders WHERE id = ?`, id.String())

	o, err := scanOrder(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepoSQLite) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`,
		string(status), id.String(),
	)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepoSQLite) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, customer_id, total_amount, status, created_at, updated_at
		 FROM orders WHERE customer_id = ? ORDER BY created_at DESC`, customerID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items, err := r.loadItems(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepoSQLite) loadItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, quantity, unit_price, total_price
		 FROM order_items WHERE order_id = ?`, orderID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var idStr, orderIDStr, productIDStr string
		if err := rows.Scan(&idStr, &orderIDStr, &productIDStr,
			&item.ProductName, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, err
		}
		if item.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		if item.OrderID, err = uuid.Parse(orderIDStr); err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		if item.ProductID, err = uuid.Parse(productIDStr); err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var idStr, customerIDStr, statusStr string
	if err := row.Scan(&idStr, &customerIDStr, &o.TotalAmount, &statusStr, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	customerID, err := uuid.Parse(customerIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}

	o.ID = id
	o.CustomerID = customerID
	o.Status = domain.OrderStatus(statusStr)
	return &o, nil
}

// ------------------ Inicialización de DB ------------------

// InitSQLite crea las tablas del servicio de pedidos si no existen.
func InitSQLite(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS orders (
            id TEXT PRIMARY KEY,
            customer_id TEXT NOT NULL,
            total_amount REAL NOT NULL,
            status TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS order_items (
            id TEXT PRIMARY KEY,
            order_id TEXT NOT NULL,
            product_id TEXT NOT NULL,
            product_name TEXT NOT NULL,
            quantity INTEGER NOT NULL,
            unit_price REAL NOT NULL,
            total_price REAL NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	// La unicidad de (aggregate_id, version) es la garantía de ordenación
	// del event store: una colisión bajo escritores concurrentes debe
	// fallar aquí, no sobrescribir.
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS event_store (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            aggregate_id TEXT NOT NULL,
            event_type TEXT NOT NULL,
            payload TEXT NOT NULL,
            version INTEGER NOT NULL,
            occurred_at DATETIME NOT NULL,
            UNIQUE (aggregate_id, version)
        )
    `)
	return err
}
