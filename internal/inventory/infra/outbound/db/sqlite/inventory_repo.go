package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davicafu/ordersaga/internal/inventory/domain"
)

type InventoryRepoSQLite struct {
	db *sql.DB
}

func NewInventoryRepoSQLite(db *sql.DB) *InventoryRepoSQLite {
	return &InventoryRepoSQLite{db: db}
}

// ------------------ Productos ------------------

func (r *InventoryRepoSQLite) CreateProduct(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, sku, available_quantity, reserved_quantity, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?)`,
		p.ID.String(), p.Name, p.SKU, p.AvailableQuantity, p.ReservedQuantity, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrProductAlreadyExists
	}
	return err
}

func (r *InventoryRepoSQLite) GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, sku, available_quantity, reserved_quantity, created_at, updated_at
		 FROM products WHERE id = ?`, id.String())
	return scanProduct(row)
}

func (r *InventoryRepoSQLite) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, sku, available_quantity, reserved_quantity, created_at, updated_at
		 FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ------------------ Reserva ------------------

// Reserve ejecuta la reserva completa en UNA transacción: verificación de
// stock, alta de la reserva con sus ítems y decremento/incremento de
// contadores. Un crash a mitad nunca deja contadores inconsistentes.
func (r *InventoryRepoSQLite) Reserve(ctx context.Context, orderID uuid.UUID, items []domain.ReservationItem) (*domain.Reservation, []uuid.UUID, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	// Entrega duplicada de OrderPlaced: la reserva activa previa manda.
	if existing, err := activeReservationTx(ctx, tx, orderID); err != nil {
		return nil, nil, err
	} else if existing != nil {
		return existing, nil, tx.Commit()
	}

	// Verificación previa de TODOS los ítems: sin reserva parcial.
	var unavailable []uuid.UUID
	for _, item := range items {
		var available int
		err := tx.QueryRowContext(ctx,
			`SELECT available_quantity FROM products WHERE id = ?`,
			item.ProductID.String(),
		).Scan(&available)
		if err == sql.ErrNoRows {
			unavailable = append(unavailable, item.ProductID)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if available < item.Quantity {
			unavailable = append(unavailable, item.ProductID)
		}
	}
	if len(unavailable) > 0 {
		// Fallo de negocio: no se toca nada y se informan los productos.
		return nil, unavailable, nil
	}

	reservation := &domain.Reservation{
		ID:         uuid.New(),
		OrderID:    orderID,
		IsActive:   true,
		ReservedAt: time.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (id, order_id, is_active, reserved_at) VALUES (?,?,1,?)`,
		reservation.ID.String(), orderID.String(), reservation.ReservedAt,
	); err != nil {
		return nil, nil, err
	}

	for _, item := range items {
		item.ID = uuid.New()
		item.ReservationID = reservation.ID
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reservation_items (id, reservation_id, product_id, quantity) VALUES (?,?,?,?)`,
			item.ID.String(), reservation.ID.String(), item.ProductID.String(), item.Quantity,
		); err != nil {
			return nil, nil, err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE products
			 SET available_quantity = available_quantity - ?,
			     reserved_quantity  = reserved_quantity + ?,
			     updated_at = ?
			 WHERE id = ?`,
			item.Quantity, item.Quantity, time.Now().UTC(), item.ProductID.String(),
		); err != nil {
			return nil, nil, err
		}

		reservation.Items = append(reservation.Items, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return reservation, nil, nil
}

// Release revierte la reserva activa del pedido en UNA transacción.
// Sin reserva activa es un no-op idempotente: seguro ante eventos
// duplicados o tardíos.
func (r *InventoryRepoSQLite) Release(ctx context.Context, orderID uuid.UUID) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	reservation, err := activeReservationTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	for _, item := range reservation.Items {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products
			 SET available_quantity = available_quantity + ?,
			     reserved_quantity  = reserved_quantity - ?,
			     updated_at = ?
			 WHERE id = ?`,
			item.Quantity, item.Quantity, now, item.ProductID.String(),
		); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET is_active = 0, released_at = ? WHERE id = ?`,
		now, reservation.ID.String(),
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	reservation.IsActive = false
	reservation.ReleasedAt = &now
	return reservation, nil
}

// activeReservationTx carga la única reserva activa del pedido, con ítems.
func activeReservationTx(ctx context.Context, tx *sql.Tx, orderID uuid.UUID) (*domain.Reservation, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT id, order_id, reserved_at FROM reservations
		 WHERE order_id = ? AND is_active = 1`, orderID.String())

	var res domain.Reservation
	var idStr, orderIDStr string
	if err := row.Scan(&idStr, &orderIDStr, &res.ReservedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	var err error
	if res.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	if res.OrderID, err = uuid.Parse(orderIDStr); err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	res.IsActive = true

	rows, err := tx.QueryContext(ctx,
		`SELECT id, reservation_id, product_id, quantity
		 FROM reservation_items WHERE reservation_id = ?`, idStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.ReservationItem
		var itemID, resID, productID string
		if err := rows.Scan(&itemID, &resID, &productID, &item.Quantity); err != nil {
			return nil, err
		}
		if item.ID, err = uuid.Parse(itemID); err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		if item.ReservationID, err = uuid.Parse(resID); err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		if item.ProductID, err = uuid.Parse(productID); err != nil {
			return nil, fmt.Errorf("invalid UUID in DB: %w", err)
		}
		res.Items = append(res.Items, item)
	}
	return &res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var idStr string
	if err := row.Scan(&idStr, &p.Name, &p.SKU, &p.AvailableQuantity, &p.ReservedQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID in DB: %w", err)
	}
	p.ID = id
	return &p, nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite no expone códigos tipados, solo el mensaje
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ------------------ Inicialización de DB ------------------

// InitSQLite crea las tablas del servicio de inventario si no existen.
// El índice único parcial garantiza a nivel de almacenamiento que un
// pedido nunca tenga dos reservas activas.
func InitSQLite(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            sku TEXT UNIQUE NOT NULL,
            available_quantity INTEGER NOT NULL CHECK (available_quantity >= 0),
            reserved_quantity INTEGER NOT NULL CHECK (reserved_quantity >= 0),
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS reservations (
            id TEXT PRIMARY KEY,
            order_id TEXT NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            reserved_at DATETIME NOT NULL,
            released_at DATETIME
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_reservations_active_order
            ON reservations (order_id) WHERE is_active = 1`,
		`CREATE TABLE IF NOT EXISTS reservation_items (
            id TEXT PRIMARY KEY,
            reservation_id TEXT NOT NULL,
            product_id TEXT NOT NULL,
            quantity INTEGER NOT NULL
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
var _ domain.InventoryRepository = (*InventoryRepoSQLite)(nil)
