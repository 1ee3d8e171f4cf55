package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL

	"github.com/davicafu/ordersaga/internal/inventory/domain"
)

// InventoryRepoPostgres es la variante de producción del motor de reservas.
type InventoryRepoPostgres struct {
	db *sql.DB
}

func NewInventoryRepoPostgres(db *sql.DB) *InventoryRepoPostgres {
	return &InventoryRepoPostgres{db: db}
}

// ------------------ Productos ------------------

func (r *InventoryRepoPostgres) CreateProduct(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, sku, available_quantity, reserved_quantity, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.Name, p.SKU, p.AvailableQuantity, p.ReservedQuantity, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrProductAlreadyExists
	}
	return err
}

func (r *InventoryRepoPostgres) GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, sku, available_quantity, reserved_quantity, created_at, updated_at
		 FROM products WHERE id = $1`, id)

	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.AvailableQuantity, &p.ReservedQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *InventoryRepoPostgres) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, sku, available_quantity, reserved_quantity, created_at, updated_at
		 FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.AvailableQuantity, &p.ReservedQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

// ------------------ Reserva ------------------

// Reserve hace la reserva completa en una transacción; con SELECT FOR UPDATE
// sobre los productos implicados dos reservas concurrentes no pueden vender
// el mismo stock dos veces.
func (r *InventoryRepoPostgres) Reserve(ctx context.Context, orderID uuid.UUID, items []domain.ReservationItem) (*domain.Reservation, []uuid.UUID, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	if existing, err := activeReservationTx(ctx, tx, orderID); err != nil {
		return nil, nil, err
	} else if existing != nil {
		return existing, nil, tx.Commit()
	}

	var unavailable []uuid.UUID
	for _, item := range items {
		var available int
		err := tx.QueryRowContext(ctx,
			`SELECT available_quantity FROM products WHERE id = $1 FOR UPDATE`,
			item.ProductID,
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
		return nil, unavailable, nil
	}

	reservation := &domain.Reservation{
		ID:         uuid.New(),
		OrderID:    orderID,
		IsActive:   true,
		ReservedAt: time.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (id, order_id, is_active, reserved_at) VALUES ($1,$2,TRUE,$3)`,
		reservation.ID, orderID, reservation.ReservedAt,
	); err != nil {
		return nil, nil, err
	}

	for _, item := range items {
		item.ID = uuid.New()
		item.ReservationID = reservation.ID
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reservation_items (id, reservation_id, product_id, quantity) VALUES ($1,$2,$3,$4)`,
			item.ID, reservation.ID, item.ProductID, item.Quantity,
		); err != nil {
			return nil, nil, err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE products
			 SET available_quantity = available_quantity - $1,
			     reserved_quantity  = reserved_quantity + $1,
			     updated_at = $2
			 WHERE id = $3`,
			item.Quantity, time.Now().UTC(), item.ProductID,
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

func (r *InventoryRepoPostgres) Release(ctx context.Context, orderID uuid.UUID) (*domain.Reservation, error) {
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
			 SET available_quantity = available_quantity + $1,
			     reserved_quantity  = reserved_quantity - $1,
			     updated_at = $2
			 WHERE id = $3`,
			item.Quantity, now, item.ProductID,
		); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET is_active = FALSE, released_at = $1 WHERE id = $2`,
		now, reservation.ID,
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

func activeReservationTx(ctx context.Context, tx *sql.Tx, orderID uuid.UUID) (*domain.Reservation, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT id, order_id, reserved_at FROM reservations
		 WHERE order_id = $1 AND is_active = TRUE`, orderID)

	var res domain.Reservation
	if err := row.Scan(&res.ID, &res.OrderID, &res.ReservedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	res.IsActive = true

	rows, err := tx.QueryContext(ctx,
		`SELECT id, reservation_id, product_id, quantity
		 FROM reservation_items WHERE reservation_id = $1`, res.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.ReservationItem
		if err := rows.Scan(&item.ID, &item.ReservationID, &item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		res.Items = append(res.Items, item)
	}
	return &res, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ------------------ Inicialización de DB ------------------

// InitPostgres crea las tablas del servicio de inventario si no existen.
func InitPostgres(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            sku TEXT UNIQUE NOT NULL,
            available_quantity INTEGER NOT NULL CHECK (available_quantity >= 0),
            reserved_quantity INTEGER NOT NULL CHECK (reserved_quantity >= 0),
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS reservations (
            id UUID PRIMARY KEY,
            order_id UUID NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            reserved_at TIMESTAMPTZ NOT NULL,
            released_at TIMESTAMPTZ
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_reservations_active_order
            ON reservations (order_id) WHERE is_active`,
		`CREATE TABLE IF NOT EXISTS reservation_items (
            id UUID PRIMARY KEY,
            reservation_id UUID NOT NULL REFERENCES reservations(id),
            product_id UUID NOT NULL REFERENCES products(id),
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
var _ domain.InventoryRepository = (*InventoryRepoPostgres)(nil)
