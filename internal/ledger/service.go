// Package ledger implements the stock transaction ledger: every movement is
// validated, applied to the per-location balances, and recorded as one
// immutable StockTransaction row, all inside a single database transaction.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"stockmaster/domain"
)

// Service mutates stock balances and the movement history.
type Service struct {
	db *sqlx.DB
}

// New constructs a Service.
func New(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// TransactionRecord is a ledger row enriched with item data for display.
type TransactionRecord struct {
	domain.StockTransaction
	ItemName string `db:"item_name" json:"itemName"`
	ItemSKU  string `db:"item_sku" json:"itemSku"`
}

// SubmitRequest carries one stock movement. UserID comes from the
// authentication layer, never from the client body.
type SubmitRequest struct {
	Type         string `json:"type"`
	StockItemID  int64  `json:"stockItemId"`
	Quantity     int64  `json:"quantity"`
	LocationID   int64  `json:"locationId"`
	ToLocationID int64  `json:"toLocationId"`
	Reference    string `json:"reference"`
	Notes        string `json:"notes"`
	UserID       int64  `json:"-"`
}

func (r SubmitRequest) validate() error {
	switch r.Type {
	case domain.TxReceipt, domain.TxDelivery, domain.TxTransfer:
	default:
		return ValidationError("type must be RECEIPT, DELIVERY or TRANSFER")
	}
	if r.StockItemID <= 0 {
		return ValidationError("stockItemId is required")
	}
	if r.Quantity <= 0 {
		return ValidationError("quantity must be a positive integer")
	}
	if r.LocationID <= 0 {
		return ValidationError("locationId is required")
	}
	if r.Type == domain.TxTransfer {
		if r.ToLocationID <= 0 {
			return ValidationError("toLocationId is required for transfers")
		}
		if r.ToLocationID == r.LocationID {
			return ErrInvalidTransfer
		}
	} else if r.ToLocationID != 0 {
		return ValidationError("toLocationId is only valid for transfers")
	}
	return nil
}

// Submit validates the request, applies the balance mutation and appends the
// transaction record. Balance checks and mutations run as conditional updates
// inside one database transaction, so concurrent submissions can never debit
// below zero and a transfer either moves stock completely or not at all.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*TransactionRecord, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin submit: %w", err)
	}
	defer tx.Rollback()

	var item struct {
		Name string `db:"name"`
		SKU  string `db:"sku"`
	}
	err = tx.GetContext(ctx, &item, `SELECT name, sku FROM stock_items WHERE id = ?`, req.StockItemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stock item %d: %w", req.StockItemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load stock item: %w", err)
	}

	if err := locationExists(ctx, tx, req.LocationID); err != nil {
		return nil, err
	}

	switch req.Type {
	case domain.TxReceipt:
		if err := addStock(ctx, tx, req.StockItemID, req.LocationID, req.Quantity); err != nil {
			return nil, err
		}
	case domain.TxDelivery:
		if err := removeStock(ctx, tx, req.StockItemID, req.LocationID, req.Quantity); err != nil {
			return nil, err
		}
	case domain.TxTransfer:
		if err := locationExists(ctx, tx, req.ToLocationID); err != nil {
			return nil, err
		}
		if err := removeStock(ctx, tx, req.StockItemID, req.LocationID, req.Quantity); err != nil {
			return nil, err
		}
		if err := addStock(ctx, tx, req.StockItemID, req.ToLocationID, req.Quantity); err != nil {
			return nil, err
		}
	}

	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = "TXN-" + uuid.NewString()
	}

	var toLocation *int64
	if req.Type == domain.TxTransfer {
		toLocation = &req.ToLocationID
	}

	record := TransactionRecord{
		StockTransaction: domain.StockTransaction{
			Type:         req.Type,
			Quantity:     req.Quantity,
			StockItemID:  req.StockItemID,
			UserID:       req.UserID,
			LocationID:   req.LocationID,
			ToLocationID: toLocation,
			Reference:    reference,
			Notes:        req.Notes,
			Status:       domain.StatusCompleted,
		},
		ItemName: item.Name,
		ItemSKU:  item.SKU,
	}

	err = tx.QueryRowxContext(ctx, `INSERT INTO stock_transactions
            (type, quantity, stock_item_id, user_id, location_id, to_location_id, reference, notes, status)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id, created_at`,
		record.Type, record.Quantity, record.StockItemID, record.UserID,
		record.LocationID, record.ToLocationID, record.Reference, record.Notes, record.Status,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit submit: %w", err)
	}
	return &record, nil
}

// addStock increments the balance for (item, location), creating the row on
// first receipt into that location.
func addStock(ctx context.Context, tx *sqlx.Tx, itemID, locationID, qty int64) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO stock_levels (stock_item_id, location_id, quantity)
        VALUES (?, ?, ?)
        ON CONFLICT(stock_item_id, location_id)
        DO UPDATE SET quantity = quantity + excluded.quantity, updated_at = CURRENT_TIMESTAMP`,
		itemID, locationID, qty)
	if err != nil {
		return fmt.Errorf("add stock: %w", err)
	}
	return nil
}

// removeStock debits the balance only when it covers qty. The precondition is
// part of the UPDATE itself, so two concurrent debits cannot both pass a check
// against the same stale balance.
func removeStock(ctx context.Context, tx *sqlx.Tx, itemID, locationID, qty int64) error {
	res, err := tx.ExecContext(ctx, `UPDATE stock_levels
        SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
        WHERE stock_item_id = ? AND location_id = ? AND quantity >= ?`,
		qty, itemID, locationID, qty)
	if err != nil {
		return fmt.Errorf("remove stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove stock: %w", err)
	}
	if affected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func locationExists(ctx context.Context, tx *sqlx.Tx, id int64) error {
	var found bool
	if err := tx.GetContext(ctx, &found, `SELECT EXISTS (SELECT 1 FROM locations WHERE id = ?)`, id); err != nil {
		return fmt.Errorf("check location: %w", err)
	}
	if !found {
		return fmt.Errorf("location %d: %w", id, ErrNotFound)
	}
	return nil
}

// StockLevel returns the current balance for (item, location), zero when no
// row exists yet.
func (s *Service) StockLevel(ctx context.Context, itemID, locationID int64) (int64, error) {
	var qty int64
	err := s.db.GetContext(ctx, &qty,
		`SELECT quantity FROM stock_levels WHERE stock_item_id = ? AND location_id = ?`, itemID, locationID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load stock level: %w", err)
	}
	return qty, nil
}

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	Limit int
	Type  string
}

// ListTransactions returns ledger rows newest-first.
func (s *Service) ListTransactions(ctx context.Context, filter TransactionFilter) ([]TransactionRecord, error) {
	query := `SELECT t.id, t.type, t.quantity, t.stock_item_id, t.user_id, t.location_id,
            t.to_location_id, t.reference, t.notes, t.status, t.created_at,
            i.name AS item_name, i.sku AS item_sku
        FROM stock_transactions t
        JOIN stock_items i ON i.id = t.stock_item_id`
	var args []any
	if filter.Type != "" {
		query += " WHERE t.type = ?"
		args = append(args, filter.Type)
	}
	query += " ORDER BY t.created_at DESC, t.id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	records := []TransactionRecord{}
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return records, nil
}

// GetTransaction returns a single ledger row by id.
func (s *Service) GetTransaction(ctx context.Context, id int64) (*TransactionRecord, error) {
	var record TransactionRecord
	err := s.db.GetContext(ctx, &record, `SELECT t.id, t.type, t.quantity, t.stock_item_id, t.user_id,
            t.location_id, t.to_location_id, t.reference, t.notes, t.status, t.created_at,
            i.name AS item_name, i.sku AS item_sku
        FROM stock_transactions t
        JOIN stock_items i ON i.id = t.stock_item_id
        WHERE t.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load transaction: %w", err)
	}
	return &record, nil
}

// CreateItemRequest carries the fields for a new stock item. Price and
// MinStock are optional and default to 0 and 10.
type CreateItemRequest struct {
	Name        string           `json:"name"`
	SKU         string           `json:"sku"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	MinStock    *int64           `json:"minStock"`
}

// CreateItem inserts a stock item, enforcing SKU uniqueness.
func (s *Service) CreateItem(ctx context.Context, req CreateItemRequest) (*domain.StockItem, error) {
	name := strings.TrimSpace(req.Name)
	sku := strings.TrimSpace(req.SKU)
	if name == "" {
		return nil, ValidationError("name is required")
	}
	if sku == "" {
		return nil, ValidationError("sku is required")
	}

	price := decimal.Zero
	if req.Price != nil {
		price = *req.Price
	}
	minStock := int64(10)
	if req.MinStock != nil {
		minStock = *req.MinStock
	}

	item := domain.StockItem{
		Name:        name,
		SKU:         sku,
		Description: req.Description,
		Price:       price,
		MinStock:    minStock,
	}
	err := s.db.QueryRowxContext(ctx, `INSERT INTO stock_items (name, sku, description, price, min_stock)
        VALUES (?, ?, ?, ?, ?)
        RETURNING id, created_at`,
		item.Name, item.SKU, item.Description, item.Price.String(), item.MinStock,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: stock_items.sku") {
			return nil, fmt.Errorf("sku %q: %w", sku, ErrDuplicateSKU)
		}
		return nil, fmt.Errorf("create stock item: %w", err)
	}
	return &item, nil
}

// ListItems returns all stock items.
func (s *Service) ListItems(ctx context.Context) ([]domain.StockItem, error) {
	items := []domain.StockItem{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT id, name, sku, description, price, min_stock, created_at FROM stock_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list stock items: %w", err)
	}
	return items, nil
}
