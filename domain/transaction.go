package domain

// Stock movement types.
const (
	TxReceipt  = "RECEIPT"
	TxDelivery = "DELIVERY"
	TxTransfer = "TRANSFER"
)

// StatusCompleted is the status assigned to every successfully recorded
// movement. The transaction history is append-only.
const StatusCompleted = "COMPLETED"

// StockTransaction is one immutable row of the movement ledger. LocationID is
// the source location (or the sole location for receipts and deliveries);
// ToLocationID is set only for transfers.
type StockTransaction struct {
	ID           int64  `json:"id" db:"id"`
	Type         string `json:"type" db:"type"`
	Quantity     int64  `json:"quantity" db:"quantity"`
	StockItemID  int64  `json:"stockItemId" db:"stock_item_id"`
	UserID       int64  `json:"userId" db:"user_id"`
	LocationID   int64  `json:"locationId" db:"location_id"`
	ToLocationID *int64 `json:"toLocationId,omitempty" db:"to_location_id"`
	Reference    string `json:"reference" db:"reference"`
	Notes        string `json:"notes,omitempty" db:"notes"`
	Status       string `json:"status" db:"status"`
	CreatedAt    string `json:"createdAt" db:"created_at"`
}
