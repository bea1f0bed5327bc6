package domain

// StockLevel is the current quantity of one item at one location. Rows are
// created lazily on the first receipt into a location and are unique per
// (stock item, location) pair.
type StockLevel struct {
	ID          int64  `json:"id" db:"id"`
	StockItemID int64  `json:"stockItemId" db:"stock_item_id"`
	LocationID  int64  `json:"locationId" db:"location_id"`
	Quantity    int64  `json:"quantity" db:"quantity"`
	UpdatedAt   string `json:"updatedAt,omitempty" db:"updated_at"`
}
