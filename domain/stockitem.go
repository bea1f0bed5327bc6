package domain

import "github.com/shopspring/decimal"

type StockItem struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	SKU         string          `json:"sku" db:"sku"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	MinStock    int64           `json:"minStock" db:"min_stock"`
	CreatedAt   string          `json:"createdAt,omitempty" db:"created_at"`
}
