package domain

type Warehouse struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Code      string `json:"code" db:"code"`
	Address   string `json:"address" db:"address"`
	Capacity  int64  `json:"capacity" db:"capacity"`
	CreatedAt string `json:"createdAt,omitempty" db:"created_at"`
}

type Location struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Code        string `json:"code" db:"code"`
	WarehouseID int64  `json:"warehouseId" db:"warehouse_id"`
}
