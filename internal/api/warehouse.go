package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stockmaster/domain"
)

type warehouseResponse struct {
	domain.Warehouse
	Locations     []domain.Location `json:"locations"`
	LocationCount int               `json:"locationCount"`
}

func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	var warehouses []domain.Warehouse
	if err := h.db.Select(&warehouses, `SELECT id, name, code, address, capacity, created_at FROM warehouses ORDER BY id`); err != nil {
		h.log.Error("warehouse list failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}

	var locations []domain.Location
	if err := h.db.Select(&locations, `SELECT id, name, code, warehouse_id FROM locations ORDER BY id`); err != nil {
		h.log.Error("location list failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}
	byWarehouse := make(map[int64][]domain.Location)
	for _, loc := range locations {
		byWarehouse[loc.WarehouseID] = append(byWarehouse[loc.WarehouseID], loc)
	}

	response := make([]warehouseResponse, len(warehouses))
	for i, wh := range warehouses {
		locs := byWarehouse[wh.ID]
		if locs == nil {
			locs = []domain.Location{}
		}
		response[i] = warehouseResponse{Warehouse: wh, Locations: locs, LocationCount: len(locs)}
	}
	respondJSON(w, http.StatusOK, response)
}

type warehouseRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Address  string `json:"address"`
	Capacity int64  `json:"capacity"`
}

func (h *Handler) createWarehouse(w http.ResponseWriter, r *http.Request) {
	var req warehouseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" || req.Code == "" {
		respondError(w, http.StatusBadRequest, "name and code are required")
		return
	}

	warehouse := domain.Warehouse{Name: req.Name, Code: req.Code, Address: req.Address, Capacity: req.Capacity}
	err := h.db.QueryRowx(`INSERT INTO warehouses (name, code, address, capacity) VALUES (?, ?, ?, ?) RETURNING id, created_at`,
		req.Name, req.Code, req.Address, req.Capacity).Scan(&warehouse.ID, &warehouse.CreatedAt)
	if err != nil {
		h.log.Error("warehouse insert failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}
	respondJSON(w, http.StatusCreated, warehouse)
}

type locationResponse struct {
	domain.Location
	WarehouseName string `db:"warehouse_name" json:"warehouseName"`
	WarehouseCode string `db:"warehouse_code" json:"warehouseCode"`
}

func (h *Handler) listLocations(w http.ResponseWriter, r *http.Request) {
	locations := []locationResponse{}
	err := h.db.Select(&locations, `SELECT l.id, l.name, l.code, l.warehouse_id,
            w.name AS warehouse_name, w.code AS warehouse_code
        FROM locations l
        JOIN warehouses w ON w.id = l.warehouse_id
        ORDER BY l.id`)
	if err != nil {
		h.log.Error("location list failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}
	respondJSON(w, http.StatusOK, locations)
}

type locationRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	WarehouseID int64  `json:"warehouseId"`
}

func (h *Handler) createLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" || req.Code == "" || req.WarehouseID <= 0 {
		respondError(w, http.StatusBadRequest, "name, code and warehouseId are required")
		return
	}

	var exists bool
	if err := h.db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM warehouses WHERE id = ?)`, req.WarehouseID); err != nil {
		h.log.Error("warehouse lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}
	if !exists {
		respondError(w, http.StatusNotFound, "warehouse not found")
		return
	}

	location := domain.Location{Name: req.Name, Code: req.Code, WarehouseID: req.WarehouseID}
	err := h.db.QueryRowx(`INSERT INTO locations (name, code, warehouse_id) VALUES (?, ?, ?) RETURNING id`,
		req.Name, req.Code, req.WarehouseID).Scan(&location.ID)
	if err != nil {
		h.log.Error("location insert failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}
	respondJSON(w, http.StatusCreated, location)
}

type inventoryRow struct {
	domain.StockLevel
	ItemName     string `db:"item_name" json:"itemName"`
	ItemSKU      string `db:"item_sku" json:"itemSku"`
	LocationName string `db:"location_name" json:"locationName"`
	LocationCode string `db:"location_code" json:"locationCode"`
}

// warehouseInventory lists every stock level held at any location of the
// given warehouse.
func (h *Handler) warehouseInventory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid warehouse id")
		return
	}

	var name string
	err = h.db.Get(&name, `SELECT name FROM warehouses WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "warehouse not found")
		return
	}
	if err != nil {
		h.log.Error("warehouse lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}

	rows := []inventoryRow{}
	err = h.db.Select(&rows, `SELECT sl.id, sl.stock_item_id, sl.location_id, sl.quantity, sl.updated_at,
            i.name AS item_name, i.sku AS item_sku,
            l.name AS location_name, l.code AS location_code
        FROM stock_levels sl
        JOIN locations l ON l.id = sl.location_id
        JOIN stock_items i ON i.id = sl.stock_item_id
        WHERE l.warehouse_id = ?
        ORDER BY i.name, l.code`, id)
	if err != nil {
		h.log.Error("warehouse inventory query failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
