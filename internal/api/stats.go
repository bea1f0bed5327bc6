package api

import (
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockmaster/domain"
)

type statsResponse struct {
	TotalItems        int64           `json:"totalItems"`
	TotalStock        int64           `json:"totalStock"`
	TotalValue        decimal.Decimal `json:"totalValue"`
	LowStock          int64           `json:"lowStock"`
	TotalTransactions int64           `json:"totalTransactions"`
	Receipts          int64           `json:"receipts"`
	Deliveries        int64           `json:"deliveries"`
}

// dashboardStats aggregates the numbers shown on the dashboard. The stock
// value and low-stock count walk the stock levels with the item price and
// threshold joined in.
func (h *Handler) dashboardStats(w http.ResponseWriter, r *http.Request) {
	stats := statsResponse{TotalValue: decimal.Zero}

	counts := []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&stats.TotalItems, `SELECT COUNT(*) FROM stock_items`, nil},
		{&stats.TotalStock, `SELECT COALESCE(SUM(quantity), 0) FROM stock_levels`, nil},
		{&stats.TotalTransactions, `SELECT COUNT(*) FROM stock_transactions`, nil},
		{&stats.Receipts, `SELECT COUNT(*) FROM stock_transactions WHERE type = ?`, []any{domain.TxReceipt}},
		{&stats.Deliveries, `SELECT COUNT(*) FROM stock_transactions WHERE type = ?`, []any{domain.TxDelivery}},
	}
	for _, c := range counts {
		if err := h.db.Get(c.dest, c.query, c.args...); err != nil {
			h.log.Error("stats query failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "server error")
			return
		}
	}

	var levels []struct {
		Quantity int64           `db:"quantity"`
		Price    decimal.Decimal `db:"price"`
		MinStock int64           `db:"min_stock"`
	}
	err := h.db.Select(&levels, `SELECT sl.quantity, i.price, i.min_stock
        FROM stock_levels sl
        JOIN stock_items i ON i.id = sl.stock_item_id`)
	if err != nil {
		h.log.Error("stats levels query failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}
	for _, level := range levels {
		stats.TotalValue = stats.TotalValue.Add(level.Price.Mul(decimal.NewFromInt(level.Quantity)))
		if level.Quantity <= level.MinStock {
			stats.LowStock++
		}
	}

	respondJSON(w, http.StatusOK, stats)
}
