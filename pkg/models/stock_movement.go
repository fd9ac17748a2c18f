package models

import (
	"fmt"
	"time"
)

const (
	StockReasonSale       = "sale"
	StockReasonAdjustment = "adjustment"
)

// StockMovement is an audit record of a stock change on a product.
type StockMovement struct {
	ID              string    `json:"_id"`
	ProductID       string    `json:"productId"`
	OrderID         string    `json:"orderId,omitempty"`
	QuantityBefore  int       `json:"quantityBefore"`
	QuantityAfter   int       `json:"quantityAfter"`
	QuantityChanged int       `json:"quantityChanged"`
	Reason          string    `json:"reason"`
	PerformedBy     string    `json:"performedBy"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (sm *StockMovement) SetTimestamp() {
	if sm.CreatedAt.IsZero() {
		sm.CreatedAt = time.Now().UTC()
	}
}

func (sm *StockMovement) CalculateQuantityChanged() {
	sm.QuantityChanged = sm.QuantityAfter - sm.QuantityBefore
}

func (sm *StockMovement) IsDecrease() bool {
	return sm.QuantityChanged < 0
}

func (sm *StockMovement) GetAbsoluteChange() int {
	if sm.QuantityChanged < 0 {
		return -sm.QuantityChanged
	}
	return sm.QuantityChanged
}

func (sm *StockMovement) GetChangeDescription() string {
	direction := "unchanged"
	switch {
	case sm.QuantityChanged > 0:
		direction = "increased"
	case sm.QuantityChanged < 0:
		direction = "decreased"
	}
	return fmt.Sprintf("%s by %d units", direction, sm.GetAbsoluteChange())
}
