package trade

import (
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeSalesOrder   = "SalesOrder"
	AggregateTypeGoodsReceipt = "GoodsReceipt"
)

// Event type constants
const (
	EventTypeSalesOrderConfirmed = "SalesOrderConfirmed"
	EventTypeGoodsReceived       = "GoodsReceived"
)

// LineItem is an order or receipt line as published by the trade modules.
// ProductID and UnitPrice may be absent on malformed lines.
type LineItem struct {
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	ProductCode string     `json:"product_code,omitempty"`
	ProductName string     `json:"product_name,omitempty"`
	Quantity    string     `json:"quantity"`
	UnitPrice   *string    `json:"unit_price,omitempty"`
	TaxRate     string     `json:"tax_rate,omitempty"`
}

// SalesOrderConfirmedEvent is raised when a customer order is confirmed
type SalesOrderConfirmedEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID  `json:"order_id"`
	OrderNumber  string     `json:"order_number"`
	CustomerID   uuid.UUID  `json:"customer_id"`
	CustomerName string     `json:"customer_name"`
	Currency     string     `json:"currency,omitempty"`
	TotalAmount  string     `json:"total_amount"`
	ConfirmedAt  time.Time  `json:"confirmed_at"`
	Lines        []LineItem `json:"lines"`
}

// NewSalesOrderConfirmedEvent creates a new SalesOrderConfirmedEvent
func NewSalesOrderConfirmedEvent(tenantID, orderID uuid.UUID, orderNumber string, customerID uuid.UUID, totalAmount string, lines []LineItem) *SalesOrderConfirmedEvent {
	return &SalesOrderConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderConfirmed, AggregateTypeSalesOrder, orderID, tenantID),
		OrderID:         orderID,
		OrderNumber:     orderNumber,
		CustomerID:      customerID,
		TotalAmount:     totalAmount,
		ConfirmedAt:     time.Now(),
		Lines:           lines,
	}
}

// EventType returns the event type name
func (e *SalesOrderConfirmedEvent) EventType() string {
	return EventTypeSalesOrderConfirmed
}

// GoodsReceivedEvent is raised when purchased goods are received into stock
type GoodsReceivedEvent struct {
	shared.BaseDomainEvent
	ReceiptID           uuid.UUID  `json:"receipt_id"`
	ReceiptNumber       string     `json:"receipt_number"`
	PurchaseOrderID     uuid.UUID  `json:"purchase_order_id"`
	PurchaseOrderNumber string     `json:"purchase_order_number"`
	SupplierID          uuid.UUID  `json:"supplier_id"`
	SupplierName        string     `json:"supplier_name"`
	Currency            string     `json:"currency,omitempty"`
	TotalAmount         string     `json:"total_amount"`
	ReceivedAt          time.Time  `json:"received_at"`
	Lines               []LineItem `json:"lines"`
}

// NewGoodsReceivedEvent creates a new GoodsReceivedEvent
func NewGoodsReceivedEvent(tenantID, receiptID uuid.UUID, receiptNumber string, supplierID uuid.UUID, totalAmount string, lines []LineItem) *GoodsReceivedEvent {
	return &GoodsReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoodsReceived, AggregateTypeGoodsReceipt, receiptID, tenantID),
		ReceiptID:       receiptID,
		ReceiptNumber:   receiptNumber,
		SupplierID:      supplierID,
		TotalAmount:     totalAmount,
		ReceivedAt:      time.Now(),
		Lines:           lines,
	}
}

// EventType returns the event type name
func (e *GoodsReceivedEvent) EventType() string {
	return EventTypeGoodsReceived
}
