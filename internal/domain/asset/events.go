// Package asset holds the event contracts raised by the fixed asset module
package asset

import (
	"time"

	"github.com/erp/accounting/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeFixedAsset = "FixedAsset"

// Event type constant
const EventTypeAssetDepreciated = "AssetDepreciated"

// AssetDepreciatedEvent is raised for every asset included in a depreciation run
type AssetDepreciatedEvent struct {
	shared.BaseDomainEvent
	AssetID            uuid.UUID `json:"asset_id"`
	AssetCode          string    `json:"asset_code"`
	AssetName          string    `json:"asset_name,omitempty"`
	DepreciationDate   time.Time `json:"depreciation_date"`
	PeriodLabel        string    `json:"period_label,omitempty"`
	Currency           string    `json:"currency,omitempty"`
	DepreciationAmount string    `json:"depreciation_amount"`
	BookValue          string    `json:"book_value,omitempty"`
}

// NewAssetDepreciatedEvent creates a new AssetDepreciatedEvent
func NewAssetDepreciatedEvent(tenantID, assetID uuid.UUID, assetCode string, depreciationDate time.Time, amount string) *AssetDepreciatedEvent {
	return &AssetDepreciatedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeAssetDepreciated, AggregateTypeFixedAsset, assetID, tenantID),
		AssetID:            assetID,
		AssetCode:          assetCode,
		DepreciationDate:   depreciationDate,
		DepreciationAmount: amount,
	}
}

// EventType returns the event type name
func (e *AssetDepreciatedEvent) EventType() string {
	return EventTypeAssetDepreciated
}
