package jobs

import (
	"context"
	"log/slog"
	"time"

	"bizmanager/internal/models"
	"bizmanager/internal/observability/metrics"
	"bizmanager/internal/repositories"

	"github.com/google/uuid"
)

const (
	AlertReorder  = "reorder"
	AlertExpiring = "expiring"
)

type InventoryAlertService struct {
	inventoryRepo repositories.InventoryRepository
	logger        *slog.Logger
	now           func() time.Time
}

type InventoryAlert struct {
	Kind            string     `json:"kind"`
	BusinessID      uuid.UUID  `json:"business_uuid"`
	InventoryItemID uuid.UUID  `json:"inventory_item_uuid"`
	ItemName        string     `json:"name"`
	Quantity        int        `json:"quantity"`
	ReorderQuantity int        `json:"reorder_quantity,omitempty"`
	ExpiresAt       *time.Time `json:"expiration_date,omitempty"`
}

func NewInventoryAlertService(inventoryRepo repositories.InventoryRepository, logger *slog.Logger) *InventoryAlertService {
	return &InventoryAlertService{
		inventoryRepo: inventoryRepo,
		logger:        logger.With("component", "inventory-alerts"),
		now:           time.Now,
	}
}

// CheckReorder lists items whose quantity is at or below their reorder
// quantity.
func (a *InventoryAlertService) CheckReorder(ctx context.Context) ([]InventoryAlert, error) {
	items, err := a.inventoryRepo.ListBelowReorder(ctx)
	if err != nil {
		return nil, err
	}

	var alerts []InventoryAlert
	for _, inv := range items {
		if !inv.NeedsReorder() {
			continue
		}
		alerts = append(alerts, newAlert(AlertReorder, inv))
	}
	return alerts, nil
}

// CheckExpiring lists items that expire within window from now.
func (a *InventoryAlertService) CheckExpiring(ctx context.Context, window time.Duration) ([]InventoryAlert, error) {
	now := a.now()
	items, err := a.inventoryRepo.ListExpiringBefore(ctx, now.Add(window))
	if err != nil {
		return nil, err
	}

	var alerts []InventoryAlert
	for _, inv := range items {
		if !inv.ExpiresWithin(window, now) {
			continue
		}
		alerts = append(alerts, newAlert(AlertExpiring, inv))
	}
	return alerts, nil
}

func newAlert(kind string, inv *models.InventoryItem) InventoryAlert {
	alert := InventoryAlert{
		Kind:            kind,
		BusinessID:      inv.BusinessID(),
		InventoryItemID: inv.ID(),
		ItemName:        inv.Item().Name(),
		Quantity:        inv.Item().Quantity(),
		ExpiresAt:       inv.Item().ExpirationDate(),
	}
	if rq := inv.Extras().ReorderQuantity; rq != nil {
		alert.ReorderQuantity = *rq
	}
	return alert
}

// LogAlerts writes one summary record per business followed by one record
// per item.
func (a *InventoryAlertService) LogAlerts(ctx context.Context, kind string, alerts []InventoryAlert) {
	metrics.SetInventoryAlerts(kind, len(alerts))
	if len(alerts) == 0 {
		a.logger.DebugContext(ctx, "no inventory alerts", "kind", kind)
		return
	}

	byBusiness := make(map[uuid.UUID][]InventoryAlert)
	for _, alert := range alerts {
		byBusiness[alert.BusinessID] = append(byBusiness[alert.BusinessID], alert)
	}
	for businessID, group := range byBusiness {
		a.logger.WarnContext(ctx, "inventory alerts for business", "kind", kind, "business_id", businessID, "count", len(group))
		for _, alert := range group {
			attrs := []any{
				"kind", kind,
				"business_id", businessID,
				"inventory_item_id", alert.InventoryItemID,
				"item", alert.ItemName,
				"quantity", alert.Quantity,
			}
			if kind == AlertReorder {
				attrs = append(attrs, "reorder_quantity", alert.ReorderQuantity)
			}
			if alert.ExpiresAt != nil {
				attrs = append(attrs, "expires_at", alert.ExpiresAt.Format(time.RFC3339))
			}
			a.logger.InfoContext(ctx, "inventory alert", attrs...)
		}
	}
}

func (a *InventoryAlertService) RunReorderCheck(ctx context.Context) error {
	alerts, err := a.CheckReorder(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "reorder check failed", "error", err)
		return err
	}
	a.LogAlerts(ctx, AlertReorder, alerts)
	return nil
}

func (a *InventoryAlertService) RunExpiryCheck(ctx context.Context, window time.Duration) error {
	alerts, err := a.CheckExpiring(ctx, window)
	if err != nil {
		a.logger.ErrorContext(ctx, "expiry check failed", "error", err)
		return err
	}
	a.LogAlerts(ctx, AlertExpiring, alerts)
	return nil
}
