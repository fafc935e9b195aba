package repositories

import (
	"context"
	"errors"
	"time"

	"bizmanager/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InventoryRepository interface {
	Create(ctx context.Context, item *models.InventoryItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	ListForBusiness(ctx context.Context, businessID uuid.UUID) ([]*models.InventoryItem, error)
	Update(ctx context.Context, item *models.InventoryItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetImageKey(ctx context.Context, id uuid.UUID, key string) error
	ListBelowReorder(ctx context.Context) ([]*models.InventoryItem, error)
	ListExpiringBefore(ctx context.Context, before time.Time) ([]*models.InventoryItem, error)
}

type inventoryRepo struct {
	db Database
}

func NewInventoryRepo(db Database) InventoryRepository {
	return &inventoryRepo{db: db}
}

const inventoryColumns = `i.inventory_item_uuid, b.business_uuid, i.name, i.description, i.sku, i.cost_cents,
		i.serial_number, i.purchase_date, i.supplier, i.brand, i.model, i.quantity, i.reorder_quantity,
		i.location, i.expiration_date, i.category, i.custom_package_uuid, i.item_weight_g,
		i.is_listed, i.is_lot, i.notes, i.image_key`

const inventoryFrom = `
		FROM inventory_item i
		JOIN business_inventory_item bii ON bii.inventory_item_id = i.inventory_item_id
		JOIN business b ON b.business_id = bii.business_id`

// Create inserts the item and its business association as one unit. The
// business must exist and must not be soft-deleted.
func (r *inventoryRepo) Create(ctx context.Context, item *models.InventoryItem) error {
	lookupBusiness := `SELECT business_id FROM business WHERE business_uuid = $1 AND is_deleted = FALSE`
	insertItem := `
		INSERT INTO inventory_item (inventory_item_uuid, name, description, sku, cost_cents, serial_number,
			purchase_date, supplier, brand, model, quantity, reorder_quantity, location, expiration_date,
			category, custom_package_uuid, item_weight_g, is_listed, is_lot, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING inventory_item_id
	`
	insertLink := `
		INSERT INTO business_inventory_item (inventory_item_id, business_id)
		VALUES ($1, $2)
	`
	i, d, x := item.Item(), item.Detail(), item.Extras()

	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		var businessRowID int64
		if err := tx.QueryRow(ctx, lookupBusiness, item.BusinessID()).Scan(&businessRowID); err != nil {
			return notFoundOr(err, "business")
		}

		var itemRowID int64
		err := tx.QueryRow(ctx, insertItem,
			item.ID(),
			i.Name(),
			nullableString(i.Description()),
			nullableString(d.SKU()),
			i.CostCents(),
			nullableString(d.SerialNumber()),
			x.PurchaseDate,
			nullableString(d.Supplier()),
			nullableString(d.Brand()),
			nullableString(d.Model()),
			i.Quantity(),
			x.ReorderQuantity,
			nullableString(x.Location),
			i.ExpirationDate(),
			i.Category(),
			x.CustomPackageID,
			i.WeightGrams(),
			x.IsListed,
			x.IsLot,
			nullableString(x.Notes),
		).Scan(&itemRowID)
		if err != nil {
			return models.NewPersistenceError("create inventory item", err)
		}

		tag, err := tx.Exec(ctx, insertLink, itemRowID, businessRowID)
		return expectOneRow(tag, err, "link inventory item to business")
	})
}

func (r *inventoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + inventoryFrom + `
		WHERE i.inventory_item_uuid = $1 AND b.is_deleted = FALSE`
	item, err := scanInventoryItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "inventory item")
	}
	return item, nil
}

func (r *inventoryRepo) ListForBusiness(ctx context.Context, businessID uuid.UUID) ([]*models.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + inventoryFrom + `
		WHERE b.business_uuid = $1 AND b.is_deleted = FALSE
		ORDER BY i.name`
	return r.list(ctx, query, businessID)
}

// ListBelowReorder returns items whose quantity is at or below their reorder
// level across all live businesses.
func (r *inventoryRepo) ListBelowReorder(ctx context.Context) ([]*models.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + inventoryFrom + `
		WHERE b.is_deleted = FALSE AND i.reorder_quantity IS NOT NULL AND i.quantity <= i.reorder_quantity
		ORDER BY b.business_uuid, i.name`
	return r.list(ctx, query)
}

func (r *inventoryRepo) ListExpiringBefore(ctx context.Context, before time.Time) ([]*models.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + inventoryFrom + `
		WHERE b.is_deleted = FALSE AND i.expiration_date IS NOT NULL AND i.expiration_date < $1
		ORDER BY i.expiration_date`
	return r.list(ctx, query, before)
}

func (r *inventoryRepo) list(ctx context.Context, query string, args ...any) ([]*models.InventoryItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, models.NewPersistenceError("list inventory items", err)
	}
	defer rows.Close()

	var items []*models.InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, models.NewPersistenceError("scan inventory item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewPersistenceError("list inventory items", err)
	}
	return items, nil
}

func (r *inventoryRepo) Update(ctx context.Context, item *models.InventoryItem) error {
	query := `
		UPDATE inventory_item
		SET name = $1, description = $2, sku = $3, cost_cents = $4, serial_number = $5, purchase_date = $6,
			supplier = $7, brand = $8, model = $9, quantity = $10, reorder_quantity = $11, location = $12,
			expiration_date = $13, category = $14, custom_package_uuid = $15, item_weight_g = $16,
			is_listed = $17, is_lot = $18, notes = $19
		WHERE inventory_item_uuid = $20
	`
	i, d, x := item.Item(), item.Detail(), item.Extras()
	tag, err := r.db.Exec(ctx, query,
		i.Name(),
		nullableString(i.Description()),
		nullableString(d.SKU()),
		i.CostCents(),
		nullableString(d.SerialNumber()),
		x.PurchaseDate,
		nullableString(d.Supplier()),
		nullableString(d.Brand()),
		nullableString(d.Model()),
		i.Quantity(),
		x.ReorderQuantity,
		nullableString(x.Location),
		i.ExpirationDate(),
		i.Category(),
		x.CustomPackageID,
		i.WeightGrams(),
		x.IsListed,
		x.IsLot,
		nullableString(x.Notes),
		item.ID(),
	)
	return expectOneRow(tag, err, "update inventory item")
}

// Delete removes the item row and its business association. Inventory items
// are hard-deleted.
func (r *inventoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	deleteLink := `
		DELETE FROM business_inventory_item
		WHERE inventory_item_id = (SELECT inventory_item_id FROM inventory_item WHERE inventory_item_uuid = $1)
	`
	deleteItem := `DELETE FROM inventory_item WHERE inventory_item_uuid = $1`

	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, deleteLink, id); err != nil {
			return models.NewPersistenceError("delete inventory item link", err)
		}
		tag, err := tx.Exec(ctx, deleteItem, id)
		if err != nil {
			return models.NewPersistenceError("delete inventory item", err)
		}
		if tag.RowsAffected() == 0 {
			return models.NewNotFoundError("inventory item not found")
		}
		return nil
	})
}

func (r *inventoryRepo) SetImageKey(ctx context.Context, id uuid.UUID, key string) error {
	query := `UPDATE inventory_item SET image_key = $1 WHERE inventory_item_uuid = $2`
	tag, err := r.db.Exec(ctx, query, nullableString(key), id)
	return expectOneRow(tag, err, "set inventory item image")
}

func scanInventoryItem(row pgx.Row) (*models.InventoryItem, error) {
	var (
		id, businessID                            uuid.UUID
		name                                      string
		description, sku, serial, supplier, brand *string
		model, location, notes, imageKey          *string
		costCents                                 int64
		purchaseDate, expirationDate              *time.Time
		quantity, category, weightGrams           int
		reorderQuantity                           *int
		customPackageID                           *uuid.UUID
		isListed, isLot                           bool
	)
	err := row.Scan(&id, &businessID, &name, &description, &sku, &costCents, &serial, &purchaseDate,
		&supplier, &brand, &model, &quantity, &reorderQuantity, &location, &expirationDate, &category,
		&customPackageID, &weightGrams, &isListed, &isLot, &notes, &imageKey)
	if err != nil {
		return nil, err
	}

	item, err := models.NewItem(models.ItemParams{
		Name:           name,
		Description:    derefString(description),
		CostCents:      costCents,
		Quantity:       quantity,
		ExpirationDate: expirationDate,
		Category:       category,
		WeightGrams:    weightGrams,
	})
	if err != nil {
		return nil, errors.Join(errors.New("stored inventory item is invalid"), err)
	}
	detail, err := models.NewItemDetail(derefString(sku), derefString(serial), derefString(supplier), derefString(brand), derefString(model))
	if err != nil {
		return nil, errors.Join(errors.New("stored inventory item is invalid"), err)
	}
	inv, err := models.NewInventoryItem(id, businessID, item, detail, models.InventoryExtras{
		PurchaseDate:    purchaseDate,
		ReorderQuantity: reorderQuantity,
		CustomPackageID: customPackageID,
		Location:        derefString(location),
		IsListed:        isListed,
		IsLot:           isLot,
		Notes:           derefString(notes),
	})
	if err != nil {
		return nil, err
	}
	inv.SetImageKey(derefString(imageKey))
	return inv, nil
}
