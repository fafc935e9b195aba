package testhelpers

import (
	"context"
	"testing"
	"time"

	"bizmanager/internal/models"
	"bizmanager/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryItemRoundTrip(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()
	owner := SetupTestUser(t, db)
	business := SetupTestBusiness(t, db, owner.ID())
	repo := repositories.NewInventoryRepo(db.Pool)

	expires := time.Now().Add(30 * 24 * time.Hour)
	reorder := 5
	item, err := models.NewItem(models.ItemParams{
		Name:           "Espresso beans",
		Description:    "Single origin, 1kg bag",
		CostCents:      1899,
		Quantity:       12,
		ExpirationDate: &expires,
		Category:       2,
		WeightGrams:    1000,
	})
	require.NoError(t, err)
	detail, err := models.NewItemDetail("BEAN-1KG", "SN-0042", "Roastery Co", "House", "Dark")
	require.NoError(t, err)
	inv, err := models.NewInventoryItem(uuid.New(), business.ID(), item, detail, models.InventoryExtras{
		ReorderQuantity: &reorder,
		Location:        "Shelf B",
		IsListed:        true,
	})
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, inv))
	t.Cleanup(func() { _ = repo.Delete(context.Background(), inv.ID()) })

	got, err := repo.GetByID(ctx, inv.ID())
	require.NoError(t, err)

	assert.Equal(t, inv.Item(), got.Item())
	assert.Equal(t, inv.Detail(), got.Detail())
	assert.Equal(t, business.ID(), got.BusinessID())
	assert.Equal(t, inv.Extras(), got.Extras())
}

func TestInventoryItemCreate_UnknownBusiness(t *testing.T) {
	db := SetupTestDB(t)
	repo := repositories.NewInventoryRepo(db.Pool)

	item, err := models.NewItem(models.ItemParams{Name: "Orphan"})
	require.NoError(t, err)
	inv, err := models.NewInventoryItem(uuid.New(), uuid.New(), item, models.ItemDetail{}, models.InventoryExtras{})
	require.NoError(t, err)

	err = repo.Create(context.Background(), inv)

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSoftDeletedRecordsAreHidden(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()
	users := repositories.NewUserRepo(db.Pool)
	businesses := repositories.NewBusinessRepo(db.Pool)

	owner := SetupTestUser(t, db)
	business := SetupTestBusiness(t, db, owner.ID())

	require.NoError(t, businesses.MarkDeleted(ctx, business.ID()))
	_, err := businesses.GetByID(ctx, business.ID())
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, users.MarkDeleted(ctx, owner.ID()))
	_, err = users.GetByID(ctx, owner.ID())
	assert.ErrorIs(t, err, models.ErrNotFound)

	var rows int
	require.NoError(t, db.Pool.QueryRow(ctx, `SELECT count(*) FROM user_data WHERE user_uuid = $1`, owner.ID()).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestUpdateDemographicsPersists(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()
	users := repositories.NewUserRepo(db.Pool)
	user := SetupTestUser(t, db)

	name, err := models.NewName("Jane", "Doe")
	require.NoError(t, err)
	email, err := models.NewEmail("jane-" + uuid.NewString()[:8] + "@example.com")
	require.NoError(t, err)
	user.SetName(name)
	user.SetEmail(email)

	require.NoError(t, users.UpdateDemographics(ctx, user))

	got, err := users.GetByID(ctx, user.ID())
	require.NoError(t, err)
	assert.Equal(t, name, got.Name())
	assert.Equal(t, email, got.Email())
	assert.Equal(t, user.IdentityRef(), got.IdentityRef())
}

func TestInventoryItemOfDeletedBusinessIsHidden(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()
	owner := SetupTestUser(t, db)
	business := SetupTestBusiness(t, db, owner.ID())
	repo := repositories.NewInventoryRepo(db.Pool)

	item, err := models.NewItem(models.ItemParams{Name: "Filter papers", Quantity: 40})
	require.NoError(t, err)
	detail, err := models.NewItemDetail("", "", "", "", "")
	require.NoError(t, err)
	inv, err := models.NewInventoryItem(uuid.New(), business.ID(), item, detail, models.InventoryExtras{})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, inv))
	t.Cleanup(func() { _ = repo.Delete(context.Background(), inv.ID()) })

	require.NoError(t, repositories.NewBusinessRepo(db.Pool).MarkDeleted(ctx, business.ID()))

	_, err = repo.GetByID(ctx, inv.ID())
	assert.ErrorIs(t, err, models.ErrNotFound)
}
