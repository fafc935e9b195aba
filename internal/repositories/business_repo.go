package repositories

import (
	"context"

	"bizmanager/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BusinessRepository interface {
	Create(ctx context.Context, business *models.Business) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Business, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Business, error)
	Update(ctx context.Context, business *models.Business) error
	MarkDeleted(ctx context.Context, id uuid.UUID) error
}

type businessRepo struct {
	db Database
}

func NewBusinessRepo(db Database) BusinessRepository {
	return &businessRepo{db: db}
}

const businessColumns = `b.business_uuid, b.business_owner_uuid, b.business_fullname, b.business_display_name,
		b.business_structure_type_id, b.country_code, b.business_industry,
		b.address_uuid, b.street1, b.street2, b.city, b.state, b.postal_code, b.address_country, b.is_deleted`

// addressArgs flattens an optional address into its seven nullable columns.
func addressArgs(a *models.Address) []any {
	if a == nil {
		return []any{nil, nil, nil, nil, nil, nil, nil}
	}
	return []any{a.ID(), a.Street1(), nullableString(a.Street2()), a.City(), nullableString(a.State()), a.PostalCode(), a.Country()}
}

// Create stores the business and its owner association in one transaction.
func (r *businessRepo) Create(ctx context.Context, business *models.Business) error {
	insertBusiness := `
		INSERT INTO business (business_uuid, business_owner_uuid, business_fullname, business_display_name,
			business_structure_type_id, country_code, business_industry,
			address_uuid, street1, street2, city, state, postal_code, address_country, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, FALSE)
	`
	insertOwner := `
		INSERT INTO user_business (user_uuid, business_uuid)
		VALUES ($1, $2)
	`
	args := []any{
		business.ID(),
		business.OwnerID(),
		business.Name().Full(),
		nullableString(business.Name().Display()),
		business.Structure().TypeID(),
		business.Structure().CountryCode(),
		business.Industry(),
	}
	args = append(args, addressArgs(business.Address())...)

	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, insertBusiness, args...)
		if err := expectOneRow(tag, err, "create business"); err != nil {
			return err
		}
		tag, err = tx.Exec(ctx, insertOwner, business.OwnerID(), business.ID())
		return expectOneRow(tag, err, "create business owner")
	})
}

func (r *businessRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM business b WHERE b.business_uuid = $1 AND b.is_deleted = FALSE`
	b, err := scanBusiness(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "business")
	}
	return b, nil
}

// ListForUser returns the live businesses the user is associated with,
// whether as owner or as a member.
func (r *businessRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Business, error) {
	query := `
		SELECT ` + businessColumns + `
		FROM business b
		JOIN user_business ub ON ub.business_uuid = b.business_uuid
		WHERE ub.user_uuid = $1 AND b.is_deleted = FALSE
		ORDER BY b.business_fullname
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, models.NewPersistenceError("list businesses", err)
	}
	defer rows.Close()

	var businesses []*models.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, models.NewPersistenceError("scan business", err)
		}
		businesses = append(businesses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewPersistenceError("list businesses", err)
	}
	return businesses, nil
}

func (r *businessRepo) Update(ctx context.Context, business *models.Business) error {
	query := `
		UPDATE business
		SET business_fullname = $1, business_display_name = $2, business_structure_type_id = $3,
			country_code = $4, business_industry = $5,
			address_uuid = $6, street1 = $7, street2 = $8, city = $9, state = $10, postal_code = $11, address_country = $12
		WHERE business_uuid = $13 AND is_deleted = FALSE
	`
	args := []any{
		business.Name().Full(),
		nullableString(business.Name().Display()),
		business.Structure().TypeID(),
		business.Structure().CountryCode(),
		business.Industry(),
	}
	args = append(args, addressArgs(business.Address())...)
	args = append(args, business.ID())

	tag, err := r.db.Exec(ctx, query, args...)
	return expectOneRow(tag, err, "update business")
}

func (r *businessRepo) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE business SET is_deleted = TRUE WHERE business_uuid = $1 AND is_deleted = FALSE`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return models.NewPersistenceError("delete business", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("business not found")
	}
	return nil
}

func scanBusiness(row pgx.Row) (*models.Business, error) {
	var (
		id, ownerID                                        uuid.UUID
		fullName, countryCode, industry                    string
		displayName                                        *string
		structureTypeID                                    int
		addressID                                          *uuid.UUID
		street1, street2, city, state, postal, addrCountry *string
		deleted                                            bool
	)
	err := row.Scan(&id, &ownerID, &fullName, &displayName, &structureTypeID, &countryCode, &industry,
		&addressID, &street1, &street2, &city, &state, &postal, &addrCountry, &deleted)
	if err != nil {
		return nil, err
	}

	name, err := models.NewBusinessName(fullName, derefString(displayName))
	if err != nil {
		return nil, err
	}
	structure, err := models.NewBusinessStructure(structureTypeID, countryCode)
	if err != nil {
		return nil, err
	}
	var address *models.Address
	if addressID != nil {
		a, err := models.NewAddress(*addressID, derefString(street1), derefString(street2), derefString(city),
			derefString(state), derefString(postal), derefString(addrCountry))
		if err != nil {
			return nil, err
		}
		address = &a
	}
	return models.RestoreBusiness(id, ownerID, name, structure, industry, address, deleted), nil
}
