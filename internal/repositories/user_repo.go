package repositories

import (
	"context"
	"time"

	"bizmanager/internal/models"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByIdentityRef(ctx context.Context, ref models.IdentityRef) (*models.User, error)
	UpdateDemographics(ctx context.Context, user *models.User) error
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkDeleted(ctx context.Context, id uuid.UUID) error
}

type userRepo struct {
	db Database
}

func NewUserRepo(db Database) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `user_uuid, auth0_id, first_name, last_name, email, username, created_at, last_login, is_premium_member, is_deleted`

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO user_data (user_uuid, auth0_id, auth_provider, first_name, last_name, email, username, created_at, last_login, is_premium_member, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE)
	`
	tag, err := r.db.Exec(ctx, query,
		user.ID(),
		user.IdentityRef().String(),
		user.IdentityRef().Provider(),
		user.Name().First(),
		user.Name().Last(),
		user.Email().String(),
		nullableString(user.Username().Display()),
		user.CreatedAt(),
		user.LastLogin(),
		user.IsPremium(),
	)
	return expectOneRow(tag, err, "create user")
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM user_data WHERE user_uuid = $1 AND is_deleted = FALSE`
	rec, err := r.scanUser(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if rec.BusinessIDs, err = r.listBusinessIDs(ctx, id); err != nil {
		return nil, err
	}
	return models.RestoreUser(*rec)
}

func (r *userRepo) GetByIdentityRef(ctx context.Context, ref models.IdentityRef) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM user_data WHERE auth0_id = $1 AND is_deleted = FALSE`
	rec, err := r.scanUser(ctx, query, ref.String())
	if err != nil {
		return nil, err
	}
	return models.RestoreUser(*rec)
}

func (r *userRepo) scanUser(ctx context.Context, query string, arg any) (*models.UserRecord, error) {
	var (
		rec      models.UserRecord
		username *string
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&rec.ID,
		&rec.IdentityRef,
		&rec.FirstName,
		&rec.LastName,
		&rec.Email,
		&username,
		&rec.CreatedAt,
		&rec.LastLogin,
		&rec.Premium,
		&rec.Deleted,
	)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	rec.Username = derefString(username)
	return &rec, nil
}

func (r *userRepo) listBusinessIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT ub.business_uuid
		FROM user_business ub
		JOIN business b ON b.business_uuid = ub.business_uuid
		WHERE ub.user_uuid = $1 AND b.is_deleted = FALSE
		ORDER BY b.business_fullname
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, models.NewPersistenceError("list user businesses", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, models.NewPersistenceError("scan user business", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewPersistenceError("list user businesses", err)
	}
	return ids, nil
}

func (r *userRepo) UpdateDemographics(ctx context.Context, user *models.User) error {
	query := `
		UPDATE user_data
		SET first_name = $1, last_name = $2, email = $3
		WHERE user_uuid = $4 AND is_deleted = FALSE
	`
	tag, err := r.db.Exec(ctx, query, user.Name().First(), user.Name().Last(), user.Email().String(), user.ID())
	return expectOneRow(tag, err, "update user demographics")
}

func (r *userRepo) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE user_data SET last_login = $1 WHERE user_uuid = $2 AND is_deleted = FALSE`
	tag, err := r.db.Exec(ctx, query, at, id)
	return expectOneRow(tag, err, "record login")
}

func (r *userRepo) MarkDeleted(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE user_data SET is_deleted = TRUE WHERE user_uuid = $1 AND is_deleted = FALSE`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return models.NewPersistenceError("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NewNotFoundError("user not found")
	}
	return nil
}
