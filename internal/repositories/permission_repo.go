package repositories

import (
	"context"

	"bizmanager/internal/models"
)

type PermissionRepository interface {
	ListForIdentity(ctx context.Context, ref string) ([]string, error)
}

type permissionRepo struct {
	db Database
}

func NewPermissionRepo(db Database) PermissionRepository {
	return &permissionRepo{db: db}
}

// ListForIdentity returns the distinct permission names granted to the user
// with the given identity reference through its roles. Deleted users have
// no permissions.
func (r *permissionRepo) ListForIdentity(ctx context.Context, ref string) ([]string, error) {
	query := `
		SELECT DISTINCT p.name
		FROM user_data u
		JOIN user_role ur ON ur.user_uuid = u.user_uuid
		JOIN role_permission rp ON rp.role_id = ur.role_id
		JOIN permission p ON p.permission_id = rp.permission_id
		WHERE u.auth0_id = $1 AND u.is_deleted = FALSE
		ORDER BY p.name
	`
	rows, err := r.db.Query(ctx, query, ref)
	if err != nil {
		return nil, models.NewPersistenceError("list permissions", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, models.NewPersistenceError("scan permission", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewPersistenceError("list permissions", err)
	}
	return names, nil
}
