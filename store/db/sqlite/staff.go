package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/shiftcover/store"
)

func (d *DB) CreateStaff(ctx context.Context, create *store.Staff) (*store.Staff, error) {
	fields := []string{"id", "owner_id", "name", "role", "active"}
	args := []any{create.ID, create.OwnerID, create.Name, create.Role, create.Active}

	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		args = append(args, create.CreatedTs)
	}

	stmt := `INSERT INTO staff (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}
	return create, nil
}

func (d *DB) ListStaff(ctx context.Context, find *store.FindStaff) ([]*store.Staff, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "staff.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.OwnerID; v != nil {
		where, args = append(where, "staff.owner_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Active; v != nil {
		where, args = append(where, "staff.active = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, owner_id, name, role, active, created_ts
		FROM staff
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY staff.created_ts ASC, staff.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Staff, 0)
	for rows.Next() {
		var staff store.Staff
		if err := rows.Scan(
			&staff.ID,
			&staff.OwnerID,
			&staff.Name,
			&staff.Role,
			&staff.Active,
			&staff.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		list = append(list, &staff)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
