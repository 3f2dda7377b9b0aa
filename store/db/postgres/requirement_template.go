package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/shiftcover/store"
)

func (d *DB) UpsertRequirementTemplate(ctx context.Context, upsert *store.RequirementTemplate) (*store.RequirementTemplate, error) {
	weekday, err := json.Marshal(upsert.WeekdayRequirements)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal weekday requirements: %w", err)
	}
	overrides, err := json.Marshal(upsert.DateOverrides)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal date overrides: %w", err)
	}
	if upsert.UpdatedTs == 0 {
		upsert.UpdatedTs = time.Now().Unix()
	}

	stmt := `
		INSERT INTO requirement_template (owner_id, period, weekday_requirements, date_overrides, updated_ts)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5)
		ON CONFLICT (owner_id, period) DO UPDATE SET
			weekday_requirements = EXCLUDED.weekday_requirements,
			date_overrides = EXCLUDED.date_overrides,
			updated_ts = EXCLUDED.updated_ts`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.OwnerID, upsert.Period, string(weekday), string(overrides), upsert.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to upsert requirement template: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListRequirementTemplates(ctx context.Context, find *store.FindRequirementTemplate) ([]*store.RequirementTemplate, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.OwnerID; v != nil {
		where, args = append(where, "owner_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Period; v != nil {
		where, args = append(where, "period = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT owner_id, period, weekday_requirements::text, date_overrides::text, updated_ts
		FROM requirement_template
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY owner_id ASC, period ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requirement templates: %w", err)
	}
	defer rows.Close()

	list := make([]*store.RequirementTemplate, 0)
	for rows.Next() {
		var template store.RequirementTemplate
		var weekday, overrides string
		if err := rows.Scan(
			&template.OwnerID,
			&template.Period,
			&weekday,
			&overrides,
			&template.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan requirement template: %w", err)
		}
		if err := json.Unmarshal([]byte(weekday), &template.WeekdayRequirements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal weekday requirements: %w", err)
		}
		if err := json.Unmarshal([]byte(overrides), &template.DateOverrides); err != nil {
			return nil, fmt.Errorf("failed to unmarshal date overrides: %w", err)
		}
		list = append(list, &template)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
