package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hrygo/shiftcover/store"
)

func (d *DB) CreateScheduleSlot(ctx context.Context, create *store.ScheduleSlot) (*store.ScheduleSlot, error) {
	fields := []string{"id", "owner_id", "date", "time_slot", "assigned_staff_id"}
	args := []any{create.ID, create.OwnerID, create.Date, string(create.TimeSlot), create.AssignedStaffID}

	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		args = append(args, create.CreatedTs)
	}

	stmt := `INSERT INTO schedule_slot (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to create schedule slot: %w", err)
	}
	return create, nil
}

func (d *DB) ListScheduleSlots(ctx context.Context, find *store.FindScheduleSlot) ([]*store.ScheduleSlot, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "schedule_slot.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.OwnerID; v != nil {
		where, args = append(where, "schedule_slot.owner_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.StartDate; v != nil {
		where, args = append(where, "schedule_slot.date >= "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.EndDate; v != nil {
		where, args = append(where, "schedule_slot.date <= "+placeholder(len(args)+1)), append(args, *v)
	}

	// Ordering (always by date, then day segment)
	query := `
		SELECT id, owner_id, date, time_slot, assigned_staff_id, created_ts
		FROM schedule_slot
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY schedule_slot.date ASC,
			CASE schedule_slot.time_slot WHEN 'morning' THEN 0 WHEN 'afternoon' THEN 1 ELSE 2 END ASC,
			schedule_slot.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule slots: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ScheduleSlot, 0)
	for rows.Next() {
		var slot store.ScheduleSlot
		var timeSlot string
		var assigned sql.NullString
		if err := rows.Scan(
			&slot.ID,
			&slot.OwnerID,
			&slot.Date,
			&timeSlot,
			&assigned,
			&slot.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan schedule slot: %w", err)
		}
		slot.TimeSlot = store.TimeSlot(timeSlot)
		if assigned.Valid {
			slot.AssignedStaffID = &assigned.String
		}
		list = append(list, &slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateScheduleSlot(ctx context.Context, update *store.UpdateScheduleSlot) error {
	set, args := []string{}, []any{}

	if v := update.AssignedStaffID; v != nil {
		set, args = append(set, "assigned_staff_id = "+placeholder(len(args)+1)), append(args, *v)
	} else if update.ClearAssignment {
		set = append(set, "assigned_staff_id = NULL")
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, update.ID)
	stmt := `UPDATE schedule_slot SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("failed to update schedule slot: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("schedule slot %s: %w", update.ID, sql.ErrNoRows)
	}
	return nil
}
