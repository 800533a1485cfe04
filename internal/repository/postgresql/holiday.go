package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type holidayRepositoryImpl struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) leave.HolidayRepository {
	return &holidayRepositoryImpl{db: db}
}

const holidayColumns = `id, company_id, holiday_date, name, is_recurring, weekly_off, created_at`

func scanHoliday(row pgx.Row) (leave.Holiday, error) {
	var h leave.Holiday
	err := row.Scan(&h.ID, &h.CompanyID, &h.Date, &h.Name, &h.IsRecurring, &h.WeeklyOff, &h.CreatedAt)
	return h, err
}

func collectHolidays(rows pgx.Rows) ([]leave.Holiday, error) {
	defer rows.Close()

	var out []leave.Holiday
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Create implements leave.HolidayRepository.
func (h *holidayRepositoryImpl) Create(ctx context.Context, hol leave.Holiday) (leave.Holiday, error) {
	q := GetQuerier(ctx, h.db)

	query := `
		INSERT INTO holidays (id, company_id, holiday_date, name, is_recurring, weekly_off)
		VALUES (uuidv7(), $1, $2, $3, $4, $5)
		RETURNING ` + holidayColumns

	created, err := scanHoliday(q.QueryRow(ctx, query, hol.CompanyID, dateOnly(hol.Date), hol.Name, hol.IsRecurring, hol.WeeklyOff))
	if err != nil {
		if isUniqueViolation(err) {
			return leave.Holiday{}, leave.ErrHolidayExists
		}
		return leave.Holiday{}, fmt.Errorf("failed to create holiday: %w", err)
	}
	return created, nil
}

// GetByID implements leave.HolidayRepository.
func (h *holidayRepositoryImpl) GetByID(ctx context.Context, id, companyID string) (leave.Holiday, error) {
	q := GetQuerier(ctx, h.db)

	hol, err := scanHoliday(q.QueryRow(ctx,
		`SELECT `+holidayColumns+` FROM holidays WHERE id = $1 AND company_id = $2`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Holiday{}, leave.ErrHolidayNotFound
		}
		return leave.Holiday{}, fmt.Errorf("failed to get holiday with id %s: %w", id, err)
	}
	return hol, nil
}

// Delete implements leave.HolidayRepository.
func (h *holidayRepositoryImpl) Delete(ctx context.Context, id, companyID string) error {
	q := GetQuerier(ctx, h.db)

	tag, err := q.Exec(ctx, `DELETE FROM holidays WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrHolidayNotFound
	}
	return nil
}

// ExistsOnDate implements leave.HolidayRepository.
func (h *holidayRepositoryImpl) ExistsOnDate(ctx context.Context, companyID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, h.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM holidays WHERE company_id = $1 AND holiday_date = $2)`,
		companyID, dateOnly(date)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check holiday: %w", err)
	}
	return exists, nil
}

// ListByYear implements leave.HolidayRepository.
func (h *holidayRepositoryImpl) ListByYear(ctx context.Context, companyID string, year int) ([]leave.Holiday, error) {
	q := GetQuerier(ctx, h.db)

	rows, err := q.Query(ctx, `
		SELECT `+holidayColumns+`
		FROM holidays
		WHERE company_id = $1 AND EXTRACT(YEAR FROM holiday_date) = $2
		ORDER BY holiday_date`, companyID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	return collectHolidays(rows)
}

// ListApplicable implements leave.HolidayRepository.
func (h *holidayRepositoryImpl) ListApplicable(ctx context.Context, companyID string, from, to time.Time) ([]leave.Holiday, error) {
	q := GetQuerier(ctx, h.db)

	rows, err := q.Query(ctx, `
		SELECT `+holidayColumns+`
		FROM holidays
		WHERE company_id = $1
		  AND ((holiday_date BETWEEN $2 AND $3) OR (is_recurring AND NOT weekly_off))
		ORDER BY holiday_date`, companyID, dateOnly(from), dateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list applicable holidays: %w", err)
	}
	return collectHolidays(rows)
}

// UpsertMany implements leave.HolidayRepository.
func (h *holidayRepositoryImpl) UpsertMany(ctx context.Context, holidays []leave.Holiday) (int, error) {
	if len(holidays) == 0 {
		return 0, nil
	}
	q := GetQuerier(ctx, h.db)

	batch := &pgx.Batch{}
	for _, hol := range holidays {
		batch.Queue(`
			INSERT INTO holidays (id, company_id, holiday_date, name, is_recurring, weekly_off)
			VALUES (uuidv7(), $1, $2, $3, $4, $5)
			ON CONFLICT (company_id, holiday_date) DO NOTHING`,
			hol.CompanyID, dateOnly(hol.Date), hol.Name, hol.IsRecurring, hol.WeeklyOff)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range holidays {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert holiday: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
