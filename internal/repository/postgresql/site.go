package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/timekeep-hq/timekeep-backend-go/internal/domain/site"
	"github.com/timekeep-hq/timekeep-backend-go/internal/pkg/database"
)

type siteRepositoryImpl struct {
	db *database.DB
}

func NewSiteRepository(db *database.DB) site.SiteRepository {
	return &siteRepositoryImpl{db: db}
}

// parseClock parses an HH:MM column value.
func parseClock(value string) (time.Time, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		t, err = time.Parse("15:04:05", value)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clock value %q: %w", value, err)
	}
	return t, nil
}

// GetByID implements site.SiteRepository.
func (r *siteRepositoryImpl) GetByID(ctx context.Context, id string) (site.Site, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT id, name, latitude, longitude, radius_meters, break_hours, created_at, updated_at
		FROM sites
		WHERE id = $1`

	var s site.Site
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Latitude, &s.Longitude, &s.RadiusMeters, &s.BreakHours,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return site.Site{}, site.ErrSiteNotFound
		}
		return site.Site{}, fmt.Errorf("failed to get site with id %s: %w", id, err)
	}

	if err := r.loadDetails(ctx, []*site.Site{&s}); err != nil {
		return site.Site{}, err
	}
	return s, nil
}

// GetByIDs implements site.SiteRepository.
func (r *siteRepositoryImpl) GetByIDs(ctx context.Context, ids []string) ([]site.Site, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := database.QuerierFrom(ctx, r.db)

	// position preserves the caller's catalog order.
	query := `
		SELECT s.id, s.name, s.latitude, s.longitude, s.radius_meters, s.break_hours, s.created_at, s.updated_at
		FROM sites s
		JOIN unnest($1::text[]) WITH ORDINALITY AS ord(id, position) ON ord.id = s.id
		ORDER BY ord.position`

	return r.querySites(ctx, q, query, ids)
}

// List implements site.SiteRepository.
func (r *siteRepositoryImpl) List(ctx context.Context) ([]site.Site, error) {
	q := database.QuerierFrom(ctx, r.db)

	query := `
		SELECT id, name, latitude, longitude, radius_meters, break_hours, created_at, updated_at
		FROM sites
		ORDER BY created_at`

	return r.querySites(ctx, q, query)
}

func (r *siteRepositoryImpl) querySites(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]site.Site, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []site.Site
	for rows.Next() {
		var s site.Site
		err := rows.Scan(
			&s.ID, &s.Name, &s.Latitude, &s.Longitude, &s.RadiusMeters, &s.BreakHours,
			&s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*site.Site, len(sites))
	for i := range sites {
		refs[i] = &sites[i]
	}
	if err := r.loadDetails(ctx, refs); err != nil {
		return nil, err
	}
	return sites, nil
}

// loadDetails attaches weekly schedules and shifts to the given sites.
func (r *siteRepositoryImpl) loadDetails(ctx context.Context, sites []*site.Site) error {
	if len(sites) == 0 {
		return nil
	}

	byID := make(map[string]*site.Site, len(sites))
	ids := make([]string, 0, len(sites))
	for _, s := range sites {
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	q := database.QuerierFrom(ctx, r.db)

	scheduleQuery := `
		SELECT site_id, weekday, open_time, close_time
		FROM site_schedules
		WHERE site_id = ANY($1)`

	rows, err := q.Query(ctx, scheduleQuery, ids)
	if err != nil {
		return fmt.Errorf("failed to get site schedules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			siteID     string
			weekday    int
			open, cls  string
		)
		if err := rows.Scan(&siteID, &weekday, &open, &cls); err != nil {
			return fmt.Errorf("failed to scan site schedule: %w", err)
		}

		openAt, err := parseClock(open)
		if err != nil {
			return err
		}
		closeAt, err := parseClock(cls)
		if err != nil {
			return err
		}

		s := byID[siteID]
		if s.Schedule == nil {
			s.Schedule = make(map[time.Weekday]*site.DaySchedule)
		}
		s.Schedule[time.Weekday(weekday)] = &site.DaySchedule{Open: openAt, Close: closeAt}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	shiftQuery := `
		SELECT id, site_id, name, start_time, end_time, grace_minutes
		FROM site_shifts
		WHERE site_id = ANY($1)
		ORDER BY site_id, created_at`

	shiftRows, err := q.Query(ctx, shiftQuery, ids)
	if err != nil {
		return fmt.Errorf("failed to get site shifts: %w", err)
	}
	defer shiftRows.Close()

	for shiftRows.Next() {
		var (
			shift      site.Shift
			start, end string
		)
		if err := shiftRows.Scan(&shift.ID, &shift.SiteID, &shift.Name, &start, &end, &shift.GraceMinutes); err != nil {
			return fmt.Errorf("failed to scan site shift: %w", err)
		}

		if shift.Start, err = parseClock(start); err != nil {
			return err
		}
		if shift.End, err = parseClock(end); err != nil {
			return err
		}

		s := byID[shift.SiteID]
		s.Shifts = append(s.Shifts, shift)
	}
	return shiftRows.Err()
}
