package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hirelyBack/internal/models"
)

type ServiceRepository struct {
	DB *sql.DB
}

const serviceColumns = `id, provider_id, service_name, description, area_covered,
        price_per_hour, total_bookings, is_active, created_at, updated_at`

func (r *ServiceRepository) CreateService(ctx context.Context, s models.Service) (models.Service, error) {
	now := time.Now()
	res, err := r.DB.ExecContext(ctx, `
        INSERT INTO services
            (provider_id, service_name, description, area_covered, price_per_hour, total_bookings, is_active, created_at)
        VALUES (?, ?, ?, ?, ?, 0, 1, ?)`,
		s.ProviderID, s.ServiceName, s.Description, s.AreaCovered, s.PricePerHour, now)
	if err != nil {
		return models.Service{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Service{}, err
	}
	s.ID = int(id)
	s.IsActive = true
	s.CreatedAt = now
	return s, nil
}

func (r *ServiceRepository) GetServiceByID(ctx context.Context, id int) (models.Service, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id)
	s, err := scanService(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Service{}, models.ErrServiceNotFound
	}
	return s, err
}

func (r *ServiceRepository) GetServicesByProvider(ctx context.Context, providerID int) ([]models.Service, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE provider_id = ? ORDER BY created_at DESC`,
		providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []models.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *ServiceRepository) IncrementBookings(ctx context.Context, id int) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE services SET total_bookings = total_bookings + 1 WHERE id = ?`, id)
	return err
}

func scanService(row rowScanner) (models.Service, error) {
	var (
		s           models.Service
		description sql.NullString
		area        sql.NullString
		updatedAt   sql.NullTime
	)
	err := row.Scan(
		&s.ID, &s.ProviderID, &s.ServiceName, &description, &area,
		&s.PricePerHour, &s.TotalBookings, &s.IsActive, &s.CreatedAt, &updatedAt,
	)
	if err != nil {
		return models.Service{}, err
	}
	s.Description = description.String
	s.AreaCovered = area.String
	if updatedAt.Valid {
		t := updatedAt.Time
		s.UpdatedAt = &t
	}
	return s, nil
}
