package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hirelyBack/internal/booking/fsm"
	"hirelyBack/internal/models"
)

type BookingRepository struct {
	DB *sql.DB
}

const bookingColumns = `id, customer_id, provider_id, service_id, booking_type,
        customer_name, customer_phone, customer_address,
        status, reservation_date, hours_booked, total_amount, conversation_id,
        cancellation_reason, cancelled_by, accepted_at,
        completion_initiated_by, completion_initiated_at,
        completion_confirmed_by, completion_confirmed_at,
        created_at, updated_at`

func (r *BookingRepository) CreateBooking(ctx context.Context, b models.Booking) (models.Booking, error) {
	query := `
        INSERT INTO bookings
            (customer_id, provider_id, service_id, booking_type,
             customer_name, customer_phone, customer_address,
             status, reservation_date, hours_booked, total_amount, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := r.DB.ExecContext(ctx, query,
		b.CustomerID, b.ProviderID, b.ServiceID, string(b.BookingType),
		b.CustomerDetails.Name, b.CustomerDetails.PhoneNumber, b.CustomerDetails.ExactAddress,
		fsm.StatusPending, b.ReservationDate, b.HoursBooked, b.TotalAmount, now, now)
	if err != nil {
		return models.Booking{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Booking{}, err
	}
	b.ID = int(id)
	b.Status = fsm.StatusPending
	b.CreatedAt = now
	b.UpdatedAt = now
	return b, nil
}

func (r *BookingRepository) GetBookingByID(ctx context.Context, id int) (models.Booking, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, models.ErrBookingNotFound
	}
	return b, err
}

func (r *BookingRepository) ListBookingsByUser(ctx context.Context, userID int, status string, page, pageSize int) ([]models.Booking, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + bookingColumns + `
        FROM bookings
        WHERE (customer_id = ? OR provider_id = ?)`
	args := []any{userID, userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *BookingRepository) LinkConversation(ctx context.Context, bookingID, chatID int) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET conversation_id = ?, updated_at = NOW() WHERE id = ?`,
		chatID, bookingID)
	return err
}

// MarkAccepted moves a pending booking to confirmed. The status guard makes
// concurrent Accept/Reject/Cancel mutually exclusive.
func (r *BookingRepository) MarkAccepted(ctx context.Context, id int, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE bookings
        SET status = ?, accepted_at = ?, updated_at = ?
        WHERE id = ? AND status = ?`,
		fsm.StatusConfirmed, at, at, id, fsm.StatusPending)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

// MarkCancelled cancels a booking. The guard asserts the status the caller
// observed, so a transition that raced in between invalidates the write.
func (r *BookingRepository) MarkCancelled(ctx context.Context, id int, from string, by models.Role, reason string) error {
	if !fsm.CanTransition(from, fsm.StatusCancelled) {
		return models.ErrConflict
	}
	res, err := r.DB.ExecContext(ctx, `
        UPDATE bookings
        SET status = ?, cancelled_by = ?, cancellation_reason = ?, updated_at = NOW()
        WHERE id = ? AND status = ?`,
		fsm.StatusCancelled, string(by), reason, id, from)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

// MarkCompletionInitiated records the first half of the completion handshake.
// Only the transition that observes a null initiator may succeed.
func (r *BookingRepository) MarkCompletionInitiated(ctx context.Context, id int, by models.Role, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE bookings
        SET completion_initiated_by = ?, completion_initiated_at = ?, updated_at = ?
        WHERE id = ? AND completion_initiated_by IS NULL AND status IN (?, ?)`,
		string(by), at, at, id, fsm.StatusConfirmed, fsm.StatusInProgress)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

// MarkCompleted finishes the handshake: the confirming role must differ from
// the initiator, enforced in the predicate so racing confirms cannot both land.
func (r *BookingRepository) MarkCompleted(ctx context.Context, id int, by models.Role, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE bookings
        SET status = ?, completion_confirmed_by = ?, completion_confirmed_at = ?, updated_at = ?
        WHERE id = ? AND completion_initiated_by IS NOT NULL
          AND completion_initiated_by <> ?
          AND status IN (?, ?)`,
		fsm.StatusCompleted, string(by), at, at, id, string(by),
		fsm.StatusConfirmed, fsm.StatusInProgress)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

// MarkInProgress moves a confirmed booking to in_progress.
func (r *BookingRepository) MarkInProgress(ctx context.Context, id int) error {
	return fsm.Apply(ctx, r.DB, id, fsm.StatusConfirmed, fsm.StatusInProgress)
}

func oneRowOrConflict(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrConflict
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var (
		b               models.Booking
		bookingType     string
		reservationDate sql.NullTime
		conversationID  sql.NullInt64
		cancelReason    sql.NullString
		cancelledBy     sql.NullString
		acceptedAt      sql.NullTime
		initBy          sql.NullString
		initAt          sql.NullTime
		confirmBy       sql.NullString
		confirmAt       sql.NullTime
	)
	err := row.Scan(
		&b.ID, &b.CustomerID, &b.ProviderID, &b.ServiceID, &bookingType,
		&b.CustomerDetails.Name, &b.CustomerDetails.PhoneNumber, &b.CustomerDetails.ExactAddress,
		&b.Status, &reservationDate, &b.HoursBooked, &b.TotalAmount, &conversationID,
		&cancelReason, &cancelledBy, &acceptedAt,
		&initBy, &initAt, &confirmBy, &confirmAt,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return models.Booking{}, err
	}
	b.BookingType = models.BookingType(bookingType)
	if reservationDate.Valid {
		t := reservationDate.Time
		b.ReservationDate = &t
	}
	if conversationID.Valid {
		id := int(conversationID.Int64)
		b.ConversationID = &id
	}
	b.CancellationReason = cancelReason.String
	b.CancelledBy = models.Role(cancelledBy.String)
	if acceptedAt.Valid {
		t := acceptedAt.Time
		b.AcceptedAt = &t
	}
	b.CompletionInitiatedBy = models.Role(initBy.String)
	if initAt.Valid {
		t := initAt.Time
		b.CompletionInitiatedAt = &t
	}
	b.CompletionConfirmedBy = models.Role(confirmBy.String)
	if confirmAt.Valid {
		t := confirmAt.Time
		b.CompletionConfirmedAt = &t
	}
	return b, nil
}
