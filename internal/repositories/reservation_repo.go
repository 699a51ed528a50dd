package repositories

import (
	"context"
	"fmt"
	"time"

	"tailtown/internal/common"
	"tailtown/internal/models"
	"tailtown/internal/tenancy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BookingCheck runs inside the booking transaction after the resource row is locked.
// Guard receives the locked resource and every active reservation on it that overlaps
// the requested window widened by Buffer; a non-nil error aborts the write.
type BookingCheck struct {
	Buffer time.Duration
	Guard  func(resource *models.Resource, overlapping []*models.Reservation) error
}

type ReservationRepository interface {
	Create(ctx context.Context, scope tenancy.Scope, reservation *models.Reservation, check *BookingCheck) error
	Update(ctx context.Context, scope tenancy.Scope, reservation *models.Reservation, check *BookingCheck) error
	UpdateStatus(ctx context.Context, scope tenancy.Scope, id uuid.UUID, from, to string, at time.Time, reason *string) error
	GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error)
	GetByExternalID(ctx context.Context, scope tenancy.Scope, externalID string) (*models.Reservation, error)
	List(ctx context.Context, scope tenancy.Scope, filter models.ReservationFilter) ([]*models.Reservation, int, error)
	ListOverlapping(ctx context.Context, scope tenancy.Scope, resourceIDs []uuid.UUID, start, end time.Time, buffer time.Duration, exclude uuid.UUID) ([]*models.Reservation, error)
	CountForCustomer(ctx context.Context, scope tenancy.Scope, customerID uuid.UUID, before time.Time) (int, error)
	ExpirePending(ctx context.Context, scope tenancy.Scope, createdBefore time.Time) (int64, error)
	CompleteCheckedOut(ctx context.Context, scope tenancy.Scope, endedBefore time.Time) (int64, error)
}

type reservationRepo struct {
	db DB
}

func NewReservationRepo(db DB) ReservationRepository {
	return &reservationRepo{db: db}
}

const reservationColumns = `id, tenant_id, customer_id, resource_id, service_id, start_date, end_date, status,
	price, deposit_amount, deposit_rule_id, notes, external_id, cancellation_reason, cancelled_at,
	checked_in_at, checked_out_at, created_at, updated_at`

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	r := &models.Reservation{}
	err := row.Scan(&r.ID, &r.TenantID, &r.CustomerID, &r.ResourceID, &r.ServiceID, &r.StartDate, &r.EndDate, &r.Status,
		&r.Price, &r.DepositAmount, &r.DepositRuleID, &r.Notes, &r.ExternalID, &r.CancellationReason, &r.CancelledAt,
		&r.CheckedInAt, &r.CheckedOutAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func collectReservations(rows pgx.Rows) ([]*models.Reservation, error) {
	defer rows.Close()
	out := []*models.Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Create inserts the reservation and its pets. When check is set and the reservation
// names a resource, the resource row is locked FOR UPDATE first so concurrent bookings
// of the same resource serialize on it.
func (r *reservationRepo) Create(ctx context.Context, scope tenancy.Scope, res *models.Reservation, check *BookingCheck) (err error) {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	res.TenantID = tenantID

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = r.runCheck(ctx, tx, tenantID, res, check); err != nil {
		return err
	}

	query := `
		INSERT INTO reservations (id, tenant_id, customer_id, resource_id, service_id, start_date, end_date, status,
		                          price, deposit_amount, deposit_rule_id, notes, external_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query, res.ID, tenantID, res.CustomerID, res.ResourceID, res.ServiceID, res.StartDate, res.EndDate,
		res.Status, res.Price, res.DepositAmount, res.DepositRuleID, res.Notes, res.ExternalID).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return mapErr(err, common.ErrReservationNotFound)
	}

	if err = insertReservationPets(ctx, tx, tenantID, res.ID, res.PetIDs); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Update rewrites the booking fields and pet list under the same locking rules as Create.
func (r *reservationRepo) Update(ctx context.Context, scope tenancy.Scope, res *models.Reservation, check *BookingCheck) (err error) {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = r.runCheck(ctx, tx, tenantID, res, check); err != nil {
		return err
	}

	query := `
		UPDATE reservations
		SET customer_id = $1, resource_id = $2, service_id = $3, start_date = $4, end_date = $5,
		    price = $6, deposit_amount = $7, deposit_rule_id = $8, notes = $9, updated_at = NOW()
		WHERE tenant_id = $10 AND id = $11
		RETURNING updated_at
	`
	err = tx.QueryRow(ctx, query, res.CustomerID, res.ResourceID, res.ServiceID, res.StartDate, res.EndDate,
		res.Price, res.DepositAmount, res.DepositRuleID, res.Notes, tenantID, res.ID).Scan(&res.UpdatedAt)
	if err != nil {
		return mapErr(err, common.ErrReservationNotFound)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM reservation_pets WHERE tenant_id = $1 AND reservation_id = $2`, tenantID, res.ID); err != nil {
		return err
	}
	if err = insertReservationPets(ctx, tx, tenantID, res.ID, res.PetIDs); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *reservationRepo) runCheck(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, res *models.Reservation, check *BookingCheck) error {
	if check == nil || res.ResourceID == nil {
		return nil
	}

	lockQuery := `SELECT ` + resourceColumns + ` FROM resources WHERE tenant_id = $1 AND id = $2 FOR UPDATE`
	resource, err := scanResource(tx.QueryRow(ctx, lockQuery, tenantID, *res.ResourceID))
	if err != nil {
		return mapErr(err, common.ErrResourceNotFound)
	}

	overlapping, err := queryOverlapping(ctx, tx, tenantID, []uuid.UUID{resource.ID}, res.StartDate, res.EndDate, check.Buffer, res.ID)
	if err != nil {
		return err
	}

	if check.Guard == nil {
		return nil
	}
	return check.Guard(resource, overlapping)
}

func insertReservationPets(ctx context.Context, q querier, tenantID, reservationID uuid.UUID, petIDs []uuid.UUID) error {
	for _, petID := range petIDs {
		_, err := q.Exec(ctx, `INSERT INTO reservation_pets (reservation_id, pet_id, tenant_id) VALUES ($1, $2, $3)`,
			reservationID, petID, tenantID)
		if err != nil {
			return mapErr(err, common.ErrPetNotFound)
		}
	}
	return nil
}

// queryOverlapping returns active reservations on the resources whose interval meets
// [start-buffer, end+buffer). exclude is skipped so an update never collides with itself.
func queryOverlapping(ctx context.Context, q querier, tenantID uuid.UUID, resourceIDs []uuid.UUID, start, end time.Time, buffer time.Duration, exclude uuid.UUID) ([]*models.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE tenant_id = $1
		  AND resource_id = ANY($2)
		  AND status = ANY($3)
		  AND id <> $4
		  AND start_date < $5
		  AND end_date > $6
		ORDER BY start_date, id
	`
	rows, err := q.Query(ctx, query, tenantID, resourceIDs, models.ActiveReservationStatuses, exclude,
		end.Add(buffer), start.Add(-buffer))
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// UpdateStatus moves a reservation from one status to another. The write only lands
// if the row still has status from; otherwise a ConflictError reports the race.
func (r *reservationRepo) UpdateStatus(ctx context.Context, scope tenancy.Scope, id uuid.UUID, from, to string, at time.Time, reason *string) error {
	tenantID, err := scope.Require()
	if err != nil {
		return err
	}
	query := `
		UPDATE reservations
		SET status = $1,
		    checked_in_at = CASE WHEN $1 = 'CHECKED_IN' THEN $2 ELSE checked_in_at END,
		    checked_out_at = CASE WHEN $1 = 'CHECKED_OUT' THEN $2 ELSE checked_out_at END,
		    cancelled_at = CASE WHEN $1 = 'CANCELLED' THEN $2 ELSE cancelled_at END,
		    cancellation_reason = CASE WHEN $1 = 'CANCELLED' THEN $3 ELSE cancellation_reason END,
		    updated_at = NOW()
		WHERE tenant_id = $4 AND id = $5 AND status = $6
	`
	tag, err := r.db.Exec(ctx, query, to, at, reason, tenantID, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &common.ConflictError{Message: fmt.Sprintf("reservation is no longer %s", from)}
	}
	return nil
}

func (r *reservationRepo) GetByID(ctx context.Context, scope tenancy.Scope, id uuid.UUID) (*models.Reservation, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE tenant_id = $1 AND id = $2`
	res, err := scanReservation(r.db.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, mapErr(err, common.ErrReservationNotFound)
	}
	if err := r.attachPets(ctx, tenantID, []*models.Reservation{res}); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *reservationRepo) GetByExternalID(ctx context.Context, scope tenancy.Scope, externalID string) (*models.Reservation, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE tenant_id = $1 AND external_id = $2`
	res, err := scanReservation(r.db.QueryRow(ctx, query, tenantID, externalID))
	if err != nil {
		return nil, mapErr(err, common.ErrReservationNotFound)
	}
	if err := r.attachPets(ctx, tenantID, []*models.Reservation{res}); err != nil {
		return nil, err
	}
	return res, nil
}

// List filters by window overlap when both dates are set, otherwise by whichever bound is given.
func (r *reservationRepo) List(ctx context.Context, scope tenancy.Scope, f models.ReservationFilter) ([]*models.Reservation, int, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, 0, err
	}

	where := `WHERE tenant_id = $1`
	args := []any{tenantID}
	add := func(clause string, v any) {
		args = append(args, v)
		where += fmt.Sprintf(clause, len(args))
	}
	if f.EndDate != nil {
		add(` AND start_date < $%d`, *f.EndDate)
	}
	if f.StartDate != nil {
		add(` AND end_date > $%d`, *f.StartDate)
	}
	if f.Status != nil {
		add(` AND status = $%d`, *f.Status)
	}
	if f.ResourceID != nil {
		add(` AND resource_id = $%d`, *f.ResourceID)
	}
	if f.CustomerID != nil {
		add(` AND customer_id = $%d`, *f.CustomerID)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reservations `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM reservations %s ORDER BY start_date, id LIMIT $%d OFFSET $%d`,
		reservationColumns, where, len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	reservations, err := collectReservations(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachPets(ctx, tenantID, reservations); err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

func (r *reservationRepo) ListOverlapping(ctx context.Context, scope tenancy.Scope, resourceIDs []uuid.UUID, start, end time.Time, buffer time.Duration, exclude uuid.UUID) ([]*models.Reservation, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return nil, err
	}
	if len(resourceIDs) == 0 {
		return []*models.Reservation{}, nil
	}
	return queryOverlapping(ctx, r.db, tenantID, resourceIDs, start, end, buffer, exclude)
}

// CountForCustomer counts the customer's reservations created before the given instant
// that were not cancelled.
func (r *reservationRepo) CountForCustomer(ctx context.Context, scope tenancy.Scope, customerID uuid.UUID, before time.Time) (int, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reservations
		WHERE tenant_id = $1 AND customer_id = $2 AND status <> 'CANCELLED' AND created_at < $3`,
		tenantID, customerID, before).Scan(&n)
	return n, err
}

func (r *reservationRepo) ExpirePending(ctx context.Context, scope tenancy.Scope, createdBefore time.Time) (int64, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return 0, err
	}
	query := `
		UPDATE reservations
		SET status = 'CANCELLED', cancelled_at = NOW(), cancellation_reason = 'expired while pending', updated_at = NOW()
		WHERE tenant_id = $1 AND status = 'PENDING' AND created_at < $2
	`
	tag, err := r.db.Exec(ctx, query, tenantID, createdBefore)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *reservationRepo) CompleteCheckedOut(ctx context.Context, scope tenancy.Scope, endedBefore time.Time) (int64, error) {
	tenantID, err := scope.Require()
	if err != nil {
		return 0, err
	}
	query := `
		UPDATE reservations
		SET status = 'COMPLETED', updated_at = NOW()
		WHERE tenant_id = $1 AND status = 'CHECKED_OUT' AND end_date < $2
	`
	tag, err := r.db.Exec(ctx, query, tenantID, endedBefore)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *reservationRepo) attachPets(ctx context.Context, tenantID uuid.UUID, reservations []*models.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.Reservation, len(reservations))
	ids := make([]uuid.UUID, 0, len(reservations))
	for _, res := range reservations {
		res.PetIDs = []uuid.UUID{}
		byID[res.ID] = res
		ids = append(ids, res.ID)
	}

	rows, err := r.db.Query(ctx, `SELECT reservation_id, pet_id FROM reservation_pets WHERE tenant_id = $1 AND reservation_id = ANY($2) ORDER BY pet_id`,
		tenantID, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var reservationID, petID uuid.UUID
		if err := rows.Scan(&reservationID, &petID); err != nil {
			return err
		}
		if res, ok := byID[reservationID]; ok {
			res.PetIDs = append(res.PetIDs, petID)
		}
	}
	return rows.Err()
}
