package rentalrepo

import (
	"context"

	"github.com/kerpat/serverdogovor/model"
	"github.com/kerpat/serverdogovor/util/database"
)

type Repo interface {
	ByID(ctx context.Context, id string) (*model.Rental, error)

	// Snapshot joins the rental with its client and bike, scoped to the owner.
	Snapshot(ctx context.Context, rentalID, clientID string) (*model.RentalSnapshot, error)

	// ListByStatuses returns the client's rentals in any of the given statuses,
	// most recent first.
	ListByStatuses(ctx context.Context, clientID string, statuses []model.RentalStatus) ([]model.Rental, error)

	// LatestByStatuses returns the single most recently created rental among the
	// given statuses. No match surfaces as pgx.ErrNoRows.
	LatestByStatuses(ctx context.Context, clientID string, statuses []model.RentalStatus) (*model.Rental, error)

	MergeExtra(ctx context.Context, rentalID string, patch map[string]any) error
	MergeExtraAndSetStatus(ctx context.Context, rentalID string, patch map[string]any, st model.RentalStatus) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

const rentalCols = `id, client_id, bike_id, COALESCE(tariff_id,''), status, COALESCE(extra,'{}'::jsonb), created_at`

func scanRental(row interface{ Scan(...any) error }) (*model.Rental, error) {
	r := &model.Rental{}
	err := row.Scan(&r.ID, &r.ClientID, &r.BikeID, &r.TariffID, &r.Status, &r.Extra, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *repo) ByID(ctx context.Context, id string) (*model.Rental, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+rentalCols+`
		FROM rentals
		WHERE id = $1`,
		id,
	)
	return scanRental(row)
}

func (r *repo) Snapshot(ctx context.Context, rentalID, clientID string) (*model.RentalSnapshot, error) {
	s := &model.RentalSnapshot{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT r.id, r.client_id, r.bike_id, COALESCE(r.tariff_id,''), r.status,
		       COALESCE(r.extra,'{}'::jsonb), r.created_at,
		       c.id, COALESCE(c.name,''), COALESCE(c.city,''),
		       c.passport_data, COALESCE(c.extra,'{}'::jsonb),
		       COALESCE(c.verification_status,''), COALESCE(c.telegram_chat_id,''),
		       c.payment_method_id,
		       b.id, COALESCE(b.model,''), COALESCE(b.frame_number,''),
		       COALESCE(b.battery_numbers,'{}'),
		       COALESCE(b.registration_number,''), COALESCE(b.iot_device_id,''),
		       COALESCE(b.extra_equipment,''), COALESCE(b.status,''), b.service_reason
		FROM rentals r
		JOIN clients c ON c.id = r.client_id
		JOIN bikes   b ON b.id = r.bike_id
		WHERE r.id = $1 AND r.client_id = $2`,
		rentalID, clientID,
	).Scan(
		&s.Rental.ID, &s.Rental.ClientID, &s.Rental.BikeID, &s.Rental.TariffID,
		&s.Rental.Status, &s.Rental.Extra, &s.Rental.CreatedAt,
		&s.Client.ID, &s.Client.Name, &s.Client.City,
		&s.Client.PassportData, &s.Client.Extra,
		&s.Client.VerificationStatus, &s.Client.TelegramChatID,
		&s.Client.PaymentMethodID,
		&s.Bike.ID, &s.Bike.Model, &s.Bike.FrameNumber,
		&s.Bike.BatteryNumbers,
		&s.Bike.RegistrationNumber, &s.Bike.IoTDeviceID,
		&s.Bike.ExtraEquipment, &s.Bike.Status, &s.Bike.ServiceReason,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repo) ListByStatuses(ctx context.Context, clientID string, statuses []model.RentalStatus) ([]model.Rental, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+rentalCols+`
		FROM rentals
		WHERE client_id = $1
		  AND status = ANY($2)
		ORDER BY created_at DESC, id DESC`,
		clientID, statusStrings(statuses),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Rental
	for rows.Next() {
		rec, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *repo) LatestByStatuses(ctx context.Context, clientID string, statuses []model.RentalStatus) (*model.Rental, error) {
	// Ties break on created_at descending, first row wins.
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+rentalCols+`
		FROM rentals
		WHERE client_id = $1
		  AND status = ANY($2)
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		clientID, statusStrings(statuses),
	)
	return scanRental(row)
}

func (r *repo) MergeExtra(ctx context.Context, rentalID string, patch map[string]any) error {
	return r.mergeExtra(ctx, rentalID, patch, nil)
}

func (r *repo) MergeExtraAndSetStatus(ctx context.Context, rentalID string, patch map[string]any, st model.RentalStatus) error {
	return r.mergeExtra(ctx, rentalID, patch, &st)
}

// mergeExtra is a read-modify-write under a row lock: fetch the current extra
// map, splice the patch on top (patch wins on conflict), write the whole map
// back. The FOR UPDATE lock prevents two concurrent merges from losing keys.
func (r *repo) mergeExtra(ctx context.Context, rentalID string, patch map[string]any, st *model.RentalStatus) (err error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var extra map[string]any
	if err = tx.QueryRow(ctx, `
		SELECT COALESCE(extra,'{}'::jsonb)
		FROM rentals
		WHERE id = $1
		FOR UPDATE`,
		rentalID,
	).Scan(&extra); err != nil {
		return err
	}

	extra = spliceExtra(extra, patch)

	if st != nil {
		_, err = tx.Exec(ctx, `
			UPDATE rentals
			SET extra = $2,
			    status = $3
			WHERE id = $1`,
			rentalID, extra, string(*st),
		)
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE rentals
			SET extra = $2
			WHERE id = $1`,
			rentalID, extra,
		)
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// spliceExtra lays patch over old. Patch wins on key conflict; every other
// key of old survives untouched. Neither input is mutated.
func spliceExtra(old, patch map[string]any) map[string]any {
	out := make(map[string]any, len(old)+len(patch))
	for k, v := range old {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func statusStrings(statuses []model.RentalStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
