package clientrepo

import (
	"context"

	"github.com/kerpat/serverdogovor/model"
	"github.com/kerpat/serverdogovor/util/database"

	"github.com/jackc/pgx/v5"
)

type Repo interface {
	ByToken(ctx context.Context, token string) (string, error)
	ByID(ctx context.Context, id string) (*model.Client, error)
	UpdateLocation(ctx context.Context, id string, lat, lon float64) error
	SetVerificationStatus(ctx context.Context, id string, st model.VerificationStatus) error
	RemovePaymentMethod(ctx context.Context, id string) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

// ByToken resolves a long-lived bearer token to the owning client id.
func (r *repo) ByToken(ctx context.Context, token string) (string, error) {
	var id string
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id
		FROM clients
		WHERE token = $1`,
		token,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *repo) ByID(ctx context.Context, id string) (*model.Client, error) {
	c := &model.Client{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, COALESCE(name,''), COALESCE(city,''),
		       passport_data,
		       COALESCE(extra,'{}'::jsonb),
		       COALESCE(verification_status,''),
		       COALESCE(telegram_chat_id,''),
		       payment_method_id
		FROM clients
		WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.City, &c.PassportData, &c.Extra,
		&c.VerificationStatus, &c.TelegramChatID, &c.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repo) UpdateLocation(ctx context.Context, id string, lat, lon float64) error {
	// point(x,y) is (lon, lat)
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE clients
		SET location = point($2, $3)
		WHERE id = $1`,
		id, lon, lat,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repo) SetVerificationStatus(ctx context.Context, id string, st model.VerificationStatus) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE clients
		SET verification_status = $2
		WHERE id = $1`,
		id, string(st),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// RemovePaymentMethod deletes the nested payment_method object from extra and
// clears the linked identifier. The row is locked so a concurrent merge into
// extra cannot be lost; untouched keys survive.
func (r *repo) RemovePaymentMethod(ctx context.Context, id string) (err error) {
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
		FROM clients
		WHERE id = $1
		FOR UPDATE`,
		id,
	).Scan(&extra); err != nil {
		return err
	}

	extra = withoutPaymentMethod(extra)

	if _, err = tx.Exec(ctx, `
		UPDATE clients
		SET extra = $2,
		    payment_method_id = NULL
		WHERE id = $1`,
		id, extra,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// withoutPaymentMethod returns extra minus the nested payment_method object.
// Every sibling key survives. The input map is not mutated.
func withoutPaymentMethod(extra map[string]any) map[string]any {
	out := make(map[string]any, len(extra))
	for k, v := range extra {
		if k == "payment_method" {
			continue
		}
		out[k] = v
	}
	return out
}
