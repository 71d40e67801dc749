package bikerepo

import (
	"context"

	"github.com/kerpat/serverdogovor/model"
	"github.com/kerpat/serverdogovor/util/database"

	"github.com/jackc/pgx/v5"
)

// Bike reads happen through the rental snapshot join; this repo only flips
// service state.
type Repo interface {
	UpdateStatus(ctx context.Context, id string, st model.BikeStatus, serviceReason *string) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

func (r *repo) UpdateStatus(ctx context.Context, id string, st model.BikeStatus, serviceReason *string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE bikes
		SET status = $2,
		    service_reason = $3
		WHERE id = $1`,
		id, string(st), serviceReason,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
