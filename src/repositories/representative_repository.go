package repositories

import (
	"context"
	"fmt"
	"strings"

	"housetrades/src/database"
	"housetrades/src/models"

	"github.com/jackc/pgx/v5"
)

type RepresentativeRepository interface {
	List(ctx context.Context) ([]models.Representative, error)
	ReplaceAll(ctx context.Context, representatives []models.Representative, tx pgx.Tx) error
}

type representativeRepo struct {
	db database.DBTX
}

func NewRepresentativeRepository(db database.DBTX) RepresentativeRepository {
	return &representativeRepo{db: db}
}

func (r *representativeRepo) List(ctx context.Context) ([]models.Representative, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, district, state, party
		FROM representatives
		ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var representatives []models.Representative
	for rows.Next() {
		var rep models.Representative
		if err := rows.Scan(&rep.ID, &rep.Name, &rep.District, &rep.State, &rep.Party); err != nil {
			return nil, err
		}
		representatives = append(representatives, rep)
	}
	return representatives, rows.Err()
}

// ReplaceAll rewrites the table. When tx is nil the replace runs in its own
// database transaction.
func (r *representativeRepo) ReplaceAll(ctx context.Context, representatives []models.Representative, tx pgx.Tx) error {
	var err error
	if tx == nil {
		tx, err = r.db.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback(ctx)
			}
		}()

		err = r.replace(ctx, tx, representatives)
		if err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	return r.replace(ctx, tx, representatives)
}

func (r *representativeRepo) replace(ctx context.Context, tx pgx.Tx, representatives []models.Representative) error {
	if _, err := tx.Exec(ctx, "TRUNCATE TABLE representatives RESTART IDENTITY"); err != nil {
		return err
	}
	if len(representatives) == 0 {
		return nil
	}

	query := `
		INSERT INTO representatives (name, district, state, party)
		VALUES `
	args := make([]interface{}, 0, len(representatives)*4)
	valueStrings := make([]string, 0, len(representatives))
	for i, rep := range representatives {
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4))
		args = append(args, rep.Name, rep.District, rep.State, rep.Party)
	}
	query += strings.Join(valueStrings, ",")
	query += " ON CONFLICT (name, district, state, party) DO NOTHING"

	_, err := tx.Exec(ctx, query, args...)
	return err
}
