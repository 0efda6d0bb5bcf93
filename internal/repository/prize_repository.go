package repository

import (
	"context"
	"database/sql"

	"github.com/madresuerte/raffle-server/internal/model"
)

// PrizeRepo provides CRUD operations for prizes and their winning numbers.
// Setting a winning number is the only mutation performed at draw time; it
// may be cleared or re-set by the admin until the draw is final.
type PrizeRepo struct {
	db *sql.DB
}

// NewPrizeRepo returns a PrizeRepo bound to the given database.
func NewPrizeRepo(db *sql.DB) *PrizeRepo { return &PrizeRepo{db: db} }

// defaultPrizes seeds the table on first use so the gallery always has
// something to display before the admin customizes titles and images.
var defaultPrizes = []struct {
	order uint32
	title string
}{
	{1, "1° Premio"},
	{2, "2° Premio"},
	{3, "3° Premio"},
}

const prizeCols = "id, prize_order, title, image_url, winning_number, updated_at"

func scanPrize(s interface {
	Scan(dest ...interface{}) error
}) (model.Prize, error) {
	var p model.Prize
	var winning sql.NullInt64
	if err := s.Scan(&p.ID, &p.PrizeOrder, &p.Title, &p.ImageURL, &winning, &p.UpdatedAt); err != nil {
		return model.Prize{}, err
	}
	if winning.Valid {
		n := int(winning.Int64)
		p.WinningNumber = &n
	}
	return p, nil
}

// List returns all prizes ordered by prize_order.  When the table is empty
// the default prizes are inserted first, inside a transaction so concurrent
// first requests cannot double-seed (the unique key on prize_order makes
// the second seeder fail and fall through to a plain read).
func (r *PrizeRepo) List(ctx context.Context) ([]model.Prize, error) {
	prizes, err := r.listOnly(ctx)
	if err != nil {
		return nil, err
	}
	if len(prizes) > 0 {
		return prizes, nil
	}
	if err := r.seedDefaults(ctx); err != nil {
		// Another request may have seeded concurrently; re-read regardless.
		return r.listOnly(ctx)
	}
	return r.listOnly(ctx)
}

func (r *PrizeRepo) listOnly(ctx context.Context) ([]model.Prize, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+prizeCols+" FROM prizes ORDER BY prize_order ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	prizes := make([]model.Prize, 0)
	for rows.Next() {
		p, err := scanPrize(rows)
		if err != nil {
			return nil, err
		}
		prizes = append(prizes, p)
	}
	return prizes, rows.Err()
}

func (r *PrizeRepo) seedDefaults(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, p := range defaultPrizes {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO prizes (prize_order, title, image_url) VALUES (?,?,?)",
			p.order, p.title, "/generic-prize.jpg"); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches a single prize.
func (r *PrizeRepo) GetByID(ctx context.Context, id uint64) (model.Prize, error) {
	return scanPrize(r.db.QueryRowContext(ctx,
		"SELECT "+prizeCols+" FROM prizes WHERE id=? LIMIT 1", id))
}

// Update changes a prize's title and image.  sql.ErrNoRows is returned when
// the prize does not exist.
func (r *PrizeRepo) Update(ctx context.Context, id uint64, title, imageURL string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE prizes SET title=?, image_url=?, updated_at=NOW() WHERE id=?", title, imageURL, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetWinningNumber stores (or clears, when number is nil) the drawn number
// for a prize.  It does not validate that a ticket holds the number; winner
// resolution reports that separately so "drawn but unsold" displays
// distinctly from "not yet drawn".
func (r *PrizeRepo) SetWinningNumber(ctx context.Context, prizeID uint64, number *int) error {
	var val sql.NullInt64
	if number != nil {
		val = sql.NullInt64{Int64: int64(*number), Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE prizes SET winning_number=?, updated_at=NOW() WHERE id=?", val, prizeID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
