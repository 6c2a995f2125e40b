package location

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// ListByKind returns the locations of one kind, alphabetically, each with
// its current estimated stock.
func (r *Repository) ListByKind(ctx context.Context, kind string) ([]LocationStock, error) {
	locations := []LocationStock{}
	err := r.db.SelectContext(ctx, &locations, `
		SELECT l.id, l.name, l.kind, l.created_at,
		       COALESCE((
		           SELECT sc.count
		           FROM stock_counts sc
		           WHERE sc.location_id = l.id
		           ORDER BY sc.created_at DESC, sc.id DESC
		           LIMIT 1
		       ), 0) AS current_stock
		FROM locations l
		WHERE l.kind = $1
		ORDER BY l.name
	`, kind)
	return locations, err
}

func (r *Repository) FindByID(ctx context.Context, id int) (*Location, error) {
	location := &Location{}
	err := r.db.GetContext(ctx, location, `
		SELECT id, name, kind, created_at
		FROM locations
		WHERE id = $1
	`, id)

	return location, err
}

// AddStockCount appends a new count for the location.
func (r *Repository) AddStockCount(ctx context.Context, locationID, count int) (*StockCount, error) {
	sc := &StockCount{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO stock_counts (location_id, count)
		VALUES ($1, $2)
		RETURNING id, location_id, count, created_at
	`, locationID, count).StructScan(sc)

	return sc, err
}

// ActivityData aggregates count submissions per day over the trailing
// window, split by location kind.
func (r *Repository) ActivityData(ctx context.Context, days int) ([]ActivityBucket, error) {
	buckets := []ActivityBucket{}
	err := r.db.SelectContext(ctx, &buckets, `
		SELECT to_char(DATE(sc.created_at), 'YYYY-MM-DD') AS bucket,
		       COUNT(*) FILTER (WHERE l.kind = 'checkout') AS checkouts,
		       COUNT(*) FILTER (WHERE l.kind = 'checkin')  AS checkins
		FROM stock_counts sc
		JOIN locations l ON l.id = sc.location_id
		WHERE sc.created_at >= NOW() - ($1 * INTERVAL '1 day')
		GROUP BY DATE(sc.created_at)
		ORDER BY bucket
	`, days)
	return buckets, err
}
