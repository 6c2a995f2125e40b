package location

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocationMock(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func TestListByKindAlphabetical(t *testing.T) {
	repo, mock, close := setupLocationMock(t)
	defer close()

	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY l.name")).
		WithArgs(KindCheckout).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "kind", "created_at", "current_stock"}).
			AddRow(2, "Bull City Burger", KindCheckout, now, 40).
			AddRow(1, "Toast", KindCheckout, now, 0))

	locations, err := repo.ListByKind(context.Background(), KindCheckout)
	require.NoError(t, err)
	require.Len(t, locations, 2)

	assert.Equal(t, "Bull City Burger", locations[0].Name)
	assert.Equal(t, 40, locations[0].CurrentStock)
	// A location with no counts reports zero stock.
	assert.Equal(t, 0, locations[1].CurrentStock)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddStockCount(t *testing.T) {
	repo, mock, close := setupLocationMock(t)
	defer close()

	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO stock_counts")).
		WithArgs(3, 42).
		WillReturnRows(sqlmock.NewRows([]string{"id", "location_id", "count", "created_at"}).
			AddRow(11, 3, 42, now))

	sc, err := repo.AddStockCount(context.Background(), 3, 42)
	require.NoError(t, err)
	assert.Equal(t, 11, sc.ID)
	assert.Equal(t, 42, sc.Count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityData(t *testing.T) {
	repo, mock, close := setupLocationMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY DATE(sc.created_at)")).
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"bucket", "checkouts", "checkins"}).
			AddRow("2024-05-30", 3, 1).
			AddRow("2024-05-31", 0, 2))

	buckets, err := repo.ActivityData(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	assert.Equal(t, "2024-05-30", buckets[0].Date)
	assert.Equal(t, 3, buckets[0].Checkouts)
	assert.Equal(t, 2, buckets[1].Checkins)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID(t *testing.T) {
	repo, mock, close := setupLocationMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM locations")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "kind", "created_at"}).
			AddRow(7, "Toast", KindCheckin, time.Now()))

	location, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, KindCheckin, location.Kind)

	assert.NoError(t, mock.ExpectationsWereMet())
}
