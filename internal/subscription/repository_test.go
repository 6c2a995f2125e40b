package subscription

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjoneill88/greentogo/internal/billing"
)

func setupSubscriptionMock(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func subscriptionColumns() []string {
	return []string{
		"id", "customer_id", "provider_id", "plan_id", "amount_cents",
		"current_period_end", "cancel_at_period_end", "ended_at",
		"created_at", "updated_at", "plan_name",
	}
}

func TestListActiveByCustomerOrdering(t *testing.T) {
	repo, mock, close := setupSubscriptionMock(t)
	defer close()

	now := time.Now()
	june := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	january := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// The store returns rows ordered by current_period_end descending;
	// the query carries the ORDER BY.
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY s.current_period_end DESC")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns()).
			AddRow(1, 7, "sub_june", 1, 2500, june, false, nil, now, now, "Individual").
			AddRow(2, 7, "sub_march", 1, 2500, march, false, nil, now, now, "Individual").
			AddRow(3, 7, "sub_january", 2, 5000, january, true, nil, now, now, "Family"))

	rows, err := repo.ListActiveByCustomer(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "sub_june", rows[0].ProviderID)
	assert.Equal(t, "sub_march", rows[1].ProviderID)
	assert.Equal(t, "sub_january", rows[2].ProviderID)

	list := DisplayList(rows)
	assert.True(t, list[0].AutoRenew)
	assert.False(t, list[2].AutoRenew)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveByCustomerExcludesEnded(t *testing.T) {
	repo, mock, close := setupSubscriptionMock(t)
	defer close()

	// ended_at IS NULL is part of the query itself; an ended subscription
	// never reaches the listing no matter its period end.
	mock.ExpectQuery(regexp.QuoteMeta("AND s.ended_at IS NULL")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns()))

	rows, err := repo.ListActiveByCustomer(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByCustomerAndProviderIDScoping(t *testing.T) {
	repo, mock, close := setupSubscriptionMock(t)
	defer close()

	now := time.Now()

	// Owning customer finds the subscription.
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.customer_id = $1")).
		WithArgs(1, "sub_shared").
		WillReturnRows(sqlmock.NewRows(subscriptionColumns()).
			AddRow(1, 1, "sub_shared", 1, 2500, now, false, nil, now, now, "Individual"))

	row, err := repo.FindByCustomerAndProviderID(context.Background(), 1, "sub_shared")
	require.NoError(t, err)
	assert.Equal(t, "sub_shared", row.ProviderID)

	// Another customer guessing the same identifier gets no rows.
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.customer_id = $1")).
		WithArgs(2, "sub_shared").
		WillReturnRows(sqlmock.NewRows(subscriptionColumns()))

	_, err = repo.FindByCustomerAndProviderID(context.Background(), 2, "sub_shared")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFromProvider(t *testing.T) {
	repo, mock, close := setupSubscriptionMock(t)
	defer close()

	now := time.Now()
	periodEnd := now.AddDate(0, 1, 0)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO subscriptions")).
		WithArgs(1, "sub_new", 2, int64(2500), periodEnd, false, nil).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "provider_id", "plan_id", "amount_cents",
			"current_period_end", "cancel_at_period_end", "ended_at",
			"created_at", "updated_at",
		}).AddRow(10, 1, "sub_new", 2, 2500, periodEnd, false, nil, now, now))

	sub, err := repo.CreateFromProvider(context.Background(), 1, 2, &billing.Subscription{
		ID:               "sub_new",
		AmountCents:      2500,
		CurrentPeriodEnd: periodEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, sub.ID)
	assert.Nil(t, sub.EndedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkEnded(t *testing.T) {
	repo, mock, close := setupSubscriptionMock(t)
	defer close()

	endedAt := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("SET ended_at = $1")).
		WithArgs(endedAt, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkEnded(context.Background(), 5, endedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUnclaimed(t *testing.T) {
	repo, mock, close := setupSubscriptionMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM unclaimed_subscriptions u")).
		WillReturnRows(sqlmock.NewRows([]string{"email", "plan_name", "claimed"}).
			AddRow("a@example.com", "Individual", false).
			AddRow("b@example.com", "Family", true))

	rows, err := repo.ListUnclaimed(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a@example.com", rows[0].Email)
	assert.True(t, rows[1].Claimed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUnclaimedByEmailOnlyUnclaimed(t *testing.T) {
	repo, mock, close := setupSubscriptionMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("AND claimed = FALSE")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "plan_id", "claimed", "created_at"}).
			AddRow(3, "a@example.com", 1, false, time.Now()))

	unsub, err := repo.FindUnclaimedByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, unsub.ID)
	assert.False(t, unsub.Claimed)

	assert.NoError(t, mock.ExpectationsWereMet())
}
