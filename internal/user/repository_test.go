package user

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

func setupUserRepo(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	return NewRepository(sqlxDB), mock, func() { sqlxDB.Close() }
}

func userColumns() []string {
	return []string{"id", "name", "email", "password_hash", "role", "created_at"}
}

func TestCreate(t *testing.T) {
	repo, mock, close := setupUserRepo(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("Alice", "alice@example.com", "hashed", "member").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(1, "Alice", "alice@example.com", "hashed", "member", time.Now()))

	user, err := repo.Create(context.Background(), "Alice", "alice@example.com", "hashed", "member")
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail(t *testing.T) {
	repo, mock, close := setupUserRepo(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = $1")).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(1, "Alice", "alice@example.com", "hashed", "member", time.Now()))

	user, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmailExists(t *testing.T) {
	repo, mock, close := setupUserRepo(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users")).
		WithArgs("taken@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists(context.Background(), "taken@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile(t *testing.T) {
	repo, mock, close := setupUserRepo(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SET name = $1, email = $2")).
		WithArgs("Alice B", "aliceb@example.com", 1).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(1, "Alice B", "aliceb@example.com", "hashed", "member", time.Now()))

	user, err := repo.UpdateProfile(context.Background(), 1, "Alice B", "aliceb@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice B", user.Name)
	assert.Equal(t, "aliceb@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePassword(t *testing.T) {
	repo, mock, close := setupUserRepo(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("SET password_hash = $1")).
		WithArgs("newhash", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePassword(context.Background(), 1, "newhash")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
