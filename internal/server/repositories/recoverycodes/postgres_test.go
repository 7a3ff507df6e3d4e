package recoverycodes

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/DAC098/TJ2-sub001/internal/common"
	"github.com/DAC098/TJ2-sub001/internal/ids"
)

// passthroughConverter keeps typed IDs intact so WithArgs can match them;
// the real pgx driver accepts these types natively.
type passthroughConverter struct{}

func (passthroughConverter) ConvertValue(v any) (driver.Value, error) { return v, nil }

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.ValueConverterOption(passthroughConverter{}),
	)
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestReplace_DeletesThenInserts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	userID := ids.NewUserID()

	mock.ExpectExec(`DELETE FROM recovery_codes WHERE user_id=\$1`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`INSERT INTO recovery_codes \(user_id, hash\) VALUES \(\$1, \$2\)`).
		WithArgs(userID, "hash-a").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO recovery_codes \(user_id, hash\) VALUES \(\$1, \$2\)`).
		WithArgs(userID, "hash-b").
		WillReturnResult(sqlmock.NewResult(2, 1))

	if err := repo.Replace(context.Background(), userID, []string{"hash-a", "hash-b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplace_InsertError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM recovery_codes WHERE user_id=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO recovery_codes`).
		WillReturnError(errors.New("db is down"))

	err := repo.Replace(context.Background(), ids.NewUserID(), []string{"hash-a"})
	if err == nil || !regexp.MustCompile(`db error: .*db is down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestConsume_MarksExactlyOneCode(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	userID := ids.NewUserID()

	mock.ExpectExec(`UPDATE recovery_codes SET used=TRUE, used_on=now\(\)\s+WHERE user_id=\$1 AND hash=\$2 AND used=FALSE`).
		WithArgs(userID, "hash-a").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Consume(context.Background(), userID, "hash-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConsume_UsedOrUnknownCode(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE recovery_codes SET used=TRUE`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Consume(context.Background(), ids.NewUserID(), "hash-x")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
