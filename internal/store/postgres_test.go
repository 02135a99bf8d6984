package store

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newTestPostgres(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS artifacts").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WriteJSON(t *testing.T) {
	s, mock := newTestPostgres(t)

	mock.ExpectExec("INSERT INTO artifacts").
		WithArgs("proj1", "keywords_volume", 1, []byte(`{"name":"x","count":3}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	loc, err := s.WriteJSON(context.Background(), "proj1", 1, "keywords_volume", testDoc{Name: "x", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, "artifacts/proj1/keywords_volume", loc)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReadJSON(t *testing.T) {
	s, mock := newTestPostgres(t)

	mock.ExpectQuery("SELECT data FROM artifacts").
		WithArgs("proj1", "keywords_volume").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow([]byte(`{"name":"x","count":3}`)))

	var out testDoc
	require.NoError(t, s.ReadJSON(context.Background(), "proj1", "keywords_volume", &out))
	assert.Equal(t, testDoc{Name: "x", Count: 3}, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReadJSONMissing(t *testing.T) {
	s, mock := newTestPostgres(t)

	mock.ExpectQuery("SELECT data FROM artifacts").
		WithArgs("nope", "artifact").
		WillReturnRows(pgxmock.NewRows([]string{"data"}))

	var out testDoc
	err := s.ReadJSON(context.Background(), "nope", "artifact", &out)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ProgressRoundTrip(t *testing.T) {
	s, mock := newTestPostgres(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO progress").
		WithArgs("proj1", "volume", []byte(`{"name":"","count":7}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT data FROM progress").
		WithArgs("proj1", "volume").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow([]byte(`{"name":"","count":7}`)))

	require.NoError(t, s.WriteProgress(ctx, "proj1", "volume", testDoc{Count: 7}))

	var out testDoc
	require.NoError(t, s.ReadProgress(ctx, "proj1", "volume", &out))
	assert.Equal(t, 7, out.Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListProjects(t *testing.T) {
	s, mock := newTestPostgres(t)

	mock.ExpectQuery("SELECT DISTINCT project_id").
		WillReturnRows(pgxmock.NewRows([]string{"project_id"}).AddRow("alpha").AddRow("beta"))

	projects, err := s.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, projects)
	assert.NoError(t, mock.ExpectationsWereMet())
}
