package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davestroud/publix/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_UpsertStores(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO stores`).
		WithArgs(pgxmock.AnyArg(), "Publix", "Lakeland", "FL", "", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := s.UpsertStores(context.Background(), []model.StoreRecord{
		{Chain: "Publix", City: "Lakeland", State: "FL"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertStores_ErrorStopsBatch(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO stores`).
		WithArgs(pgxmock.AnyArg(), "Publix", "Lakeland", "FL", "", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrTxClosed)

	n, err := s.UpsertStores(context.Background(), []model.StoreRecord{
		{Chain: "Publix", City: "Lakeland", State: "FL"},
		{Chain: "Publix", City: "Tampa", State: "FL"},
	})
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, err.Error(), "upsert store")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDemographic_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT city, state, population, median_income, growth_rate FROM demographics`).
		WithArgs("Nowhere", "XX").
		WillReturnError(pgx.ErrNoRows)

	p, err := s.GetDemographic(context.Background(), "Nowhere", "XX")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDemographic_Found(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	income := 55234.0
	mock.ExpectQuery(`SELECT city, state, population, median_income, growth_rate FROM demographics`).
		WithArgs("Lakeland", "FL").
		WillReturnRows(pgxmock.NewRows(
			[]string{"city", "state", "population", "median_income", "growth_rate"}).
			AddRow("Lakeland", "FL", 112641, &income, (*float64)(nil)))

	p, err := s.GetDemographic(context.Background(), "Lakeland", "FL")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 112641, p.Population)
	require.NotNil(t, p.MedianIncome)
	assert.Nil(t, p.GrowthRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SavePrediction(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO predictions`).
		WithArgs(pgxmock.AnyArg(), "Valdosta", "GA", 55378, 0.82, 0.98,
			pgxmock.AnyArg(), "", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SavePrediction(context.Background(), model.Prediction{
		City:             "Valdosta",
		State:            "GA",
		Population:       55378,
		OpportunityScore: 0.82,
		Confidence:       0.98,
		ReasoningFactors: []string{"low market saturation"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListPredictions_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, city, state, population, opportunity_score`).
		WithArgs("GA", 10).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "city", "state", "population", "opportunity_score", "confidence",
			"reasoning", "narrative", "lat", "lng", "created_at"}))

	got, err := s.ListPredictions(context.Background(), "GA", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS stores`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CopyParcels_Empty(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	n, err := s.CopyParcels(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
