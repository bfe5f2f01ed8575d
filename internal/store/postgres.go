package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/davestroud/publix/internal/db"
	"github.com/davestroud/publix/internal/geo"
	"github.com/davestroud/publix/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists the hottest queries, prepared on each new
// connection.
var preparedStatements = map[string]string{
	"upsert_store": `INSERT INTO stores (id, chain, city, state, address, lat, lng, opening_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (chain, city, state, address) DO UPDATE SET lat = $6, lng = $7, opening_date = $8`,
	"upsert_demographic": `INSERT INTO demographics (city, state, population, median_income, growth_rate)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (city, state) DO UPDATE SET population = $3, median_income = $4, growth_rate = $5`,
	"insert_prediction": `INSERT INTO predictions (id, city, state, population, opportunity_score, confidence, reasoning, narrative, lat, lng, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access (e.g., bulk parcel loads).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS stores (
	id           TEXT PRIMARY KEY,
	chain        TEXT NOT NULL,
	city         TEXT NOT NULL,
	state        TEXT NOT NULL,
	address      TEXT NOT NULL DEFAULT '',
	lat          DOUBLE PRECISION,
	lng          DOUBLE PRECISION,
	opening_date DATE,
	UNIQUE (chain, city, state, address)
);

CREATE INDEX IF NOT EXISTS idx_stores_chain_state ON stores(chain, state);
CREATE INDEX IF NOT EXISTS idx_stores_city_state ON stores(city, state);

CREATE TABLE IF NOT EXISTS demographics (
	city          TEXT NOT NULL,
	state         TEXT NOT NULL,
	population    INTEGER NOT NULL,
	median_income DOUBLE PRECISION,
	growth_rate   DOUBLE PRECISION,
	PRIMARY KEY (city, state)
);

CREATE TABLE IF NOT EXISTS parcels (
	parcel_id TEXT PRIMARY KEY,
	city      TEXT NOT NULL DEFAULT '',
	state     TEXT NOT NULL DEFAULT '',
	acreage   DOUBLE PRECISION NOT NULL,
	zoning    TEXT NOT NULL DEFAULT '',
	lat       DOUBLE PRECISION,
	lng       DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_parcels_city_state ON parcels(city, state);

CREATE TABLE IF NOT EXISTS predictions (
	id                TEXT PRIMARY KEY,
	city              TEXT NOT NULL,
	state             TEXT NOT NULL,
	population        INTEGER NOT NULL,
	opportunity_score DOUBLE PRECISION NOT NULL,
	confidence        DOUBLE PRECISION NOT NULL,
	reasoning         JSONB NOT NULL,
	narrative         TEXT NOT NULL DEFAULT '',
	lat               DOUBLE PRECISION,
	lng               DOUBLE PRECISION,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_predictions_state ON predictions(state);
CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertStores(ctx context.Context, records []model.StoreRecord) (int, error) {
	count := 0
	for _, r := range records {
		var lat, lng *float64
		if r.Location != nil {
			lat, lng = &r.Location.Lat, &r.Location.Lng
		}

		_, err := s.pool.Exec(ctx,
			`INSERT INTO stores (id, chain, city, state, address, lat, lng, opening_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (chain, city, state, address) DO UPDATE SET lat = $6, lng = $7, opening_date = $8`,
			uuid.New().String(), r.Chain, r.City, r.State, r.Address, lat, lng, r.OpeningDate,
		)
		if err != nil {
			return count, eris.Wrapf(err, "postgres: upsert store %s/%s", r.Chain, r.City)
		}
		count++
	}
	return count, nil
}

func (s *PostgresStore) ListStores(ctx context.Context, filter StoreFilter) ([]model.StoreRecord, error) {
	query := `SELECT chain, city, state, address, lat, lng, opening_date FROM stores WHERE true`
	args := []any{}

	if filter.Chain != "" {
		args = append(args, filter.Chain)
		query += fmt.Sprintf(` AND chain = $%d`, len(args))
	}
	if filter.City != "" {
		args = append(args, filter.City)
		query += fmt.Sprintf(` AND city = $%d`, len(args))
	}
	if filter.State != "" {
		args = append(args, filter.State)
		query += fmt.Sprintf(` AND state = $%d`, len(args))
	}
	query += ` ORDER BY state, city, chain`

	limit := filter.Limit
	if limit <= 0 {
		limit = 10000
	}
	args = append(args, limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list stores")
	}
	defer rows.Close()

	var records []model.StoreRecord
	for rows.Next() {
		var r model.StoreRecord
		var lat, lng *float64
		if err := rows.Scan(&r.Chain, &r.City, &r.State, &r.Address, &lat, &lng, &r.OpeningDate); err != nil {
			return nil, eris.Wrap(err, "postgres: scan store")
		}
		if lat != nil && lng != nil {
			r.Location = &geo.Point{Lat: *lat, Lng: *lng}
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list stores iterate")
}

func (s *PostgresStore) UpsertDemographics(ctx context.Context, profiles []model.DemographicProfile) (int, error) {
	count := 0
	for _, p := range profiles {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO demographics (city, state, population, median_income, growth_rate)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (city, state) DO UPDATE SET population = $3, median_income = $4, growth_rate = $5`,
			p.City, p.State, p.Population, p.MedianIncome, p.GrowthRate,
		)
		if err != nil {
			return count, eris.Wrapf(err, "postgres: upsert demographic %s, %s", p.City, p.State)
		}
		count++
	}
	return count, nil
}

func (s *PostgresStore) ListDemographics(ctx context.Context, state string) ([]model.DemographicProfile, error) {
	query := `SELECT city, state, population, median_income, growth_rate FROM demographics`
	args := []any{}
	if state != "" {
		query += ` WHERE state = $1`
		args = append(args, state)
	}
	query += ` ORDER BY state, city`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list demographics")
	}
	defer rows.Close()

	var profiles []model.DemographicProfile
	for rows.Next() {
		var p model.DemographicProfile
		if err := rows.Scan(&p.City, &p.State, &p.Population, &p.MedianIncome, &p.GrowthRate); err != nil {
			return nil, eris.Wrap(err, "postgres: scan demographic")
		}
		profiles = append(profiles, p)
	}
	return profiles, eris.Wrap(rows.Err(), "postgres: list demographics iterate")
}

func (s *PostgresStore) UpsertParcels(ctx context.Context, parcels []model.Parcel) (int, error) {
	count := 0
	for _, p := range parcels {
		var lat, lng *float64
		if p.Centroid != nil {
			lat, lng = &p.Centroid.Lat, &p.Centroid.Lng
		}

		_, err := s.pool.Exec(ctx,
			`INSERT INTO parcels (parcel_id, city, state, acreage, zoning, lat, lng)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (parcel_id) DO UPDATE SET city = $2, state = $3, acreage = $4, zoning = $5, lat = $6, lng = $7`,
			p.ParcelID, p.City, p.State, p.Acreage, p.Zoning, lat, lng,
		)
		if err != nil {
			return count, eris.Wrapf(err, "postgres: upsert parcel %s", p.ParcelID)
		}
		count++
	}
	return count, nil
}

// CopyParcels bulk-loads parcels with the COPY protocol. Faster than
// UpsertParcels for fresh county loads; fails on duplicate parcel IDs.
func (s *PostgresStore) CopyParcels(ctx context.Context, parcels []model.Parcel) (int64, error) {
	rows := make([][]any, 0, len(parcels))
	for _, p := range parcels {
		var lat, lng *float64
		if p.Centroid != nil {
			lat, lng = &p.Centroid.Lat, &p.Centroid.Lng
		}
		rows = append(rows, []any{p.ParcelID, p.City, p.State, p.Acreage, p.Zoning, lat, lng})
	}
	return db.CopyFrom(ctx, s.pool, "parcels",
		[]string{"parcel_id", "city", "state", "acreage", "zoning", "lat", "lng"}, rows)
}

func (s *PostgresStore) ListParcels(ctx context.Context, city, state string) ([]model.Parcel, error) {
	query := `SELECT parcel_id, city, state, acreage, zoning, lat, lng FROM parcels WHERE true`
	args := []any{}

	if city != "" {
		args = append(args, city)
		query += fmt.Sprintf(` AND city = $%d`, len(args))
	}
	if state != "" {
		args = append(args, state)
		query += fmt.Sprintf(` AND state = $%d`, len(args))
	}
	query += ` ORDER BY acreage DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list parcels")
	}
	defer rows.Close()

	var parcels []model.Parcel
	for rows.Next() {
		var p model.Parcel
		var lat, lng *float64
		if err := rows.Scan(&p.ParcelID, &p.City, &p.State, &p.Acreage, &p.Zoning, &lat, &lng); err != nil {
			return nil, eris.Wrap(err, "postgres: scan parcel")
		}
		if lat != nil && lng != nil {
			p.Centroid = &geo.Point{Lat: *lat, Lng: *lng}
		}
		parcels = append(parcels, p)
	}
	return parcels, eris.Wrap(rows.Err(), "postgres: list parcels iterate")
}

func (s *PostgresStore) SavePrediction(ctx context.Context, p model.Prediction) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	reasoningJSON, err := json.Marshal(p.ReasoningFactors)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal reasoning")
	}

	var lat, lng *float64
	if p.Location != nil {
		lat, lng = &p.Location.Lat, &p.Location.Lng
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO predictions (id, city, state, population, opportunity_score, confidence, reasoning, narrative, lat, lng, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.City, p.State, p.Population, p.OpportunityScore, p.Confidence,
		reasoningJSON, p.Narrative, lat, lng, p.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: save prediction %s", p.City)
}

func (s *PostgresStore) ListPredictions(ctx context.Context, state string, limit int) ([]model.Prediction, error) {
	query := `SELECT id, city, state, population, opportunity_score, confidence, reasoning, narrative, lat, lng, created_at
	          FROM predictions WHERE true`
	args := []any{}

	if state != "" {
		args = append(args, state)
		query += fmt.Sprintf(` AND state = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list predictions")
	}
	defer rows.Close()

	var predictions []model.Prediction
	for rows.Next() {
		var p model.Prediction
		var reasoningJSON []byte
		var lat, lng *float64
		if err := rows.Scan(&p.ID, &p.City, &p.State, &p.Population, &p.OpportunityScore,
			&p.Confidence, &reasoningJSON, &p.Narrative, &lat, &lng, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan prediction")
		}
		if err := json.Unmarshal(reasoningJSON, &p.ReasoningFactors); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal reasoning")
		}
		if lat != nil && lng != nil {
			p.Location = &geo.Point{Lat: *lat, Lng: *lng}
		}
		predictions = append(predictions, p)
	}
	return predictions, eris.Wrap(rows.Err(), "postgres: list predictions iterate")
}

// GetDemographic fetches a single city profile; (nil, nil) when absent.
func (s *PostgresStore) GetDemographic(ctx context.Context, city, state string) (*model.DemographicProfile, error) {
	var p model.DemographicProfile
	err := s.pool.QueryRow(ctx,
		`SELECT city, state, population, median_income, growth_rate FROM demographics WHERE city = $1 AND state = $2`,
		city, state,
	).Scan(&p.City, &p.State, &p.Population, &p.MedianIncome, &p.GrowthRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get demographic")
	}
	return &p, nil
}
