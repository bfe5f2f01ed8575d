package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/davestroud/publix/internal/geo"
	"github.com/davestroud/publix/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS stores (
	id           TEXT PRIMARY KEY,
	chain        TEXT NOT NULL,
	city         TEXT NOT NULL,
	state        TEXT NOT NULL,
	address      TEXT NOT NULL DEFAULT '',
	lat          REAL,
	lng          REAL,
	opening_date DATETIME,
	UNIQUE (chain, city, state, address)
);

CREATE INDEX IF NOT EXISTS idx_stores_chain_state ON stores(chain, state);
CREATE INDEX IF NOT EXISTS idx_stores_city_state ON stores(city, state);

CREATE TABLE IF NOT EXISTS demographics (
	city          TEXT NOT NULL,
	state         TEXT NOT NULL,
	population    INTEGER NOT NULL,
	median_income REAL,
	growth_rate   REAL,
	PRIMARY KEY (city, state)
);

CREATE TABLE IF NOT EXISTS parcels (
	parcel_id TEXT PRIMARY KEY,
	city      TEXT NOT NULL DEFAULT '',
	state     TEXT NOT NULL DEFAULT '',
	acreage   REAL NOT NULL,
	zoning    TEXT NOT NULL DEFAULT '',
	lat       REAL,
	lng       REAL
);

CREATE INDEX IF NOT EXISTS idx_parcels_city_state ON parcels(city, state);

CREATE TABLE IF NOT EXISTS predictions (
	id                TEXT PRIMARY KEY,
	city              TEXT NOT NULL,
	state             TEXT NOT NULL,
	population        INTEGER NOT NULL,
	opportunity_score REAL NOT NULL,
	confidence        REAL NOT NULL,
	reasoning         TEXT NOT NULL,
	narrative         TEXT NOT NULL DEFAULT '',
	lat               REAL,
	lng               REAL,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_predictions_state ON predictions(state);
CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertStores(ctx context.Context, records []model.StoreRecord) (int, error) {
	count := 0
	for _, r := range records {
		var lat, lng *float64
		if r.Location != nil {
			lat, lng = &r.Location.Lat, &r.Location.Lng
		}

		_, err := s.db.ExecContext(ctx,
			`INSERT INTO stores (id, chain, city, state, address, lat, lng, opening_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (chain, city, state, address) DO UPDATE SET lat = excluded.lat, lng = excluded.lng, opening_date = excluded.opening_date`,
			uuid.New().String(), r.Chain, r.City, r.State, r.Address, lat, lng, r.OpeningDate,
		)
		if err != nil {
			return count, eris.Wrapf(err, "sqlite: upsert store %s/%s", r.Chain, r.City)
		}
		count++
	}
	return count, nil
}

func (s *SQLiteStore) ListStores(ctx context.Context, filter StoreFilter) ([]model.StoreRecord, error) {
	query := `SELECT chain, city, state, address, lat, lng, opening_date FROM stores WHERE 1=1`
	var args []any

	if filter.Chain != "" {
		query += ` AND chain = ?`
		args = append(args, filter.Chain)
	}
	if filter.City != "" {
		query += ` AND city = ?`
		args = append(args, filter.City)
	}
	if filter.State != "" {
		query += ` AND state = ?`
		args = append(args, filter.State)
	}
	query += ` ORDER BY state, city, chain`

	limit := filter.Limit
	if limit <= 0 {
		limit = 10000
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list stores")
	}
	defer rows.Close()

	var records []model.StoreRecord
	for rows.Next() {
		var r model.StoreRecord
		var lat, lng sql.NullFloat64
		var opened sql.NullTime
		if err := rows.Scan(&r.Chain, &r.City, &r.State, &r.Address, &lat, &lng, &opened); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan store")
		}
		if lat.Valid && lng.Valid {
			r.Location = &geo.Point{Lat: lat.Float64, Lng: lng.Float64}
		}
		if opened.Valid {
			t := opened.Time
			r.OpeningDate = &t
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list stores iterate")
}

func (s *SQLiteStore) UpsertDemographics(ctx context.Context, profiles []model.DemographicProfile) (int, error) {
	count := 0
	for _, p := range profiles {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO demographics (city, state, population, median_income, growth_rate)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (city, state) DO UPDATE SET population = excluded.population, median_income = excluded.median_income, growth_rate = excluded.growth_rate`,
			p.City, p.State, p.Population, p.MedianIncome, p.GrowthRate,
		)
		if err != nil {
			return count, eris.Wrapf(err, "sqlite: upsert demographic %s, %s", p.City, p.State)
		}
		count++
	}
	return count, nil
}

func (s *SQLiteStore) ListDemographics(ctx context.Context, state string) ([]model.DemographicProfile, error) {
	query := `SELECT city, state, population, median_income, growth_rate FROM demographics`
	var args []any
	if state != "" {
		query += ` WHERE state = ?`
		args = append(args, state)
	}
	query += ` ORDER BY state, city`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list demographics")
	}
	defer rows.Close()

	var profiles []model.DemographicProfile
	for rows.Next() {
		var p model.DemographicProfile
		var income, growth sql.NullFloat64
		if err := rows.Scan(&p.City, &p.State, &p.Population, &income, &growth); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan demographic")
		}
		if income.Valid {
			v := income.Float64
			p.MedianIncome = &v
		}
		if growth.Valid {
			v := growth.Float64
			p.GrowthRate = &v
		}
		profiles = append(profiles, p)
	}
	return profiles, eris.Wrap(rows.Err(), "sqlite: list demographics iterate")
}

func (s *SQLiteStore) UpsertParcels(ctx context.Context, parcels []model.Parcel) (int, error) {
	count := 0
	for _, p := range parcels {
		var lat, lng *float64
		if p.Centroid != nil {
			lat, lng = &p.Centroid.Lat, &p.Centroid.Lng
		}

		_, err := s.db.ExecContext(ctx,
			`INSERT INTO parcels (parcel_id, city, state, acreage, zoning, lat, lng)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (parcel_id) DO UPDATE SET city = excluded.city, state = excluded.state, acreage = excluded.acreage, zoning = excluded.zoning, lat = excluded.lat, lng = excluded.lng`,
			p.ParcelID, p.City, p.State, p.Acreage, p.Zoning, lat, lng,
		)
		if err != nil {
			return count, eris.Wrapf(err, "sqlite: upsert parcel %s", p.ParcelID)
		}
		count++
	}
	return count, nil
}

func (s *SQLiteStore) ListParcels(ctx context.Context, city, state string) ([]model.Parcel, error) {
	query := `SELECT parcel_id, city, state, acreage, zoning, lat, lng FROM parcels WHERE 1=1`
	var args []any

	if city != "" {
		query += ` AND city = ?`
		args = append(args, city)
	}
	if state != "" {
		query += ` AND state = ?`
		args = append(args, state)
	}
	query += ` ORDER BY acreage DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list parcels")
	}
	defer rows.Close()

	var parcels []model.Parcel
	for rows.Next() {
		var p model.Parcel
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&p.ParcelID, &p.City, &p.State, &p.Acreage, &p.Zoning, &lat, &lng); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan parcel")
		}
		if lat.Valid && lng.Valid {
			p.Centroid = &geo.Point{Lat: lat.Float64, Lng: lng.Float64}
		}
		parcels = append(parcels, p)
	}
	return parcels, eris.Wrap(rows.Err(), "sqlite: list parcels iterate")
}

func (s *SQLiteStore) SavePrediction(ctx context.Context, p model.Prediction) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	reasoningJSON, err := json.Marshal(p.ReasoningFactors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal reasoning")
	}

	var lat, lng *float64
	if p.Location != nil {
		lat, lng = &p.Location.Lat, &p.Location.Lng
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO predictions (id, city, state, population, opportunity_score, confidence, reasoning, narrative, lat, lng, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.City, p.State, p.Population, p.OpportunityScore, p.Confidence,
		string(reasoningJSON), p.Narrative, lat, lng, p.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: save prediction %s", p.City)
}

func (s *SQLiteStore) ListPredictions(ctx context.Context, state string, limit int) ([]model.Prediction, error) {
	query := `SELECT id, city, state, population, opportunity_score, confidence, reasoning, narrative, lat, lng, created_at
	          FROM predictions WHERE 1=1`
	var args []any

	if state != "" {
		query += ` AND state = ?`
		args = append(args, state)
	}
	query += ` ORDER BY created_at DESC`

	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list predictions")
	}
	defer rows.Close()

	var predictions []model.Prediction
	for rows.Next() {
		var p model.Prediction
		var reasoningJSON string
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.City, &p.State, &p.Population, &p.OpportunityScore,
			&p.Confidence, &reasoningJSON, &p.Narrative, &lat, &lng, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prediction")
		}
		if err := json.Unmarshal([]byte(reasoningJSON), &p.ReasoningFactors); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal reasoning")
		}
		if lat.Valid && lng.Valid {
			p.Location = &geo.Point{Lat: lat.Float64, Lng: lng.Float64}
		}
		predictions = append(predictions, p)
	}
	return predictions, eris.Wrap(rows.Err(), "sqlite: list predictions iterate")
}

// GetDemographic fetches a single city profile; (nil, nil) when absent.
func (s *SQLiteStore) GetDemographic(ctx context.Context, city, state string) (*model.DemographicProfile, error) {
	var p model.DemographicProfile
	var income, growth sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT city, state, population, median_income, growth_rate FROM demographics WHERE city = ? AND state = ?`,
		city, state,
	).Scan(&p.City, &p.State, &p.Population, &income, &growth)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get demographic")
	}
	if income.Valid {
		v := income.Float64
		p.MedianIncome = &v
	}
	if growth.Valid {
		v := growth.Float64
		p.GrowthRate = &v
	}
	return &p, nil
}
