package store

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/listing-atlas/internal/db"
	"github.com/sells-group/listing-atlas/internal/listing"
	"github.com/sells-group/listing-atlas/internal/shape"
	"github.com/sells-group/listing-atlas/internal/tier"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrationLock is the advisory lock key held while migrating.
const migrationLock = 40712774

var listingColumns = []string{
	"id", "export_id", "name", "host_id", "borough", "neighbourhood",
	"latitude", "longitude", "room_type", "price", "tier", "marker_size",
}

// PoolConfig tunes the pgx connection pool.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// PostgresStore writes export tables into the atlas schema of a PostGIS
// database.
type PostgresStore struct {
	pool  db.Pool
	close func()
}

// NewPostgres connects to dsn and pings it.
func NewPostgres(ctx context.Context, dsn string, pc PoolConfig) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse connection string")
	}
	if pc.MaxConns > 0 {
		cfg.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		cfg.MinConns = pc.MinConns
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping database")
	}
	return &PostgresStore{pool: pool, close: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Close is a no-op; the caller
// owns the pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, close: func() {}}
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.close()
	return nil
}

// Migrate applies pending migrations in filename order under an advisory
// lock. Applied files are tracked in atlas.schema_migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "store.postgres"))

	if _, err := s.pool.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLock); err != nil {
		return eris.Wrap(err, "postgres: acquire migration lock")
	}
	defer func() {
		if _, err := s.pool.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLock); err != nil {
			log.Warn("postgres: release migration lock", zap.Error(err))
		}
	}()

	if _, err := s.pool.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS atlas;
		CREATE TABLE IF NOT EXISTS atlas.schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`); err != nil {
		return eris.Wrap(err, "postgres: ensure migration table")
	}

	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return eris.Wrap(err, "postgres: read migration dir")
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if applied[name] {
			continue
		}
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return eris.Wrapf(err, "postgres: read migration %s", name)
		}
		if _, err := s.pool.Exec(ctx, string(data)); err != nil {
			return eris.Wrapf(err, "postgres: apply migration %s", name)
		}
		if _, err := s.pool.Exec(ctx,
			"INSERT INTO atlas.schema_migrations (filename) VALUES ($1)", name,
		); err != nil {
			return eris.Wrapf(err, "postgres: record migration %s", name)
		}
		log.Info("migration applied", zap.String("file", name))
	}
	return nil
}

func (s *PostgresStore) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, "SELECT filename FROM atlas.schema_migrations")
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query applied migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan migration row")
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// SaveListings classifies priced listings and upserts them by id in the
// same transaction as the export row. Point geometries are derived by the
// database from latitude and longitude.
func (s *PostgresStore) SaveListings(ctx context.Context, source string, ls []listing.Listing, table *tier.Table) (*Export, error) {
	priced, tiers, err := classified(ls, table)
	if err != nil {
		return nil, err
	}

	exp := &Export{
		ID:        uuid.New().String(),
		Source:    source,
		Listings:  len(priced),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin export")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		"INSERT INTO atlas.exports (id, source, listings, created_at) VALUES ($1, $2, $3, $4)",
		exp.ID, exp.Source, exp.Listings, exp.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: insert export")
	}

	rows := make([][]any, len(priced))
	for i, l := range priced {
		rows[i] = []any{
			l.ID, exp.ID, l.Name, l.HostID, l.Borough, l.Neighbourhood,
			l.Latitude, l.Longitude, l.RoomType, *l.Price, tiers[i].Label, tiers[i].Size,
		}
	}
	if _, err := db.UpsertTx(ctx, tx, db.UpsertConfig{
		Table:        "atlas.listings",
		Columns:      listingColumns,
		ConflictKeys: []string{"id"},
	}, rows); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit export")
	}
	return exp, nil
}

// SaveBoroughs upserts each feature's geometry keyed by its normalised
// idField attribute. All boroughs are written or none are.
func (s *PostgresStore) SaveBoroughs(ctx context.Context, exportID string, layer *shape.Layer, idField string) error {
	names, wkbs, err := boroughGeoms(layer, idField)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin boroughs")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, name := range names {
		if _, err := tx.Exec(ctx, `
			INSERT INTO atlas.boroughs (name, export_id, geom)
			VALUES ($1, $2, ST_GeomFromEWKB($3))
			ON CONFLICT (name) DO UPDATE SET export_id = EXCLUDED.export_id, geom = EXCLUDED.geom`,
			name, exportID, wkbs[i],
		); err != nil {
			return eris.Wrapf(err, "postgres: upsert borough %s", name)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit boroughs")
}

// TierCounts summarises atlas.listings.
func (s *PostgresStore) TierCounts(ctx context.Context) ([]TierCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT borough, tier, COUNT(*)
		FROM atlas.listings
		GROUP BY borough, tier
		ORDER BY borough, MIN(marker_size)`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query tier counts")
	}
	defer rows.Close()

	var out []TierCount
	for rows.Next() {
		var tc TierCount
		if err := rows.Scan(&tc.Borough, &tc.Tier, &tc.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tier count")
		}
		out = append(out, tc)
	}
	return out, eris.Wrap(rows.Err(), "postgres: tier counts iterate")
}
