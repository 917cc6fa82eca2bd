// Package store exports classified listings and borough boundaries to SQLite
// or PostGIS for ad-hoc querying.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/listing-atlas/internal/listing"
	"github.com/sells-group/listing-atlas/internal/shape"
	"github.com/sells-group/listing-atlas/internal/tier"
)

// SQLiteStore writes export tables using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// sqlitePragmas are applied by the driver to every new pooled connection.
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// sqliteDSN appends sqlitePragmas to path as modernc _pragma parameters.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(path)
	for _, p := range sqlitePragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// NewSQLite opens a SQLite database at path in WAL mode and checks that it
// is reachable.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, eris.Wrapf(err, "sqlite: open %s", path)
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS exports (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	listings    INTEGER NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS listings (
	id          INTEGER PRIMARY KEY,
	export_id   TEXT NOT NULL REFERENCES exports(id),
	name        TEXT,
	host_id     INTEGER,
	borough     TEXT NOT NULL,
	neighbourhood TEXT,
	latitude    REAL NOT NULL,
	longitude   REAL NOT NULL,
	room_type   TEXT,
	price       REAL NOT NULL,
	tier        TEXT NOT NULL,
	marker_size REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS boroughs (
	name        TEXT PRIMARY KEY,
	export_id   TEXT NOT NULL REFERENCES exports(id),
	geom        BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listings_borough ON listings(borough);
CREATE INDEX IF NOT EXISTS idx_listings_tier ON listings(tier);
`

// Migrate creates the export tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Export is the result of SaveListings.
type Export struct {
	ID        string
	Source    string
	Listings  int
	CreatedAt time.Time
}

// SaveListings classifies priced listings with table and writes them in one
// transaction. Listings without a price are skipped; listing.MissingPrices
// counts them.
func (s *SQLiteStore) SaveListings(ctx context.Context, source string, ls []listing.Listing, table *tier.Table) (*Export, error) {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin export")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO exports (id, source, listings, created_at) VALUES (?, ?, ?, ?)`,
		exp.ID, exp.Source, exp.Listings, exp.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert export")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO listings
		(id, export_id, name, host_id, borough, neighbourhood, latitude, longitude, room_type, price, tier, marker_size)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare listing insert")
	}
	defer stmt.Close()

	for i, l := range priced {
		if _, err := stmt.ExecContext(ctx,
			l.ID, exp.ID, l.Name, l.HostID, l.Borough, l.Neighbourhood,
			l.Latitude, l.Longitude, l.RoomType, *l.Price, tiers[i].Label, tiers[i].Size,
		); err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert listing %d", l.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit export")
	}
	return exp, nil
}

// SaveBoroughs writes each feature's geometry as EWKB keyed by its
// normalised idField attribute, in one transaction.
func (s *SQLiteStore) SaveBoroughs(ctx context.Context, exportID string, layer *shape.Layer, idField string) error {
	names, wkbs, err := boroughGeoms(layer, idField)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin boroughs")
	}
	defer func() { _ = tx.Rollback() }()

	for i, name := range names {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO boroughs (name, export_id, geom) VALUES (?, ?, ?)`,
			name, exportID, wkbs[i],
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert borough %s", name)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit boroughs")
}

// TierCounts summarises the listings table.
func (s *SQLiteStore) TierCounts(ctx context.Context) ([]TierCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT borough, tier, COUNT(*) FROM listings GROUP BY borough, tier ORDER BY borough, MIN(marker_size)`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query tier counts")
	}
	defer rows.Close()

	var out []TierCount
	for rows.Next() {
		var tc TierCount
		if err := rows.Scan(&tc.Borough, &tc.Tier, &tc.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tier count")
		}
		out = append(out, tc)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: tier counts iterate")
}

// BoroughNames returns the names of stored boroughs in order.
func (s *SQLiteStore) BoroughNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM boroughs ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query boroughs")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan borough")
		}
		out = append(out, name)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: boroughs iterate")
}
