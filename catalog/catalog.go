// Package catalog implements the Catalog component: durable storage of
// image identities and their signatures, backed by SQLite via the
// pure-Go modernc.org/sqlite driver.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/honooru/iqdb/haar"
)

// ErrNotFound is returned when a lookup by postID or MD5 finds nothing.
var ErrNotFound = errors.New("catalog: not found")

// Row is a single Catalog record: an image's identity, its duplicate
// key, and its signature, reconstructed from storage columns the way the
// reference schema keeps avglf1/avglf2/avglf3 as separate real columns
// alongside the opaque sig blob.
type Row struct {
	PostID string
	MD5    string
	Width  int
	Height int
	Sig    haar.Signature
}

const schema = `
CREATE TABLE IF NOT EXISTS images (
	post_id TEXT PRIMARY KEY,
	md5     TEXT NOT NULL,
	width   INTEGER NOT NULL,
	height  INTEGER NOT NULL,
	avglf1  REAL NOT NULL,
	avglf2  REAL NOT NULL,
	avglf3  REAL NOT NULL,
	sig     BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_images_md5 ON images(md5);
`

// Catalog wraps a *sql.DB holding the images table.
type Catalog struct {
	db *sql.DB
}

// Open opens (and, if necessary, creates) a Catalog at path. An empty
// path opens an ephemeral in-memory database, mirroring the reference
// implementation's ":memory:" mode for tests and dry runs.
func Open(path string) (*Catalog, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	if path == "" {
		// Every connection to ":memory:" is its own empty database, so
		// the pool is held to one connection.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: migrate: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func scanRow(sc interface{ Scan(...any) error }) (Row, error) {
	var r Row
	var blob []byte
	if err := sc.Scan(&r.PostID, &r.MD5, &r.Width, &r.Height, &r.Sig.AvgLF[0], &r.Sig.AvgLF[1], &r.Sig.AvgLF[2], &blob); err != nil {
		return Row{}, err
	}
	sig, err := haar.FromBlob(r.Sig.AvgLF, blob)
	if err != nil {
		return Row{}, err
	}
	r.Sig = sig
	return r, nil
}

const selectCols = `post_id, md5, width, height, avglf1, avglf2, avglf3, sig`

// Get returns the row for postID.
func (c *Catalog) Get(ctx context.Context, postID string) (Row, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+selectCols+` FROM images WHERE post_id = ?`, postID)
	r, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, ErrNotFound
	}
	if err != nil {
		return Row{}, fmt.Errorf("catalog: get %s: %w", postID, err)
	}
	return r, nil
}

// GetByMD5 returns every row sharing md5's duplicate key. The reference
// server exposes an equivalent lookup (get_by_md5) for callers dealing in
// content hashes rather than postIDs; more than one row can share an md5
// when the same bytes were ingested under different identities.
func (c *Catalog) GetByMD5(ctx context.Context, md5 string) ([]Row, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+selectCols+` FROM images WHERE md5 = ?`, md5)
	if err != nil {
		return nil, fmt.Errorf("catalog: get by md5 %s: %w", md5, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan %s: %w", md5, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Upsert writes row, replacing any prior row for the same postID. It
// runs as delete-then-insert inside a single transaction, matching
// sqlite_db::addImage's removeImage-then-insert sequence so a re-ingest
// of an existing postID never leaves two rows with the same primary key.
func (c *Catalog) Upsert(ctx context.Context, row Row) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin upsert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM images WHERE post_id = ?`, row.PostID); err != nil {
		return fmt.Errorf("catalog: upsert delete %s: %w", row.PostID, err)
	}

	blob := haar.ToBlob(row.Sig)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO images(post_id, md5, width, height, avglf1, avglf2, avglf3, sig)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.PostID, row.MD5, row.Width, row.Height,
		row.Sig.AvgLF[0], row.Sig.AvgLF[1], row.Sig.AvgLF[2], blob)
	if err != nil {
		return fmt.Errorf("catalog: upsert insert %s: %w", row.PostID, err)
	}

	return tx.Commit()
}

// Remove deletes postID's row. It is not an error if postID is unknown.
func (c *Catalog) Remove(ctx context.Context, postID string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM images WHERE post_id = ?`, postID)
	if err != nil {
		return fmt.Errorf("catalog: remove %s: %w", postID, err)
	}
	return nil
}

// Count returns the number of rows in the Catalog.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return n, nil
}

// Iterate streams every row in the Catalog in post_id order, one row at
// a time, so a full rebuild of the in-memory index never holds the
// entire table in memory at once (the Catalog's analogue of
// sqlite_db::eachImage).
func (c *Catalog) Iterate(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		rows, err := c.db.QueryContext(ctx, `SELECT `+selectCols+` FROM images ORDER BY post_id`)
		if err != nil {
			yield(Row{}, fmt.Errorf("catalog: iterate: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanRow(rows)
			if err != nil {
				yield(Row{}, fmt.Errorf("catalog: iterate scan: %w", err))
				return
			}
			if !yield(r, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Row{}, fmt.Errorf("catalog: iterate rows: %w", err))
		}
	}
}
