package snapshot

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/host"
	"github.com/wippyai/contract-sdk/val"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps named snapshots in a SQLite database. Each Save and
// Load runs in a single transaction.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path. Use ":memory:" for a
// throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.IO(errors.PhaseSnapshot, "open", path, err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.IO(errors.PhaseSnapshot, "init schema", path, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save stores snap under name, replacing any snapshot saved under it before.
func (s *SQLiteStore) Save(ctx context.Context, name string, snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	ledger, err := encMode.Marshal(ledgerToWire(snap.Ledger))
	if err != nil {
		return errors.Wrap(errors.PhaseSnapshot, errors.KindInvalidInput, err, "encode ledger")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.IO(errors.PhaseSnapshot, "begin", s.path, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE snapshot = ?`, name); err != nil {
		return errors.IO(errors.PhaseSnapshot, "delete entries", name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (name, ledger) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET ledger = excluded.ledger`,
		name, ledger); err != nil {
		return errors.IO(errors.PhaseSnapshot, "write snapshot", name, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (snapshot, seq, contract, durability, key, value, live_until)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.IO(errors.PhaseSnapshot, "prepare", name, err)
	}
	defer stmt.Close()

	for i, e := range snap.Entries {
		key, err := marshalValue(Canonical(e.Key))
		if err != nil {
			return errors.WithPath(err, fmt.Sprintf("entries[%d]", i), "key")
		}
		value, err := marshalValue(e.Value)
		if err != nil {
			return errors.WithPath(err, fmt.Sprintf("entries[%d]", i), "value")
		}
		var live sql.NullInt64
		if e.LiveUntil != nil {
			live = sql.NullInt64{Int64: int64(*e.LiveUntil), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, name, i, e.Contract.String(), int(e.Durability), key, value, live); err != nil {
			return errors.IO(errors.PhaseSnapshot, "write entry", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.IO(errors.PhaseSnapshot, "commit", name, err)
	}
	Logger().Debug("snapshot stored", zap.String("db", s.path), zap.String("name", name), zap.Int("entries", len(snap.Entries)))
	return nil
}

// Load reads the snapshot saved under name.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.IO(errors.PhaseSnapshot, "begin", s.path, err)
	}
	defer tx.Rollback()

	var ledgerBlob []byte
	err = tx.QueryRowContext(ctx, `SELECT ledger FROM snapshots WHERE name = ?`, name).Scan(&ledgerBlob)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(errors.PhaseSnapshot, "snapshot", name)
	}
	if err != nil {
		return nil, errors.IO(errors.PhaseSnapshot, "read snapshot", name, err)
	}
	var wl wireLedger
	if err := decMode.Unmarshal(ledgerBlob, &wl); err != nil {
		return nil, errors.SnapshotCorrupt("malformed ledger", err)
	}
	ledger, err := ledgerFromWire(wl)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Ledger: ledger}

	rows, err := tx.QueryContext(ctx,
		`SELECT contract, durability, key, value, live_until
		 FROM entries WHERE snapshot = ? ORDER BY seq`, name)
	if err != nil {
		return nil, errors.IO(errors.PhaseSnapshot, "read entries", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			contract   string
			durability int
			key, value []byte
			live       sql.NullInt64
		)
		if err := rows.Scan(&contract, &durability, &key, &value, &live); err != nil {
			return nil, errors.IO(errors.PhaseSnapshot, "scan entry", name, err)
		}
		addr, err := val.ParseAddress(contract)
		if err != nil {
			return nil, errors.SnapshotCorrupt("bad contract address "+contract, err)
		}
		e := Entry{Contract: addr, Durability: host.Durability(durability)}
		if e.Key, err = unmarshalValue(key); err != nil {
			return nil, err
		}
		if e.Value, err = unmarshalValue(value); err != nil {
			return nil, err
		}
		if live.Valid {
			n := uint32(live.Int64)
			e.LiveUntil = &n
		}
		snap.Entries = append(snap.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.IO(errors.PhaseSnapshot, "read entries", name, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Names lists the stored snapshots in name order.
func (s *SQLiteStore) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, errors.IO(errors.PhaseSnapshot, "list", s.path, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, errors.IO(errors.PhaseSnapshot, "list", s.path, err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Delete removes the snapshot saved under name. Deleting a missing name
// is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.IO(errors.PhaseSnapshot, "begin", s.path, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE snapshot = ?`, name); err != nil {
		return errors.IO(errors.PhaseSnapshot, "delete entries", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name); err != nil {
		return errors.IO(errors.PhaseSnapshot, "delete snapshot", name, err)
	}
	if err := tx.Commit(); err != nil {
		return errors.IO(errors.PhaseSnapshot, "commit", name, err)
	}
	return nil
}

func marshalValue(v val.Value) ([]byte, error) {
	w, err := toWire(v)
	if err != nil {
		return nil, err
	}
	b, err := encMode.Marshal(w)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseSnapshot, errors.KindInvalidInput, err, "encode value")
	}
	return b, nil
}

func unmarshalValue(b []byte) (val.Value, error) {
	var w wireValue
	if err := decMode.Unmarshal(b, &w); err != nil {
		return nil, errors.SnapshotCorrupt("malformed value", err)
	}
	return fromWire(w, 0)
}
