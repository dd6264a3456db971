package objectstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"jumbotrace/internal/model"
	"jumbotrace/internal/wire"

	"github.com/go-logr/logr"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no snapshot exists at or before the requested version.
var ErrNotFound = errors.New("object not found")

// Snapshot is the recorded content of a heap object at one version.
// Implementations: ObjectData, ArrayData.
type Snapshot interface {
	isSnapshot()
}

// Field is one field of an object snapshot.
type Field struct {
	Identifier model.Identifier
	Value      model.Value
}

// ObjectData is an instance snapshot.
type ObjectData struct {
	Self   model.InstanceReference
	Fields []Field
}

// ArrayData is an array snapshot.
type ArrayData struct {
	Self   model.ArrayReference
	Values []model.Value
}

func (ObjectData) isSnapshot() {}
func (ArrayData) isSnapshot()  {}

// Store keeps snapshots in an in-memory SQLite database for the life of one session.
type Store struct {
	db  *sql.DB
	log logr.Logger
}

// New opens an empty in-memory store.
func New(log logr.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, log: log}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			pointer INTEGER,
			version INTEGER,
			kind TEXT,
			body JSON,
			PRIMARY KEY (pointer, version)
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

type wireSnapshot struct {
	Self   json.RawMessage `json:"self"`
	Fields []struct {
		Identifier json.RawMessage `json:"identifier"`
		Value      json.RawMessage `json:"value"`
	} `json:"fields"`
	Values []json.RawMessage `json:"values"`
}

// Load inserts every snapshot of an object data document. The document is either
// an array of snapshots or an object keyed by "<pointer>-<version>".
func (s *Store) Load(ctx context.Context, raw []byte) (int, error) {
	bodies, err := splitDocument(raw)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO snapshots (pointer, version, kind, body) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, body := range bodies {
		snap, err := decodeSnapshot(body)
		if err != nil {
			return 0, fmt.Errorf("snapshot %d: %w", i, err)
		}
		pointer, version, kind := key(snap)
		if _, err := stmt.ExecContext(ctx, pointer, version, kind, string(body)); err != nil {
			return 0, fmt.Errorf("failed to insert snapshot %d-%d: %w", pointer, version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.log.V(1).Info("loaded object snapshots", "count", len(bodies))
	return len(bodies), nil
}

func splitDocument(raw []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to decode object data: %w", err)
		}
		return list, nil
	}
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keyed); err != nil {
		return nil, fmt.Errorf("failed to decode object data: %w", err)
	}
	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]json.RawMessage, 0, len(keys))
	for _, k := range keys {
		list = append(list, keyed[k])
	}
	return list, nil
}

func key(snap Snapshot) (int64, int, string) {
	switch s := snap.(type) {
	case ObjectData:
		return s.Self.Pointer, s.Self.Version, "object"
	case ArrayData:
		return s.Self.Pointer, s.Self.Version, "array"
	}
	return 0, 0, ""
}

func decodeSnapshot(body json.RawMessage) (Snapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	self, err := wire.DecodeValue(w.Self)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot self: %w", err)
	}

	switch ref := self.(type) {
	case model.InstanceReference:
		snap := ObjectData{Self: ref}
		for _, f := range w.Fields {
			id, err := wire.DecodeIdentifier(f.Identifier)
			if err != nil {
				return nil, err
			}
			v, err := wire.DecodeValue(f.Value)
			if err != nil {
				return nil, err
			}
			snap.Fields = append(snap.Fields, Field{Identifier: id, Value: v})
		}
		return snap, nil
	case model.ArrayReference:
		snap := ArrayData{Self: ref}
		for _, raw := range w.Values {
			v, err := wire.DecodeValue(raw)
			if err != nil {
				return nil, err
			}
			snap.Values = append(snap.Values, v)
		}
		return snap, nil
	}
	return nil, fmt.Errorf("snapshot self must be an instance or array reference, got %T", self)
}

// Lookup returns the latest snapshot of pointer whose version is at most version.
func (s *Store) Lookup(ctx context.Context, pointer int64, version int) (Snapshot, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM snapshots WHERE pointer = ? AND version <= ? ORDER BY version DESC LIMIT 1`,
		pointer, version,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %d-%d: %w", pointer, version, err)
	}
	return decodeSnapshot(json.RawMessage(body))
}

// LookupValue resolves an instance or array reference; other values are not heap objects.
func (s *Store) LookupValue(ctx context.Context, v model.Value) (Snapshot, error) {
	switch ref := v.(type) {
	case model.InstanceReference:
		return s.Lookup(ctx, ref.Pointer, ref.Version)
	case model.ArrayReference:
		return s.Lookup(ctx, ref.Pointer, ref.Version)
	}
	return nil, ErrNotFound
}

// Count returns the number of stored snapshots.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}
