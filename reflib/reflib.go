// Package reflib maintains a local library of citations in a database file,
// keyed by anchor. Conversions consult it so well-known anchors get their
// canonical reference markup instead of a heuristic parse of the entry text.
// Entirely local, nothing is fetched over the network.
package reflib

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mjl-/bstore"

	"github.com/mjl-/refxml/bibxml"
)

var (
	ErrNotFound = errors.New("reflib: reference not found")
	ErrExists   = errors.New("reflib: anchor already present")
)

// Ref is one stored citation.
type Ref struct {
	Anchor string // E.g. "RFC2119".
	Title  string
	XML    []byte    // The <reference> element.
	Added  time.Time `bstore:"default now"`
}

// DBTypes are the types stored in the database.
var DBTypes = []any{Ref{}}

// DB is an open citation library.
type DB struct {
	db *bstore.DB
}

// Open opens the library at path, creating it and missing parent directories
// if needed.
func Open(ctx context.Context, path string) (*DB, error) {
	os.MkdirAll(filepath.Dir(path), 0770)
	db, err := bstore.Open(ctx, path, &bstore.Options{Timeout: 5 * time.Second}, DBTypes...)
	if err != nil {
		return nil, fmt.Errorf("open citation library: %w", err)
	}
	return &DB{db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Add stores a reference under its anchor, returning ErrExists for an anchor
// already present.
func (d *DB) Add(ctx context.Context, ref bibxml.Reference) error {
	r := Ref{Anchor: ref.Anchor, Title: ref.Front.Title, XML: []byte(ref.Fragment())}
	if err := d.db.Insert(ctx, &r); err != nil {
		if errors.Is(err, bstore.ErrUnique) {
			return fmt.Errorf("%w: %s", ErrExists, ref.Anchor)
		}
		return fmt.Errorf("insert reference: %w", err)
	}
	return nil
}

// Put stores a reference under its anchor, replacing an existing entry.
func (d *DB) Put(ctx context.Context, ref bibxml.Reference) error {
	r := Ref{Anchor: ref.Anchor, Title: ref.Front.Title, XML: []byte(ref.Fragment())}
	err := d.db.Write(ctx, func(tx *bstore.Tx) error {
		if err := tx.Get(&Ref{Anchor: r.Anchor}); err == nil {
			if err := tx.Delete(&Ref{Anchor: r.Anchor}); err != nil {
				return err
			}
		} else if !errors.Is(err, bstore.ErrAbsent) {
			return err
		}
		return tx.Insert(&r)
	})
	if err != nil {
		return fmt.Errorf("store reference: %w", err)
	}
	return nil
}

// Lookup returns the stored reference for anchor, or ErrNotFound.
func (d *DB) Lookup(ctx context.Context, anchor string) (bibxml.Reference, error) {
	r := Ref{Anchor: anchor}
	if err := d.db.Get(ctx, &r); err != nil {
		if errors.Is(err, bstore.ErrAbsent) {
			return bibxml.Reference{}, fmt.Errorf("%w: %s", ErrNotFound, anchor)
		}
		return bibxml.Reference{}, fmt.Errorf("lookup reference: %w", err)
	}
	ref, err := bibxml.ParseOne(bytes.NewReader(r.XML))
	if err != nil {
		return bibxml.Reference{}, fmt.Errorf("parsing stored reference %q: %v", anchor, err)
	}
	return ref, nil
}

// List returns all stored references, sorted by anchor.
func (d *DB) List(ctx context.Context) ([]Ref, error) {
	l, err := bstore.QueryDB[Ref](ctx, d.db).SortAsc("Anchor").List()
	if err != nil {
		return nil, fmt.Errorf("listing references: %w", err)
	}
	return l, nil
}

// Remove deletes the reference stored for anchor, returning ErrNotFound if
// absent.
func (d *DB) Remove(ctx context.Context, anchor string) error {
	err := d.db.Delete(ctx, &Ref{Anchor: anchor})
	if errors.Is(err, bstore.ErrAbsent) {
		return fmt.Errorf("%w: %s", ErrNotFound, anchor)
	} else if err != nil {
		return fmt.Errorf("delete reference: %w", err)
	}
	return nil
}

// Import reads reference elements from XML, e.g. a bibxml file or a
// previously converted document, and stores each under its anchor, replacing
// existing entries. It returns the number imported.
func (d *DB) Import(ctx context.Context, r io.Reader) (int, error) {
	refs, err := bibxml.Parse(r)
	if err != nil {
		return 0, fmt.Errorf("parsing import: %w", err)
	}
	for i, ref := range refs {
		if err := d.Put(ctx, ref); err != nil {
			return i, err
		}
	}
	return len(refs), nil
}
