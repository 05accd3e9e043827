// Package datastore persists resolved book records so repeated CLI runs
// build up a local library database. The resolver core never touches this;
// only the CLI layer writes here.
package datastore

import "github.com/lepinkainen/biblio/internal/bookdata"

// Record is one resolved lookup ready for persistence.
type Record struct {
	Book   bookdata.BookData
	Source string
}

// Store abstracts where resolved records land: a local SQLite file or a
// remote Datasette instance.
type Store interface {
	// Connect establishes the connection and prepares the schema.
	Connect() error

	// SaveRecords upserts resolved book records, keyed by ISBN.
	SaveRecords(records []Record) error

	// Close releases the connection.
	Close() error
}
