package database

import "errors"

var (
	// ErrNotFound is returned when a requested run or entity page does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDatabaseNotFound is returned by Open when the database file does not
	// exist and CreateIfNotExists is false.
	ErrDatabaseNotFound = errors.New("database not found")
)
