// Package repository is the Postgres-backed entity store. Every read and
// write is scoped by the visibility rule in SQL, so the database, not the
// caller, decides which rows a user can touch.
package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// visibleTo is the visibility predicate; $N is the caller's user id.
const visibleTo = `(owner_id = $%d OR $%d = ANY(shared_with))`

// bumpUpdatedAt moves updated_at strictly forward even when two writes land
// within the clock's resolution.
const bumpUpdatedAt = `updated_at = GREATEST(clock_timestamp(), updated_at + INTERVAL '1 microsecond')`

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// recipients turns a scanned array into a non-nil slice.
func recipients(a pq.StringArray) []string {
	if a == nil {
		return []string{}
	}
	return []string(a)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
