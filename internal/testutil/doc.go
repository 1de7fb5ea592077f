// Package testutil provides in-memory stand-ins for the Postgres
// repositories and small channel helpers for tests.
//
// [Store] keeps rows in memory and applies the same visibility rule as the
// SQL predicate: List returns rows the caller owns or is a recipient of,
// Update needs the row to be visible, Delete and Share need ownership.
// Failures can be injected per operation kind with [Store.FailOn].
//
// [Profiles] is the in-memory identity directory with the same
// case-insensitive substring search as the search_users function.
package testutil
