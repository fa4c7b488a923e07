// Package repository defines the data access interface for content objects.
//
// Objects returned by a Repository are always read-only; callers obtain an
// editable instance with CopyObject, modify it and hand it back to Save.
// The SQL implementation lives in the sqlstore subpackage.
//
// # SQL Store
//
// The sqlstore implementation keeps every standalone object in a single
// objects table: identity and the columns used for filtering are stored
// next to a JSON data column holding the full entity. Tags, values, parts
// and datasource entries are part of their container's JSON and get their
// IDs assigned on save.
//
// Disinherited channels and group memberships live in their own tables so
// they can be changed without rewriting the objects.
//
// SQLite (modernc.org/sqlite) and PostgreSQL (pgx) are supported. The schema
// is migrated on startup with CREATE TABLE IF NOT EXISTS statements.
package repository
