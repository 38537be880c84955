// Package pgstore implements version.Store on PostgreSQL.
//
// Each file aggregate is one row of the files table: the identity columns
// plus the whole aggregate as JSONB. Mutations run in a transaction holding
// a row lock (SELECT ... FOR UPDATE), so concurrent uploads to the same file
// queue up while different files proceed in parallel. Creating a file races
// on the (tenant_id, original_name, parent_folder_id) unique index; the
// loser retries and appends to the winner's file.
//
// The schema lives in internal/migrations.
package pgstore
