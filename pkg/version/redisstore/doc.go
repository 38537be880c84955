// Package redisstore implements version.Store on Redis using optimistic
// transactions.
//
// Every mutation WATCHes the keys it reads and commits with MULTI/EXEC. When
// another writer touched a watched key first, EXEC aborts and the whole
// read-modify-write is retried, up to a configurable number of attempts.
// After that the store gives up with version.ErrConcurrentModification.
//
// Key layout, all under a configurable prefix (default "filevault"):
//
//	{prefix}:file:{tenant}:{id}     JSON-encoded version.File
//	{prefix}:ident:{tenant}:{hash}  file ID owning an (original name, folder) pair
//	{prefix}:files:{tenant}         set of the tenant's file IDs
//	{prefix}:tenants                set of tenants owning files
package redisstore
