// Package version implements per-file version histories for a multi-tenant
// file store.
//
// A File is the aggregate root. It owns an ordered list of immutable
// Versions, exactly one of which is active. The file-level content fields
// (size, storage class, blob key, upload date) mirror the active version.
//
// # Lifecycle
//
//	m := version.NewManager(version.NewMemoryStore(),
//		version.WithLedger(ledger),
//	)
//
//	f, err := m.CreateOrNewVersion(ctx, tenantID,
//		version.Identity{OriginalName: "report.pdf", ParentFolderID: folderID},
//		version.Payload{BlobKey: key, Size: size, UploadedBy: userID},
//	)
//
//	f, err = m.RestoreVersion(ctx, tenantID, f.ID, olderVersionID)
//	_, removed, err := m.DeleteVersion(ctx, tenantID, f.ID, staleVersionID)
//
// Restoring moves the active pointer without creating a new version.
// The active version and the only version can never be deleted.
//
// # Legacy records
//
// Files written before versioning existed carry only flat fields. They are
// upgraded lazily on first mutation, or eagerly via Manager.UpgradeLegacy,
// by synthesizing an active version 1.
//
// # Concurrency
//
// All mutations go through Store.Mutate or Store.Upsert, which serialize
// changes to one file. MemoryStore ships with this package; Postgres and
// Redis implementations live in the pgstore and redisstore subpackages.
package version
