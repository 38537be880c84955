// Package storage keeps version payloads in S3-compatible object storage.
//
// Every object carries an explicit storage class so that version blobs can
// be moved between STANDARD, STANDARD_IA, GLACIER_IR and the archive classes
// as they age. Keys are generated per tenant and never reused:
//
//	{tenant}/{prefix}/{uuidv7}.{ext}
//
// # Basic Usage
//
//	store, err := storage.New(storage.Config{
//		Bucket:    "filevault",
//		AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
//		SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
//	})
//	if err != nil {
//		return err
//	}
//
//	info, err := store.Put(ctx, body, size,
//		storage.WithTenant(tenantID),
//		storage.WithPrefix("versions"),
//		storage.WithStorageClass(pricing.ClassStandardIA),
//		storage.WithValidation(storage.NotEmpty(), storage.MaxSize(100<<20)),
//	)
//
// Put sniffs the content type from the first 512 bytes and sends a SHA-256
// checksum which S3 verifies on receipt. The hex digest is returned in
// ObjectInfo.Checksum.
//
// # Storage Classes
//
// SetStorageClass rewrites an object in place with a new class:
//
//	err := store.SetStorageClass(ctx, info.Key, pricing.ClassGlacierIR)
//
// Objects in GLACIER or DEEP_ARCHIVE must be restored before they can be
// read or copied; such calls fail with ErrArchived.
//
// # Errors
//
// S3 failures are mapped to sentinels: ErrNotFound, ErrAccessDenied,
// ErrArchived, and otherwise the operation's own error such as
// ErrUploadFailed. Validation failures are *ValidationError values.
package storage
