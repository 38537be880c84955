// Package retention deletes old file versions according to per-tier policies.
//
// A [Policy] caps how many versions a file keeps and how old an inactive
// version may get. [Plan] selects the versions to drop for one file without
// side effects; [Engine] applies plans for a whole tenant through the
// version manager and releases the blobs of removed versions.
//
// The active version is never selected. Blob release failures are reported
// as warnings on the item; the metadata deletion stands.
//
// Policies are usually loaded from YAML:
//
//	default_tier: free
//	tiers:
//	  free:
//	    max_versions: 5
//	    auto_delete_after_days: 30
//	    allowed_storage_classes: [STANDARD]
//	  enterprise:
//	    max_versions: -1
//	    auto_delete_after_days: 365
//	tenants:
//	  acme: enterprise
package retention
