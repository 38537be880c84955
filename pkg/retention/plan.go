package retention

import (
	"slices"
	"time"

	"github.com/dmitrymomot/filevault/pkg/version"
)

// Reason tells which pass selected a version.
type Reason string

const (
	ReasonAge   Reason = "age"
	ReasonCount Reason = "count"
)

// Candidate is a version selected for deletion.
type Candidate struct {
	Version version.Version
	Reason  Reason
}

// Plan selects the versions of f that policy p removes at time now, oldest
// first. The active version is never selected. Files with a single version
// yield nothing.
func Plan(f *version.File, p Policy, now time.Time) []Candidate {
	if len(f.Versions) <= 1 {
		return nil
	}

	inactive := make([]version.Version, 0, len(f.Versions)-1)
	for _, v := range f.Versions {
		if !v.IsActive {
			inactive = append(inactive, v)
		}
	}
	slices.SortStableFunc(inactive, func(a, b version.Version) int {
		return a.UploadDate.Compare(b.UploadDate)
	})

	var out []Candidate
	next := 0

	if p.AutoDeleteAfterDays > 0 {
		maxAge := time.Duration(p.AutoDeleteAfterDays) * 24 * time.Hour
		// Sorted oldest first: the first young version ends the pass.
		for ; next < len(inactive); next++ {
			if now.Sub(inactive[next].UploadDate) <= maxAge {
				break
			}
			out = append(out, Candidate{Version: inactive[next], Reason: ReasonAge})
		}
	}

	if p.MaxVersions >= 0 {
		survivors := len(f.Versions) - len(out)
		for ; survivors > p.MaxVersions && next < len(inactive); next++ {
			out = append(out, Candidate{Version: inactive[next], Reason: ReasonCount})
			survivors--
		}
	}

	return out
}
