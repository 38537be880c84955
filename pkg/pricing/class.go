package pricing

import (
	"fmt"
	"slices"
	"strings"
)

// StorageClass is a named tier trading retrieval latency for price.
type StorageClass string

// Storage classes ordered from the most expensive, fastest retrieval to the
// cheapest, slowest retrieval.
const (
	ClassStandard    StorageClass = "STANDARD"
	ClassStandardIA  StorageClass = "STANDARD_IA"
	ClassOneZoneIA   StorageClass = "ONEZONE_IA"
	ClassGlacierIR   StorageClass = "GLACIER_IR"
	ClassGlacier     StorageClass = "GLACIER"
	ClassDeepArchive StorageClass = "DEEP_ARCHIVE"
)

var orderedClasses = []StorageClass{
	ClassStandard,
	ClassStandardIA,
	ClassOneZoneIA,
	ClassGlacierIR,
	ClassGlacier,
	ClassDeepArchive,
}

// Classes returns all storage classes ordered hot to cold.
func Classes() []StorageClass {
	return slices.Clone(orderedClasses)
}

// Valid reports whether c is a known storage class.
func (c StorageClass) Valid() bool {
	return slices.Contains(orderedClasses, c)
}

// Rank returns the position of c in the hot-to-cold ordering, or -1 for an
// unknown class.
func (c StorageClass) Rank() int {
	return slices.Index(orderedClasses, c)
}

// Colder reports whether c is strictly colder than other.
func (c StorageClass) Colder(other StorageClass) bool {
	return c.Rank() > other.Rank()
}

func (c StorageClass) String() string {
	return string(c)
}

// ParseStorageClass converts a case-insensitive class name into a StorageClass.
func ParseStorageClass(s string) (StorageClass, error) {
	c := StorageClass(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStorageClass, s)
	}
	return c, nil
}
