package pricing

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Rule names reported on a Recommendation.
const (
	RuleLargeFile = "large_file"
	RuleArchive   = "archive"
	RuleBackup    = "backup"
	RuleFrequent  = "frequent"
	RuleDefault   = "default"
)

// MatchSet describes a group of files by extension or MIME type.
type MatchSet struct {
	// Extensions are lower-case with the leading dot, e.g. ".zip".
	Extensions []string `yaml:"extensions"`
	// MimeTypes are matched exactly, ignoring parameters.
	MimeTypes []string `yaml:"mime_types"`
	// MimePrefixes match whole families, e.g. "image/".
	MimePrefixes []string `yaml:"mime_prefixes"`
}

// Matches reports whether a file with the given MIME type and name belongs to the set.
func (m MatchSet) Matches(mimeType, fileName string) bool {
	if ext := strings.ToLower(filepath.Ext(fileName)); ext != "" && slices.Contains(m.Extensions, ext) {
		return true
	}
	mt := normalizeMIME(mimeType)
	if mt == "" {
		return false
	}
	if slices.Contains(m.MimeTypes, mt) {
		return true
	}
	for _, p := range m.MimePrefixes {
		if strings.HasPrefix(mt, p) {
			return true
		}
	}
	return false
}

// Rules configures a Recommender.
type Rules struct {
	Archive  MatchSet `yaml:"archive"`
	Backup   MatchSet `yaml:"backup"`
	Frequent MatchSet `yaml:"frequent"`
	// LargeFileThresholdMB routes files strictly larger than this many MiB to
	// the infrequent-access class. Zero disables the size rule.
	LargeFileThresholdMB float64 `yaml:"large_file_threshold_mb"`
}

// DefaultRules returns the rule set used when nothing is configured.
func DefaultRules() Rules {
	return Rules{
		LargeFileThresholdMB: 100,
		Archive: MatchSet{
			Extensions: []string{".zip", ".tar", ".gz", ".tgz", ".7z", ".rar", ".bz2", ".xz"},
			MimeTypes: []string{
				"application/zip",
				"application/x-tar",
				"application/gzip",
				"application/x-gzip",
				"application/x-7z-compressed",
				"application/x-rar-compressed",
				"application/x-bzip2",
				"application/x-xz",
			},
		},
		Backup: MatchSet{
			Extensions: []string{".bak", ".backup", ".dump", ".sql", ".iso", ".img", ".vhd", ".vmdk"},
			MimeTypes:  []string{"application/sql", "application/x-iso9660-image"},
		},
		Frequent: MatchSet{
			Extensions:   []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".pdf", ".html", ".css", ".js", ".json", ".mp4", ".webm"},
			MimeTypes:    []string{"application/pdf", "text/html", "text/css", "application/json", "application/javascript"},
			MimePrefixes: []string{"image/", "video/"},
		},
	}
}

// Recommendation is the advisory outcome of Recommend.
type Recommendation struct {
	Class StorageClass `json:"storage_class"`
	Rule  string       `json:"rule"`
	// Reason is a human-readable explanation of the chosen class.
	Reason string `json:"reason"`
	// SavingsPercent approximates the saving versus the standard class.
	SavingsPercent int `json:"savings_percent"`
}

// Recommender picks a storage class for new uploads.
type Recommender struct {
	rules Rules
}

// NewRecommender creates a Recommender with the given rules.
func NewRecommender(rules Rules) *Recommender {
	return &Recommender{rules: rules}
}

// Recommend applies the rules in order and returns the first match.
// Size is evaluated before type, so overlapping rules resolve predictably.
func (r *Recommender) Recommend(mimeType string, sizeBytes int64, fileName string) Recommendation {
	sizeMB := float64(max(sizeBytes, 0)) / (1 << 20)

	switch {
	case r.rules.LargeFileThresholdMB > 0 && sizeMB > r.rules.LargeFileThresholdMB:
		return newRecommendation(ClassStandardIA, RuleLargeFile,
			fmt.Sprintf("file is larger than %.0f MB and is rarely read in full", r.rules.LargeFileThresholdMB))
	case r.rules.Archive.Matches(mimeType, fileName):
		return newRecommendation(ClassDeepArchive, RuleArchive, "archive formats are written once and seldom restored")
	case r.rules.Backup.Matches(mimeType, fileName):
		return newRecommendation(ClassGlacierIR, RuleBackup, "backups need cheap storage with instant restore")
	case r.rules.Frequent.Matches(mimeType, fileName):
		return newRecommendation(ClassStandard, RuleFrequent, "media and documents are read frequently")
	default:
		return newRecommendation(ClassStandard, RuleDefault, "no rule matched, using the standard class")
	}
}

func newRecommendation(c StorageClass, rule, reason string) Recommendation {
	return Recommendation{
		Class:          c,
		Rule:           rule,
		Reason:         reason,
		SavingsPercent: SavingsPercent(c),
	}
}

func normalizeMIME(mimeType string) string {
	mt, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
