package storage

import "fmt"

// ValidationError describes a rejected upload.
type ValidationError struct {
	Details map[string]any
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Error codes of ValidationError.
const (
	ErrCodeFileTooLarge = "file_too_large"
	ErrCodeFileTooSmall = "file_too_small"
	ErrCodeInvalidMIME  = "invalid_mime"
	ErrCodeEmptyFile    = "empty_file"
)

// ValidationRule checks an upload before any byte is sent.
type ValidationRule interface {
	Validate(size int64, mimeType string) error
}

// RuleFunc adapts a function to ValidationRule.
type RuleFunc func(size int64, mimeType string) error

// Validate implements ValidationRule.
func (f RuleFunc) Validate(size int64, mimeType string) error { return f(size, mimeType) }

// Validate returns the first failing rule's error.
func Validate(size int64, mimeType string, rules ...ValidationRule) error {
	for _, rule := range rules {
		if err := rule.Validate(size, mimeType); err != nil {
			return err
		}
	}
	return nil
}

// MaxSize rejects payloads larger than limit bytes.
func MaxSize(limit int64) ValidationRule {
	return RuleFunc(func(size int64, _ string) error {
		if size <= limit {
			return nil
		}
		return &ValidationError{
			Code:    ErrCodeFileTooLarge,
			Message: fmt.Sprintf("file size %d exceeds limit of %d bytes", size, limit),
			Details: map[string]any{"limit": limit, "got": size},
		}
	})
}

// MinSize rejects payloads smaller than limit bytes.
func MinSize(limit int64) ValidationRule {
	return RuleFunc(func(size int64, _ string) error {
		if size >= limit {
			return nil
		}
		return &ValidationError{
			Code:    ErrCodeFileTooSmall,
			Message: fmt.Sprintf("file size %d is below minimum of %d bytes", size, limit),
			Details: map[string]any{"minimum": limit, "got": size},
		}
	})
}

// NotEmpty rejects zero-length payloads.
func NotEmpty() ValidationRule {
	return RuleFunc(func(size int64, _ string) error {
		if size > 0 {
			return nil
		}
		return &ValidationError{Code: ErrCodeEmptyFile, Message: "file is empty", Details: map[string]any{}}
	})
}

// AllowedTypes accepts only MIME types matching patterns such as "image/*".
func AllowedTypes(patterns ...string) ValidationRule {
	return RuleFunc(func(_ int64, mimeType string) error {
		if MatchesMIME(mimeType, patterns) {
			return nil
		}
		return &ValidationError{
			Code:    ErrCodeInvalidMIME,
			Message: fmt.Sprintf("file type %q is not allowed", mimeType),
			Details: map[string]any{"type": mimeType, "allowed": patterns},
		}
	})
}
