package storage_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filevault/pkg/storage"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		size     int64
		mimeType string
		rules    []storage.ValidationRule
		wantCode string
	}{
		{name: "no rules", size: 10, mimeType: "text/plain"},
		{name: "within max", size: 10, rules: []storage.ValidationRule{storage.MaxSize(10)}},
		{name: "too large", size: 11, rules: []storage.ValidationRule{storage.MaxSize(10)}, wantCode: storage.ErrCodeFileTooLarge},
		{name: "too small", size: 1, rules: []storage.ValidationRule{storage.MinSize(2)}, wantCode: storage.ErrCodeFileTooSmall},
		{name: "empty", size: 0, rules: []storage.ValidationRule{storage.NotEmpty()}, wantCode: storage.ErrCodeEmptyFile},
		{
			name:     "type allowed",
			size:     5,
			mimeType: "image/webp",
			rules:    []storage.ValidationRule{storage.AllowedTypes("image/*", "application/pdf")},
		},
		{
			name:     "type rejected",
			size:     5,
			mimeType: "application/zip",
			rules:    []storage.ValidationRule{storage.AllowedTypes("image/*")},
			wantCode: storage.ErrCodeInvalidMIME,
		},
		{
			name:     "first failure wins",
			size:     0,
			mimeType: "application/zip",
			rules:    []storage.ValidationRule{storage.NotEmpty(), storage.AllowedTypes("image/*")},
			wantCode: storage.ErrCodeEmptyFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := storage.Validate(tt.size, tt.mimeType, tt.rules...)
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}

			var verr *storage.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tt.wantCode, verr.Code)
			require.NotEmpty(t, verr.Error())
		})
	}
}
