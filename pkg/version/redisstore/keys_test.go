package redisstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/filevault/pkg/version"
)

func TestKeys(t *testing.T) {
	t.Parallel()

	s := New(nil, WithPrefix("fv"))

	assert.Equal(t, "fv:file:t1:abc", s.fileKey("t1", "abc"))
	assert.Equal(t, "fv:files:t1", s.filesKey("t1"))
	assert.Equal(t, "fv:tenants", s.tenantsKey())

	a := s.identKey("t1", version.Identity{OriginalName: "b", ParentFolderID: "a"})
	b := s.identKey("t1", version.Identity{OriginalName: "a", ParentFolderID: "b"})
	c := s.identKey("t1", version.Identity{OriginalName: "b", ParentFolderID: "a"})
	d := s.identKey("t2", version.Identity{OriginalName: "b", ParentFolderID: "a"})

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Contains(t, a, "fv:ident:t1:")
}

func TestOptions(t *testing.T) {
	t.Parallel()

	s := New(nil)
	assert.Equal(t, "filevault", s.prefix)
	assert.Equal(t, 5, s.maxAttempts)

	s = New(nil, WithPrefix(""), WithMaxAttempts(0))
	assert.Equal(t, "filevault", s.prefix)
	assert.Equal(t, 5, s.maxAttempts)

	s = New(nil, WithMaxAttempts(9))
	assert.Equal(t, 9, s.maxAttempts)
}
