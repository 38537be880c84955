// Package tasks holds the background jobs run by the worker.
package tasks

import (
	"errors"
	"strings"

	"github.com/dmitrymomot/filevault/pkg/job"
)

// Task names.
const (
	NameRetentionSweep = "retention.sweep"
	NameCleanupTenant  = "retention.cleanup_tenant"
	NameTieringSweep   = "tiering.sweep"
	NameOptimizeFile   = "tiering.optimize_file"
)

// TenantPayload selects one tenant.
type TenantPayload struct {
	Tenant string `json:"tenant"`
}

func (p TenantPayload) validate() error {
	if strings.TrimSpace(p.Tenant) == "" {
		return errors.Join(job.ErrInvalidPayload, errors.New("tenant is required"))
	}
	return nil
}

// FilePayload selects one file of a tenant.
type FilePayload struct {
	Tenant string `json:"tenant"`
	FileID string `json:"file_id"`
}

func (p FilePayload) validate() error {
	if err := (TenantPayload{Tenant: p.Tenant}).validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.FileID) == "" {
		return errors.Join(job.ErrInvalidPayload, errors.New("file_id is required"))
	}
	return nil
}
