package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/filevault/internal/app"
	"github.com/dmitrymomot/filevault/pkg/pricing"
	"github.com/dmitrymomot/filevault/pkg/storage"
	"github.com/dmitrymomot/filevault/pkg/upload"
	"github.com/dmitrymomot/filevault/pkg/version"
)

type importSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Rejected int `json:"rejected"`
}

func NewImportCommand() *cobra.Command {
	var tenant string

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import file records",
		Long:  "Insert file records from a JSON array, e.g. legacy unversioned files exported from another system. Records that already exist are skipped; versioned records with inconsistent version data are rejected.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readFiles(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				var sum importSummary
				for _, f := range files {
					if tenant != "" {
						f.TenantID = tenant
					}
					if f.TenantID == "" {
						return fmt.Errorf("record %q has no tenant_id", f.OriginalName)
					}
					err := a.Store.Insert(ctx, f)
					switch {
					case errors.Is(err, version.ErrFileExists):
						sum.Skipped++
						a.Logger.WarnContext(ctx, "file exists, skipped",
							slog.String("tenant", f.TenantID),
							slog.String("name", f.OriginalName),
						)
					case errors.Is(err, version.ErrInvariantViolation):
						sum.Rejected++
						a.Logger.ErrorContext(ctx, "inconsistent record rejected",
							slog.String("tenant", f.TenantID),
							slog.String("name", f.OriginalName),
							slog.Any("error", err),
						)
					case err != nil:
						return err
					default:
						sum.Imported++
					}
				}
				return printJSON(cmd, sum)
			})
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Assign every record to this tenant")

	return cmd
}

func readFiles(path string) ([]*version.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var files []*version.File
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return files, nil
}

func NewUpgradeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <tenant> [file-id]",
		Short: "Convert legacy files to versioned files",
		Long:  "Give legacy unversioned files a version history holding their current content as version 1.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				tenant := args[0]
				ids := args[1:]
				if len(ids) == 0 {
					files, err := a.Versions.Files(ctx, tenant)
					if err != nil {
						return err
					}
					for _, f := range files {
						if f.Shape() == version.ShapeUnversioned {
							ids = append(ids, f.ID)
						}
					}
				}

				upgraded := make([]*version.File, 0, len(ids))
				for _, id := range ids {
					f, err := a.Versions.UpgradeLegacy(ctx, tenant, id)
					if err != nil {
						return err
					}
					upgraded = append(upgraded, f)
				}
				return printJSON(cmd, upgraded)
			})
		},
	}
}

func NewFilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Inspect and edit file versions",
	}

	cmd.AddCommand(newFilesListCommand())
	cmd.AddCommand(newFilesShowCommand())
	cmd.AddCommand(newFilesRestoreCommand())
	cmd.AddCommand(newFilesRemoveVersionCommand())
	cmd.AddCommand(newFilesAnnotateCommand())

	return cmd
}

func newFilesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <tenant>",
		Short: "List a tenant's files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				files, err := a.Versions.Files(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, files)
			})
		},
	}
}

func newFilesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <tenant> <file-id>",
		Short: "Show a file with its versions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				f, err := a.Versions.File(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd, f)
			})
		},
	}
}

func newFilesRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <tenant> <file-id> <version-id>",
		Short: "Make a version the active one",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				f, err := a.Versions.RestoreVersion(ctx, args[0], args[1], args[2])
				if err != nil {
					return err
				}
				return printJSON(cmd, f)
			})
		},
	}
}

func newFilesRemoveVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm-version <tenant> <file-id> <version-id>",
		Short: "Delete an inactive version",
		Long:  "Delete an inactive version and its blob. The active version and the only version cannot be deleted.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				f, removed, err := a.Versions.DeleteVersion(ctx, args[0], args[1], args[2])
				if err != nil {
					return err
				}
				if a.Blobs != nil && removed.BlobKey != "" {
					if err := a.Blobs.Delete(ctx, removed.BlobKey); err != nil {
						a.Logger.ErrorContext(ctx, "blob not deleted",
							slog.String("key", removed.BlobKey),
							slog.Any("error", err),
						)
					}
				}
				return printJSON(cmd, f)
			})
		},
	}
}

func newFilesAnnotateCommand() *cobra.Command {
	var (
		comment string
		meta    []string
	)

	cmd := &cobra.Command{
		Use:   "annotate <tenant> <file-id> <version-id>",
		Short: "Change a version's comment or metadata",
		Long:  "Set the comment or metadata keys of a version. A key given as key= is removed.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch version.MetadataPatch
			if cmd.Flags().Changed("comment") {
				patch.Comment = &comment
			}
			md, err := parseMetadata(meta)
			if err != nil {
				return err
			}
			patch.Metadata = md

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				v, err := a.Versions.UpdateVersionMetadata(ctx, args[0], args[1], args[2], patch)
				if err != nil {
					return err
				}
				return printJSON(cmd, v)
			})
		},
	}

	cmd.Flags().StringVar(&comment, "comment", "", "New comment")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "Metadata entry key=value, repeatable")

	return cmd
}

func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	md := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid metadata %q, want key=value", p)
		}
		md[k] = v
	}
	return md, nil
}

func NewPutCommand() *cobra.Command {
	var (
		folder  string
		name    string
		by      string
		comment string
		class   string
		meta    []string
	)

	cmd := &cobra.Command{
		Use:   "put <tenant> <path>",
		Short: "Upload a local file as a new version",
		Long:  "Store a local file in the blob store and record it as a new version of the file with the same name in the folder.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := parseMetadata(meta)
			if err != nil {
				return err
			}
			var override pricing.StorageClass
			if class != "" {
				if override, err = pricing.ParseStorageClass(class); err != nil {
					return err
				}
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			st, err := f.Stat()
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(args[1])
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				svc, err := a.Uploads()
				if err != nil {
					return err
				}
				res, err := svc.Upload(ctx, upload.Request{
					Body:         f,
					Metadata:     md,
					Tenant:       args[0],
					FileName:     name,
					FolderID:     folder,
					UploadedBy:   by,
					Comment:      comment,
					StorageClass: override,
					Size:         st.Size(),
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			})
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Parent folder ID")
	cmd.Flags().StringVar(&name, "name", "", "File name (default: base name of path)")
	cmd.Flags().StringVar(&by, "by", os.Getenv("USER"), "Uploader recorded on the version")
	cmd.Flags().StringVar(&comment, "comment", "", "Version comment")
	cmd.Flags().StringVar(&class, "class", "", "Storage class override")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "Metadata entry key=value, repeatable")

	return cmd
}

func NewURLCommand() *cobra.Command {
	var expiry time.Duration

	cmd := &cobra.Command{
		Use:   "url <tenant> <file-id> [version-id]",
		Short: "Print a signed download URL",
		Long:  "Print a presigned URL for a version, or for the active version when none is given.",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				svc, err := a.Uploads()
				if err != nil {
					return err
				}
				var versionID string
				if len(args) == 3 {
					versionID = args[2]
				}
				u, err := svc.URL(ctx, args[0], args[1], versionID, storage.WithExpiry(expiry))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), u)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&expiry, "expiry", time.Hour, "URL lifetime")

	return cmd
}
