package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"drivemover/internal/logging"
	"drivemover/internal/remote"
	"drivemover/internal/retry"
)

// MissingSegmentError reports the first path segment that does not exist.
type MissingSegmentError struct {
	Path     string
	Segment  string
	ParentID remote.FolderID
}

func (e *MissingSegmentError) Error() string {
	return fmt.Sprintf("path %q: folder %q not found under %s", e.Path, e.Segment, e.ParentID)
}

// Resolver walks folder paths through a remote client.
type Resolver struct {
	client remote.Client
	exec   *retry.Executor
	logger *slog.Logger
}

// New constructs a resolver. Every listing goes through exec.
func New(client remote.Client, exec *retry.Executor, logger *slog.Logger) *Resolver {
	return &Resolver{
		client: client,
		exec:   exec,
		logger: logging.NewComponentLogger(logger, "resolver"),
	}
}

// Segments splits a path into its non-empty "/" separated parts.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Resolve returns the ID of the folder at path, starting from startID. An
// empty path or "/" yields the drive root. A missing segment yields a
// *MissingSegmentError; listing failures are returned as classified by the
// retry executor.
func (r *Resolver) Resolve(ctx context.Context, path string, startID remote.FolderID) (remote.FolderID, error) {
	segments := Segments(path)
	if len(segments) == 0 {
		return remote.RootID, nil
	}
	if startID == "" {
		startID = remote.RootID
	}
	logger := logging.WithContext(ctx, r.logger)

	current := startID
	for _, segment := range segments {
		parent := current
		folders, err := retry.Execute(ctx, r.exec, "list subfolders of "+string(parent), func(ctx context.Context) ([]remote.Folder, error) {
			return r.client.ListSubfolders(ctx, parent)
		})
		if err != nil {
			return "", fmt.Errorf("resolve %q at %q: %w", path, segment, err)
		}
		next, ok := findFolder(folders, segment)
		if !ok {
			logging.WarnWithContext(logger, "path segment not found", "path_segment_missing",
				logging.String("path", path),
				logging.String("segment", segment),
				logging.String("parent_id", string(parent)),
				logging.String(logging.FieldErrorHint, "create the folder on the drive or fix the mapping path"),
				logging.String(logging.FieldImpact, "path cannot be used"),
			)
			return "", &MissingSegmentError{Path: path, Segment: segment, ParentID: parent}
		}
		current = next
	}

	logger.Debug("path resolved",
		logging.String("path", path),
		logging.String("folder_id", string(current)),
	)
	return current, nil
}

func findFolder(folders []remote.Folder, name string) (remote.FolderID, bool) {
	for _, folder := range folders {
		if folder.Name == name {
			return folder.ID, true
		}
	}
	return "", false
}
