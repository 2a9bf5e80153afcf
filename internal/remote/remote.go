package remote

import (
	"context"
	"strings"

	"drivemover/internal/services"
)

// FolderID is an opaque handle addressing a directory on the drive.
type FolderID string

// RootID addresses the drive root.
const RootID FolderID = "0"

// Folder is an immediate subfolder returned by ListSubfolders.
type Folder struct {
	ID       FolderID
	Name     string
	ParentID FolderID
}

// File is a file entry returned by ListFiles. Path is relative to the listed
// folder and uses "/" separators.
type File struct {
	ID       string
	Name     string
	Size     int64
	Path     string
	ParentID FolderID
}

// MoveResult reports the drive's verdict on a move request. A request that
// reached the drive but was refused is a result, not an error.
type MoveResult struct {
	Success      bool
	ErrorMessage string
	ErrorCode    int
}

// IsAuthFailure reports whether a refused move points at an expired session.
func (r MoveResult) IsAuthFailure() bool {
	if r.Success {
		return false
	}
	if r.ErrorCode == services.AuthErrorCode {
		return true
	}
	return services.LooksLikeAuth(r.ErrorMessage)
}

// Identity is the account information returned by AccountIdentity.
type Identity struct {
	Success  bool
	UserID   string
	UserName string
}

// Client is the set of drive operations the agent depends on.
type Client interface {
	ListSubfolders(ctx context.Context, folderID FolderID) ([]Folder, error)
	ListFiles(ctx context.Context, folderID FolderID, recursive bool) ([]File, error)
	MoveItems(ctx context.Context, ids []string, target FolderID) (MoveResult, error)
	AccountIdentity(ctx context.Context) (Identity, error)
}

// JoinPath appends name to a "/" separated relative path.
func JoinPath(parent, name string) string {
	parent = strings.TrimSuffix(parent, "/")
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
