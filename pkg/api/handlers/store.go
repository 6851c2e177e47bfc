package handlers

import (
	"context"

	"github.com/marmos91/dittocat/pkg/catalog"
	"github.com/marmos91/dittocat/pkg/store"
)

// Store is the subset of *store.Store the handlers call.
type Store interface {
	Catalog(ctx context.Context) (*catalog.Catalog, error)
	CreateFolder(ctx context.Context, name string) ([]catalog.Folder, error)
	DeleteFolder(ctx context.Context, folderID string) ([]catalog.Folder, error)
	AddFiles(ctx context.Context, folderID string, uploads []store.Upload) (*store.AddFilesResult, error)
	DeleteFile(ctx context.Context, folderID, serverName string) ([]catalog.Folder, error)
	ValidateMembership(ctx context.Context, folderID string, serverNames []string) (*catalog.Folder, error)
}

var _ Store = (*store.Store)(nil)

// FoldersResponse is returned by every operation that mutates folders.
type FoldersResponse struct {
	Folders []catalog.Folder `json:"folders"`
}
