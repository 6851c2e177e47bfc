package store

import (
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/marmos91/dittocat/pkg/catalog"
	"github.com/marmos91/dittocat/pkg/pathguard"
)

const (
	folderIDHexLen = 10
	diskIDHexLen   = 8

	// companionSuffix is appended to "<stem>_<id>" for the normalized artifact.
	companionSuffix = "_normalised.json"
)

// randomHex returns n lowercase hex characters from a random UUID.
func randomHex(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

// newFolderID returns an id not already used in cat.
func newFolderID(cat *catalog.Catalog) string {
	for {
		id := catalog.FolderIDPrefix + randomHex(folderIDHexLen)
		if cat.FindFolder(id) == nil {
			return id
		}
	}
}

// artifactPaths returns the relative paths for a new upload of originalName
// into folderID:
//
//	<folder id>/<stem>_<id><ext>
//	<folder id>/<stem>_<id>_normalised.json
//
// The random id keeps repeated uploads of the same stem from colliding.
func artifactPaths(folderID, originalName string) (serverName, normalizedName string) {
	stem, ext := pathguard.SplitName(pathguard.SafeDiskName(originalName))
	base := stem + "_" + randomHex(diskIDHexLen)
	return path.Join(folderID, base+ext), path.Join(folderID, base+companionSuffix)
}
