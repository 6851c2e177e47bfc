package store

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/dittocat/pkg/catalog"
	"github.com/marmos91/dittocat/pkg/pathguard"
)

// ValidateMembership checks that every name is recorded in the folder and
// that its artifact is still on disk.
//
// The whole check runs under the lock so a concurrent delete cannot slip
// between the catalog lookup and the disk probe. Names not recorded in the
// folder are reported before names missing on disk.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - folderID: Folder the names must belong to
//   - serverNames: Server names to check. They are normalized and validated
//     before the catalog is read; reported names are the normalized form.
//
// Returns:
//   - *catalog.Folder: A copy of the folder when every name passes
//   - error: ErrFolderNotFound, ErrInvalidPath, or a *MembershipError
//     wrapping ErrNotInFolder or ErrMissingOnDisk
func (s *Store) ValidateMembership(ctx context.Context, folderID string, serverNames []string) (folder *catalog.Folder, err error) {
	defer func(start time.Time) { s.record("ValidateMembership", start, err) }(time.Now())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(serverNames))
	for _, raw := range serverNames {
		name, err := pathguard.ResolveRelativePath(raw)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cat, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	f := cat.FindFolder(folderID)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, folderID)
	}

	var notInFolder, missing []string
	for _, name := range names {
		if f.FindFile(name) < 0 {
			notInFolder = append(notInFolder, name)
			continue
		}

		ok, err := s.content.Exists(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, name)
		}
	}

	if len(notInFolder) > 0 {
		return nil, &MembershipError{Kind: ErrNotInFolder, Names: notInFolder}
	}
	if len(missing) > 0 {
		return nil, &MembershipError{Kind: ErrMissingOnDisk, Names: missing}
	}

	out := *f
	out.Files = append([]catalog.FileEntry(nil), f.Files...)
	return &out, nil
}
