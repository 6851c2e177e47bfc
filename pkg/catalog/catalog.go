// Package catalog defines the folder/file catalog document and its
// persistence.
//
// The catalog is one JSON document holding every folder and every file
// entry. It is always loaded and saved as a whole: there is no partial
// update, and every save is an atomic replace performed by a Backend.
package catalog

import "strings"

const (
	// RootFolderID is the identifier of the folder that always exists.
	RootFolderID = "root"

	// RootFolderName is the display name given to the root folder.
	RootFolderName = "Root"

	// FolderIDPrefix prefixes every generated folder identifier.
	FolderIDPrefix = "fld_"
)

// FileEntry links an uploaded file to its on-disk artifacts.
type FileEntry struct {
	// OriginalName is the name supplied at upload time. It is the
	// de-duplication key within a folder.
	OriginalName string `json:"original_name"`

	// ServerName is "<folder id>/<disk name>", unique across the catalog.
	ServerName string `json:"server_name" validate:"required"`

	// Size is the number of bytes written.
	Size int64 `json:"size" validate:"gte=0"`

	// NormalizedServerName is the relative path of the companion artifact.
	NormalizedServerName string `json:"normalized_server_name"`
}

// Folder is a named group of file entries.
type Folder struct {
	ID    string      `json:"id" validate:"required"`
	Name  string      `json:"name"`
	Files []FileEntry `json:"files" validate:"dive"`
}

// Catalog is the root document.
type Catalog struct {
	// Folders is in display order. A document without this list is malformed.
	Folders []Folder `json:"folders" validate:"required,dive"`
}

// New returns a fresh catalog containing only the root folder.
func New() *Catalog {
	return &Catalog{Folders: []Folder{rootFolder()}}
}

func rootFolder() Folder {
	return Folder{ID: RootFolderID, Name: RootFolderName, Files: []FileEntry{}}
}

// FindFolder returns the folder with the given id, or nil.
//
// The returned pointer aliases the catalog's slice element, so mutations
// through it are visible in the catalog.
func (c *Catalog) FindFolder(id string) *Folder {
	for i := range c.Folders {
		if c.Folders[i].ID == id {
			return &c.Folders[i]
		}
	}
	return nil
}

// HasFolderName reports whether any folder's name equals name, ignoring case.
func (c *Catalog) HasFolderName(name string) bool {
	lower := strings.ToLower(name)
	for _, f := range c.Folders {
		if strings.ToLower(f.Name) == lower {
			return true
		}
	}
	return false
}

// RemoveFolder deletes the folder with the given id and returns it.
func (c *Catalog) RemoveFolder(id string) (Folder, bool) {
	for i, f := range c.Folders {
		if f.ID == id {
			c.Folders = append(c.Folders[:i], c.Folders[i+1:]...)
			return f, true
		}
	}
	return Folder{}, false
}

// FileCount returns the number of file entries across all folders.
func (c *Catalog) FileCount() int {
	n := 0
	for _, f := range c.Folders {
		n += len(f.Files)
	}
	return n
}

// ensureRoot inserts the root folder at the front when it is missing.
func (c *Catalog) ensureRoot() bool {
	if c.FindFolder(RootFolderID) != nil {
		return false
	}
	c.Folders = append([]Folder{rootFolder()}, c.Folders...)
	return true
}

// normalize replaces nil file lists with empty ones so the document always
// serializes "files": [] rather than null.
func (c *Catalog) normalize() {
	for i := range c.Folders {
		if c.Folders[i].Files == nil {
			c.Folders[i].Files = []FileEntry{}
		}
	}
}

// FindFile returns the index of the entry with the given server name, or -1.
func (f *Folder) FindFile(serverName string) int {
	for i, fe := range f.Files {
		if fe.ServerName == serverName {
			return i
		}
	}
	return -1
}

// FindByOriginalName returns the index of the entry uploaded as name, or -1.
func (f *Folder) FindByOriginalName(name string) int {
	for i, fe := range f.Files {
		if fe.OriginalName == name {
			return i
		}
	}
	return -1
}

// RemoveFileAt deletes the entry at index i and returns it.
func (f *Folder) RemoveFileAt(i int) FileEntry {
	fe := f.Files[i]
	f.Files = append(f.Files[:i], f.Files[i+1:]...)
	return fe
}
