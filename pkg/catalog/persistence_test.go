package catalog_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/marmos91/dittocat/pkg/catalog"
	"github.com/marmos91/dittocat/pkg/catalog/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyBackend wraps a MemoryBackend and fails the first N reads or writes.
type flakyBackend struct {
	*memory.MemoryBackend

	mu         sync.Mutex
	readFails  int
	writeFails int
	reads      int
	writes     int
}

var errDiskHiccup = errors.New("input/output error")

func (b *flakyBackend) ReadDocument(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	b.reads++
	fail := b.readFails > 0
	if fail {
		b.readFails--
	}
	b.mu.Unlock()

	if fail {
		return nil, errDiskHiccup
	}
	return b.MemoryBackend.ReadDocument(ctx)
}

func (b *flakyBackend) WriteDocument(ctx context.Context, data []byte) error {
	b.mu.Lock()
	b.writes++
	fail := b.writeFails > 0
	if fail {
		b.writeFails--
	}
	b.mu.Unlock()

	if fail {
		return errDiskHiccup
	}
	return b.MemoryBackend.WriteDocument(ctx, data)
}

func newPersistence(backend catalog.Backend) *catalog.Persistence {
	return catalog.NewPersistence(backend, catalog.Options{RetryAttempts: 3})
}

func TestLoad_InitializesWhenAbsent(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewMemoryBackend()
	p := newPersistence(backend)

	res, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.RepairInitialized, res.Repair)
	require.Len(t, res.Catalog.Folders, 1)
	assert.Equal(t, catalog.RootFolderID, res.Catalog.Folders[0].ID)
	assert.Equal(t, catalog.RootFolderName, res.Catalog.Folders[0].Name)

	stored, err := backend.ReadDocument(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(stored), `"files": []`)

	res, err = p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.RepairNone, res.Repair)
}

func TestSaveLoad_RoundTripIsByteStable(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewMemoryBackend()
	p := newPersistence(backend)

	cat := catalog.New()
	cat.Folders = append(cat.Folders, catalog.Folder{
		ID:   "fld_0123456789",
		Name: "Invoices & Receipts",
		Files: []catalog.FileEntry{{
			OriginalName:         "report.pdf",
			ServerName:           "fld_0123456789/report_ab12cd34.pdf",
			Size:                 42,
			NormalizedServerName: "fld_0123456789/report_ab12cd34_normalised.json",
		}},
	})
	require.NoError(t, p.Save(ctx, cat))
	first, err := backend.ReadDocument(ctx)
	require.NoError(t, err)

	res, err := p.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, catalog.RepairNone, res.Repair)
	require.NoError(t, p.Save(ctx, res.Catalog))

	second, err := backend.ReadDocument(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.Contains(t, string(first), "Invoices & Receipts", "HTML characters must not be escaped")
}

func TestLoad_ResetsCorruptDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", "{this is not json"},
		{"truncated", `{"folders": [{"id": "root", "name": "Root", "fi`},
		{"json null", "null"},
		{"missing folders", `{}`},
		{"folders not a list", `{"folders": {"id": "root"}}`},
		{"folder without id", `{"folders": [{"name": "Orphan", "files": []}]}`},
		{"file without server name", `{"folders": [{"id": "root", "name": "Root", "files": [{"original_name": "a.txt"}]}]}`},
		{"negative size", `{"folders": [{"id": "root", "name": "Root", "files": [{"server_name": "root/a.txt", "size": -1}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			backend := memory.NewMemoryBackend()
			require.NoError(t, backend.WriteDocument(ctx, []byte(tt.doc)))
			p := newPersistence(backend)

			res, err := p.Load(ctx)
			require.NoError(t, err, "corruption must not surface as an error")
			assert.Equal(t, catalog.RepairedFromCorruption, res.Repair)
			assert.NotEmpty(t, res.Reason)
			require.Len(t, res.Catalog.Folders, 1)
			assert.Equal(t, catalog.RootFolderID, res.Catalog.Folders[0].ID)

			stored, err := backend.ReadDocument(ctx)
			require.NoError(t, err)
			expected, err := catalog.Encode(catalog.New())
			require.NoError(t, err)
			assert.Equal(t, string(expected), string(stored), "fresh catalog must be persisted")
		})
	}
}

func TestLoad_RestoresMissingRoot(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewMemoryBackend()
	doc := `{"folders": [{"id": "fld_aaaaaaaaaa", "name": "Docs"}]}`
	require.NoError(t, backend.WriteDocument(ctx, []byte(doc)))

	res, err := newPersistence(backend).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.RepairedMissingRoot, res.Repair)
	require.Len(t, res.Catalog.Folders, 2)
	assert.Equal(t, catalog.RootFolderID, res.Catalog.Folders[0].ID)
	assert.Equal(t, "fld_aaaaaaaaaa", res.Catalog.Folders[1].ID)
	assert.NotNil(t, res.Catalog.Folders[1].Files, "missing files list becomes empty")

	stored, err := backend.ReadDocument(ctx)
	require.NoError(t, err)
	assert.True(t, strings.Index(string(stored), `"root"`) < strings.Index(string(stored), "fld_aaaaaaaaaa"))
}

func TestLoad_EmptyFolderListGetsRoot(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewMemoryBackend()
	require.NoError(t, backend.WriteDocument(ctx, []byte(`{"folders": []}`)))

	res, err := newPersistence(backend).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.RepairedMissingRoot, res.Repair)
	require.Len(t, res.Catalog.Folders, 1)
}

func TestLoad_TransientReadErrorIsRetried(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryBackend: memory.NewMemoryBackend()}
	p := newPersistence(backend)

	cat := catalog.New()
	cat.Folders = append(cat.Folders, catalog.Folder{ID: "fld_bbbbbbbbbb", Name: "Keep me"})
	require.NoError(t, p.Save(ctx, cat))

	backend.readFails = 2
	res, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.RepairNone, res.Repair)
	assert.NotNil(t, res.Catalog.FindFolder("fld_bbbbbbbbbb"))
	assert.Equal(t, 3, backend.reads)
}

func TestLoad_PersistentReadErrorNeverResets(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryBackend: memory.NewMemoryBackend()}
	p := newPersistence(backend)

	cat := catalog.New()
	cat.Folders = append(cat.Folders, catalog.Folder{ID: "fld_cccccccccc", Name: "Precious"})
	require.NoError(t, p.Save(ctx, cat))
	writesBefore := backend.writes

	backend.readFails = 100
	_, err := p.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskHiccup)
	assert.Equal(t, writesBefore, backend.writes, "an I/O error must not overwrite the catalog")
	assert.Equal(t, 3, backend.reads)

	backend.readFails = 0
	res, err := p.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, res.Catalog.FindFolder("fld_cccccccccc"))
}

func TestSave_RetriesWrite(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryBackend: memory.NewMemoryBackend(), writeFails: 2}
	p := newPersistence(backend)

	require.NoError(t, p.Save(ctx, catalog.New()))
	assert.Equal(t, 3, backend.writes)

	backend.writeFails = 5
	err := p.Save(ctx, catalog.New())
	assert.ErrorIs(t, err, errDiskHiccup)
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPersistence(memory.NewMemoryBackend()).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRepairKind_String(t *testing.T) {
	assert.Equal(t, "none", catalog.RepairNone.String())
	assert.Equal(t, "initialized", catalog.RepairInitialized.String())
	assert.Equal(t, "corruption", catalog.RepairedFromCorruption.String())
	assert.Equal(t, "missing_root", catalog.RepairedMissingRoot.String())
}
