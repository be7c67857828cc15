package backup

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honooru/iqdb/bucket"
)

// memStore is an in-memory Store used for tests, the same way the
// teacher fakes its S3 client rather than hitting real AWS.
type memStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Put(_ context.Context, key string, r io.Reader, _ int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

var _ Store = (*memStore)(nil)

// mockDDBClient is an in-memory DynamoDB mock, grounded on the teacher's
// ddb_commit_store_test.go mock in the same shape.
type mockDDBClient struct {
	mu    sync.Mutex
	items []map[string]types.AttributeValue
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{}
}

func (m *mockDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	baseKey := params.ExpressionAttributeValues[":bk"].(*types.AttributeValueMemberS).Value
	var out []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["base_key"].(*types.AttributeValueMemberS).Value == baseKey {
			out = append(out, item)
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func TestMemStorePutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	require.NoError(t, store.Put(ctx, "a/b.bin", strings.NewReader("hello"), 5))

	rc, err := store.Get(ctx, "a/b.bin")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestMemStoreGetMissingReturnsErrNotFound(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestManifestStoreRecordAndLatest(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	manifest := NewManifestStore(ddb, "iqdb-backups", "catalog")

	_, _, err := manifest.Latest(ctx)
	require.NoError(t, err)

	_, err = manifest.Record(ctx, "snapshot-1.zst", 100)
	require.NoError(t, err)
	second, err := manifest.Record(ctx, "snapshot-2.zst", 200)
	require.NoError(t, err)

	latest, ok, err := manifest.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.Key, latest.Key)
	assert.Equal(t, int64(200), latest.SizeBytes)
}

func TestManifestStoreIsolatedByBaseKey(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	catalogManifest := NewManifestStore(ddb, "iqdb-backups", "catalog")
	registryManifest := NewManifestStore(ddb, "iqdb-backups", "registry")

	_, err := catalogManifest.Record(ctx, "catalog.zst", 10)
	require.NoError(t, err)

	_, ok, err := registryManifest.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPushAndRestoreCatalogFile(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	manifest := NewManifestStore(newMockDDBClient(), "iqdb-backups", "catalog")

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "catalog.db")
	require.NoError(t, os.WriteFile(srcPath, []byte("pretend sqlite bytes"), 0o600))

	entry, err := PushCatalogFile(ctx, store, manifest, "snap-1/", srcPath)
	require.NoError(t, err)
	assert.Equal(t, "snap-1/"+CatalogKeySuffix, entry.Key)
	assert.Greater(t, entry.SizeBytes, int64(0))

	destPath := filepath.Join(dir, "restored.db")
	require.NoError(t, RestoreCatalogFile(ctx, store, "snap-1/", destPath))

	restored, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, "pretend sqlite bytes", string(restored))
}

func TestRestoreCatalogFileMissingSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	dir := t.TempDir()

	err := RestoreCatalogFile(ctx, store, "absent/", filepath.Join(dir, "out.db"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPushAllPushesCatalogAndRegistry(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	manifest := NewManifestStore(newMockDDBClient(), "iqdb-backups", "full")

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "catalog.db")
	require.NoError(t, os.WriteFile(srcPath, []byte("rows"), 0o600))

	registry := bucket.NewRegistry()
	registry.Intern("post-1")
	registry.Intern("post-2")

	catalogEntry, registryEntry, err := PushAll(ctx, store, manifest, "snap-2/", srcPath, registry)
	require.NoError(t, err)
	assert.Equal(t, "snap-2/"+CatalogKeySuffix, catalogEntry.Key)
	assert.Equal(t, "snap-2/"+RegistryKeySuffix, registryEntry.Key)

	restored := bucket.NewRegistry()
	require.NoError(t, RestoreRegistry(ctx, store, "snap-2/", restored))

	id, ok := restored.LookupID("post-1")
	require.True(t, ok)
	name, ok := restored.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "post-1", name)
	assert.Equal(t, 2, restored.Len())
}

func TestS3StoreKeyJoinsPrefix(t *testing.T) {
	s := &S3Store{bucket: "b", prefix: "iqdb/"}
	assert.Equal(t, "iqdb/snap/catalog.zst", s.key("snap/catalog.zst"))
}

func TestMinioStoreKeyJoinsPrefix(t *testing.T) {
	s := &MinioStore{bucket: "b", prefix: "iqdb/"}
	assert.Equal(t, "iqdb/snap/catalog.zst", s.key("snap/catalog.zst"))
}

func TestManifestStoreUsesConfiguredTable(t *testing.T) {
	ddb := newMockDDBClient()
	manifest := NewManifestStore(ddb, "my-table", "catalog")
	assert.Equal(t, "my-table", manifest.tableName)
}
