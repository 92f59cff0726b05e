// Package catalogstore persists discovered catalogs as run artifacts.
//
// Two backends share the Store contract:
//
//	ObjectCatalogStore - JSON objects in a bucket (LocalStore on disk, S3Client on MinIO/S3)
//	PostgresStore      - rows in the catalog_snapshots table
//
// Every saved catalog is addressed by a URI returned from Save.
package catalogstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/nucleus/ucl-zuora/internal/core"
)

// Store saves and loads catalog artifacts.
type Store interface {
	// Save writes the catalog under runID and returns its URI.
	Save(ctx context.Context, runID string, catalog *core.Catalog) (string, error)

	// Load reads the catalog stored at uri.
	Load(ctx context.Context, uri string) (*core.Catalog, error)

	// List returns the URIs of stored catalogs.
	List(ctx context.Context) ([]string, error)

	Close() error
}

const catalogObject = "catalog.json"

// ObjectCatalogStore keeps one JSON object per run: <prefix>/<runID>/catalog.json.
type ObjectCatalogStore struct {
	objects ObjectStore
	scheme  string
	bucket  string
	prefix  string
}

// NewObjectCatalogStore wraps an object store. scheme names the URI scheme
// of returned locations ("s3", "local").
func NewObjectCatalogStore(objects ObjectStore, scheme, bucket, prefix string) *ObjectCatalogStore {
	return &ObjectCatalogStore{
		objects: objects,
		scheme:  scheme,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
	}
}

func (s *ObjectCatalogStore) Save(ctx context.Context, runID string, catalog *core.Catalog) (string, error) {
	if err := validateRunID(runID); err != nil {
		return "", err
	}
	if catalog == nil {
		return "", wrapError(CodeInvalidCatalog, false, errors.New("catalog is required"))
	}
	data, err := catalog.Marshal()
	if err != nil {
		return "", wrapError(CodeInvalidCatalog, false, err)
	}

	key := joinPath(s.prefix, runID, catalogObject)
	if err := s.objects.PutObject(ctx, s.bucket, key, data); err != nil {
		return "", err
	}
	return s.uri(key), nil
}

func (s *ObjectCatalogStore) Load(ctx context.Context, uri string) (*core.Catalog, error) {
	key, err := s.keyFromURI(uri)
	if err != nil {
		return nil, err
	}
	data, err := s.objects.GetObject(ctx, s.bucket, key)
	if err != nil {
		return nil, err
	}
	catalog, err := core.UnmarshalCatalog(data)
	if err != nil {
		return nil, wrapError(CodeInvalidCatalog, false, err)
	}
	return catalog, nil
}

func (s *ObjectCatalogStore) List(ctx context.Context) ([]string, error) {
	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}
	keys, err := s.objects.ListPrefix(ctx, s.bucket, prefix)
	if err != nil {
		return nil, err
	}
	uris := make([]string, 0, len(keys))
	for _, key := range keys {
		if path.Base(key) == catalogObject {
			uris = append(uris, s.uri(key))
		}
	}
	return uris, nil
}

func (s *ObjectCatalogStore) Close() error { return nil }

func (s *ObjectCatalogStore) uri(key string) string {
	return fmt.Sprintf("%s://%s/%s", s.scheme, s.bucket, key)
}

func (s *ObjectCatalogStore) keyFromURI(uri string) (string, error) {
	want := s.scheme + "://" + s.bucket + "/"
	if !strings.HasPrefix(uri, want) {
		return "", wrapError(CodeInvalidURI, false, fmt.Errorf("%q is not under %s", uri, want))
	}
	key := strings.TrimPrefix(uri, want)
	if key == "" || strings.Contains(key, "..") {
		return "", wrapError(CodeInvalidURI, false, fmt.Errorf("invalid object key in %q", uri))
	}
	return key, nil
}

func validateRunID(runID string) error {
	if runID == "" || strings.ContainsAny(runID, `/\`) || strings.Contains(runID, "..") {
		return wrapError(CodeInvalidURI, false, fmt.Errorf("invalid run id %q", runID))
	}
	return nil
}
