package catalogstore

import (
	"context"
	"fmt"
)

const (
	KindLocal    = "local"
	KindMinio    = "minio"
	KindPostgres = "postgres"
)

// Config selects and configures a Store backend.
type Config struct {
	// Kind is local, minio or postgres. Empty means local.
	Kind string

	// Root is the LocalStore directory.
	Root string

	// Bucket and Prefix place objects for local and minio stores.
	Bucket string
	Prefix string

	S3 S3Config

	// DatabaseURL and Driver configure the postgres store.
	DatabaseURL string
	Driver      string
}

// Open builds the configured store. Object stores get their bucket created.
func Open(ctx context.Context, cfg Config) (Store, error) {
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = "zuora-catalogs"
	}

	switch cfg.Kind {
	case "", KindLocal:
		local := NewLocalStore(cfg.Root)
		if err := local.EnsureBucket(ctx, bucket); err != nil {
			return nil, err
		}
		return NewObjectCatalogStore(local, "local", bucket, cfg.Prefix), nil
	case KindMinio, "s3":
		client, err := NewS3Client(cfg.S3)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx); err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(ctx, bucket); err != nil {
			return nil, err
		}
		return NewObjectCatalogStore(client, "s3", bucket, cfg.Prefix), nil
	case KindPostgres:
		return NewPostgresStore(ctx, cfg.Driver, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown catalog store kind %q", cfg.Kind)
	}
}
