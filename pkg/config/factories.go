package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/stashfs/internal/logger"
	"github.com/marmos91/stashfs/pkg/queue"
	queueBadger "github.com/marmos91/stashfs/pkg/queue/badger"
	queueMemory "github.com/marmos91/stashfs/pkg/queue/memory"
	"github.com/marmos91/stashfs/pkg/store/content"
	contentFs "github.com/marmos91/stashfs/pkg/store/content/fs"
	contentMemory "github.com/marmos91/stashfs/pkg/store/content/memory"
	contentS3 "github.com/marmos91/stashfs/pkg/store/content/s3"
	"github.com/marmos91/stashfs/pkg/store/metadata"
	metaBadger "github.com/marmos91/stashfs/pkg/store/metadata/badger"
	metaMemory "github.com/marmos91/stashfs/pkg/store/metadata/memory"
	"github.com/marmos91/stashfs/pkg/store/tokens"
	tokenBadger "github.com/marmos91/stashfs/pkg/store/tokens/badger"
	tokenMemory "github.com/marmos91/stashfs/pkg/store/tokens/memory"
)

// badgerOptions is the shared shape of every badger-backed component section.
type badgerOptions struct {
	DBPath string `mapstructure:"db_path"`
}

// Stores bundles the four storage components of a stashfs process.
//
// Badger-backed components configured with the same db_path share a single
// *badger.DB: their key namespaces are disjoint, and co-locating the job
// queue with the metadata it references keeps the thumbnail outbox in the
// same durable store as the uploads that feed it.
type Stores struct {
	Metadata metadata.Store
	Content  content.Store
	Tokens   tokens.Cache
	Queue    queue.Queue

	// dbs holds the shared badger handles, one per distinct path. They are
	// closed by Close after every component that uses them.
	dbs map[string]*badgerdb.DB
}

// CreateStores materializes every storage component from configuration.
//
// On error, any component already created is closed before returning.
func CreateStores(ctx context.Context, cfg *Config) (*Stores, error) {
	s := &Stores{dbs: make(map[string]*badgerdb.DB)}

	var err error
	if s.Metadata, err = s.createMetadataStore(ctx, &cfg.Metadata); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to create metadata store: %w", err)
	}
	if s.Content, err = createContentStore(ctx, &cfg.Content); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to create content store: %w", err)
	}
	if s.Tokens, err = s.createTokenCache(ctx, &cfg.Tokens); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to create token cache: %w", err)
	}
	if s.Queue, err = s.createQueue(ctx, &cfg.Queue); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to create job queue: %w", err)
	}

	return s, nil
}

// Close shuts the components down, then the shared databases.
func (s *Stores) Close() error {
	var firstErr error

	if s.Queue != nil {
		if err := s.Queue.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.Tokens != nil {
		if err := s.Tokens.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.Metadata != nil {
		if err := s.Metadata.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.Content != nil {
		if err := s.Content.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for path, db := range s.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close badger database at %s: %w", path, err)
		}
	}

	return firstErr
}

// sharedDB returns the badger database at path, opening it on first use.
func (s *Stores) sharedDB(path string) (*badgerdb.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("db_path is required")
	}

	if db, ok := s.dbs[path]; ok {
		return db, nil
	}

	db, err := metaBadger.Open(path)
	if err != nil {
		return nil, err
	}
	s.dbs[path] = db

	logger.Info("Opened badger database: path=%s", path)
	return db, nil
}

// createMetadataStore creates a metadata store based on configuration.
//
// Supported types:
//   - "memory": ephemeral in-memory storage
//   - "badger": persistent BadgerDB storage
func (s *Stores) createMetadataStore(ctx context.Context, cfg *MetadataConfig) (metadata.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "memory":
		return metaMemory.NewMemoryStore(), nil
	case "badger":
		var opts badgerOptions
		if err := mapstructure.Decode(cfg.Badger, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode badger metadata store options: %w", err)
		}
		db, err := s.sharedDB(opts.DBPath)
		if err != nil {
			return nil, err
		}
		return metaBadger.NewBadgerStore(db), nil
	default:
		return nil, fmt.Errorf("unknown metadata store type: %q (supported: memory, badger)", cfg.Type)
	}
}

// createTokenCache creates a session token cache based on configuration.
func (s *Stores) createTokenCache(ctx context.Context, cfg *TokensConfig) (tokens.Cache, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "memory":
		return tokenMemory.NewMemoryCache(), nil
	case "badger":
		var opts badgerOptions
		if err := mapstructure.Decode(cfg.Badger, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode badger token cache options: %w", err)
		}
		db, err := s.sharedDB(opts.DBPath)
		if err != nil {
			return nil, err
		}
		return tokenBadger.NewBadgerCache(db), nil
	default:
		return nil, fmt.Errorf("unknown token cache type: %q (supported: memory, badger)", cfg.Type)
	}
}

// createQueue creates a job queue based on configuration.
func (s *Stores) createQueue(ctx context.Context, cfg *QueueConfig) (queue.Queue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "memory":
		return queueMemory.NewMemoryQueue(), nil
	case "badger":
		var opts badgerOptions
		if err := mapstructure.Decode(cfg.Badger, &opts); err != nil {
			return nil, fmt.Errorf("failed to decode badger queue options: %w", err)
		}
		db, err := s.sharedDB(opts.DBPath)
		if err != nil {
			return nil, err
		}
		return queueBadger.NewBadgerQueue(db), nil
	default:
		return nil, fmt.Errorf("unknown queue type: %q (supported: memory, badger)", cfg.Type)
	}
}

// createContentStore creates a content store based on configuration.
//
// Supported types:
//   - "filesystem": local filesystem storage (pkg/store/content/fs)
//   - "memory": ephemeral in-memory storage
//   - "s3": Amazon S3 or compatible storage (pkg/store/content/s3)
func createContentStore(ctx context.Context, cfg *ContentConfig) (content.Store, error) {
	switch cfg.Type {
	case "filesystem":
		return createFilesystemContentStore(ctx, cfg.Filesystem)
	case "memory":
		return contentMemory.NewMemoryStore(), nil
	case "s3":
		return createS3ContentStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown content store type: %q (supported: filesystem, memory, s3)", cfg.Type)
	}
}

// createFilesystemContentStore creates a filesystem-based content store.
func createFilesystemContentStore(ctx context.Context, options map[string]any) (content.Store, error) {
	type filesystemStoreConfig struct {
		Path string `mapstructure:"path"`
	}

	var storeCfg filesystemStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem content store config: %w", err)
	}

	if storeCfg.Path == "" {
		return nil, fmt.Errorf("filesystem content store: path is required")
	}

	store, err := contentFs.NewFSStore(ctx, storeCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem content store: %w", err)
	}

	return store, nil
}

// createS3ContentStore creates an S3-based content store.
func createS3ContentStore(ctx context.Context, options map[string]any) (content.Store, error) {
	type s3StoreConfig struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var storeCfg s3StoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 content store config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 content store: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 content store: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	configOptions = append(configOptions, awsConfig.WithRegion(storeCfg.Region))

	// Custom endpoint for MinIO, Localstack and friends.
	if storeCfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               storeCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Static credentials if provided, otherwise the default credential chain.
	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeCfg.AccessKeyID,
			storeCfg.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := storeCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Path-style addressing for MinIO/Localstack compatibility.
		if storeCfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	store, err := contentS3.NewS3Store(ctx, contentS3.Config{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 content store: %w", err)
	}

	logger.Info("S3 content store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}
