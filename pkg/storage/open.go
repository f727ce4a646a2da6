package storage

import (
	"context"
	"database/sql"
	"strconv"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"

	"github.com/vango-dev/folio/internal/errors"
)

// Options selects and configures a backend for Open.
type Options struct {
	// Driver is one of memory, sqlite, s3.
	Driver string

	// DSN is the SQLite database path (":memory:" for a private in-memory database).
	DSN string

	// Table is the key-value table name for the sqlite driver.
	Table string

	// Bucket, Prefix and Region configure the s3 driver.
	Bucket string
	Prefix string
	Region string
}

// Open creates the backend described by opts.
// The returned store owns any connection it opened.
func Open(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Driver {
	case "", "memory":
		return NewMemoryStorage(nil), nil

	case "sqlite":
		return openSQLite(ctx, opts)

	case "s3":
		if opts.Bucket == "" {
			return nil, errors.New("F105").WithDetail("the s3 driver requires a bucket")
		}
		var loadOpts []func(*awsconfig.LoadOptions) error
		if opts.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.New("F105").Wrap(err)
		}
		return NewS3Storage(s3.NewFromConfig(awsCfg), opts.Bucket, opts.Prefix), nil

	default:
		return nil, errors.New("F104").
			WithDetail("storage driver " + strconv.Quote(opts.Driver) + " is not supported")
	}
}

func openSQLite(ctx context.Context, opts Options) (Storage, error) {
	dsn := opts.DSN
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.New("F105").Wrap(err)
	}
	// SQLite serializes writers; a single connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	tableOpts := []SQLStorageOption{WithOwnedDB()}
	if opts.Table != "" {
		tableOpts = append(tableOpts, WithSQLTableName(opts.Table))
	}

	store := NewSQLStorage(db, tableOpts...)
	if err := store.CreateTable(ctx); err != nil {
		db.Close()
		return nil, errors.New("F105").WithDetail("creating the storage table failed").Wrap(err)
	}
	return store, nil
}
