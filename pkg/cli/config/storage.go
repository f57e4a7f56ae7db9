package config

import (
	"context"
	"log/slog"
	"strings"

	"github.com/brendanbecker/ce101/pkg/domain/interfaces"
	"github.com/brendanbecker/ce101/pkg/service/storage"
	"github.com/brendanbecker/ce101/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

// Storage holds PRR report storage configuration. The location is either a
// gs://bucket/prefix URL or a local directory.
type Storage struct {
	location    string
	credentials string
}

// Flags returns CLI flags for report storage
func (s *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "store",
			Usage:       "Store the PRR report under a gs://bucket/prefix URL or a local directory",
			Category:    "Storage",
			Sources:     cli.EnvVars("CE101_STORE"),
			Destination: &s.location,
		},
		&cli.StringFlag{
			Name:        "gcs-credentials",
			Usage:       "Service account key file for GCS. Application default credentials are used when empty",
			Category:    "Storage",
			Sources:     cli.EnvVars("CE101_GCS_CREDENTIALS"),
			Destination: &s.credentials,
		},
	}
}

// LogValue implements slog.LogValuer
func (s Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("location", s.location),
		slog.Bool("credentials", s.credentials != ""),
	)
}

// ParseGCSLocation splits gs://bucket/prefix into bucket and prefix
func ParseGCSLocation(location string) (string, string, error) {
	rest, ok := strings.CutPrefix(location, gcsScheme)
	if !ok {
		return "", "", goerr.Wrap(ErrInvalidConfig, "not a gs:// location", goerr.V(LocationKey, location))
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", goerr.Wrap(ErrInvalidConfig, "bucket is missing", goerr.V(LocationKey, location))
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// Configure returns the report store, or nil when no location is set. The
// returned function releases the store.
func (s *Storage) Configure(ctx context.Context) (interfaces.ReportStore, func(), error) {
	if s.location == "" {
		return nil, func() {}, nil
	}

	if !strings.HasPrefix(s.location, gcsScheme) {
		return storage.NewLocal(s.location), func() {}, nil
	}

	bucket, prefix, err := ParseGCSLocation(s.location)
	if err != nil {
		return nil, func() {}, err
	}

	var opts []option.ClientOption
	if s.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(s.credentials))
	}
	store, err := storage.NewGCS(ctx, bucket, prefix, opts...)
	if err != nil {
		return nil, func() {}, err
	}

	closer := func() {
		if err := store.Close(); err != nil {
			logging.From(ctx).Error("failed to close GCS client", "error", err)
		}
	}
	return store, closer, nil
}
