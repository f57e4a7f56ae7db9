package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/brendanbecker/ce101/pkg/domain/model"
	"github.com/brendanbecker/ce101/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// GCS stores reports as JSON objects in a Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS creates a GCS report store. Credentials come from opts or the
// application default credentials.
func NewGCS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("GCS bucket is required")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GCS client", goerr.V("bucket", bucket))
	}

	return &GCS{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// PutPRR uploads report and returns its gs:// URL
func (s *GCS) PutPRR(ctx context.Context, report *model.PRRReport) (string, error) {
	data, err := encode(report)
	if err != nil {
		return "", err
	}

	name := ObjectName(s.prefix, report)
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"
	w.Metadata = map[string]string{
		"namespace":  report.Namespace,
		"deployment": report.Deployment,
		"tier":       report.Tier.String(),
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write report object",
			goerr.V("bucket", s.bucket), goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to upload report object",
			goerr.V("bucket", s.bucket), goerr.V("object", name))
	}

	location := fmt.Sprintf("gs://%s/%s", s.bucket, name)
	logging.From(ctx).Info("PRR report uploaded", "location", location)
	return location, nil
}

// Close releases the underlying client
func (s *GCS) Close() error {
	return s.client.Close()
}
