// Package archive keeps a copy of finished reports in S3. Archival is a
// side channel: failures are logged and never fail the run.
package archive

import (
	"context"
	"fmt"
	"os"
	"path"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/pi-tools/report-forge/pkg/services/config"
)

const keyPrefix = "reports"

type Archiver interface {
	Enabled() bool
	// Store uploads the artifact under reports/<runID>.pdf.
	Store(ctx context.Context, runID, pdfPath string) error
}

// Noop is used when no bucket is configured.
type Noop struct{}

func (Noop) Enabled() bool { return false }

func (Noop) Store(context.Context, string, string) error { return nil }

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archive struct {
	client s3API
	bucket string
}

// NewS3Archive resolves AWS credentials from the environment. A missing
// bucket yields the Noop archiver rather than an error.
func NewS3Archive(ctx context.Context, cfg config.ArchiveConfig) (Archiver, error) {
	if cfg.Bucket == "" {
		return Noop{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithDefaultRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	return &S3Archive{client: s3.NewFromConfig(awsCfg), bucket: cfg.Bucket}, nil
}

func (a *S3Archive) Enabled() bool { return true }

func (a *S3Archive) Store(ctx context.Context, runID, pdfPath string) error {
	f, err := os.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	key := path.Join(keyPrefix, runID+".pdf")
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      awssdk.String(a.bucket),
		Key:         awssdk.String(key),
		Body:        f,
		ContentType: awssdk.String("application/pdf"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	zerolog.Ctx(ctx).Info().Str("bucket", a.bucket).Str("key", key).Msg("archived report")
	return nil
}
