package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pi-tools/report-forge/pkg/services/config"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestS3Archive_Store(t *testing.T) {
	pdf := filepath.Join(t.TempDir(), "final_report.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4 data"), 0o644))

	m := &mockS3{}
	m.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		if *in.Bucket != "report-archive" || *in.Key != "reports/run-123.pdf" {
			return false
		}
		body, err := io.ReadAll(in.Body)
		return err == nil && string(body) == "%PDF-1.4 data"
	})).Return(&s3.PutObjectOutput{}, nil)

	a := &S3Archive{client: m, bucket: "report-archive"}
	require.NoError(t, a.Store(context.Background(), "run-123", pdf))
	m.AssertExpectations(t)
}

func TestS3Archive_StoreMissingArtifact(t *testing.T) {
	a := &S3Archive{client: &mockS3{}, bucket: "report-archive"}
	err := a.Store(context.Background(), "run-1", filepath.Join(t.TempDir(), "absent.pdf"))
	assert.ErrorContains(t, err, "failed to open artifact")
}

func TestNewS3Archive_NoBucketIsNoop(t *testing.T) {
	a, err := NewS3Archive(context.Background(), config.ArchiveConfig{})
	require.NoError(t, err)
	assert.False(t, a.Enabled())
	assert.NoError(t, a.Store(context.Background(), "run-1", "nowhere.pdf"))
}
