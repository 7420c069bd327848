package transfer

import (
	"context"
	"io/ioutil"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yurykabanov/sitebackup/pkg/domain"
)

// region s3ClientMock
type s3ClientMock struct {
	mock.Mock
}

func (m *s3ClientMock) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := ioutil.ReadAll(params.Body)
	args := m.Called(aws.ToString(params.Key), string(body))

	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *s3ClientMock) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(aws.ToString(params.ContinuationToken))

	if out := args.Get(0); out != nil {
		return out.(*s3.ListObjectsV2Output), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *s3ClientMock) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(aws.ToString(params.Key))

	if out := args.Get(0); out != nil {
		return out.(*s3.DeleteObjectOutput), args.Error(1)
	}

	return nil, args.Error(1)
}

// endregion

// region s3PresignerMock
type s3PresignerMock struct {
	mock.Mock
}

func (m *s3PresignerMock) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	args := m.Called(aws.ToString(params.Key), opts.Expires)

	if out := args.Get(0); out != nil {
		return out.(*v4.PresignedHTTPRequest), args.Error(1)
	}

	return nil, args.Error(1)
}

// endregion

func configuredTarget() domain.StorageTarget {
	return domain.StorageTarget{
		Enabled:   true,
		AccessKey: "AKIA",
		SecretKey: "secret",
		Bucket:    "site-backups",
		Region:    "eu-central-1",
	}
}

func mockedRemote(fs afero.Fs) (*S3Remote, *s3ClientMock, *s3PresignerMock) {
	client := &s3ClientMock{}
	presign := &s3PresignerMock{}

	return &S3Remote{
		logger:  discardLogger(),
		fs:      fs,
		target:  configuredTarget(),
		client:  client,
		presign: presign,
	}, client, presign
}

func TestS3Remote_Unconfigured(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/backups/"+artifactName, []byte("zip"), 0640))

	target := configuredTarget()
	target.Bucket = ""

	remote, err := NewS3Remote(context.Background(), discardLogger(), fs, target)
	require.NoError(t, err)

	ctx := context.Background()

	assert.False(t, remote.Configured())
	assert.False(t, remote.Upload(ctx, "/backups/"+artifactName, artifactName))
	assert.Empty(t, remote.List(ctx))
	assert.False(t, remote.Delete(ctx, artifactName))

	url, ok := remote.SignedDownloadURL(ctx, artifactName, time.Minute)
	assert.False(t, ok)
	assert.Empty(t, url)

	exists, err := afero.Exists(fs, "/backups/"+artifactName)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestS3Remote_Configured(t *testing.T) {
	remote, err := NewS3Remote(context.Background(), discardLogger(), afero.NewMemMapFs(), configuredTarget())
	require.NoError(t, err)

	assert.True(t, remote.Configured())
}

func TestS3Remote_Upload(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/backups/"+artifactName, []byte("zip bytes"), 0640))

	remote, client, _ := mockedRemote(fs)
	client.On("PutObject", artifactName, "zip bytes").Return(&s3.PutObjectOutput{}, nil).Once()

	assert.True(t, remote.Upload(context.Background(), "/backups/"+artifactName, artifactName))
	client.AssertExpectations(t)
}

func TestS3Remote_Upload_Failure(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/backups/"+artifactName, []byte("zip bytes"), 0640))

	remote, client, _ := mockedRemote(fs)
	client.On("PutObject", artifactName, mock.Anything).Return(nil, errors.New("AccessDenied")).Once()

	assert.False(t, remote.Upload(context.Background(), "/backups/"+artifactName, artifactName))

	// missing local file never reaches the network
	assert.False(t, remote.Upload(context.Background(), "/backups/missing.zip", "missing.zip"))
	client.AssertNumberOfCalls(t, "PutObject", 1)
}

func TestS3Remote_List(t *testing.T) {
	remote, client, _ := mockedRemote(afero.NewMemMapFs())

	modified := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)

	client.On("ListObjectsV2", "").Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("backup-1.zip"), Size: aws.Int64(10), LastModified: aws.Time(modified)},
			{Key: aws.String("other/backup-2.zip"), Size: aws.Int64(20), LastModified: aws.Time(modified)},
			{Key: aws.String("readme.txt"), Size: aws.Int64(1), LastModified: aws.Time(modified)},
		},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("page-2"),
	}, nil).Once()
	client.On("ListObjectsV2", "page-2").Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("backup-3.zip"), Size: aws.Int64(30), LastModified: aws.Time(modified)},
		},
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	artifacts := remote.List(context.Background())

	require.Len(t, artifacts, 2)
	assert.Equal(t, domain.Artifact{Name: "backup-1.zip", Size: 10, CreatedAt: modified, Location: domain.LocationRemote}, artifacts[0])
	assert.Equal(t, "backup-3.zip", artifacts[1].Name)
	client.AssertExpectations(t)
}

func TestS3Remote_List_FailureIsEmpty(t *testing.T) {
	remote, client, _ := mockedRemote(afero.NewMemMapFs())
	client.On("ListObjectsV2", "").Return(nil, errors.New("NoSuchBucket")).Once()

	assert.Empty(t, remote.List(context.Background()))
}

func TestS3Remote_Delete(t *testing.T) {
	remote, client, _ := mockedRemote(afero.NewMemMapFs())
	client.On("DeleteObject", "backup-1.zip").Return(&s3.DeleteObjectOutput{}, nil).Once()
	client.On("DeleteObject", "backup-2.zip").Return(nil, errors.New("timeout")).Once()

	assert.True(t, remote.Delete(context.Background(), "backup-1.zip"))
	assert.False(t, remote.Delete(context.Background(), "backup-2.zip"))
}

func TestS3Remote_SignedDownloadURL(t *testing.T) {
	remote, _, presign := mockedRemote(afero.NewMemMapFs())
	presign.On("PresignGetObject", "backup-1.zip", DefaultPresignTTL).Return(&v4.PresignedHTTPRequest{
		URL:    "https://site-backups.s3.amazonaws.com/backup-1.zip?X-Amz-Signature=abc",
		Method: http.MethodGet,
	}, nil).Once()

	url, ok := remote.SignedDownloadURL(context.Background(), "backup-1.zip", 0)
	assert.True(t, ok)
	assert.Contains(t, url, "X-Amz-Signature")
	presign.AssertExpectations(t)
}
