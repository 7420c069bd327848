package transfer

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/yurykabanov/sitebackup/pkg/appcontext"
	"github.com/yurykabanov/sitebackup/pkg/domain"
	"github.com/yurykabanov/sitebackup/pkg/metrics"
)

const DefaultPresignTTL = 20 * time.Minute

type s3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Remote keeps artifacts in an S3 compatible bucket, one object per
// artifact keyed by its name. When the target is not fully configured every
// method is a no-op. Failures are logged and reported as false or empty,
// nothing is retried.
type S3Remote struct {
	logger logrus.FieldLogger
	fs     afero.Fs

	target  domain.StorageTarget
	client  s3Client
	presign s3Presigner
}

func NewS3Remote(ctx context.Context, logger logrus.FieldLogger, fs afero.Fs, target domain.StorageTarget) (*S3Remote, error) {
	remote := &S3Remote{
		logger: logger,
		fs:     fs,
		target: target,
	}

	if !target.Configured() {
		logger.Debug("Remote storage is not configured, remote operations are disabled")
		return remote, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(target.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(target.AccessKey, target.SecretKey, "")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to load AWS config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if target.Endpoint != "" {
			o.BaseEndpoint = aws.String(target.Endpoint)
			o.UsePathStyle = true
		}
	})

	remote.client = client
	remote.presign = s3.NewPresignClient(client)

	return remote, nil
}

func (r *S3Remote) Configured() bool {
	return r.target.Configured() && r.client != nil
}

func (r *S3Remote) Upload(ctx context.Context, localPath, name string) bool {
	if !r.Configured() {
		return false
	}

	logger := appcontext.LoggerFromContext(r.logger, ctx).WithField("key", name)

	f, err := r.fs.Open(localPath)
	if err != nil {
		logger.WithError(err).Error("Unable to open artifact for upload")
		metrics.Uploads.WithLabelValues("failure").Inc()
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logger.WithError(err).Error("Unable to stat artifact for upload")
		metrics.Uploads.WithLabelValues("failure").Inc()
		return false
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.target.Bucket),
		Key:           aws.String(name),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/zip"),
	})
	if err != nil {
		logger.WithError(err).Error("Unable to upload artifact")
		metrics.Uploads.WithLabelValues("failure").Inc()
		return false
	}

	logger.WithField("size", info.Size()).Info("Artifact uploaded")
	metrics.Uploads.WithLabelValues("success").Inc()

	return true
}

// List returns the artifacts in the bucket. Objects whose key is not a plain
// artifact name are ignored. A listing failure yields an empty result.
func (r *S3Remote) List(ctx context.Context) []domain.Artifact {
	if !r.Configured() {
		return nil
	}

	logger := appcontext.LoggerFromContext(r.logger, ctx)

	var artifacts []domain.Artifact

	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.target.Bucket),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logger.WithError(err).Error("Unable to list remote artifacts")
			return nil
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !domain.ValidArtifactName(key) {
				continue
			}

			artifacts = append(artifacts, domain.Artifact{
				Name:      key,
				Size:      aws.ToInt64(obj.Size),
				CreatedAt: aws.ToTime(obj.LastModified),
				Location:  domain.LocationRemote,
			})
		}
	}

	return artifacts
}

func (r *S3Remote) Delete(ctx context.Context, name string) bool {
	if !r.Configured() {
		return false
	}

	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.target.Bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		appcontext.LoggerFromContext(r.logger, ctx).WithError(err).WithField("key", name).Error("Unable to delete remote artifact")
		return false
	}

	return true
}

// SignedDownloadURL returns a pre-signed GET URL valid for ttl, or
// DefaultPresignTTL when ttl is not positive.
func (r *S3Remote) SignedDownloadURL(ctx context.Context, name string, ttl time.Duration) (string, bool) {
	if !r.Configured() {
		return "", false
	}

	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}

	req, err := r.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.target.Bucket),
		Key:    aws.String(name),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		appcontext.LoggerFromContext(r.logger, ctx).WithError(err).WithField("key", name).Error("Unable to presign download URL")
		return "", false
	}

	return req.URL, true
}
