package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/diillson/fleetburn-go/internal/domain/repository"
	"github.com/diillson/fleetburn-go/internal/shared/types"
)

// ObjectPutter is the part of the S3 client the uploader uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// IdentityGetter is the part of the STS client the uploader uses.
type IdentityGetter interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// S3RepositoryImpl implementa o StorageRepository sobre o Amazon S3.
type S3RepositoryImpl struct {
	s3Client  ObjectPutter
	stsClient IdentityGetter
	bucket    string
	prefix    string
	console   types.ConsoleInterface
}

var _ repository.StorageRepository = (*S3RepositoryImpl)(nil)

// NewS3Repository carrega a configuração AWS do perfil e cria os clientes.
func NewS3Repository(ctx context.Context, cfg types.S3Config, console types.ConsoleInterface) (*S3RepositoryImpl, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for profile %q: %w", cfg.Profile, err)
	}

	return NewS3RepositoryWithClients(s3.NewFromConfig(awsCfg), sts.NewFromConfig(awsCfg), cfg, console), nil
}

// NewS3RepositoryWithClients builds the uploader on existing clients.
func NewS3RepositoryWithClients(s3Client ObjectPutter, stsClient IdentityGetter, cfg types.S3Config, console types.ConsoleInterface) *S3RepositoryImpl {
	return &S3RepositoryImpl{
		s3Client:  s3Client,
		stsClient: stsClient,
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		console:   console,
	}
}

// Upload puts every file under {prefix}/{reportDate}/ and returns the
// s3:// URIs written.
func (r *S3RepositoryImpl) Upload(ctx context.Context, reportDate string, files []string) ([]string, error) {
	if r.stsClient != nil {
		identity, err := r.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
		if err != nil {
			return nil, fmt.Errorf("error getting caller identity: %w", err)
		}
		r.console.LogInfo("Uploading reports to s3://%s as %s (account %s)",
			r.bucket, aws.ToString(identity.Arn), aws.ToString(identity.Account))
	}

	uploaded := make([]string, 0, len(files))
	for _, file := range files {
		key := path.Join(r.prefix, reportDate, filepath.Base(file))
		if err := r.putFile(ctx, file, key); err != nil {
			return uploaded, err
		}
		uploaded = append(uploaded, fmt.Sprintf("s3://%s/%s", r.bucket, key))
	}
	return uploaded, nil
}

func (r *S3RepositoryImpl) putFile(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("opening %s: %w", file, err)
	}
	defer f.Close()

	_, err = r.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(file)),
	})
	if err != nil {
		return fmt.Errorf("uploading %s to s3://%s/%s: %w", file, r.bucket, key, err)
	}
	return nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}
