package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/DAC098/TJ2-sub001/internal/common"
	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/server/config"
	"github.com/DAC098/TJ2-sub001/internal/server/repositories/repomanager"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

const presignTTL = 15 * time.Minute

// StorageService issues presigned object-storage URLs for moving large
// attachment content out of band, so peers never stream file bytes through
// the API itself.
type StorageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
}

func NewStorageService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *StorageService {
	return &StorageService{
		db:          db,
		repomanager: m,
		config:      cfg,
	}
}

func storageKey(uid ids.FileUID) string {
	return fmt.Sprintf("attachments/%s", uid)
}

func (s *StorageService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// PresignUpload returns a short-lived URL the caller can PUT attachment
// content to. The file row must exist and belong to the user.
func (s *StorageService) PresignUpload(ctx context.Context, userID ids.UserID, uid ids.FileUID) (string, error) {
	if err := s.checkOwnership(ctx, userID, uid); err != nil {
		return "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := storageKey(uid)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// PresignDownload returns a short-lived URL the caller can GET attachment
// content from.
func (s *StorageService) PresignDownload(ctx context.Context, userID ids.UserID, uid ids.FileUID) (string, error) {
	if err := s.checkOwnership(ctx, userID, uid); err != nil {
		return "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := storageKey(uid)

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *StorageService) checkOwnership(ctx context.Context, userID ids.UserID, uid ids.FileUID) error {
	row, err := s.repomanager.Files(s.db).GetByUID(ctx, uid)
	if err != nil {
		return err
	}
	entry, err := s.repomanager.Entries(s.db).GetByID(ctx, row.EntryID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorInternal
		}
		return err
	}
	if entry.UserID != userID {
		return common.ErrorNotFound
	}
	return nil
}
