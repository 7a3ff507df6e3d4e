package services

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DAC098/TJ2-sub001/internal/common"
	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/server/config"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
)

func stubPresignClients(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	origGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
}

func newStorageFixture(t *testing.T) (*StorageService, *fakeRepoManager, ids.UserID, ids.FileUID) {
	t.Helper()
	db, _ := newSQLMockDB(t)

	userID := ids.NewUserID()
	entryID := ids.NewEntryID()
	uid := ids.NewFileUID()

	m := &fakeRepoManager{
		e: &fakeEntriesRepo{entry: &models.Entry{ID: entryID, UserID: userID}},
		f: &fakeFilesRepo{byUID: map[ids.FileUID]*models.FileEntry{
			uid: {UID: uid, EntryID: entryID, Name: "photo.jpg", Status: models.FileRequested},
		}},
	}

	cfg := &config.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "admin",
		S3RootPassword: "secretpassword",
		S3Bucket:       "journal",
		S3BaseEndpoint: "http://127.0.0.1:9000",
	}

	return NewStorageService(db, m, cfg), m, userID, uid
}

func TestPresignUpload(t *testing.T) {
	stubPresignClients(t)
	svc, _, userID, uid := newStorageFixture(t)

	var capturedKey string
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		require.NotNil(t, in.Bucket)
		assert.Equal(t, "journal", *in.Bucket)
		capturedKey = *in.Key
		return &v4.PresignedHTTPRequest{URL: "http://storage/put"}, nil
	}

	url, err := svc.PresignUpload(context.Background(), userID, uid)
	require.NoError(t, err)
	assert.Equal(t, "http://storage/put", url)
	assert.Equal(t, "attachments/"+uid.String(), capturedKey)
}

func TestPresignDownload(t *testing.T) {
	stubPresignClients(t)
	svc, _, userID, uid := newStorageFixture(t)

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		assert.Equal(t, "attachments/"+uid.String(), *in.Key)
		return &v4.PresignedHTTPRequest{URL: "http://storage/get"}, nil
	}

	url, err := svc.PresignDownload(context.Background(), userID, uid)
	require.NoError(t, err)
	assert.Equal(t, "http://storage/get", url)
}

func TestPresign_ForeignFileLooksMissing(t *testing.T) {
	stubPresignClients(t)
	svc, m, _, uid := newStorageFixture(t)
	m.e.entry.UserID = ids.NewUserID()

	_, err := svc.PresignDownload(context.Background(), ids.NewUserID(), uid)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPresign_UnknownFile(t *testing.T) {
	stubPresignClients(t)
	svc, _, userID, _ := newStorageFixture(t)

	_, err := svc.PresignUpload(context.Background(), userID, ids.NewFileUID())
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPresign_ConfigLoadFailure(t *testing.T) {
	stubPresignClients(t)
	svc, _, userID, uid := newStorageFixture(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := svc.PresignUpload(context.Background(), userID, uid)
	require.EqualError(t, err, "load-fail")
}
