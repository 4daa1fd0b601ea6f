package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/xitongsys/parquet-go-source/s3v2"
	"github.com/xitongsys/parquet-go/source"
)

type StorageS3 struct {
	s3Client *s3.Client
	config   *BaseConfig
}

func NewS3Storage(config *BaseConfig) *StorageS3 {
	loadOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(config.Aws.Region),
	}
	if config.Aws.AccessKeyId != "" {
		awsCredentials := credentials.NewStaticCredentialsProvider(
			config.Aws.AccessKeyId,
			config.Aws.SecretAccessKey,
			"",
		)
		loadOptions = append(loadOptions, awsConfig.WithCredentialsProvider(awsCredentials))
	}

	var logMode aws.ClientLogMode
	if config.LogLevel == LOG_LEVEL_TRACE {
		logMode = aws.LogRequest | aws.LogResponse
	}
	loadOptions = append(loadOptions, awsConfig.WithClientLogMode(logMode))

	loadedAwsConfig, err := awsConfig.LoadDefaultConfig(context.Background(), loadOptions...)
	PanicIfError(err)

	s3Client := s3.NewFromConfig(loadedAwsConfig, func(options *s3.Options) {
		if config.Aws.S3Endpoint != "" {
			options.BaseEndpoint = aws.String(config.Aws.S3Endpoint)
			options.UsePathStyle = true
		}
	})

	return NewS3StorageWithClient(config, s3Client)
}

func NewS3StorageWithClient(config *BaseConfig, s3Client *s3.Client) *StorageS3 {
	return &StorageS3{
		s3Client: s3Client,
		config:   config,
	}
}

// Metadata ------------------------------------------------------------------------------------------------------------

func (storage *StorageS3) ListFiles(location string, directory string, suffix string) (keys []string, err error) {
	ctx := context.Background()
	prefix := storage.fullKey(path.Join(location, directory)) + "/"
	LogTrace(storage.config, "Listing S3 objects with prefix", prefix, "and suffix", suffix)

	paginator := s3.NewListObjectsV2Paginator(storage.s3Client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(storage.config.Aws.S3Bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	keys = []string{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %v", err)
		}

		for _, object := range page.Contents {
			objectKey := *object.Key
			if strings.HasSuffix(objectKey, suffix) {
				keys = append(keys, storage.relativeKey(objectKey))
			}
		}
	}

	return keys, nil
}

func (storage *StorageS3) CreateReadBuffer(key string) (reader io.ReadCloser, err error) {
	downloader := manager.NewDownloader(storage.s3Client)
	buffer := manager.NewWriteAtBuffer([]byte{})

	size, err := downloader.Download(context.Background(), buffer, &s3.GetObjectInput{
		Bucket: aws.String(storage.config.Aws.S3Bucket),
		Key:    aws.String(storage.fullKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to download object: %v", err)
	}
	LogTrace(storage.config, "Downloaded", size, "byte(s) from", storage.DataFileUri(key))

	return io.NopCloser(bytes.NewReader(buffer.Bytes())), nil
}

// Data files ----------------------------------------------------------------------------------------------------------

func (storage *StorageS3) DataFileUri(key string) string {
	return "s3://" + storage.config.Aws.S3Bucket + "/" + storage.fullKey(key)
}

func (storage *StorageS3) CreateParquetReader(key string) (fileReader source.ParquetFile, err error) {
	fileReader, err = s3v2.NewS3FileReaderWithClient(context.Background(), storage.s3Client, storage.config.Aws.S3Bucket, storage.fullKey(key))
	if err != nil {
		return nil, fmt.Errorf("failed to open Parquet file for reading: %v", err)
	}

	return fileReader, nil
}

func (storage *StorageS3) fullKey(key string) string {
	return strings.TrimPrefix(path.Join(storage.config.StoragePath, key), "/")
}

func (storage *StorageS3) relativeKey(objectKey string) string {
	// Same normalization as fullKey
	storagePath := strings.TrimPrefix(path.Clean(storage.config.StoragePath), "/")
	if storagePath == "" || storagePath == "." {
		return objectKey
	}

	return strings.TrimPrefix(objectKey, storagePath+"/")
}
