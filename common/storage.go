package common

import (
	"io"

	"github.com/xitongsys/parquet-go/source"
)

const (
	METADATA_DIRECTORY   = "metadata"
	METADATA_FILE_SUFFIX = ".metadata.json"
)

// Storage is the object store the resolver reads through. Keys are slash-separated
// and relative to the configured storage path.
type Storage interface {
	// Metadata
	ListFiles(location string, directory string, suffix string) (keys []string, err error)
	CreateReadBuffer(key string) (reader io.ReadCloser, err error)

	// Data files
	DataFileUri(key string) (uri string)
	CreateParquetReader(key string) (fileReader source.ParquetFile, err error)
}

func NewStorage(config *BaseConfig) Storage {
	switch config.StorageType {
	case STORAGE_TYPE_LOCAL:
		return NewLocalStorage(config)
	case STORAGE_TYPE_S3:
		return NewS3Storage(config)
	}

	panic("Unknown storage type: " + config.StorageType)
}
