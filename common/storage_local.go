package common

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
)

type StorageLocal struct {
	config *BaseConfig
}

func NewLocalStorage(config *BaseConfig) *StorageLocal {
	return &StorageLocal{config: config}
}

// Metadata ------------------------------------------------------------------------------------------------------------

func (storage *StorageLocal) ListFiles(location string, directory string, suffix string) (keys []string, err error) {
	directoryKey := path.Join(location, directory)
	LogTrace(storage.config, "Listing local files in", storage.absolutePath(directoryKey), "with suffix", suffix)

	files, err := os.ReadDir(storage.absolutePath(directoryKey))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read directory: %v", err)
	}

	keys = []string{}
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), suffix) {
			keys = append(keys, path.Join(directoryKey, file.Name()))
		}
	}

	return keys, nil
}

func (storage *StorageLocal) CreateReadBuffer(key string) (reader io.ReadCloser, err error) {
	file, err := os.Open(storage.absolutePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %v", err)
	}

	return file, nil
}

// Data files ----------------------------------------------------------------------------------------------------------

func (storage *StorageLocal) DataFileUri(key string) string {
	absolutePath, err := filepath.Abs(storage.absolutePath(key))
	if err != nil {
		return storage.absolutePath(key)
	}

	return absolutePath
}

func (storage *StorageLocal) CreateParquetReader(key string) (fileReader source.ParquetFile, err error) {
	fileReader, err = local.NewLocalFileReader(storage.absolutePath(key))
	if err != nil {
		return nil, fmt.Errorf("failed to open Parquet file for reading: %v", err)
	}

	return fileReader, nil
}

func (storage *StorageLocal) absolutePath(key string) string {
	return filepath.Join(storage.config.StoragePath, filepath.FromSlash(key))
}
