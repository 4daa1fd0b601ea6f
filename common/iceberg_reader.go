package common

import (
	"path"

	"github.com/google/uuid"
)

// IcebergReader resolves the data files of an Iceberg table's current snapshot.
// It keeps no state between calls and is safe for concurrent use when its Storage is.
type IcebergReader struct {
	config  *BaseConfig
	storage Storage
}

func NewIcebergReader(config *BaseConfig) *IcebergReader {
	storage := NewStorage(config)
	return NewIcebergReaderWithStorage(config, storage)
}

func NewIcebergReaderWithStorage(config *BaseConfig, storage Storage) *IcebergReader {
	return &IcebergReader{config: config, storage: storage}
}

func (reader *IcebergReader) Storage() Storage {
	return reader.storage
}

// DataFiles returns the <parent>/<file name> tails of all data files in the current snapshot,
// in manifest list order. A table without a current snapshot yields an empty list.
func (reader *IcebergReader) DataFiles(location string) (dataFilePaths []string, err error) {
	resolutionId := uuid.New().String()
	LogDebug(reader.config, "Resolving Iceberg data files for", location, "resolution:", resolutionId)

	manifestListPath, err := reader.ManifestListPath(location)
	if err != nil {
		return nil, err
	}

	// When a table is first created and does not have any data
	if manifestListPath == "" {
		LogDebug(reader.config, "Iceberg table", location, "is empty, resolution:", resolutionId)
		return []string{}, nil
	}

	manifestFilePaths, err := reader.ReadManifestFiles(location, manifestListPath)
	if err != nil {
		return nil, err
	}

	dataFilePaths, err = reader.ReadDataFiles(manifestFilePaths)
	if err != nil {
		return nil, err
	}

	LogDebug(reader.config, "Resolved", len(dataFilePaths), "Iceberg data file(s) for", location, "resolution:", resolutionId)
	return dataFilePaths, nil
}

// DataFilePaths returns the storage keys of all data files, re-rooted under the table location.
func (reader *IcebergReader) DataFilePaths(location string) (dataFileKeys []string, err error) {
	dataFilePaths, err := reader.DataFiles(location)
	if err != nil {
		return nil, err
	}

	dataFileKeys = make([]string, len(dataFilePaths))
	for i, dataFilePath := range dataFilePaths {
		dataFileKeys[i] = path.Join(location, dataFilePath)
	}

	return dataFileKeys, nil
}

// ManifestFiles returns the re-rooted manifest file paths of the current snapshot.
func (reader *IcebergReader) ManifestFiles(location string) (manifestFilePaths []string, err error) {
	manifestListPath, err := reader.ManifestListPath(location)
	if err != nil {
		return nil, err
	}
	if manifestListPath == "" {
		return []string{}, nil
	}

	return reader.ReadManifestFiles(location, manifestListPath)
}

func (reader *IcebergReader) DataFileStats(location string) (parquetFiles []ParquetFile, err error) {
	dataFileKeys, err := reader.DataFilePaths(location)
	if err != nil {
		return nil, err
	}

	parquetFiles = make([]ParquetFile, 0, len(dataFileKeys))
	for _, dataFileKey := range dataFileKeys {
		fileReader, err := reader.storage.CreateParquetReader(dataFileKey)
		if err != nil {
			return nil, err
		}

		stats, err := ReadParquetStats(fileReader)
		if err != nil {
			return nil, err
		}
		LogDebug(reader.config, "Parquet file", dataFileKey, "has", stats.RecordCount, "record(s)")

		parquetFiles = append(parquetFiles, ParquetFile{Path: dataFileKey, Stats: stats})
	}

	return parquetFiles, nil
}
