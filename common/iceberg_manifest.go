package common

import (
	"fmt"
)

const (
	MANIFEST_LIST_PATH_FIELD_INDEX = 0 // manifest_path
	MANIFEST_DATA_FILE_FIELD_INDEX = 2 // data_file
	DATA_FILE_PATH_FIELD_INDEX     = 0 // data_file.file_path (format version 1 layout)
)

// ReadManifestFiles decodes the manifest list and returns its manifest paths re-rooted under <location>/metadata.
func (reader *IcebergReader) ReadManifestFiles(location string, manifestListPath string) (manifestFilePaths []string, err error) {
	LogDebug(reader.config, "Reading Iceberg manifest list", manifestListPath+"...")

	column, err := reader.readAvroColumn(manifestListPath, MANIFEST_LIST_PATH_FIELD_INDEX)
	if err != nil {
		return nil, err
	}

	stringColumn, ok := column.(*StringColumn)
	if !ok {
		return nil, fmt.Errorf("%w: the decoded column of `manifest_path` field in %s should be %s type, got %s", ErrTypeMismatch, manifestListPath, COLUMN_TYPE_STRING, column.DataType())
	}

	manifestFilePaths = make([]string, 0, stringColumn.Len())
	for _, embeddedPath := range stringColumn.Values {
		manifestFilePath, err := ReRootPath(location, METADATA_DIRECTORY, embeddedPath)
		if err != nil {
			return nil, err
		}
		manifestFilePaths = append(manifestFilePaths, manifestFilePath)
	}

	LogDebug(reader.config, "Found", len(manifestFilePaths), "manifest file(s) in", manifestListPath)
	return manifestFilePaths, nil
}

// ReadDataFiles decodes every manifest file in order and returns the <parent>/<file name> tail of each data file path.
// A failure in any manifest fails the whole call.
func (reader *IcebergReader) ReadDataFiles(manifestFilePaths []string) (dataFilePaths []string, err error) {
	dataFilePaths = []string{}

	for _, manifestFilePath := range manifestFilePaths {
		LogDebug(reader.config, "Reading Iceberg manifest file", manifestFilePath+"...")

		column, err := reader.readAvroColumn(manifestFilePath, MANIFEST_DATA_FILE_FIELD_INDEX)
		if err != nil {
			return nil, err
		}

		tupleColumn, ok := column.(*TupleColumn)
		if !ok {
			return nil, fmt.Errorf("%w: the decoded column of `data_file` field in %s should be %s type, got %s", ErrTypeMismatch, manifestFilePath, COLUMN_TYPE_TUPLE, column.DataType())
		}

		filePathColumn, err := tupleColumn.ColumnAt(DATA_FILE_PATH_FIELD_INDEX)
		if err != nil {
			return nil, err
		}
		stringColumn, ok := filePathColumn.(*StringColumn)
		if !ok {
			return nil, fmt.Errorf("%w: the decoded column of `file_path` field in %s should be %s type, got %s", ErrTypeMismatch, manifestFilePath, COLUMN_TYPE_STRING, filePathColumn.DataType())
		}

		for _, embeddedPath := range stringColumn.Values {
			dataFilePath, err := ParentAndFileName(embeddedPath)
			if err != nil {
				return nil, err
			}
			dataFilePaths = append(dataFilePaths, dataFilePath)
		}
	}

	return dataFilePaths, nil
}

func (reader *IcebergReader) readAvroColumn(key string, fieldIndex int) (Column, error) {
	buffer, err := reader.storage.CreateReadBuffer(key)
	if err != nil {
		return nil, err
	}
	defer buffer.Close()

	avroReader, err := NewAvroFileReader(buffer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	fieldName, dataType, err := avroReader.FieldAt(fieldIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	LogTrace(reader.config, "Decoding Avro field", fieldName, "as", dataType.String(), "from", key)

	column, err := DecodeColumn(avroReader, dataType, fieldName, reader.config.Avro)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	return column, nil
}
