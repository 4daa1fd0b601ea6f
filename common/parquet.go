package common

import (
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
)

type ParquetFileStats struct {
	RecordCount    int64
	RowGroupCount  int
	CompressedSize int64
	ColumnSizes    map[string]int64
}

type ParquetFile struct {
	Path  string
	Stats ParquetFileStats
}

// ReadParquetStats reads the footer of a Parquet file and closes it.
func ReadParquetStats(fileReader source.ParquetFile) (parquetFileStats ParquetFileStats, err error) {
	defer fileReader.Close()

	pr, err := reader.NewParquetReader(fileReader, nil, 1)
	if err != nil {
		return ParquetFileStats{}, fmt.Errorf("failed to create Parquet reader: %v", err)
	}
	defer pr.ReadStop()

	parquetFileStats = ParquetFileStats{
		RecordCount:   pr.GetNumRows(),
		RowGroupCount: len(pr.Footer.RowGroups),
		ColumnSizes:   make(map[string]int64),
	}

	for _, rowGroup := range pr.Footer.RowGroups {
		for _, columnChunk := range rowGroup.Columns {
			columnMetaData := columnChunk.MetaData
			if columnMetaData == nil {
				continue
			}

			columnName := strings.Join(columnMetaData.PathInSchema, ".")
			parquetFileStats.ColumnSizes[columnName] += columnMetaData.TotalCompressedSize
			parquetFileStats.CompressedSize += columnMetaData.TotalCompressedSize
		}
	}

	return parquetFileStats, nil
}
