package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linkedin/goavro"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

const (
	TEST_MANIFEST_SCHEMA = `{
		"type" : "record",
		"name" : "manifest_entry",
		"fields" : [ {
			"name" : "status",
			"type" : "int",
			"field-id" : 0
		}, {
			"name" : "snapshot_id",
			"type" : "long",
			"field-id" : 1
		}, {
			"name" : "data_file",
			"type" : {
				"type" : "record",
				"name" : "r2",
				"fields" : [ {
					"name" : "file_path",
					"type" : "string",
					"doc" : "Location URI with FS scheme",
					"field-id" : 100
				}, {
					"name" : "file_format",
					"type" : "string",
					"doc" : "File format name: avro, orc, or parquet",
					"field-id" : 101
				}, {
					"name" : "record_count",
					"type" : "long",
					"doc" : "Number of records in the file",
					"field-id" : 103
				}, {
					"name" : "file_size_in_bytes",
					"type" : "long",
					"doc" : "Total file size in bytes",
					"field-id" : 104
				}, {
					"name" : "block_size_in_bytes",
					"type" : "long",
					"field-id" : 105
				}, {
					"name" : "column_sizes",
					"type" : [ "null", {
						"type" : "array",
						"items" : {
							"type" : "record",
							"name" : "k117_v118",
							"fields" : [ {
								"name" : "key",
								"type" : "int",
								"field-id" : 117
							}, {
								"name" : "value",
								"type" : "long",
								"field-id" : 118
							} ]
						},
						"logicalType" : "map"
					} ],
					"doc" : "Map of column id to total size on disk",
					"default" : null,
					"field-id" : 108
				}, {
					"name" : "split_offsets",
					"type" : [ "null", {
						"type" : "array",
						"items" : "long",
						"element-id" : 133
					} ],
					"doc" : "Splittable offsets",
					"default" : null,
					"field-id" : 132
				}, {
					"name" : "sort_order_id",
					"type" : [ "null", "int" ],
					"doc" : "ID representing sort order for this file",
					"default" : null,
					"field-id" : 140
				} ]
			},
			"field-id" : 2
		} ]
	}`

	// Format version 2 puts "content" before "file_path"
	TEST_MANIFEST_V2_SCHEMA = `{
		"type" : "record",
		"name" : "manifest_entry",
		"fields" : [ {
			"name" : "status",
			"type" : "int",
			"field-id" : 0
		}, {
			"name" : "snapshot_id",
			"type" : [ "null", "long" ],
			"default" : null,
			"field-id" : 1
		}, {
			"name" : "data_file",
			"type" : {
				"type" : "record",
				"name" : "r2",
				"fields" : [ {
					"name" : "content",
					"type" : "int",
					"field-id" : 134
				}, {
					"name" : "file_path",
					"type" : "string",
					"field-id" : 100
				} ]
			},
			"field-id" : 2
		} ]
	}`

	TEST_MANIFEST_LIST_SCHEMA = `{
		"type" : "record",
		"name" : "manifest_file",
		"fields" : [ {
			"name" : "manifest_path",
			"type" : "string",
			"doc" : "Location URI with FS scheme",
			"field-id" : 500
		}, {
			"name" : "manifest_length",
			"type" : "long",
			"field-id" : 501
		}, {
			"name" : "partition_spec_id",
			"type" : "int",
			"field-id" : 502
		}, {
			"name" : "added_snapshot_id",
			"type" : [ "null", "long" ],
			"default" : null,
			"field-id" : 503
		}, {
			"name" : "added_data_files_count",
			"type" : [ "null", "int" ],
			"default" : null,
			"field-id" : 504
		}, {
			"name" : "added_rows_count",
			"type" : [ "null", "long" ],
			"default" : null,
			"field-id" : 512
		} ]
	}`

	TEST_PARQUET_SCHEMA = `{
		"Tag": "name=root",
		"Fields": [
			{"Tag": "name=id, type=INT64, repetitiontype=REQUIRED"},
			{"Tag": "name=name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"}
		]
	}`
)

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

type StorageMemory struct {
	objects map[string][]byte
	reads   []string
}

func NewMemoryStorage() *StorageMemory {
	return &StorageMemory{objects: make(map[string][]byte)}
}

func (storage *StorageMemory) Put(key string, content []byte) {
	storage.objects[key] = content
}

func (storage *StorageMemory) ListFiles(location string, directory string, suffix string) (keys []string, err error) {
	prefix := path.Join(location, directory) + "/"

	keys = []string{}
	for key := range storage.objects {
		name := strings.TrimPrefix(key, prefix)
		if strings.HasPrefix(key, prefix) && !strings.Contains(name, "/") && strings.HasSuffix(name, suffix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (storage *StorageMemory) CreateReadBuffer(key string) (reader io.ReadCloser, err error) {
	content, ok := storage.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	storage.reads = append(storage.reads, key)
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (storage *StorageMemory) DataFileUri(key string) string {
	return "memory://" + key
}

func (storage *StorageMemory) CreateParquetReader(key string) (fileReader source.ParquetFile, err error) {
	return nil, fmt.Errorf("in-memory storage cannot read Parquet file %s", key)
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

func testConfig() *BaseConfig {
	return &BaseConfig{
		LogLevel:    LOG_LEVEL_ERROR,
		StorageType: STORAGE_TYPE_LOCAL,
		Avro:        DefaultAvroConfig(),
	}
}

func testAvroFile(t *testing.T, schema string, records []interface{}) []byte {
	t.Helper()

	codec, err := goavro.NewCodec(schema)
	if err != nil {
		t.Fatalf("Failed to create Avro codec: %v", err)
	}

	var buffer bytes.Buffer
	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:      &buffer,
		Codec:  codec,
		Schema: schema,
	})
	if err != nil {
		t.Fatalf("Failed to create Avro OCF writer: %v", err)
	}

	if len(records) > 0 {
		err = ocfWriter.Append(records)
		if err != nil {
			t.Fatalf("Failed to write Avro records: %v", err)
		}
	}

	return buffer.Bytes()
}

func testManifestListFile(t *testing.T, manifestPaths ...string) []byte {
	records := []interface{}{}
	for _, manifestPath := range manifestPaths {
		records = append(records, map[string]interface{}{
			"manifest_path":          manifestPath,
			"manifest_length":        5813,
			"partition_spec_id":      0,
			"added_snapshot_id":      map[string]interface{}{"long": int64(7)},
			"added_data_files_count": map[string]interface{}{"int": 1},
			"added_rows_count":       nil,
		})
	}

	return testAvroFile(t, TEST_MANIFEST_LIST_SCHEMA, records)
}

func testManifestFile(t *testing.T, dataFilePaths ...string) []byte {
	records := []interface{}{}
	for _, dataFilePath := range dataFilePaths {
		records = append(records, map[string]interface{}{
			"status":      1, // 0: EXISTING 1: ADDED 2: DELETED
			"snapshot_id": int64(7),
			"data_file": map[string]interface{}{
				"file_path":           dataFilePath,
				"file_format":         "PARQUET",
				"record_count":        100,
				"file_size_in_bytes":  1070,
				"block_size_in_bytes": 67108864,
				"column_sizes": map[string]interface{}{
					"array": []interface{}{
						map[string]interface{}{"key": 1, "value": 233},
						map[string]interface{}{"key": 2, "value": 210},
					},
				},
				"split_offsets": map[string]interface{}{
					"array": []interface{}{int64(4)},
				},
				"sort_order_id": map[string]interface{}{"int": 0},
			},
		})
	}

	return testAvroFile(t, TEST_MANIFEST_SCHEMA, records)
}

func testMetadataJson(t *testing.T, currentSnapshotId int64, manifestListBySnapshotId map[int64]string) []byte {
	snapshots := []interface{}{}
	for snapshotId, manifestList := range manifestListBySnapshotId {
		snapshots = append(snapshots, map[string]interface{}{
			"snapshot-id":   snapshotId,
			"timestamp-ms":  1680206743150,
			"manifest-list": manifestList,
			"summary": map[string]interface{}{
				"operation":     "append",
				"added-records": "100",
			},
			"schema-id": 0,
		})
	}

	content, err := json.Marshal(map[string]interface{}{
		"format-version":      1,
		"table-uuid":          "ca2965ad-aae2-4813-8cf7-2c394e0c10f5",
		"location":            "/iceberg_data/default/test_table",
		"last-updated-ms":     1680206743150,
		"current-snapshot-id": currentSnapshotId,
		"snapshots":           snapshots,
	})
	if err != nil {
		t.Fatalf("Failed to marshal metadata: %v", err)
	}

	return content
}

// testTable stores the single snapshot table used by most tests:
// t/metadata/v1.metadata.json -> snap-7.avro -> m0.avro -> d0/f0.parquet
func testTable(t *testing.T, storage *StorageMemory) {
	storage.Put("t/metadata/v1.metadata.json", testMetadataJson(t, 7, map[int64]string{7: "/t/metadata/snap-7.avro"}))
	storage.Put("t/metadata/snap-7.avro", testManifestListFile(t, "/t/metadata/m0.avro"))
	storage.Put("t/metadata/m0.avro", testManifestFile(t, "/t/data/d0/f0.parquet"))
}

func testParquetFile(t *testing.T, filePath string, rowCount int) {
	t.Helper()

	err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm)
	if err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	fileWriter, err := local.NewLocalFileWriter(filePath)
	if err != nil {
		t.Fatalf("Failed to open Parquet file for writing: %v", err)
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewJSONWriter(TEST_PARQUET_SCHEMA, fileWriter, 1)
	if err != nil {
		t.Fatalf("Failed to create Parquet writer: %v", err)
	}

	for i := 0; i < rowCount; i++ {
		rowJson, _ := json.Marshal(map[string]interface{}{"id": i, "name": fmt.Sprintf("row-%d", i)})
		err = parquetWriter.Write(string(rowJson))
		if err != nil {
			t.Fatalf("Failed to write Parquet row: %v", err)
		}
	}

	err = parquetWriter.WriteStop()
	if err != nil {
		t.Fatalf("Failed to stop Parquet writer: %v", err)
	}
}
