package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/BemiHQ/iceberg-resolver/common"
)

const TEST_PARQUET_SCHEMA = `{
	"Tag": "name=root",
	"Fields": [
		{"Tag": "name=id, type=INT64, repetitiontype=REQUIRED"},
		{"Tag": "name=status, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"}
	]
}`

func loadTestConfig() *Config {
	setTestArgs([]string{})

	config := LoadConfig(true)
	config.StorageType = common.STORAGE_TYPE_LOCAL
	config.StoragePath = "."
	config.LogLevel = common.LOG_LEVEL_ERROR

	return config
}

func setTestArgs(args []string) {
	os.Args = append([]string{"cmd"}, args...)
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	registerFlags()
	flag.Parse()
}

func writeTestParquetFile(t *testing.T, filePath string, statuses []string) {
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

	for i, status := range statuses {
		rowJson, _ := json.Marshal(map[string]interface{}{"id": i, "status": status})
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
