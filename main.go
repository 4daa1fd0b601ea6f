package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/BemiHQ/iceberg-resolver/common"
)

const VERSION = "0.1.0"

func main() {
	config := LoadConfig()

	command := flag.Arg(0)
	if command == "version" {
		fmt.Println("iceberg-resolver version:", VERSION)
		return
	}

	location := flag.Arg(1)
	if location == "" {
		fmt.Fprintln(os.Stderr, "Usage: iceberg-resolver [flags] <files|paths|manifests|snapshot|stats|count> <table location>")
		os.Exit(2)
	}

	icebergReader := common.NewIcebergReader(&config.BaseConfig)

	switch command {
	case "files":
		dataFilePaths, err := icebergReader.DataFiles(location)
		exitOnError(config, err)
		printLines(dataFilePaths)
	case "paths":
		dataFileKeys, err := icebergReader.DataFilePaths(location)
		exitOnError(config, err)
		for _, dataFileKey := range dataFileKeys {
			fmt.Println(icebergReader.Storage().DataFileUri(dataFileKey))
		}
	case "manifests":
		manifestFilePaths, err := icebergReader.ManifestFiles(location)
		exitOnError(config, err)
		printLines(manifestFilePaths)
	case "snapshot":
		printSnapshot(config, icebergReader, location)
	case "stats":
		parquetFiles, err := icebergReader.DataFileStats(location)
		exitOnError(config, err)
		for _, parquetFile := range parquetFiles {
			fmt.Printf("%s\trecords=%d\trow_groups=%d\tcompressed_bytes=%d\n", parquetFile.Path, parquetFile.Stats.RecordCount, parquetFile.Stats.RowGroupCount, parquetFile.Stats.CompressedSize)
		}
	case "count":
		countRows(config, icebergReader, location)
	default:
		panic("Unknown command: " + command)
	}
}

func printSnapshot(config *Config, icebergReader *common.IcebergReader, location string) {
	snapshot, err := icebergReader.CurrentSnapshot(location)
	exitOnError(config, err)

	if snapshot == nil {
		fmt.Println("No current snapshot")
		return
	}

	fmt.Println("snapshot-id:", snapshot.SnapshotId)
	fmt.Println("timestamp-ms:", snapshot.TimestampMs)
	fmt.Println("manifest-list:", snapshot.ManifestList)

	summaryKeys := make([]string, 0, len(snapshot.Summary))
	for key := range snapshot.Summary {
		summaryKeys = append(summaryKeys, key)
	}
	sort.Strings(summaryKeys)
	for _, key := range summaryKeys {
		fmt.Println("summary."+key+":", snapshot.Summary[key])
	}
}

func countRows(config *Config, icebergReader *common.IcebergReader, location string) {
	dataFileKeys, err := icebergReader.DataFilePaths(location)
	exitOnError(config, err)

	dataFileUris := make([]string, len(dataFileKeys))
	for i, dataFileKey := range dataFileKeys {
		dataFileUris[i] = icebergReader.Storage().DataFileUri(dataFileKey)
	}

	duckdb := NewDuckdb(config)
	defer duckdb.Close()
	common.LogInfo(&config.BaseConfig, "DuckDB: Scanning", len(dataFileUris), "data file(s)")

	count, err := duckdb.CountRows(context.Background(), dataFileUris)
	exitOnError(config, err)
	fmt.Println(count)
}

func printLines(lines []string) {
	for _, line := range lines {
		fmt.Println(line)
	}
}

func exitOnError(config *Config, err error) {
	if err != nil {
		common.LogError(&config.BaseConfig, err)
		os.Exit(1)
	}
}
