package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

type MetadataFile struct {
	Version int64 // -1 when the file name carries no numeric version
	Path    string
}

type IcebergSnapshot struct {
	SnapshotId   int64
	TimestampMs  int64
	ManifestList string // re-rooted under the current table location
	Summary      map[string]string
}

// MetadataJson holds only the members used to resolve the current snapshot.
// The embedded location is ignored: paths are re-rooted at the table path.
type MetadataJson struct {
	CurrentSnapshotId *int64          `json:"current-snapshot-id"`
	Snapshots         *[]SnapshotJson `json:"snapshots"`
}

type SnapshotJson struct {
	SnapshotId   *int64                 `json:"snapshot-id"`
	TimestampMs  int64                  `json:"timestamp-ms"`
	ManifestList *string                `json:"manifest-list"`
	Summary      map[string]interface{} `json:"summary"`
}

// MetadataFile returns the latest v<V>.metadata.json under <location>/metadata.
// The latest file is the lexicographically greatest key, so v10 sorts before v9.
func (reader *IcebergReader) MetadataFile(location string) (MetadataFile, error) {
	metadataFilePaths, err := reader.storage.ListFiles(location, METADATA_DIRECTORY, METADATA_FILE_SUFFIX)
	if err != nil {
		return MetadataFile{}, err
	}
	if len(metadataFilePaths) == 0 {
		return MetadataFile{}, fmt.Errorf("%w: the metadata file for Iceberg table with path %s doesn't exist", ErrMetadataNotFound, location)
	}

	latestPath := metadataFilePaths[0]
	for _, metadataFilePath := range metadataFilePaths[1:] {
		if metadataFilePath > latestPath {
			latestPath = metadataFilePath
		}
	}

	metadataFile := MetadataFile{Version: parseMetadataVersion(latestPath), Path: latestPath}
	reader.warnOnVersionOrdering(metadataFile, metadataFilePaths)
	LogDebug(reader.config, "Iceberg metadata file:", metadataFile.Path)

	return metadataFile, nil
}

// CurrentSnapshot returns the snapshot matching current-snapshot-id, or nil when the table has no data yet.
func (reader *IcebergReader) CurrentSnapshot(location string) (*IcebergSnapshot, error) {
	metadataFile, err := reader.MetadataFile(location)
	if err != nil {
		return nil, err
	}

	metadataJson, err := reader.readMetadataJson(metadataFile)
	if err != nil {
		return nil, err
	}

	if metadataJson.CurrentSnapshotId == nil {
		return nil, fmt.Errorf("%w: %s has no current-snapshot-id", ErrMalformedMetadata, metadataFile.Path)
	}
	if metadataJson.Snapshots == nil {
		return nil, fmt.Errorf("%w: %s has no snapshots array", ErrMalformedMetadata, metadataFile.Path)
	}

	currentSnapshotId := *metadataJson.CurrentSnapshotId
	for i, snapshotJson := range *metadataJson.Snapshots {
		if snapshotJson.SnapshotId == nil {
			return nil, fmt.Errorf("%w: snapshot %d in %s has no snapshot-id", ErrMalformedMetadata, i, metadataFile.Path)
		}
		if *snapshotJson.SnapshotId != currentSnapshotId {
			continue
		}

		if snapshotJson.ManifestList == nil {
			return nil, fmt.Errorf("%w: snapshot %d in %s has no manifest-list", ErrMalformedMetadata, currentSnapshotId, metadataFile.Path)
		}
		manifestListPath, err := ReRootPath(location, METADATA_DIRECTORY, *snapshotJson.ManifestList)
		if err != nil {
			return nil, err
		}
		LogDebug(reader.config, "Iceberg current snapshot:", currentSnapshotId, "manifest list:", manifestListPath)

		return &IcebergSnapshot{
			SnapshotId:   currentSnapshotId,
			TimestampMs:  snapshotJson.TimestampMs,
			ManifestList: manifestListPath,
			Summary:      stringifySummary(snapshotJson.Summary),
		}, nil
	}

	LogDebug(reader.config, "Iceberg table", location, "has no snapshot", currentSnapshotId)
	return nil, nil
}

// ManifestListPath returns the re-rooted manifest list of the current snapshot, or "" for a table without data.
func (reader *IcebergReader) ManifestListPath(location string) (string, error) {
	snapshot, err := reader.CurrentSnapshot(location)
	if err != nil || snapshot == nil {
		return "", err
	}

	return snapshot.ManifestList, nil
}

func (reader *IcebergReader) readMetadataJson(metadataFile MetadataFile) (MetadataJson, error) {
	buffer, err := reader.storage.CreateReadBuffer(metadataFile.Path)
	if err != nil {
		return MetadataJson{}, err
	}
	defer buffer.Close()

	// The whole stream is read first; only the first JSON object is decoded and trailing bytes are ignored
	content, err := io.ReadAll(buffer)
	if err != nil {
		return MetadataJson{}, fmt.Errorf("failed to read metadata file %s: %v", metadataFile.Path, err)
	}

	var metadataJson MetadataJson
	decoder := json.NewDecoder(bytes.NewReader(content))
	err = decoder.Decode(&metadataJson)
	if err != nil {
		return MetadataJson{}, fmt.Errorf("%w: failed to parse %s: %v", ErrMalformedMetadata, metadataFile.Path, err)
	}

	return metadataJson, nil
}

func (reader *IcebergReader) warnOnVersionOrdering(latest MetadataFile, metadataFilePaths []string) {
	numericLatest := latest
	for _, metadataFilePath := range metadataFilePaths {
		version := parseMetadataVersion(metadataFilePath)
		if version > numericLatest.Version {
			numericLatest = MetadataFile{Version: version, Path: metadataFilePath}
		}
	}

	if numericLatest.Path != latest.Path {
		sortedPaths := append([]string{}, metadataFilePaths...)
		sort.Strings(sortedPaths)
		LogWarn(reader.config, "Iceberg metadata file", latest.Path, "was selected by name, but", numericLatest.Path, "has a higher version. Files:", strings.Join(sortedPaths, ", "))
	}
}

// parseMetadataVersion extracts V from v<V>.metadata.json and <V>-<uuid>.metadata.json names.
func parseMetadataVersion(metadataFilePath string) int64 {
	fileName := strings.TrimSuffix(path.Base(metadataFilePath), METADATA_FILE_SUFFIX)
	fileName = strings.TrimPrefix(fileName, "v")
	if dash := strings.Index(fileName, "-"); dash >= 0 {
		fileName = fileName[:dash]
	}

	version, err := strconv.ParseInt(fileName, 10, 64)
	if err != nil {
		return -1
	}
	return version
}

func stringifySummary(summary map[string]interface{}) map[string]string {
	result := make(map[string]string, len(summary))
	for key, value := range summary {
		if stringValue, ok := value.(string); ok {
			result[key] = stringValue
		} else {
			result[key] = fmt.Sprint(value)
		}
	}
	return result
}
