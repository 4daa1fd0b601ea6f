package common

import (
	"fmt"
	"path"
	"strings"
)

func PanicIfError(err error, message ...string) {
	if err != nil {
		if len(message) == 1 {
			panic(fmt.Errorf(message[0]+": %w", err))
		}

		panic(err)
	}
}

// FileName returns the last segment of a slash-separated path or URI.
func FileName(filePath string) (string, error) {
	trimmedPath := strings.TrimRight(filePath, "/")
	if trimmedPath == "" {
		return "", fmt.Errorf("%w: cannot take file name of %q", ErrMalformedMetadata, filePath)
	}

	return path.Base(trimmedPath), nil
}

// ParentAndFileName keeps the last segment and its immediate parent segment,
// e.g. "s3://bucket/table/data/00000-0.parquet" -> "data/00000-0.parquet".
func ParentAndFileName(filePath string) (string, error) {
	fileName, err := FileName(filePath)
	if err != nil {
		return "", err
	}

	parentPath := path.Dir(strings.TrimRight(filePath, "/"))
	if parentPath == "." || parentPath == "/" {
		return fileName, nil
	}

	return path.Base(parentPath) + "/" + fileName, nil
}

// ReRootPath joins the file name of an embedded path under <location>/<directory>.
func ReRootPath(location string, directory string, embeddedPath string) (string, error) {
	fileName, err := FileName(embeddedPath)
	if err != nil {
		return "", err
	}

	return path.Join(location, directory, fileName), nil
}
