package main

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/BemiHQ/iceberg-resolver/common"
)

var S3_BOOT_QUERIES = []string{
	"INSTALL httpfs",
	"LOAD httpfs",
}

type Duckdb struct {
	db     *sql.DB
	config *Config
}

func NewDuckdb(config *Config) *Duckdb {
	ctx := context.Background()
	db, err := sql.Open("duckdb", "")
	common.PanicIfError(err)

	duckdb := &Duckdb{
		db:     db,
		config: config,
	}

	switch config.StorageType {
	case common.STORAGE_TYPE_S3:
		for _, query := range S3_BOOT_QUERIES {
			_, err := duckdb.ExecContext(ctx, query, nil)
			common.PanicIfError(err)
		}

		query := "CREATE SECRET aws_s3_secret (TYPE S3, PROVIDER CREDENTIAL_CHAIN, REGION '$region', SCOPE '$s3Bucket')"
		if config.Aws.AccessKeyId != "" {
			query = "CREATE SECRET aws_s3_secret (TYPE S3, KEY_ID '$accessKeyId', SECRET '$secretAccessKey', REGION '$region', SCOPE '$s3Bucket')"
		}
		_, err = duckdb.ExecContext(ctx, query, map[string]string{
			"accessKeyId":     config.Aws.AccessKeyId,
			"secretAccessKey": config.Aws.SecretAccessKey,
			"region":          config.Aws.Region,
			"s3Bucket":        "s3://" + config.Aws.S3Bucket,
		})
		common.PanicIfError(err)

		if config.Aws.S3Endpoint != "" {
			_, err = duckdb.ExecContext(ctx, "SET s3_endpoint='$endpoint'", map[string]string{
				"endpoint": strings.TrimPrefix(strings.TrimPrefix(config.Aws.S3Endpoint, "https://"), "http://"),
			})
			common.PanicIfError(err)
			_, err = duckdb.ExecContext(ctx, "SET s3_url_style='path'", nil)
			common.PanicIfError(err)
		}

		if config.LogLevel == common.LOG_LEVEL_TRACE {
			_, err = duckdb.ExecContext(ctx, "SET enable_http_logging=true", nil)
			common.PanicIfError(err)
		}
	}

	return duckdb
}

func (duckdb *Duckdb) ExecContext(ctx context.Context, query string, args map[string]string) (sql.Result, error) {
	common.LogDebug(&duckdb.config.BaseConfig, "Querying DuckDB:", query, args)
	return duckdb.db.ExecContext(ctx, replaceNamedStringArgs(query, args))
}

func (duckdb *Duckdb) QueryRowContext(ctx context.Context, query string) *sql.Row {
	common.LogDebug(&duckdb.config.BaseConfig, "Querying DuckDB:", query)
	return duckdb.db.QueryRowContext(ctx, query)
}

// CountRows scans the given Parquet files and returns their total row count.
func (duckdb *Duckdb) CountRows(ctx context.Context, dataFileUris []string) (count int64, err error) {
	if len(dataFileUris) == 0 {
		return 0, nil
	}

	quotedUris := make([]string, len(dataFileUris))
	for i, dataFileUri := range dataFileUris {
		quotedUris[i] = "'" + strings.ReplaceAll(dataFileUri, "'", "''") + "'"
	}

	row := duckdb.QueryRowContext(ctx, "SELECT COUNT(*) FROM read_parquet(["+strings.Join(quotedUris, ", ")+"])")
	err = row.Scan(&count)
	return count, err
}

func (duckdb *Duckdb) Close() {
	duckdb.db.Close()
}

func replaceNamedStringArgs(query string, args map[string]string) string {
	re := regexp.MustCompile(`['";]`) // Escape single quotes, double quotes, and semicolons from args

	for key, value := range args {
		query = strings.ReplaceAll(query, "$"+key, re.ReplaceAllString(value, ""))
	}
	return query
}
