package common

const (
	STORAGE_TYPE_LOCAL = "LOCAL"
	STORAGE_TYPE_S3    = "S3"
)

var STORAGE_TYPES = []string{STORAGE_TYPE_LOCAL, STORAGE_TYPE_S3}

type AwsConfig struct {
	Region          string
	S3Endpoint      string // optional
	S3Bucket        string
	AccessKeyId     string // optional, falls back to the default credential chain
	SecretAccessKey string // optional
}

// AvroConfig controls how leniently manifest rows are decoded.
type AvroConfig struct {
	AllowMissingFields bool
	NullAsDefault      bool
}

type BaseConfig struct {
	LogLevel    string
	StorageType string
	StoragePath string
	Aws         AwsConfig
	Avro        AvroConfig
}

func DefaultAvroConfig() AvroConfig {
	return AvroConfig{
		AllowMissingFields: true,
		NullAsDefault:      true,
	}
}
