package main

import (
	"flag"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BemiHQ/iceberg-resolver/common"
)

const (
	ENV_CONFIG_FILEPATH = "ICEBERG_CONFIG"
	ENV_LOG_LEVEL       = "ICEBERG_LOG_LEVEL"
	ENV_STORAGE_TYPE    = "ICEBERG_STORAGE_TYPE"
	ENV_STORAGE_PATH    = "ICEBERG_STORAGE_PATH"

	ENV_AVRO_ALLOW_MISSING_FIELDS = "ICEBERG_AVRO_ALLOW_MISSING_FIELDS"
	ENV_AVRO_NULL_AS_DEFAULT      = "ICEBERG_AVRO_NULL_AS_DEFAULT"

	ENV_AWS_REGION            = "AWS_REGION"
	ENV_AWS_S3_ENDPOINT       = "AWS_S3_ENDPOINT"
	ENV_AWS_S3_BUCKET         = "AWS_S3_BUCKET"
	ENV_AWS_ACCESS_KEY_ID     = "AWS_ACCESS_KEY_ID"
	ENV_AWS_SECRET_ACCESS_KEY = "AWS_SECRET_ACCESS_KEY"

	DEFAULT_CONFIG_FILEPATH = "./iceberg-resolver.yml"
	DEFAULT_LOG_LEVEL       = common.LOG_LEVEL_INFO
	DEFAULT_STORAGE_TYPE    = common.STORAGE_TYPE_LOCAL
	DEFAULT_STORAGE_PATH    = "."
)

type Config struct {
	common.BaseConfig
	ConfigFilepath string
}

type configParseValues struct {
	avroAllowMissingFields string
	avroNullAsDefault      string
}

type yamlConfig struct {
	LogLevel string `yaml:"log_level"`
	Storage  struct {
		Type string `yaml:"type"`
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Aws struct {
		Region          string `yaml:"region"`
		S3Endpoint      string `yaml:"s3_endpoint"`
		S3Bucket        string `yaml:"s3_bucket"`
		AccessKeyId     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
	} `yaml:"aws"`
	Avro struct {
		AllowMissingFields *bool `yaml:"allow_missing_fields"`
		NullAsDefault      *bool `yaml:"null_as_default"`
	} `yaml:"avro"`
}

var _config Config
var _configParseValues configParseValues

func init() {
	registerFlags()
}

func registerFlags() {
	flag.StringVar(&_config.ConfigFilepath, "config", os.Getenv(ENV_CONFIG_FILEPATH), "Path to a YAML config file. Default: \""+DEFAULT_CONFIG_FILEPATH+"\"")
	flag.StringVar(&_config.LogLevel, "log-level", os.Getenv(ENV_LOG_LEVEL), "Log level: \"ERROR\", \"WARN\", \"INFO\", \"DEBUG\", \"TRACE\". Default: \""+DEFAULT_LOG_LEVEL+"\"")
	flag.StringVar(&_config.StorageType, "storage-type", os.Getenv(ENV_STORAGE_TYPE), "Storage type: \"LOCAL\", \"S3\". Default: \""+DEFAULT_STORAGE_TYPE+"\"")
	flag.StringVar(&_config.StoragePath, "storage-path", os.Getenv(ENV_STORAGE_PATH), "Local directory or S3 key prefix that table locations are relative to. Default: \""+DEFAULT_STORAGE_PATH+"\"")
	flag.StringVar(&_configParseValues.avroAllowMissingFields, "avro-allow-missing-fields", os.Getenv(ENV_AVRO_ALLOW_MISSING_FIELDS), "Use type defaults for fields missing from Avro rows. Default: \"true\"")
	flag.StringVar(&_configParseValues.avroNullAsDefault, "avro-null-as-default", os.Getenv(ENV_AVRO_NULL_AS_DEFAULT), "Use type defaults for nulls in non-nullable Avro fields. Default: \"true\"")
	flag.StringVar(&_config.Aws.Region, "aws-region", os.Getenv(ENV_AWS_REGION), "AWS region")
	flag.StringVar(&_config.Aws.S3Endpoint, "aws-s3-endpoint", os.Getenv(ENV_AWS_S3_ENDPOINT), "(Optional) Custom S3 endpoint, e.g. for MinIO")
	flag.StringVar(&_config.Aws.S3Bucket, "aws-s3-bucket", os.Getenv(ENV_AWS_S3_BUCKET), "AWS S3 bucket name")
	flag.StringVar(&_config.Aws.AccessKeyId, "aws-access-key-id", os.Getenv(ENV_AWS_ACCESS_KEY_ID), "(Optional) AWS access key ID")
	flag.StringVar(&_config.Aws.SecretAccessKey, "aws-secret-access-key", os.Getenv(ENV_AWS_SECRET_ACCESS_KEY), "(Optional) AWS secret access key")
}

func parseFlags() {
	flag.Parse()

	configFilepath := _config.ConfigFilepath
	if configFilepath == "" {
		configFilepath = DEFAULT_CONFIG_FILEPATH
	}
	fileConfig := readYamlConfig(configFilepath, _config.ConfigFilepath != "")

	if _config.LogLevel == "" {
		_config.LogLevel = firstNonEmpty(fileConfig.LogLevel, DEFAULT_LOG_LEVEL)
	}
	if !slices.Contains(common.LOG_LEVELS, _config.LogLevel) {
		panic("Invalid log level " + _config.LogLevel + ". Must be one of " + strings.Join(common.LOG_LEVELS, ", "))
	}
	if _config.StorageType == "" {
		_config.StorageType = firstNonEmpty(fileConfig.Storage.Type, DEFAULT_STORAGE_TYPE)
	}
	if !slices.Contains(common.STORAGE_TYPES, _config.StorageType) {
		panic("Invalid storage type " + _config.StorageType + ". Must be one of " + strings.Join(common.STORAGE_TYPES, ", "))
	}
	if _config.StoragePath == "" {
		_config.StoragePath = firstNonEmpty(fileConfig.Storage.Path, DEFAULT_STORAGE_PATH)
	}

	if _config.Aws.Region == "" {
		_config.Aws.Region = fileConfig.Aws.Region
	}
	if _config.Aws.S3Endpoint == "" {
		_config.Aws.S3Endpoint = fileConfig.Aws.S3Endpoint
	}
	if _config.Aws.S3Bucket == "" {
		_config.Aws.S3Bucket = fileConfig.Aws.S3Bucket
	}
	if _config.Aws.AccessKeyId == "" {
		_config.Aws.AccessKeyId = fileConfig.Aws.AccessKeyId
	}
	if _config.Aws.SecretAccessKey == "" {
		_config.Aws.SecretAccessKey = fileConfig.Aws.SecretAccessKey
	}
	if _config.StorageType == common.STORAGE_TYPE_S3 {
		if _config.Aws.Region == "" {
			panic("AWS region is required")
		}
		if _config.Aws.S3Bucket == "" {
			panic("AWS S3 bucket name is required")
		}
		if _config.Aws.AccessKeyId != "" && _config.Aws.SecretAccessKey == "" {
			panic("AWS secret access key is required when an access key ID is set")
		}
	}

	defaultAvroConfig := common.DefaultAvroConfig()
	_config.Avro.AllowMissingFields = parseBool("avro-allow-missing-fields", _configParseValues.avroAllowMissingFields, fileConfig.Avro.AllowMissingFields, defaultAvroConfig.AllowMissingFields)
	_config.Avro.NullAsDefault = parseBool("avro-null-as-default", _configParseValues.avroNullAsDefault, fileConfig.Avro.NullAsDefault, defaultAvroConfig.NullAsDefault)

	_configParseValues = configParseValues{}
}

func LoadConfig(reRegisterFlags ...bool) *Config {
	if reRegisterFlags != nil && reRegisterFlags[0] {
		flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
		_config = Config{}
		registerFlags()
	}
	parseFlags()
	return &_config
}

func readYamlConfig(configFilepath string, isRequired bool) yamlConfig {
	var fileConfig yamlConfig

	content, err := os.ReadFile(configFilepath)
	if err != nil {
		if os.IsNotExist(err) && !isRequired {
			return fileConfig
		}
		common.PanicIfError(err, "Failed to read config file "+configFilepath)
	}

	err = yaml.Unmarshal(content, &fileConfig)
	common.PanicIfError(err, "Failed to parse config file "+configFilepath)

	return fileConfig
}

func parseBool(name string, value string, fileValue *bool, defaultValue bool) bool {
	if value == "" {
		if fileValue != nil {
			return *fileValue
		}
		return defaultValue
	}

	result, err := strconv.ParseBool(value)
	if err != nil {
		panic("Invalid value " + value + " for " + name + ". Must be \"true\" or \"false\"")
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
