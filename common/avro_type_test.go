package common

import (
	"errors"
	"testing"

	"github.com/hamba/avro/v2"
)

func parseAvroSchema(t *testing.T, schema string) avro.Schema {
	parsedSchema, err := avro.ParseWithCache(schema, "", &avro.SchemaCache{})
	if err != nil {
		t.Fatalf("Failed to parse schema %s: %v", schema, err)
	}
	return parsedSchema
}

func TestAvroSchemaToDataType(t *testing.T) {
	t.Run("Maps Avro schemas to column types", func(t *testing.T) {
		testCases := map[string]string{
			`"string"`:           "String",
			`"long"`:             "Int64",
			`"int"`:              "Int32",
			`"boolean"`:          "Bool",
			`"double"`:           "Float64",
			`"bytes"`:            "Bytes",
			`["null", "string"]`: "Nullable(String)",
			`["string", "null"]`: "Nullable(String)",
			`["null"]`:           "Nothing",
			`{"type": "long", "logicalType": "timestamp-micros"}`:   "Int64",
			`{"type": "fixed", "name": "uuid_fixed", "size": 16}`:   "FixedBytes(16)",
			`{"type": "enum", "name": "op", "symbols": ["a", "b"]}`: "Enum(a, b)",
			`{"type": "array", "items": "long"}`:                    "Array(Int64)",
			`{"type": "map", "values": "bytes"}`:                    "Map(String, Bytes)",
			`{"type": "record", "name": "r2", "fields": [{"name": "file_path", "type": "string"}, {"name": "spec_id", "type": ["null", "int"]}]}`: "Tuple(file_path String, spec_id Nullable(Int32))",
		}

		for schema, expected := range testCases {
			dataType, err := AvroSchemaToDataType(parseAvroSchema(t, schema))
			if err != nil {
				t.Errorf("Expected no error for %s, got %v", schema, err)
				continue
			}
			if dataType.String() != expected {
				t.Errorf("Expected %s to map to %s, got %s", schema, expected, dataType.String())
			}
		}
	})

	t.Run("Resolves references to named types by full name", func(t *testing.T) {
		schema := `{"type": "record", "name": "manifest_file", "namespace": "iceberg", "fields": [
			{"name": "lower", "type": {"type": "record", "name": "r508", "fields": [{"name": "contains_null", "type": "boolean"}]}},
			{"name": "upper", "type": {"type": "record", "name": "r508", "namespace": "other", "fields": [{"name": "count", "type": "long"}]}},
			{"name": "same", "type": "r508"},
			{"name": "qualified", "type": "iceberg.r508"}
		]}`

		dataType, err := AvroSchemaToDataType(parseAvroSchema(t, schema))

		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		expected := "Tuple(lower Tuple(contains_null Bool), upper Tuple(count Int64), same Tuple(contains_null Bool), qualified Tuple(contains_null Bool))"
		if dataType.String() != expected {
			t.Errorf("Expected %s, got %s", expected, dataType.String())
		}
		if dataType.Fields[1].DataType.Name != "other.r508" {
			t.Errorf("Expected other.r508, got %s", dataType.Fields[1].DataType.Name)
		}
	})

	t.Run("Rejects unions with several non-null branches", func(t *testing.T) {
		_, err := AvroSchemaToDataType(parseAvroSchema(t, `["null", "string", "long"]`))

		if !errors.Is(err, ErrMalformedMetadata) {
			t.Errorf("Expected ErrMalformedMetadata, got %v", err)
		}
	})

	t.Run("Rejects recursive records", func(t *testing.T) {
		schema := `{"type": "record", "name": "node", "fields": [{"name": "next", "type": ["null", "node"]}]}`

		_, err := AvroSchemaToDataType(parseAvroSchema(t, schema))

		if !errors.Is(err, ErrMalformedMetadata) {
			t.Errorf("Expected ErrMalformedMetadata, got %v", err)
		}
	})
}
