package common

import (
	"fmt"
	"io"

	"github.com/hamba/avro/v2"
	"github.com/linkedin/goavro"
)

// AvroFileReader reads an Avro object container file row by row. The writer schema comes from the file header.
type AvroFileReader struct {
	ocfReader    *goavro.OCFReader
	writerSchema *avro.RecordSchema
}

func NewAvroFileReader(reader io.Reader) (*AvroFileReader, error) {
	ocfReader, err := goavro.NewOCFReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create Avro OCF reader: %v", err)
	}

	// Named types are resolved within this file only
	writerSchema, err := avro.ParseWithCache(ocfReader.Codec().Schema(), "", &avro.SchemaCache{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse Avro writer schema: %v", ErrMalformedMetadata, err)
	}

	recordSchema, ok := writerSchema.(*avro.RecordSchema)
	if !ok {
		return nil, fmt.Errorf("%w: Avro writer schema root is %s, expected a record", ErrMalformedMetadata, writerSchema.Type())
	}

	return &AvroFileReader{
		ocfReader:    ocfReader,
		writerSchema: recordSchema,
	}, nil
}

// FieldAt resolves the name and data type of the top-level writer schema field at the given position.
func (avroReader *AvroFileReader) FieldAt(index int) (name string, dataType AvroDataType, err error) {
	fields := avroReader.writerSchema.Fields()
	if index < 0 || index >= len(fields) {
		return "", AvroDataType{}, fmt.Errorf("%w: Avro writer schema has %d field(s), no field at position %d", ErrMalformedMetadata, len(fields), index)
	}

	field := fields[index]
	dataType, err = AvroSchemaToDataType(field.Type())
	if err != nil {
		return "", AvroDataType{}, fmt.Errorf("field %q: %w", field.Name(), err)
	}

	return field.Name(), dataType, nil
}

// DecodeColumn reads all remaining rows into a single column holding the named top-level field.
func DecodeColumn(avroReader *AvroFileReader, dataType AvroDataType, fieldName string, settings AvroConfig) (Column, error) {
	column := NewColumn(dataType)

	for avroReader.ocfReader.Scan() {
		datum, err := avroReader.ocfReader.Read()
		if err != nil {
			return nil, fmt.Errorf("failed to read Avro row: %v", err)
		}

		record, ok := datum.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: Avro row is %T, expected a record", ErrMalformedMetadata, datum)
		}

		value, ok := record[fieldName]
		if !ok {
			if !settings.AllowMissingFields {
				return nil, fmt.Errorf("%w: Avro row has no %q field", ErrMalformedMetadata, fieldName)
			}
			column.appendDefault()
			continue
		}

		err = appendValue(column, value, settings)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fieldName, err)
		}
	}

	if err := avroReader.ocfReader.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan Avro rows: %v", err)
	}

	return column, nil
}
