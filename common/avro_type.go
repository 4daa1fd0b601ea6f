package common

import (
	"fmt"
	"strings"

	"github.com/hamba/avro/v2"
)

type ColumnType string

const (
	COLUMN_TYPE_NOTHING  ColumnType = "Nothing"
	COLUMN_TYPE_BOOL     ColumnType = "Bool"
	COLUMN_TYPE_INT32    ColumnType = "Int32"
	COLUMN_TYPE_INT64    ColumnType = "Int64"
	COLUMN_TYPE_FLOAT32  ColumnType = "Float32"
	COLUMN_TYPE_FLOAT64  ColumnType = "Float64"
	COLUMN_TYPE_STRING   ColumnType = "String"
	COLUMN_TYPE_BYTES    ColumnType = "Bytes"
	COLUMN_TYPE_FIXED    ColumnType = "FixedBytes"
	COLUMN_TYPE_ENUM     ColumnType = "Enum"
	COLUMN_TYPE_NULLABLE ColumnType = "Nullable"
	COLUMN_TYPE_ARRAY    ColumnType = "Array"
	COLUMN_TYPE_MAP      ColumnType = "Map"
	COLUMN_TYPE_TUPLE    ColumnType = "Tuple"
)

// AvroDataType describes the column an Avro schema node decodes into.
type AvroDataType struct {
	Type    ColumnType
	Name    string        // record, enum and fixed names
	Fields  []AvroField   // Tuple
	Element *AvroDataType // Array items, Map values, Nullable inner type
	Symbols []string      // Enum
	Size    int           // FixedBytes
}

type AvroField struct {
	Name     string
	DataType AvroDataType
}

func (dataType AvroDataType) String() string {
	switch dataType.Type {
	case COLUMN_TYPE_NULLABLE, COLUMN_TYPE_ARRAY:
		return string(dataType.Type) + "(" + dataType.Element.String() + ")"
	case COLUMN_TYPE_MAP:
		return "Map(String, " + dataType.Element.String() + ")"
	case COLUMN_TYPE_FIXED:
		return fmt.Sprintf("%s(%d)", dataType.Type, dataType.Size)
	case COLUMN_TYPE_ENUM:
		return "Enum(" + strings.Join(dataType.Symbols, ", ") + ")"
	case COLUMN_TYPE_TUPLE:
		fieldStrings := make([]string, len(dataType.Fields))
		for i, field := range dataType.Fields {
			fieldStrings[i] = field.Name + " " + field.DataType.String()
		}
		return "Tuple(" + strings.Join(fieldStrings, ", ") + ")"
	}

	return string(dataType.Type)
}

// AvroSchemaToDataType maps a parsed Avro schema to a column data type.
// Records become nested Tuple types and references resolve to the named type they point at.
func AvroSchemaToDataType(schema avro.Schema) (AvroDataType, error) {
	return avroSchemaToDataType(schema, map[string]bool{})
}

func avroSchemaToDataType(schema avro.Schema, visitingRecords map[string]bool) (AvroDataType, error) {
	switch typedSchema := schema.(type) {
	case *avro.RefSchema:
		return avroSchemaToDataType(typedSchema.Schema(), visitingRecords)
	case *avro.RecordSchema:
		return avroRecordToDataType(typedSchema, visitingRecords)
	case *avro.UnionSchema:
		return avroUnionToDataType(typedSchema, visitingRecords)
	case *avro.ArraySchema:
		elementType, err := avroSchemaToDataType(typedSchema.Items(), visitingRecords)
		if err != nil {
			return AvroDataType{}, err
		}
		return AvroDataType{Type: COLUMN_TYPE_ARRAY, Element: &elementType}, nil
	case *avro.MapSchema:
		valueType, err := avroSchemaToDataType(typedSchema.Values(), visitingRecords)
		if err != nil {
			return AvroDataType{}, err
		}
		return AvroDataType{Type: COLUMN_TYPE_MAP, Element: &valueType}, nil
	case *avro.EnumSchema:
		return AvroDataType{Type: COLUMN_TYPE_ENUM, Name: typedSchema.FullName(), Symbols: typedSchema.Symbols()}, nil
	case *avro.FixedSchema:
		return AvroDataType{Type: COLUMN_TYPE_FIXED, Name: typedSchema.FullName(), Size: typedSchema.Size()}, nil
	}

	// Primitives, including ones carrying a logical type such as timestamp-micros
	switch schema.Type() {
	case avro.Null:
		return AvroDataType{Type: COLUMN_TYPE_NOTHING}, nil
	case avro.Boolean:
		return AvroDataType{Type: COLUMN_TYPE_BOOL}, nil
	case avro.Int:
		return AvroDataType{Type: COLUMN_TYPE_INT32}, nil
	case avro.Long:
		return AvroDataType{Type: COLUMN_TYPE_INT64}, nil
	case avro.Float:
		return AvroDataType{Type: COLUMN_TYPE_FLOAT32}, nil
	case avro.Double:
		return AvroDataType{Type: COLUMN_TYPE_FLOAT64}, nil
	case avro.Bytes:
		return AvroDataType{Type: COLUMN_TYPE_BYTES}, nil
	case avro.String:
		return AvroDataType{Type: COLUMN_TYPE_STRING}, nil
	}

	return AvroDataType{}, fmt.Errorf("%w: unsupported Avro type %s", ErrMalformedMetadata, schema.Type())
}

func avroUnionToDataType(schema *avro.UnionSchema, visitingRecords map[string]bool) (AvroDataType, error) {
	hasNull := false
	nonNullBranches := []avro.Schema{}
	for _, branch := range schema.Types() {
		if branch.Type() == avro.Null {
			hasNull = true
		} else {
			nonNullBranches = append(nonNullBranches, branch)
		}
	}

	switch len(nonNullBranches) {
	case 0:
		return AvroDataType{Type: COLUMN_TYPE_NOTHING}, nil
	case 1:
		elementType, err := avroSchemaToDataType(nonNullBranches[0], visitingRecords)
		if err != nil {
			return AvroDataType{}, err
		}
		if !hasNull {
			return elementType, nil
		}
		return AvroDataType{Type: COLUMN_TYPE_NULLABLE, Element: &elementType}, nil
	}

	return AvroDataType{}, fmt.Errorf("%w: unsupported Avro union with %d non-null branches", ErrMalformedMetadata, len(nonNullBranches))
}

func avroRecordToDataType(schema *avro.RecordSchema, visitingRecords map[string]bool) (AvroDataType, error) {
	fullName := schema.FullName()
	if visitingRecords[fullName] {
		return AvroDataType{}, fmt.Errorf("%w: recursive Avro record %s", ErrMalformedMetadata, fullName)
	}
	visitingRecords[fullName] = true
	defer delete(visitingRecords, fullName)

	fields := make([]AvroField, 0, len(schema.Fields()))
	for _, field := range schema.Fields() {
		fieldType, err := avroSchemaToDataType(field.Type(), visitingRecords)
		if err != nil {
			return AvroDataType{}, fmt.Errorf("field %q: %w", field.Name(), err)
		}
		fields = append(fields, AvroField{Name: field.Name(), DataType: fieldType})
	}

	return AvroDataType{Type: COLUMN_TYPE_TUPLE, Name: fullName, Fields: fields}, nil
}
