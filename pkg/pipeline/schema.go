package pipeline

// FieldType declares how an item field must decode when it is read back
// from the cache.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldInt    FieldType = "int"
	FieldFloat  FieldType = "float"
	FieldBool   FieldType = "bool"
	FieldTime   FieldType = "time"
)

// FieldTypes is the declared coercion map for item fields, supplied by
// the spider's record schema. Fields not listed decode with default
// JSON typing.
type FieldTypes map[string]FieldType
