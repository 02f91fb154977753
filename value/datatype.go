package value

import "strings"

// DataType is the closed sum of SQL-ish primitive types the engine
// reasons about when planning schema and validating rows.
type DataType struct {
	name string
	custom string
	arrayOf *string
}

var (
	Null_ = DataType{name: "Null"}
	Int = DataType{name: "Int"}
	Int4 = DataType{name: "Int4"}
	IntUnsigned = DataType{name: "IntUnsigned"}
	Short = DataType{name: "Short"}
	ShortUnsigned = DataType{name: "ShortUnsigned"}
	Long = DataType{name: "Long"}
	LongLong = DataType{name: "LongLong"}
	Float = DataType{name: "Float"}
	Double = DataType{name: "Double"}
	Decimal_ = DataType{name: "Decimal"}
	Boolean = DataType{name: "Boolean"}
	Char = DataType{name: "Char"}
	VarChar = DataType{name: "VarChar"}
	String_ = DataType{name: "String"}
	Date_ = DataType{name: "Date"}
	Time_ = DataType{name: "Time"}
	Timestamp_ = DataType{name: "Timestamp"}
	Year = DataType{name: "Year"}
	Json = DataType{name: "Json"}
	Bit = DataType{name: "Bit"}
	Enum_ = DataType{name: "Enum"}
	Set = DataType{name: "Set"}
	TinyBlob = DataType{name: "TinyBlob"}
	MediumBlob = DataType{name: "MediumBlob"}
	LongBlob = DataType{name: "LongBlob"}
	Blob = DataType{name: "Blob"}
	Binary = DataType{name: "Binary"}
	VarBinary = DataType{name: "VarBinary"}
	Bytea = DataType{name: "Bytea"}
	Geometry = DataType{name: "Geometry"}
)

// Array constructs the Array(inner) DataType. inner is nil for an
// array whose element type is unknown (e.g. inferred from a driver
// that reports only "ARRAY").
func Array(inner *string) DataType {
	return DataType{name: "Array", arrayOf: inner}
}

// Custom constructs a driver-reported type this engine doesn't model
// natively (e.g. a Postgres domain type).
func Custom(name string) DataType {
	return DataType{name: "Custom", custom: name}
}

func (d DataType) String() string { return d.MySQLName() }

func (d DataType) Name() string { return d.name }

// ArrayInner reports the element type name for an Array DataType.
func (d DataType) ArrayInner() (string, bool) {
	if d.name != "Array" || d.arrayOf == nil {
		return "", false
	}
	return *d.arrayOf, true
}

// CustomName reports the driver type name for a Custom DataType.
func (d DataType) CustomName() (string, bool) {
	if d.name != "Custom" {
		return "", false
	}
	return d.custom, true
}

func (d DataType) equalKind(o DataType) bool {
	if d.name != o.name {
		return false
	}
	if d.name == "Custom" {
		return strings.EqualFold(d.custom, o.custom)
	}
	return true
}

// compatPair is an unordered pair of type names in the compatibility
// table below.
type compatPair struct{ a, b string }

var compatTable = buildCompatTable()

func buildCompatTable() map[compatPair]bool {
	pairs := [][2]string{
		{"Int", "IntUnsigned"},
		{"Short", "ShortUnsigned"},
		{"Long", "IntUnsigned"},
		{"LongLong", "Long"},
		{"Int4", "Int"},
		{"Int", "Short"},
		{"String", "VarChar"},
		{"Geometry", "Bytea"},
		{"Geometry", "Binary"},
		{"Geometry", "VarBinary"},
		{"Blob", "Bytea"},
		{"TinyBlob", "Bytea"},
		{"MediumBlob", "Bytea"},
		{"LongBlob", "Bytea"},
		{"Binary", "Bytea"},
		{"VarBinary", "Bytea"},
		{"Enum", "String"},
		{"Set", "Array"},
		{"Year", "Int"},
		{"Date", "Timestamp"},
	}
	m := make(map[compatPair]bool, len(pairs)*2)
	for _, p := range pairs {
		m[compatPair{p[0], p[1]}] = true
		m[compatPair{p[1], p[0]}] = true
	}
	return m
}

// IsCompatible implements the symmetric compatibility relation:
// reflexive (exact match always compatible) plus the enumerated
// narrowing/widening pairs.
func (d DataType) IsCompatible(o DataType) bool {
	if d.equalKind(o) {
		return true
	}
	return compatTable[compatPair{d.name, o.name}]
}

// SupportsLength reports whether dialect renders a length/precision
// qualifier for this type (e.g. VARCHAR(n)).
func (d DataType) SupportsLength(dialect string) bool {
	switch strings.ToLower(dialect) {
	case "postgres":
		return d.equalKind(VarChar) || d.equalKind(Char)
	case "mysql":
		return d.equalKind(VarChar) || d.equalKind(Char) || d.equalKind(Binary) || d.equalKind(VarBinary)
	}
	return false
}

// MySQLName renders the MySQL DDL type keyword for d.
func (d DataType) MySQLName() string {
	switch d.name {
	case "Decimal":
		return "DECIMAL"
	case "Short":
		return "SMALLINT"
	case "ShortUnsigned":
		return "SMALLINT UNSIGNED"
	case "Long":
		return "BIGINT"
	case "LongLong":
		return "BIGINT UNSIGNED"
	case "Int", "Int4":
		return "INT"
	case "IntUnsigned":
		return "INT UNSIGNED"
	case "Float":
		return "FLOAT"
	case "Double":
		return "DOUBLE"
	case "Boolean":
		return "BOOLEAN"
	case "Null":
		return "NULL"
	case "Timestamp":
		return "TIMESTAMP"
	case "Date":
		return "DATE"
	case "Time":
		return "TIME"
	case "Year":
		return "YEAR"
	case "VarChar":
		return "VARCHAR"
	case "Char":
		return "CHAR"
	case "String":
		return "TEXT"
	case "Bit":
		return "BIT"
	case "Json":
		return "JSON"
	case "Enum":
		return "ENUM"
	case "Set":
		return "SET"
	case "TinyBlob":
		return "TINYBLOB"
	case "MediumBlob":
		return "MEDIUMBLOB"
	case "LongBlob":
		return "LONGBLOB"
	case "Blob", "Bytea":
		return "BLOB"
	case "Binary":
		return "BINARY"
	case "VarBinary":
		return "VARBINARY"
	case "Geometry":
		return "GEOMETRY"
	case "Array":
		if d.arrayOf != nil {
			return *d.arrayOf
		}
		return "ARRAY"
	case "Custom":
		return d.custom
	}
	return "TEXT"
}

// PostgresName renders the Postgres DDL type keyword for d.
func (d DataType) PostgresName() string {
	switch d.name {
	case "Decimal":
		return "DECIMAL"
	case "Short", "ShortUnsigned":
		return "SMALLINT"
	case "Long", "LongLong":
		return "BIGINT"
	case "Int", "Int4", "IntUnsigned":
		return "INTEGER"
	case "Float":
		return "REAL"
	case "Double":
		return "DOUBLE PRECISION"
	case "Boolean":
		return "BOOLEAN"
	case "Null":
		return "NULL"
	case "Timestamp":
		return "TIMESTAMP"
	case "Date":
		return "DATE"
	case "Time":
		return "TIME"
	case "Year":
		return "INTEGER"
	case "VarChar":
		return "VARCHAR"
	case "Char":
		return "CHAR"
	case "String":
		return "TEXT"
	case "Bit":
		return "BIT"
	case "Json":
		return "JSONB"
	case "Enum":
		return "ENUM"
	case "Set":
		return "TEXT[]"
	case "Array":
		if d.arrayOf != nil {
			return *d.arrayOf
		}
		return "TEXT[]"
	case "TinyBlob", "MediumBlob", "LongBlob", "Blob", "Binary", "VarBinary", "Bytea", "Geometry":
		return "BYTEA"
	case "Custom":
		return d.custom
	}
	return "TEXT"
}

var mysqlTypeMap = map[string]DataType{
	"BOOLEAN": Boolean, "BOOL": Boolean,
	"TINYINT": Short, "SMALLINT": Short,
	"TINYINT UNSIGNED": ShortUnsigned, "SMALLINT UNSIGNED": ShortUnsigned,
	"MEDIUMINT": Int, "MEDIUMINT UNSIGNED": IntUnsigned,
	"INT": Int, "INTEGER": Int,
	"INT UNSIGNED": Long, "INTEGER UNSIGNED": Long,
	"BIGINT": Long, "BIGINT UNSIGNED": LongLong,
	"FLOAT": Float, "DOUBLE": Double, "DOUBLE PRECISION": Double,
	"DECIMAL": Decimal_, "NUMERIC": Decimal_, "NEWDECIMAL": Decimal_,
	"NULL": Null_, "TIMESTAMP": Timestamp_, "DATETIME": Timestamp_,
	"DATE": Date_, "TIME": Time_, "YEAR": Year, "BIT": Bit,
	"ENUM": Enum_, "SET": Set, "JSON": Json, "GEOMETRY": Geometry,
	"CHAR": Char, "CHARACTER": Char, "VARCHAR": VarChar, "CHARACTER VARYING": VarChar,
	"TEXT": String_, "TINYTEXT": String_, "MEDIUMTEXT": String_, "LONGTEXT": String_,
	"BINARY": Binary, "VARBINARY": VarBinary,
	"TINYBLOB": TinyBlob, "BLOB": Blob, "MEDIUMBLOB": MediumBlob, "LONGBLOB": LongBlob,
	"ARRAY": Array(nil),
}

var postgresTypeMap = map[string]DataType{
	"BOOLEAN": Boolean, "BOOL": Boolean,
	"SMALLINT": Short, "INT2": Short,
	"INTEGER": Int, "INT": Int, "INT4": Int4, "INT8": Long, "BIGINT": Long,
	"FLOAT4": Float, "REAL": Float, "FLOAT8": Double, "DOUBLE PRECISION": Double,
	"NUMERIC": Decimal_, "DECIMAL": Decimal_,
	"JSONB": Json, "JSON": Json,
	"TEXT": String_, "NAME": String_, "XML": String_,
	"CHARACTER VARYING": VarChar, "VARCHAR": VarChar,
	"CHARACTER": Char, "CHAR": Char, "BPCHAR": Char,
	"BYTEA": Bytea, "BIT": Bit,
	"DATE": Date_, "TIME": Time_, "TIME WITHOUT TIME ZONE": Time_, "TIME WITH TIME ZONE": Time_, "TIMETZ": Time_,
	"TIMESTAMP": Timestamp_, "TIMESTAMP WITHOUT TIME ZONE": Timestamp_,
	"TIMESTAMP WITH TIME ZONE": Timestamp_, "TIMESTAMPTZ": Timestamp_,
	"GEOMETRY": Geometry, "ARRAY": Array(nil),
}

// UnknownTypeError is returned by FromMySQLType / FromPostgresType
// when the driver-reported type name isn't recognized.
type UnknownTypeError struct {
	Dialect string
	TypeName string
}

func (e *UnknownTypeError) Error() string {
	return "unknown " + e.Dialect + " column type: " + e.TypeName
}

func normalizeTypeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// normalizePostgresArrayType recognizes Postgres's "_t" and "t[]"
// array spellings, returning the normalized "T[]" form.
func normalizePostgresArrayType(typeName string) (string, bool) {
	trimmed := strings.TrimSpace(typeName)
	switch {
	case strings.HasPrefix(trimmed, "_"):
		base := strings.TrimSpace(strings.TrimPrefix(trimmed, "_"))
		if base == "" {
			return "", false
		}
		return normalizeTypeName(base) + "[]", true
	case strings.HasSuffix(trimmed, "[]"):
		base := strings.TrimSpace(strings.TrimSuffix(trimmed, "[]"))
		if base == "" {
			return "", false
		}
		return normalizeTypeName(base) + "[]", true
	}
	return "", false
}

// FromMySQLType parses a MySQL driver-reported column type name.
func FromMySQLType(typeName string) (DataType, error) {
	norm := normalizeTypeName(typeName)
	if dt, ok := mysqlTypeMap[norm]; ok {
		return dt, nil
	}
	return DataType{}, &UnknownTypeError{Dialect: "MySQL", TypeName: typeName}
}

// FromPostgresType parses a Postgres driver-reported column type
// name, including the "_t" / "t[]" array spellings.
func FromPostgresType(typeName string) (DataType, error) {
	if arrName, ok := normalizePostgresArrayType(typeName); ok {
		name := arrName
		return Array(&name), nil
	}
	norm := normalizeTypeName(typeName)
	if dt, ok := postgresTypeMap[norm]; ok {
		return dt, nil
	}
	return DataType{}, &UnknownTypeError{Dialect: "Postgres", TypeName: typeName}
}
