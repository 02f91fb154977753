package offset

import (
	"fmt"
	"strings"
	"time"

	"github.com/dataflux/dataflux/sqlgen"
)

// Config declares which Strategy to build and the columns it needs,
// as written in a pipeline's pagination block.
type Config struct {
	Strategy   string // "pk" | "numeric" | "timestamp" | "default" | ""
	Cursor     *sqlgen.QualCol
	Tiebreaker *sqlgen.QualCol
	Timezone   string
}

// UnsupportedStrategyError is returned by FromConfig for an
// unrecognized Strategy name.
type UnsupportedStrategyError struct{ Name string }

func (e *UnsupportedStrategyError) Error() string {
	return fmt.Sprintf("unsupported offset strategy: %q", e.Name)
}

// MissingColumnError is returned by FromConfig when a strategy
// requires a cursor or tiebreaker column the config didn't supply.
type MissingColumnError struct {
	Strategy, Field string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s offset requires a %q column", e.Strategy, e.Field)
}

func defaultPk() sqlgen.QualCol {
	return sqlgen.QualCol{Column: "id"}
}

// FromConfig builds the Strategy named by config, defaulting to
// DefaultOffset when config.Strategy is empty.
func FromConfig(config Config) (Strategy, error) {
	name := strings.ToLower(config.Strategy)
	if name == "" {
		name = "default"
	}
	switch name {
	case "pk":
		if config.Cursor == nil {
			return nil, &MissingColumnError{Strategy: "pk", Field: "cursor"}
		}
		return PkOffset{Pk: *config.Cursor}, nil

	case "numeric":
		if config.Cursor == nil {
			return nil, &MissingColumnError{Strategy: "numeric", Field: "cursor"}
		}
		if config.Tiebreaker == nil {
			return nil, &MissingColumnError{Strategy: "numeric", Field: "tiebreaker"}
		}
		return NumericOffset{Col: *config.Cursor, Pk: *config.Tiebreaker}, nil

	case "timestamp":
		if config.Cursor == nil {
			return nil, &MissingColumnError{Strategy: "timestamp", Field: "cursor"}
		}
		if config.Tiebreaker == nil {
			return nil, &MissingColumnError{Strategy: "timestamp", Field: "tiebreaker"}
		}
		loc := time.UTC
		if config.Timezone != "" {
			if l, err := time.LoadLocation(config.Timezone); err == nil {
				loc = l
			}
		}
		return TimestampOffset{TsCol: *config.Cursor, Pk: *config.Tiebreaker, Loc: loc}, nil

	case "default":
		return DefaultOffset{Start: 0}, nil
	}
	return nil, &UnsupportedStrategyError{Name: config.Strategy}
}

// FromCursor rebuilds the Strategy that must have produced cursor,
// used when resuming a run from a persisted checkpoint rather than
// from pipeline configuration.
func FromCursor(cursor Cursor) Strategy {
	switch cursor.Kind() {
	case KindPk:
		pkCol, _, _ := cursor.Pk()
		return PkOffset{Pk: pkCol}

	case KindNumeric:
		col, _, _ := cursor.Numeric()
		return NumericOffset{Col: col, Pk: defaultPk()}

	case KindCompositeNumPk:
		numCol, pkCol, _, _, _ := cursor.CompositeNumPk()
		return NumericOffset{Col: numCol, Pk: pkCol}

	case KindTimestamp:
		col, _, _ := cursor.Timestamp()
		return TimestampOffset{TsCol: col, Pk: defaultPk(), Loc: time.UTC}

	case KindCompositeTsPk:
		tsCol, pkCol, _, _, _ := cursor.CompositeTsPk()
		return TimestampOffset{TsCol: tsCol, Pk: pkCol, Loc: time.UTC}

	case KindDefault:
		off, _ := cursor.Offset()
		return DefaultOffset{Start: off}

	default:
		return DefaultOffset{Start: 0}
	}
}
