package postgres

import (
	"reflect"
)

// ExtractDBColumns extracts all column names from struct "db" tags.
// Embedded structs are walked recursively.
//
// Usage:
//
//	columns := ExtractDBColumns[ledger.LocationInfo]()
//	// Returns: ["name", "usage"]
func ExtractDBColumns[T any]() []string {
	var zero T
	return extractColumnsFromType(reflect.TypeOf(zero))
}

// QualifiedColumns prefixes every column of T with a table alias.
func QualifiedColumns[T any](alias string) []string {
	cols := ExtractDBColumns[T]()
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return cols
}

func extractColumnsFromType(t reflect.Type) []string {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Anonymous {
			cols = append(cols, extractColumnsFromType(field.Type)...)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}

	return cols
}
