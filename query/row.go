package query

import (
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
)

// Row is a read-only key→value view over one result row.
type Row map[string]any

// Get returns the column value, or nil when the column is absent.
func (r Row) Get(column string) any {
	return r[column]
}

// Has reports whether the row carries the column.
func (r Row) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// As copies matching columns into dest, which must be a pointer to struct.
// Columns are matched by the `db` field tag, falling back to the snake_cased
// field name. Unmatched columns are ignored; a type mismatch is an error.
func (r Row) As(dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("Row.As expects a pointer to struct, got %T", dest)
	}
	v = v.Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		column := field.Tag.Get("db")
		if column == "-" {
			continue
		}
		if column == "" {
			column = toSnakeCase(field.Name)
		}

		value, ok := r[column]
		if !ok || value == nil {
			continue
		}

		fv := v.Field(i)
		rv := reflect.ValueOf(value)
		switch {
		case rv.Type().AssignableTo(fv.Type()):
			fv.Set(rv)
		case rv.Type().ConvertibleTo(fv.Type()):
			fv.Set(rv.Convert(fv.Type()))
		default:
			return fmt.Errorf("column %q: cannot assign %s to field %s (%s)",
				column, rv.Type(), field.Name, fv.Type())
		}
	}
	return nil
}

// rowFromPgx materializes the cursor's current row.
func rowFromPgx(rows pgx.Rows) (Row, error) {
	values, err := rows.Values()
	if err != nil {
		return nil, err
	}

	descs := rows.FieldDescriptions()
	row := make(Row, len(descs))
	for i, desc := range descs {
		row[desc.Name] = values[i]
	}
	return row, nil
}

// collectOne drains rows and returns the first one, or nil when the result
// set is empty.
func collectOne(rows pgx.Rows) (Row, error) {
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	row, err := rowFromPgx(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()
	return row, rows.Err()
}

func collectAll(rows pgx.Rows) ([]Row, error) {
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := rowFromPgx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
