package database

import (
	"database/sql"
	"fmt"
	"reflect"
)

// columnsOf lists the `db:` tagged columns of record with their values.
// The id column is left out of updates, and out of inserts while it is zero
// so the database assigns it.
func columnsOf(record interface{}, insert bool) (cols []string, vals []interface{}) {
	v := reflect.Indirect(reflect.ValueOf(record))
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		switch {
		case tag == "" || tag == "-":
			continue
		case tag == "id" && (!insert || v.Field(i).IsZero()):
			continue
		}
		cols = append(cols, tag)
		vals = append(vals, v.Field(i).Interface())
	}
	return cols, vals
}

// scanRows scans sql.Rows into a slice of structs using `db:` tags.
func scanRows(rows *sql.Rows, dest interface{}) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("Select: dest must be a pointer to a slice")
	}
	sliceVal := dv.Elem()
	elemType := sliceVal.Type().Elem()
	isPtr := elemType.Kind() == reflect.Ptr
	if isPtr {
		elemType = elemType.Elem()
	}

	for rows.Next() {
		elem := reflect.New(elemType).Elem()
		if err := rows.Scan(destPointers(elem, cols)...); err != nil {
			return err
		}
		if isPtr {
			sliceVal.Set(reflect.Append(sliceVal, elem.Addr()))
		} else {
			sliceVal.Set(reflect.Append(sliceVal, elem))
		}
	}
	return rows.Err()
}

// scanOne scans the first row into dest, which is either a pointer to a
// struct with `db:` tags or a pointer to a scalar for single-column queries.
func scanOne(rows *sql.Rows, dest interface{}) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("Get: dest must be a non-nil pointer")
	}
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return ErrNoRows
	}
	if err := rows.Scan(destPointers(dv.Elem(), cols)...); err != nil {
		return err
	}
	return rows.Close()
}

// destPointers maps column names to field pointers via `db:` tags. Columns
// without a matching field are discarded. A non-struct elem receives the
// first column.
func destPointers(elem reflect.Value, cols []string) []interface{} {
	ptrs := make([]interface{}, len(cols))
	if elem.Kind() != reflect.Struct {
		for i := range ptrs {
			var discard interface{}
			ptrs[i] = &discard
		}
		if len(ptrs) > 0 {
			ptrs[0] = elem.Addr().Interface()
		}
		return ptrs
	}

	tagMap := map[string]interface{}{}
	t := elem.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag != "" && tag != "-" {
			tagMap[tag] = elem.Field(i).Addr().Interface()
		}
	}
	for i, c := range cols {
		if p, ok := tagMap[c]; ok {
			ptrs[i] = p
		} else {
			var discard interface{}
			ptrs[i] = &discard
		}
	}
	return ptrs
}
