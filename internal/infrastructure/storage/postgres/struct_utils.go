package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the column names from struct "db" tags, walking
// embedded structs. Intended for building SELECT lists once at startup.
//
// Usage:
//
//	columns := ExtractDBColumns[snapshotHeader]()
//	// Returns: ["id", "company", "from_date", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := typeMetadataFor(reflect.TypeOf(zero))
	return meta.columns()
}

// fieldInfo is a tagged field or an embedded struct.
type fieldInfo struct {
	index    int
	dbTag    string
	embedded *typeMetadata
}

type typeMetadata struct {
	fields []fieldInfo
}

func (m *typeMetadata) columns() []string {
	var cols []string
	for _, f := range m.fields {
		if f.embedded != nil {
			cols = append(cols, f.embedded.columns()...)
			continue
		}
		cols = append(cols, f.dbTag)
	}
	return cols
}

// typeCache maps reflect.Type to *typeMetadata.
var typeCache sync.Map

func typeMetadataFor(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				meta.fields = append(meta.fields, fieldInfo{index: i, embedded: typeMetadataFor(field.Type)})
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, fieldInfo{index: i, dbTag: tag})
		}
	}

	typeCache.Store(t, meta)
	return meta
}

// StructToMap converts a struct to a column/value map using "db" tags,
// suitable for squirrel's SetMap.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	res := make(map[string]any)
	fill(rv, typeMetadataFor(rv.Type()), res)
	return res
}

func fill(rv reflect.Value, meta *typeMetadata, res map[string]any) {
	for _, f := range meta.fields {
		fv := rv.Field(f.index)
		if f.embedded != nil {
			if fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			fill(fv, f.embedded, res)
			continue
		}
		res[f.dbTag] = fv.Interface()
	}
}
