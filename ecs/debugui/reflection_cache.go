package debugui

import (
	"reflect"
	"sync"
)

// FieldInfo describes one exported field of a component struct. Type is the
// pointed-to type for pointer fields.
type FieldInfo struct {
	Name      string
	Type      reflect.Type
	Kind      reflect.Kind
	Index     int
	IsPointer bool
	IsStruct  bool
	IsSlice   bool
	IsMap     bool
	// Editable is set for scalar fields the inspector can write back.
	Editable bool
}

type ReflectionCache struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]FieldInfo
}

func NewReflectionCache() *ReflectionCache {
	return &ReflectionCache{
		fields: make(map[reflect.Type][]FieldInfo),
	}
}

func (rc *ReflectionCache) GetFields(t reflect.Type) []FieldInfo {
	rc.mu.RLock()
	cached, ok := rc.fields[t]
	rc.mu.RUnlock()
	if ok {
		return cached
	}

	fields := describeFields(t)

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if cached, ok := rc.fields[t]; ok {
		return cached
	}
	rc.fields[t] = fields
	return fields
}

func describeFields(t reflect.Type) []FieldInfo {
	if t.Kind() != reflect.Struct {
		return nil
	}

	var fields []FieldInfo
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		fieldType := field.Type
		isPointer := fieldType.Kind() == reflect.Ptr
		if isPointer {
			fieldType = fieldType.Elem()
		}
		kind := fieldType.Kind()

		fields = append(fields, FieldInfo{
			Name:      field.Name,
			Type:      fieldType,
			Kind:      kind,
			Index:     i,
			IsPointer: isPointer,
			IsStruct:  kind == reflect.Struct,
			IsSlice:   kind == reflect.Slice,
			IsMap:     kind == reflect.Map,
			Editable:  !isPointer && scalarKind(kind),
		})
	}
	return fields
}

func scalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

var globalReflectionCache = NewReflectionCache()
