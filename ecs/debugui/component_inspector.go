package debugui

import (
	"fmt"
	"reflect"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenecore/ecs"
	"github.com/rotisserie/eris"
)

func NewComponentInspectorComponent() ComponentInspectorComponent {
	return ComponentInspectorComponent{}
}

func (ci *ComponentInspectorComponent) Render(w *ecs.World, selectedEntityId ecs.EntityId) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	if ci.selectedEntityId != selectedEntityId {
		ci.lastError = ""
	}
	ci.selectedEntityId = selectedEntityId

	if ci.selectedEntityId == 0 {
		imgui.Text("No entity selected")
		imgui.End()
		return
	}

	if !w.Alive(ci.selectedEntityId) {
		imgui.Text(fmt.Sprintf("Entity %d not found", ci.selectedEntityId))
		imgui.End()
		return
	}

	id := ci.selectedEntityId
	imgui.Text(fmt.Sprintf("Entity ID: %d", id))
	if name := w.Name(id); name != "" {
		imgui.Text(fmt.Sprintf("Name: %s", name))
	}
	if tag := w.Tag(id); tag != "" {
		imgui.Text(fmt.Sprintf("Tag: %s", tag))
	}
	imgui.Text(fmt.Sprintf("Mask: %s", w.Mask(id)))
	ci.renderHierarchy(w, id)
	imgui.Separator()

	for _, compType := range w.Types(id) {
		if compType == hierarchyNodeType {
			continue
		}
		component, ok := w.Component(id, compType)
		if !ok {
			continue
		}

		if imgui.TreeNodeStr(compType.String()) {
			ci.renderComponent(w, id, compType, component)
			imgui.TreePop()
		}
	}

	if ci.lastError != "" {
		imgui.Separator()
		imgui.Text(ci.lastError)
	}

	imgui.End()
}

func (ci *ComponentInspectorComponent) renderHierarchy(w *ecs.World, id ecs.EntityId) {
	h := w.Hierarchy()
	if parent, ok := h.Parent(id); ok {
		imgui.Text(fmt.Sprintf("Parent: %s", entityLabel(w, parent)))
	}
	imgui.Text(fmt.Sprintf("Depth: %d  Children: %d", h.Depth(id), len(h.Children(id))))

	active := h.IsActiveSelf(id)
	if imgui.Checkbox("Active", &active) {
		h.SetActive(id, active)
	}
	if !h.IsActive(id) {
		imgui.SameLine()
		imgui.Text("(inactive in hierarchy)")
	}
}

func (ci *ComponentInspectorComponent) renderComponent(w *ecs.World, id ecs.EntityId, compType reflect.Type, component any) {
	val := reflect.ValueOf(component)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	for _, field := range globalReflectionCache.GetFields(compType) {
		fieldVal := val.Field(field.Index)
		if field.IsPointer && !fieldVal.IsNil() {
			fieldVal = fieldVal.Elem()
		}

		ci.renderField(w, id, compType, []int{field.Index}, fieldVal, field)
	}
}

func (ci *ComponentInspectorComponent) renderField(w *ecs.World, id ecs.EntityId, compType reflect.Type, path []int, val reflect.Value, field FieldInfo) {
	name := field.Name
	if !val.IsValid() {
		imgui.Text(fmt.Sprintf("%s: <invalid>", name))
		return
	}

	if field.IsPointer && val.Kind() == reflect.Ptr && val.IsNil() {
		imgui.Text(fmt.Sprintf("%s: nil", name))
		return
	}

	// Fields behind pointers are shown but not edited; the stored value
	// shares them with every copy.
	editable := field.Editable
	widget := fmt.Sprintf("##%s%v", name, path)

	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := int32(val.Int())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(widget, &v) && editable {
			ci.report(setField(w, id, compType, path, int64(v)))
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := int32(val.Uint())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(widget, &v) && editable && v >= 0 {
			ci.report(setField(w, id, compType, path, uint64(v)))
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(widget, &v) && editable {
			ci.report(setField(w, id, compType, path, float64(v)))
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name+widget, &v) && editable {
			ci.report(setField(w, id, compType, path, v))
		}

	case reflect.String:
		v := val.String()
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint(widget, "", &v, imgui.InputTextFlagsNone, nil) && editable {
			ci.report(setField(w, id, compType, path, v))
		}

	case reflect.Struct:
		if imgui.TreeNodeStr(name + widget) {
			for _, nf := range globalReflectionCache.GetFields(val.Type()) {
				nestedVal := val.Field(nf.Index)
				if nf.IsPointer && !nestedVal.IsNil() {
					nestedVal = nestedVal.Elem()
				}
				if field.IsPointer {
					nf.Editable = false
				}
				ci.renderField(w, id, compType, append(append([]int(nil), path...), nf.Index), nestedVal, nf)
			}
			imgui.TreePop()
		}

	case reflect.Slice:
		imgui.Text(fmt.Sprintf("%s: [%d items]", name, val.Len()))

	case reflect.Map:
		imgui.Text(fmt.Sprintf("%s: map[%d items]", name, val.Len()))

	default:
		imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
	}
}

func (ci *ComponentInspectorComponent) report(err error) {
	if err != nil {
		ci.lastError = err.Error()
		return
	}
	ci.lastError = ""
}

// setField writes value into the field at path of the compType component
// attached to id. Components are values, so the edit is made on a copy that
// then replaces the stored one.
func setField(w *ecs.World, id ecs.EntityId, compType reflect.Type, path []int, value any) error {
	current, ok := w.Component(id, compType)
	if !ok {
		return eris.Errorf("entity %d has no %v", id, compType)
	}

	copied := reflect.New(compType).Elem()
	src := reflect.ValueOf(current)
	if src.Kind() == reflect.Ptr {
		src = src.Elem()
	}
	copied.Set(src)

	field := copied
	for _, idx := range path {
		if field.Kind() != reflect.Struct || idx >= field.NumField() {
			return eris.Errorf("%v: invalid field path %v", compType, path)
		}
		field = field.Field(idx)
	}
	if !field.CanSet() {
		return eris.Errorf("%v: field %v is not settable", compType, path)
	}

	switch v := value.(type) {
	case int64:
		if !field.CanInt() || field.OverflowInt(v) {
			return eris.Errorf("%v: cannot store %d in %v", compType, v, field.Type())
		}
		field.SetInt(v)
	case uint64:
		if !field.CanUint() || field.OverflowUint(v) {
			return eris.Errorf("%v: cannot store %d in %v", compType, v, field.Type())
		}
		field.SetUint(v)
	case float64:
		if !field.CanFloat() {
			return eris.Errorf("%v: cannot store %g in %v", compType, v, field.Type())
		}
		field.SetFloat(v)
	case bool:
		if field.Kind() != reflect.Bool {
			return eris.Errorf("%v: cannot store bool in %v", compType, field.Type())
		}
		field.SetBool(v)
	case string:
		if field.Kind() != reflect.String {
			return eris.Errorf("%v: cannot store string in %v", compType, field.Type())
		}
		field.SetString(v)
	default:
		return eris.Errorf("%v: unsupported value %T", compType, value)
	}

	return w.Replace(id, copied.Interface())
}
