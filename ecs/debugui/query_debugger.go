package debugui

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenecore/ecs"
)

const queryPreviewLimit = 50

type clauseMode int

const (
	clauseOff clauseMode = iota
	clauseAll
	clauseAny
	clauseNone
)

var clauseModeNames = []string{"-", "all", "any", "none"}

type querySelection struct {
	modes map[string]clauseMode
	tag   string
	name  string
}

type QueryDebuggerCache struct {
	componentTypes []reflect.Type
	lastKindCount  int
}

func NewQueryDebuggerComponent() QueryDebuggerComponent {
	return QueryDebuggerComponent{
		selection: &querySelection{modes: make(map[string]clauseMode)},
		cache: &QueryDebuggerCache{
			lastKindCount: -1,
		},
	}
}

func (qd *QueryDebuggerComponent) Render(w *ecs.World) {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	qd.rebuildCacheIfNeeded(w.Registry())

	imgui.InputTextWithHint("##tag", "tag", &qd.selection.tag, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	imgui.InputTextWithHint("##name", "name", &qd.selection.name, imgui.InputTextFlagsNone, nil)

	if imgui.Button("Clear All") {
		qd.selection = &querySelection{modes: make(map[string]clauseMode)}
	}
	imgui.Separator()

	for _, t := range qd.cache.componentTypes {
		key := t.String()
		mode := qd.selection.modes[key]
		imgui.Text(key)
		for m := clauseAll; m <= clauseNone; m++ {
			imgui.SameLine()
			selected := mode == m
			if imgui.Checkbox(fmt.Sprintf("%s##%s", clauseModeNames[m], key), &selected) {
				if selected {
					qd.selection.modes[key] = m
				} else {
					delete(qd.selection.modes, key)
				}
			}
		}
	}

	imgui.Separator()

	cond := qd.condition()
	if cond.IsEmpty() {
		imgui.Text("No clauses selected")
		imgui.End()
		return
	}

	matches := w.Query(cond)
	imgui.Text(fmt.Sprintf("Condition: %s", cond))
	imgui.Text(fmt.Sprintf("Matching Entities: %d", len(matches)))

	if imgui.TreeNodeStr("Matches") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("QueryMatchTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Entity ID")
			imgui.TableSetupColumn("Name")
			imgui.TableSetupColumn("Components")
			imgui.TableHeadersRow()

			for i, id := range matches {
				if i == queryPreviewLimit {
					break
				}
				imgui.TableNextRow()

				imgui.TableSetColumnIndex(0)
				imgui.Text(fmt.Sprintf("%d", id))

				imgui.TableSetColumnIndex(1)
				imgui.Text(w.Name(id))

				imgui.TableSetColumnIndex(2)
				imgui.Text(fmt.Sprintf("%v", componentNames(w.Types(id))))
			}

			imgui.EndTable()
		}
		if len(matches) > queryPreviewLimit {
			imgui.Text(fmt.Sprintf("... and %d more", len(matches)-queryPreviewLimit))
		}
		imgui.TreePop()
	}

	imgui.End()
}

// condition builds the Condition described by the current selection.
func (qd *QueryDebuggerComponent) condition() ecs.Condition {
	var all, anyOf, none []reflect.Type
	for _, t := range qd.cache.componentTypes {
		switch qd.selection.modes[t.String()] {
		case clauseAll:
			all = append(all, t)
		case clauseAny:
			anyOf = append(anyOf, t)
		case clauseNone:
			none = append(none, t)
		}
	}

	cond := ecs.Match()
	if len(all) > 0 {
		cond = cond.All(all...)
	}
	if len(anyOf) > 0 {
		cond = cond.Any(anyOf...)
	}
	if len(none) > 0 {
		cond = cond.None(none...)
	}
	if qd.selection.tag != "" {
		cond = cond.WithTag(qd.selection.tag)
	}
	if qd.selection.name != "" {
		cond = cond.WithName(qd.selection.name)
	}
	return cond
}

func (qd *QueryDebuggerComponent) rebuildCacheIfNeeded(registry *ecs.ComponentRegistry) {
	if qd.cache.lastKindCount != registry.Len() {
		qd.cache.componentTypes = nil
		qd.cache.lastKindCount = registry.Len()
	}

	if qd.cache.componentTypes == nil {
		qd.rebuildCache(registry)
	}
}

func (qd *QueryDebuggerComponent) rebuildCache(registry *ecs.ComponentRegistry) {
	qd.cache.componentTypes = registry.Types()
	sort.Slice(qd.cache.componentTypes, func(i, j int) bool {
		return qd.cache.componentTypes[i].String() < qd.cache.componentTypes[j].String()
	})
}
