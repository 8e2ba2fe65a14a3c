package debugui

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenecore/ecs"
)

const browserRefreshFrames = 30

var hierarchyNodeType = ecs.TypeOf[ecs.HierarchyNode]()

type EntityInfo struct {
	ID             ecs.EntityId
	Name           string
	Tag            string
	Parent         ecs.EntityId
	Depth          int
	Active         bool
	Mask           ecs.Mask
	ComponentTypes []string
}

type EntityBrowserCache struct {
	entities        []EntityInfo
	lastEntityCount int
	staleFrames     int
	sortColumn      int
	sortAscending   bool
}

func NewEntityBrowserComponent(maxEntitiesPerPage int) EntityBrowserComponent {
	return EntityBrowserComponent{
		cache: &EntityBrowserCache{
			sortColumn:    0,
			sortAscending: true,
		},
		maxEntitiesPerPage: maxEntitiesPerPage,
	}
}

func (eb *EntityBrowserComponent) Render(w *ecs.World) {
	if !imgui.BeginV("Entity Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	eb.rebuildCacheIfNeeded(w)

	imgui.InputTextWithHint("##search", "Search...", &eb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		eb.filterText = ""
		eb.filterKind = nil
	}
	imgui.SameLine()
	if imgui.Button("Refresh") {
		eb.cache.entities = nil
	}
	imgui.SameLine()
	imgui.Checkbox("Tree", &eb.showTree)

	if eb.filterKind != nil {
		if t, ok := w.Registry().TypeOf(*eb.filterKind); ok {
			imgui.Text(fmt.Sprintf("Holding: %s", t.String()))
		}
	}

	if eb.showTree {
		eb.renderTree(w)
		imgui.End()
		return
	}

	filteredEntities := eb.getFilteredEntities()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 6, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Entity ID")
		imgui.TableSetupColumn("Name")
		imgui.TableSetupColumn("Tag")
		imgui.TableSetupColumn("Parent")
		imgui.TableSetupColumn("Depth")
		imgui.TableSetupColumn("Components")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			eb.cache.sortColumn = int(spec.ColumnIndex())
			eb.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			eb.sortEntities()
			sortSpecs.SetSpecsDirty(false)
			filteredEntities = eb.getFilteredEntities()
		}

		startIdx := eb.currentPage * eb.maxEntitiesPerPage
		endIdx := min(startIdx+eb.maxEntitiesPerPage, len(filteredEntities))

		for i := startIdx; i < endIdx; i++ {
			entity := filteredEntities[i]
			imgui.TableNextRow()

			imgui.TableNextColumn()
			isSelected := eb.selectedEntityId == entity.ID
			if imgui.SelectableBoolV(fmt.Sprintf("%d", entity.ID), isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				eb.selectedEntityId = entity.ID
			}

			imgui.TableNextColumn()
			imgui.Text(entity.Name)

			imgui.TableNextColumn()
			imgui.Text(entity.Tag)

			imgui.TableNextColumn()
			if entity.Parent != 0 {
				imgui.Text(fmt.Sprintf("%d", entity.Parent))
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", entity.Depth))

			imgui.TableNextColumn()
			imgui.Text(strings.Join(entity.ComponentTypes, ", "))
		}

		imgui.EndTable()
	}

	if len(filteredEntities) > eb.maxEntitiesPerPage {
		totalPages := (len(filteredEntities) + eb.maxEntitiesPerPage - 1) / eb.maxEntitiesPerPage
		eb.currentPage = min(eb.currentPage, totalPages-1)
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.currentPage+1, totalPages, len(filteredEntities)))
		imgui.SameLine()
		if imgui.Button("Prev") && eb.currentPage > 0 {
			eb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && eb.currentPage < totalPages-1 {
			eb.currentPage++
		}
	} else {
		eb.currentPage = 0
		imgui.Text(fmt.Sprintf("Total: %d entities", len(filteredEntities)))
	}

	imgui.End()
}

func (eb *EntityBrowserComponent) renderTree(w *ecs.World) {
	h := w.Hierarchy()
	var visit func(id ecs.EntityId)
	visit = func(id ecs.EntityId) {
		label := entityLabel(w, id)
		if !h.IsActive(id) {
			label += " (inactive)"
		}

		children := h.Children(id)
		if len(children) == 0 {
			imgui.BulletText(label)
			eb.selectButton(id)
			return
		}

		open := imgui.TreeNodeStr(fmt.Sprintf("%s##%d", label, id))
		eb.selectButton(id)
		if open {
			for _, child := range children {
				visit(child)
			}
			imgui.TreePop()
		}
	}

	for _, root := range h.Roots() {
		visit(root)
	}
}

func (eb *EntityBrowserComponent) selectButton(id ecs.EntityId) {
	imgui.SameLine()
	label := "select"
	if eb.selectedEntityId == id {
		label = "selected"
	}
	if imgui.Button(fmt.Sprintf("%s##sel%d", label, id)) {
		eb.selectedEntityId = id
	}
}

func entityLabel(w *ecs.World, id ecs.EntityId) string {
	if name := w.Name(id); name != "" {
		return fmt.Sprintf("%s [%d]", name, id)
	}
	return fmt.Sprintf("entity %d", id)
}

func (eb *EntityBrowserComponent) rebuildCacheIfNeeded(w *ecs.World) {
	eb.cache.staleFrames++
	if eb.cache.lastEntityCount != w.Len() || eb.cache.staleFrames >= browserRefreshFrames {
		eb.cache.entities = nil
		eb.cache.lastEntityCount = w.Len()
	}

	if eb.cache.entities == nil {
		eb.rebuildCache(w)
	}
}

func (eb *EntityBrowserComponent) rebuildCache(w *ecs.World) {
	eb.cache.staleFrames = 0
	eb.cache.entities = make([]EntityInfo, 0, w.Len())

	h := w.Hierarchy()
	for _, id := range w.Entities() {
		parent, _ := h.Parent(id)
		eb.cache.entities = append(eb.cache.entities, EntityInfo{
			ID:             id,
			Name:           w.Name(id),
			Tag:            w.Tag(id),
			Parent:         parent,
			Depth:          h.Depth(id),
			Active:         h.IsActive(id),
			Mask:           w.Mask(id),
			ComponentTypes: componentNames(w.Types(id)),
		})
	}

	eb.sortEntities()
}

func componentNames(types []reflect.Type) []string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		if t == hierarchyNodeType {
			continue
		}
		names = append(names, t.String())
	}
	return names
}

func (eb *EntityBrowserComponent) sortEntities() {
	sort.SliceStable(eb.cache.entities, func(i, j int) bool {
		a, b := eb.cache.entities[i], eb.cache.entities[j]
		if !eb.cache.sortAscending {
			a, b = b, a
		}

		switch eb.cache.sortColumn {
		case 1:
			return a.Name < b.Name
		case 2:
			return a.Tag < b.Tag
		case 3:
			return a.Parent < b.Parent
		case 4:
			return a.Depth < b.Depth
		case 5:
			return len(a.ComponentTypes) < len(b.ComponentTypes)
		default:
			return a.ID < b.ID
		}
	})
}

func (eb *EntityBrowserComponent) getFilteredEntities() []EntityInfo {
	if eb.filterText == "" && eb.filterKind == nil {
		return eb.cache.entities
	}

	filtered := make([]EntityInfo, 0, len(eb.cache.entities))
	filterLower := strings.ToLower(eb.filterText)

	for _, entity := range eb.cache.entities {
		if eb.filterKind != nil && !entity.Mask.Has(*eb.filterKind) {
			continue
		}

		if eb.filterText != "" {
			idStr := fmt.Sprintf("%d", entity.ID)
			componentsStr := strings.ToLower(strings.Join(entity.ComponentTypes, " "))

			if !strings.Contains(idStr, filterLower) &&
				!strings.Contains(strings.ToLower(entity.Name), filterLower) &&
				!strings.Contains(strings.ToLower(entity.Tag), filterLower) &&
				!strings.Contains(componentsStr, filterLower) {
				continue
			}
		}

		filtered = append(filtered, entity)
	}

	return filtered
}

// SetKindFilter limits the table to entities holding kind. nil clears it.
func (eb *EntityBrowserComponent) SetKindFilter(kind *ecs.ComponentID) {
	eb.filterKind = kind
	eb.currentPage = 0
}

func (eb *EntityBrowserComponent) GetSelectedEntity() ecs.EntityId {
	return eb.selectedEntityId
}
