package debugui

import (
	"fmt"
	"sort"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenecore/ecs"
)

type StoreInfo struct {
	ID       ecs.ComponentID
	Type     string
	Len      int
	Cap      int
	Columnar bool
}

type StoreViewerCache struct {
	stores        []StoreInfo
	sortColumn    int
	sortAscending bool
}

func NewStoreViewerComponent() StoreViewerComponent {
	return StoreViewerComponent{
		cache: &StoreViewerCache{
			sortColumn:    2,
			sortAscending: false,
		},
		sortColumn:    2,
		sortAscending: false,
	}
}

// Render draws one row per component store. It returns the kind whose row
// was clicked this frame, if any.
func (sv *StoreViewerComponent) Render(w *ecs.World) *ecs.ComponentID {
	if !imgui.BeginV("Store Viewer", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return nil
	}

	sv.rebuildCache(w.Storage())
	stats := w.Storage().CollectStats()
	imgui.Text(fmt.Sprintf("Kinds: %d / %d", stats.RegisteredKinds, stats.Capacity))
	imgui.Text(fmt.Sprintf("Stored values: %d", stats.TotalValues))
	if w.InBatch() {
		imgui.Text("Batch open")
	}

	maxLen := 0
	for _, st := range sv.cache.stores {
		maxLen = max(maxLen, st.Len)
	}

	var clicked *ecs.ComponentID

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("StoreTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Bit")
		imgui.TableSetupColumn("Component")
		imgui.TableSetupColumn("Len")
		imgui.TableSetupColumn("Cap")
		imgui.TableSetupColumn("Layout")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			sv.cache.sortColumn = int(spec.ColumnIndex())
			sv.cache.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sv.sortColumn = sv.cache.sortColumn
			sv.sortAscending = sv.cache.sortAscending
			sv.sortStores()
			sortSpecs.SetSpecsDirty(false)
		}

		for _, st := range sv.cache.stores {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			isSelected := sv.selectedKind != nil && *sv.selectedKind == st.ID
			if imgui.SelectableBoolV(fmt.Sprintf("%d", st.ID), isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				kind := st.ID
				clicked = &kind
				sv.selectedKind = &kind
			}

			imgui.TableNextColumn()
			imgui.Text(st.Type)

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", st.Len))
			if maxLen > 0 {
				barWidth := float32(st.Len) / float32(maxLen) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", st.Cap))

			imgui.TableNextColumn()
			if st.Columnar {
				imgui.Text("columnar")
			} else {
				imgui.Text("dense")
			}
		}

		imgui.EndTable()
	}

	imgui.End()
	return clicked
}

func (sv *StoreViewerComponent) rebuildCache(storage ecs.StorageView) {
	stats := storage.CollectStats()
	sv.cache.stores = sv.cache.stores[:0]
	for _, st := range stats.Stores {
		sv.cache.stores = append(sv.cache.stores, StoreInfo{
			ID:       st.ID,
			Type:     st.Type,
			Len:      st.Len,
			Cap:      st.Cap,
			Columnar: st.Columnar,
		})
	}
	sv.sortStores()
}

func (sv *StoreViewerComponent) sortStores() {
	sort.SliceStable(sv.cache.stores, func(i, j int) bool {
		a, b := sv.cache.stores[i], sv.cache.stores[j]
		if !sv.cache.sortAscending {
			a, b = b, a
		}

		switch sv.cache.sortColumn {
		case 0:
			return a.ID < b.ID
		case 1:
			return a.Type < b.Type
		case 3:
			return a.Cap < b.Cap
		case 4:
			return !a.Columnar && b.Columnar
		default:
			return a.Len < b.Len
		}
	})
}
