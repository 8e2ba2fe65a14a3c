package debugui

import (
	"github.com/plus3/scenecore/ecs"
)

type EntityBrowserComponent struct {
	cache              *EntityBrowserCache
	selectedEntityId   ecs.EntityId
	filterText         string
	filterKind         *ecs.ComponentID
	showTree           bool
	maxEntitiesPerPage int
	currentPage        int
}

type ComponentInspectorComponent struct {
	selectedEntityId ecs.EntityId
	lastError        string
}

type StoreViewerComponent struct {
	cache         *StoreViewerCache
	selectedKind  *ecs.ComponentID
	sortColumn    int
	sortAscending bool
}

type PerformanceStatsComponent struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
}

type QueryDebuggerComponent struct {
	selection *querySelection
	cache     *QueryDebuggerCache
}
