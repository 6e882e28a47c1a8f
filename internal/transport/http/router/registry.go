package router

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// A module implements MountAPI, MountAdmin or both.
type APIModule interface{ MountAPI(*gin.RouterGroup) }
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// Modules may implement prioritizer to mount earlier (lower first, default 100).
type prioritizer interface{ Priority() int }

func byPriority[T any](mods []T) []T {
	out := append([]T(nil), mods...)
	sort.SliceStable(out, func(i, j int) bool { return priorityOf(out[i]) < priorityOf(out[j]) })
	return out
}

func MountAllAPI(api *gin.RouterGroup, mods ...APIModule) {
	for _, m := range byPriority(mods) {
		m.MountAPI(api)
	}
}

func MountAllAdmin(admin *gin.RouterGroup, mods ...AdminModule) {
	for _, m := range byPriority(mods) {
		m.MountAdmin(admin)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
