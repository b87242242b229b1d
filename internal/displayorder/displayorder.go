// Package displayorder maintains the ordered interleaving of project headers
// and session keys that defines both render order and project membership.
// A session belongs to whichever project header most recently precedes it;
// sessions before the first header form the implicit ungrouped block.
//
// All operations are pure transforms on a DisplayOrderItem slice.
package displayorder

import (
	"sort"

	"github.com/grovetools/lookout/pkg/models"
)

// indexOfSession returns the index of the session item with the given key,
// or -1.
func indexOfSession(order []models.DisplayOrderItem, key string) int {
	for i, it := range order {
		if it.Type == models.ItemTypeSession && it.Key == key {
			return i
		}
	}
	return -1
}

// indexOfProject returns the index of the project header with the given id,
// or -1.
func indexOfProject(order []models.DisplayOrderItem, id string) int {
	for i, it := range order {
		if it.Type == models.ItemTypeProject && it.ID == id {
			return i
		}
	}
	return -1
}

// endOfUngrouped returns the index just past the leading ungrouped block,
// which is the position of the first project header (or len(order)).
func endOfUngrouped(order []models.DisplayOrderItem) int {
	for i, it := range order {
		if it.Type == models.ItemTypeProject {
			return i
		}
	}
	return len(order)
}

// endOfBlock returns the index just past the contiguous block owned by the
// project header at headerIdx.
func endOfBlock(order []models.DisplayOrderItem, headerIdx int) int {
	for i := headerIdx + 1; i < len(order); i++ {
		if order[i].Type == models.ItemTypeProject {
			return i
		}
	}
	return len(order)
}

func insertAt(order []models.DisplayOrderItem, idx int, it models.DisplayOrderItem) []models.DisplayOrderItem {
	out := make([]models.DisplayOrderItem, 0, len(order)+1)
	out = append(out, order[:idx]...)
	out = append(out, it)
	out = append(out, order[idx:]...)
	return out
}

func removeAt(order []models.DisplayOrderItem, idx int) []models.DisplayOrderItem {
	out := make([]models.DisplayOrderItem, 0, len(order)-1)
	out = append(out, order[:idx]...)
	out = append(out, order[idx+1:]...)
	return out
}

// AppendSession adds a session key to the order. With an empty projectID the
// key lands at the end of the leading ungrouped block; otherwise at the end
// of the project's contiguous block. A key already present is moved. A
// missing project header degrades to ungrouped.
func AppendSession(order []models.DisplayOrderItem, key, projectID string) []models.DisplayOrderItem {
	if idx := indexOfSession(order, key); idx >= 0 {
		order = removeAt(order, idx)
	}

	insertIdx := endOfUngrouped(order)
	if projectID != models.UngroupedProjectID {
		if headerIdx := indexOfProject(order, projectID); headerIdx >= 0 {
			insertIdx = endOfBlock(order, headerIdx)
		}
	}
	return insertAt(order, insertIdx, models.SessionItem(key))
}

// RemoveSession removes a session key from the order. Unknown keys are a
// no-op.
func RemoveSession(order []models.DisplayOrderItem, key string) []models.DisplayOrderItem {
	idx := indexOfSession(order, key)
	if idx < 0 {
		return order
	}
	return removeAt(order, idx)
}

// InsertProject appends a project header at the end of the order. An
// existing header is left where it is.
func InsertProject(order []models.DisplayOrderItem, id string) []models.DisplayOrderItem {
	if indexOfProject(order, id) >= 0 {
		return order
	}
	out := make([]models.DisplayOrderItem, len(order), len(order)+1)
	copy(out, order)
	return append(out, models.ProjectItem(id))
}

// DeleteProject removes a project header. Member sessions drop into the
// leading ungrouped block, preserving their relative order.
func DeleteProject(order []models.DisplayOrderItem, id string) []models.DisplayOrderItem {
	headerIdx := indexOfProject(order, id)
	if headerIdx < 0 {
		return order
	}
	blockEnd := endOfBlock(order, headerIdx)
	members := make([]models.DisplayOrderItem, blockEnd-headerIdx-1)
	copy(members, order[headerIdx+1:blockEnd])

	rest := make([]models.DisplayOrderItem, 0, len(order)-1-len(members))
	rest = append(rest, order[:headerIdx]...)
	rest = append(rest, order[blockEnd:]...)

	ungroupedEnd := endOfUngrouped(rest)
	out := make([]models.DisplayOrderItem, 0, len(rest)+len(members))
	out = append(out, rest[:ungroupedEnd]...)
	out = append(out, members...)
	out = append(out, rest[ungroupedEnd:]...)
	return out
}

// AssignSession moves a session key to the end of the target project's
// block. An empty projectID assigns it to the ungrouped block.
func AssignSession(order []models.DisplayOrderItem, key, projectID string) []models.DisplayOrderItem {
	return AppendSession(order, key, projectID)
}

// ProjectOf returns the project id owning the given session key, or the
// ungrouped sentinel.
func ProjectOf(order []models.DisplayOrderItem, key string) string {
	current := models.UngroupedProjectID
	for _, it := range order {
		switch it.Type {
		case models.ItemTypeProject:
			current = it.ID
		case models.ItemTypeSession:
			if it.Key == key {
				return current
			}
		}
	}
	return models.UngroupedProjectID
}

// MoveSession swaps a session with its adjacent sibling session in the same
// block. delta is -1 (up) or +1 (down). A move that would cross a project
// header, or at the boundary of the order, is a no-op.
func MoveSession(order []models.DisplayOrderItem, key string, delta int) []models.DisplayOrderItem {
	if delta != -1 && delta != 1 {
		return order
	}
	idx := indexOfSession(order, key)
	if idx < 0 {
		return order
	}
	neighbor := idx + delta
	if neighbor < 0 || neighbor >= len(order) {
		return order
	}
	if order[neighbor].Type != models.ItemTypeSession {
		return order
	}
	out := make([]models.DisplayOrderItem, len(order))
	copy(out, order)
	out[idx], out[neighbor] = out[neighbor], out[idx]
	return out
}

// MoveProject swaps a project's entire block with the adjacent project
// block. delta is -1 (up) or +1 (down). Boundaries are a no-op; a project
// cannot move above the ungrouped block.
func MoveProject(order []models.DisplayOrderItem, id string, delta int) []models.DisplayOrderItem {
	if delta != -1 && delta != 1 {
		return order
	}
	headerIdx := indexOfProject(order, id)
	if headerIdx < 0 {
		return order
	}
	blockEnd := endOfBlock(order, headerIdx)

	var otherStart, otherEnd int
	if delta < 0 {
		// The previous block must itself be a project block.
		otherStart = -1
		for i := headerIdx - 1; i >= 0; i-- {
			if order[i].Type == models.ItemTypeProject {
				otherStart = i
				break
			}
		}
		if otherStart < 0 {
			return order
		}
		otherEnd = headerIdx
		return swapRanges(order, otherStart, otherEnd, headerIdx, blockEnd)
	}

	if blockEnd >= len(order) {
		return order
	}
	otherStart = blockEnd
	otherEnd = endOfBlock(order, otherStart)
	return swapRanges(order, headerIdx, blockEnd, otherStart, otherEnd)
}

// swapRanges swaps two adjacent half-open ranges [aStart,aEnd) and
// [bStart,bEnd) where aEnd == bStart.
func swapRanges(order []models.DisplayOrderItem, aStart, aEnd, bStart, bEnd int) []models.DisplayOrderItem {
	out := make([]models.DisplayOrderItem, 0, len(order))
	out = append(out, order[:aStart]...)
	out = append(out, order[bStart:bEnd]...)
	out = append(out, order[aStart:aEnd]...)
	out = append(out, order[bEnd:]...)
	return out
}

// Normalize repairs an order against the authoritative session and project
// maps: duplicate items are dropped (first occurrence kept), items referring
// to unknown sessions or projects are removed, and sessions missing from the
// order are appended to the ungrouped block in creation order. Violations
// are repaired, never rejected.
func Normalize(order []models.DisplayOrderItem, sessions map[string]*models.Session, projects map[string]*models.Project) []models.DisplayOrderItem {
	seenSessions := make(map[string]bool)
	seenProjects := make(map[string]bool)
	out := make([]models.DisplayOrderItem, 0, len(order))

	for _, it := range order {
		switch it.Type {
		case models.ItemTypeSession:
			if seenSessions[it.Key] {
				continue
			}
			if _, ok := sessions[it.Key]; !ok {
				continue
			}
			seenSessions[it.Key] = true
			out = append(out, it)
		case models.ItemTypeProject:
			if it.ID == models.UngroupedProjectID || seenProjects[it.ID] {
				continue
			}
			if _, ok := projects[it.ID]; !ok {
				continue
			}
			seenProjects[it.ID] = true
			out = append(out, it)
		}
	}

	var orphans []string
	for key := range sessions {
		if !seenSessions[key] {
			orphans = append(orphans, key)
		}
	}
	sort.Slice(orphans, func(i, j int) bool {
		a, b := sessions[orphans[i]], sessions[orphans[j]]
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return orphans[i] < orphans[j]
	})
	for _, key := range orphans {
		out = AppendSession(out, key, models.UngroupedProjectID)
	}
	return out
}
