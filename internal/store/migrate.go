package store

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/lookout/internal/displayorder"
	"github.com/grovetools/lookout/pkg/models"
)

// rawStore is the tolerant on-disk shape used during migration. Sessions
// and projects stay raw so legacy fields survive the first decode, and
// DisplayOrder is a pointer so a missing field is distinguishable from an
// empty one.
type rawStore struct {
	Sessions     map[string]json.RawMessage `json:"sessions"`
	Projects     map[string]json.RawMessage `json:"projects"`
	DisplayOrder *[]models.DisplayOrderItem `json:"displayOrder"`
	UpdatedAt    string                     `json:"updated_at"`
}

// legacySessionFields are per-session fields from schema versions that
// predate the display order.
type legacySessionFields struct {
	Project string `json:"project"`
	Order   *int   `json:"order"`
}

// legacyProjectFields are deprecated per-project fields stripped on load.
type legacyProjectFields struct {
	Order *int `json:"order"`
}

type migratedSession struct {
	session *models.Session
	legacy  legacySessionFields
}

// migrate transforms a decoded legacy document into the current StoreData
// shape. Steps run in fixed order and are individually idempotent, so
// re-loading an already-current document is a no-op.
func migrate(raw rawStore, logger *logrus.Entry) *models.StoreData {
	out := models.NewStoreData()
	out.UpdatedAt = raw.UpdatedAt

	sessions, order := migrateSessionKeys(raw, logger)
	for key, ms := range sessions {
		out.Sessions[key] = ms.session
	}

	// Deprecated per-project fields are dropped here by decoding into the
	// current Project shape.
	for id, rawProj := range raw.Projects {
		var p models.Project
		if err := json.Unmarshal(rawProj, &p); err != nil {
			logger.WithError(err).WithField("project_id", id).Warn("skipping unreadable project record")
			continue
		}
		if p.ID == "" {
			p.ID = id
		}
		if id == models.UngroupedProjectID {
			// The ungrouped sentinel is implicit and never persisted.
			continue
		}
		out.Projects[p.ID] = &p
	}

	if order == nil {
		order = synthesizeDisplayOrder(sessions, raw.Projects, logger)
	}
	out.DisplayOrder = displayorder.Normalize(order, out.Sessions, out.Projects)
	return out
}

// migrateSessionKeys rewrites legacy "session_id:tty" keys to bare session
// ids. On collision the record with the later updated_at wins. The display
// order is rewritten to the new keys and de-duplicated, first occurrence
// kept.
func migrateSessionKeys(raw rawStore, logger *logrus.Entry) (map[string]migratedSession, []models.DisplayOrderItem) {
	sessions := make(map[string]migratedSession, len(raw.Sessions))
	renames := make(map[string]string)
	migrated := 0

	keys := make([]string, 0, len(raw.Sessions))
	for key := range raw.Sessions {
		keys = append(keys, key)
	}
	sort.Strings(keys) // deterministic collision handling

	for _, key := range keys {
		rawSess := raw.Sessions[key]
		var sess models.Session
		if err := json.Unmarshal(rawSess, &sess); err != nil {
			logger.WithError(err).WithField("key", key).Warn("skipping unreadable session record")
			continue
		}
		var legacy legacySessionFields
		_ = json.Unmarshal(rawSess, &legacy)

		newKey := key
		if idx := strings.Index(key, ":"); idx > 0 {
			newKey = key[:idx]
			renames[key] = newKey
			migrated++
		}
		if sess.SessionID == "" {
			sess.SessionID = newKey
		}

		if existing, ok := sessions[newKey]; ok {
			if !laterUpdated(&sess, existing.session) {
				continue
			}
		}
		sessions[newKey] = migratedSession{session: &sess, legacy: legacy}
	}

	var order []models.DisplayOrderItem
	if raw.DisplayOrder != nil {
		order = make([]models.DisplayOrderItem, 0, len(*raw.DisplayOrder))
		seen := make(map[string]bool)
		for _, it := range *raw.DisplayOrder {
			if it.Type == models.ItemTypeSession {
				if newKey, ok := renames[it.Key]; ok {
					it.Key = newKey
				}
				if seen[it.Key] {
					continue
				}
				seen[it.Key] = true
			}
			order = append(order, it)
		}
	}

	if migrated > 0 {
		fields := logrus.Fields{
			"reason":   "session_key_migration",
			"migrated": migrated,
			"sessions": len(sessions),
		}
		if raw.DisplayOrder != nil {
			fields["order_before"] = len(*raw.DisplayOrder)
			fields["order_after"] = len(order)
		}
		logger.WithFields(fields).Info("migrated legacy session keys")
	}
	return sessions, order
}

// synthesizeDisplayOrder builds a display order for stores that predate the
// displayOrder field, from legacy per-session project/order fields:
// ungrouped sessions first, then each legacy project in (order, name)
// sequence with its member sessions.
func synthesizeDisplayOrder(sessions map[string]migratedSession, rawProjects map[string]json.RawMessage, logger *logrus.Entry) []models.DisplayOrderItem {
	bySortedLegacy := func(keys []string) {
		sort.SliceStable(keys, func(i, j int) bool {
			a, b := sessions[keys[i]].legacy.Order, sessions[keys[j]].legacy.Order
			switch {
			case a != nil && b != nil && *a != *b:
				return *a < *b
			case a != nil && b == nil:
				return true
			case a == nil && b != nil:
				return false
			}
			return keys[i] < keys[j]
		})
	}

	members := make(map[string][]string)
	for key, ms := range sessions {
		members[ms.legacy.Project] = append(members[ms.legacy.Project], key)
	}
	for _, keys := range members {
		bySortedLegacy(keys)
	}

	type legacyProject struct {
		id    string
		name  string
		order *int
	}
	var projects []legacyProject
	for id, rawProj := range rawProjects {
		if id == models.UngroupedProjectID {
			continue
		}
		var p models.Project
		if err := json.Unmarshal(rawProj, &p); err != nil {
			continue
		}
		var legacy legacyProjectFields
		_ = json.Unmarshal(rawProj, &legacy)
		projects = append(projects, legacyProject{id: id, name: p.Name, order: legacy.Order})
	}
	sort.SliceStable(projects, func(i, j int) bool {
		a, b := projects[i].order, projects[j].order
		switch {
		case a != nil && b != nil && *a != *b:
			return *a < *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return projects[i].name < projects[j].name
	})

	var order []models.DisplayOrderItem
	for _, key := range members[models.UngroupedProjectID] {
		order = append(order, models.SessionItem(key))
	}
	for _, p := range projects {
		order = append(order, models.ProjectItem(p.id))
		for _, key := range members[p.id] {
			order = append(order, models.SessionItem(key))
		}
	}

	logger.WithFields(logrus.Fields{
		"reason":      "display_order_synthesis",
		"order_after": len(order),
		"sessions":    len(sessions),
		"projects":    len(projects),
	}).Info("synthesized display order from legacy fields")
	return order
}

// laterUpdated reports whether a should win a key collision against b.
func laterUpdated(a, b *models.Session) bool {
	at, aok := a.UpdatedTime()
	bt, bok := b.UpdatedTime()
	if aok && bok {
		return at.After(bt)
	}
	// A parsable timestamp beats an unparsable one.
	return aok
}
