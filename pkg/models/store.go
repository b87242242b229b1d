package models

// Project is a user-defined named bucket for sessions.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UngroupedProjectID is the reserved id of the implicit "ungrouped" bucket.
// It is never persisted as a named project.
const UngroupedProjectID = ""

// DisplayOrderItemType tags entries in the display order sequence.
type DisplayOrderItemType string

const (
	ItemTypeProject DisplayOrderItemType = "project"
	ItemTypeSession DisplayOrderItemType = "session"
)

// DisplayOrderItem is one entry in the ordered interleaving of project
// headers and session keys. Exactly one of ID/Key is set, per Type.
type DisplayOrderItem struct {
	Type DisplayOrderItemType `json:"type"`
	// ID is the project id for project items.
	ID string `json:"id,omitempty"`
	// Key is the session key for session items.
	Key string `json:"key,omitempty"`
}

// ProjectItem constructs a project header item.
func ProjectItem(id string) DisplayOrderItem {
	return DisplayOrderItem{Type: ItemTypeProject, ID: id}
}

// SessionItem constructs a session item.
func SessionItem(key string) DisplayOrderItem {
	return DisplayOrderItem{Type: ItemTypeSession, Key: key}
}

// StoreData is the whole persisted store document. It is owned exclusively
// by the store facade; other components receive copies.
type StoreData struct {
	Sessions     map[string]*Session `json:"sessions"`
	Projects     map[string]*Project `json:"projects"`
	DisplayOrder []DisplayOrderItem  `json:"displayOrder"`
	UpdatedAt    string              `json:"updated_at,omitempty"`
}

// NewStoreData returns an empty, fully initialized store document.
func NewStoreData() *StoreData {
	return &StoreData{
		Sessions: make(map[string]*Session),
		Projects: make(map[string]*Project),
	}
}

// Clone returns a deep copy of the document. The write cache holds clones so
// later mutations never race an in-flight flush.
func (d *StoreData) Clone() *StoreData {
	out := &StoreData{
		Sessions:     make(map[string]*Session, len(d.Sessions)),
		Projects:     make(map[string]*Project, len(d.Projects)),
		DisplayOrder: make([]DisplayOrderItem, len(d.DisplayOrder)),
		UpdatedAt:    d.UpdatedAt,
	}
	for k, s := range d.Sessions {
		copied := *s
		out.Sessions[k] = &copied
	}
	for k, p := range d.Projects {
		copied := *p
		out.Projects[k] = &copied
	}
	copy(out.DisplayOrder, d.DisplayOrder)
	return out
}
