package displayorder

import "github.com/grovetools/lookout/pkg/models"

// RowType distinguishes visible dashboard rows.
type RowType string

const (
	RowHeader  RowType = "header"
	RowSession RowType = "session"
)

// Row is one visible dashboard row.
type Row struct {
	Type RowType
	// ProjectID is set on header rows; the ungrouped sentinel marks the
	// implicit header.
	ProjectID string
	// Key and Number are set on session rows. Number is the session's
	// 1-based position across the whole order, independent of visibility.
	Key    string
	Number int
}

// Viewport describes the window of session numbering currently shown.
type Viewport struct {
	Start int // first visible session index, 0-based
	Size  int
	Total int
}

// Window computes the half-open [start, start+size) slice of the session
// numbering recentered on the selected index and clamped to [0, total-size].
func Window(selected, size, total int) Viewport {
	if size <= 0 || total <= size {
		return Viewport{Start: 0, Size: size, Total: total}
	}
	start := selected - size/2
	if start < 0 {
		start = 0
	}
	if start > total-size {
		start = total - size
	}
	return Viewport{Start: start, Size: size, Total: total}
}

// VisibleRows derives the rows shown for a viewport. Project headers are
// emitted only once at least one member session falls inside the window.
// The implicit ungrouped header appears only when a named project exists
// elsewhere in the order; otherwise ungrouped sessions render flat.
func VisibleRows(order []models.DisplayOrderItem, vp Viewport) []Row {
	hasNamedProject := false
	for _, it := range order {
		if it.Type == models.ItemTypeProject {
			hasNamedProject = true
			break
		}
	}

	end := vp.Start + vp.Size
	if vp.Size <= 0 {
		end = vp.Total
	}

	var rows []Row
	currentHeader := models.UngroupedProjectID
	headerEmitted := !hasNamedProject // flat rendering never buffers a header
	num := 0

	for _, it := range order {
		switch it.Type {
		case models.ItemTypeProject:
			currentHeader = it.ID
			headerEmitted = false
		case models.ItemTypeSession:
			idx := num
			num++
			if idx < vp.Start || idx >= end {
				continue
			}
			if !headerEmitted {
				rows = append(rows, Row{Type: RowHeader, ProjectID: currentHeader})
				headerEmitted = true
			}
			rows = append(rows, Row{Type: RowSession, Key: it.Key, Number: idx + 1})
		}
	}
	return rows
}

// CountSessions returns the number of session items in the order.
func CountSessions(order []models.DisplayOrderItem) int {
	n := 0
	for _, it := range order {
		if it.Type == models.ItemTypeSession {
			n++
		}
	}
	return n
}
