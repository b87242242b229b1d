package displayorder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grovetools/lookout/pkg/models"
)

func TestWindowSmallListShowsEverything(t *testing.T) {
	vp := Window(2, 10, 5)
	assert.Equal(t, 0, vp.Start)
}

func TestWindowRecentersOnSelection(t *testing.T) {
	vp := Window(10, 6, 20)
	assert.Equal(t, 7, vp.Start)
}

func TestWindowClampsAtEdges(t *testing.T) {
	assert.Equal(t, 0, Window(0, 6, 20).Start)
	assert.Equal(t, 14, Window(19, 6, 20).Start)
}

func TestVisibleRowsFlatWithoutProjects(t *testing.T) {
	o := order(sess("a"), sess("b"))
	rows := VisibleRows(o, Viewport{Start: 0, Size: 10, Total: 2})

	assert.Len(t, rows, 2)
	assert.Equal(t, RowSession, rows[0].Type)
	assert.Equal(t, 1, rows[0].Number)
	assert.Equal(t, 2, rows[1].Number)
}

func TestVisibleRowsEmitsHeadersLazily(t *testing.T) {
	o := order(sess("u"), proj("p1"), sess("a"), proj("empty"), proj("p2"), sess("b"))
	rows := VisibleRows(o, Viewport{Start: 0, Size: 10, Total: 3})

	assert.Equal(t, []Row{
		{Type: RowHeader, ProjectID: models.UngroupedProjectID},
		{Type: RowSession, Key: "u", Number: 1},
		{Type: RowHeader, ProjectID: "p1"},
		{Type: RowSession, Key: "a", Number: 2},
		{Type: RowHeader, ProjectID: "p2"},
		{Type: RowSession, Key: "b", Number: 3},
	}, rows, "empty projects emit no header")
}

func TestVisibleRowsNumberingIsGlobal(t *testing.T) {
	o := order(sess("a"), sess("b"), sess("c"), sess("d"))
	rows := VisibleRows(o, Viewport{Start: 2, Size: 2, Total: 4})

	assert.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].Number)
	assert.Equal(t, "c", rows[0].Key)
	assert.Equal(t, 4, rows[1].Number)
}

func TestVisibleRowsHeaderOnlyWhenMemberVisible(t *testing.T) {
	o := order(proj("p1"), sess("a"), proj("p2"), sess("b"))
	rows := VisibleRows(o, Viewport{Start: 1, Size: 1, Total: 2})

	assert.Equal(t, []Row{
		{Type: RowHeader, ProjectID: "p2"},
		{Type: RowSession, Key: "b", Number: 2},
	}, rows)
}

func TestCountSessions(t *testing.T) {
	o := order(sess("a"), proj("p1"), sess("b"))
	assert.Equal(t, 2, CountSessions(o))
	assert.Equal(t, 0, CountSessions(nil))
}
