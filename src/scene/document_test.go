package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"click-overlay/src/geometry"
)

func box(x, y, w, h float64) geometry.Box { return geometry.Box{X: x, Y: y, Width: w, Height: h} }

func testLayout() Layout {
	return Layout{
		Viewport: geometry.Size{Width: 800, Height: 600},
		Elements: []Element{
			{ID: "root", Root: true, Interactive: true, Bounds: box(0, 0, 800, 600), Style: DefaultStyle()},
			{ID: "panel", Interactive: true, Bounds: box(10, 10, 200, 100), Style: DefaultStyle()},
			{ID: "label", Bounds: box(20, 20, 50, 20), Style: DefaultStyle()},
			{ID: "taskbar", Interactive: true, Bounds: box(0, 560, 800, 40), Style: DefaultStyle()},
		},
	}
}

func TestDocumentInteractiveSkipsRootsAndKeepsOrder(t *testing.T) {
	d := NewDocument()
	d.Replace(testLayout())

	var ids []string
	for _, el := range d.Interactive() {
		ids = append(ids, el.ID)
	}
	assert.Equal(t, []string{"panel", "taskbar"}, ids)
}

func TestDocumentStackAtIsTopmostFirst(t *testing.T) {
	d := NewDocument()
	d.Replace(testLayout())

	var ids []string
	for _, el := range d.StackAt(geometry.Point{X: 25, Y: 25}) {
		ids = append(ids, el.ID)
	}
	assert.Equal(t, []string{"label", "panel", "root"}, ids)
}

func TestDocumentStackAtSkipsHiddenAndPointerless(t *testing.T) {
	l := testLayout()
	l.Elements[2].Style.NoPointerEvents = true
	l.Elements[1].Style.Hidden = true
	d := NewDocument()
	d.Replace(l)

	stack := d.StackAt(geometry.Point{X: 25, Y: 25})
	require.Len(t, stack, 1)
	assert.Equal(t, "root", stack[0].ID)
}

func TestDocumentOverridesSurviveReplace(t *testing.T) {
	d := NewDocument()
	d.Replace(testLayout())
	v := d.Version()

	d.SetHidden("taskbar", true)
	assert.Greater(t, d.Version(), v)
	el, ok := d.Element("taskbar")
	require.True(t, ok)
	assert.False(t, el.Style.Visible())

	v = d.Version()
	d.SetHidden("taskbar", true)
	assert.Equal(t, v, d.Version(), "repeating an override is not a change")

	d.Replace(testLayout())
	el, _ = d.Element("taskbar")
	assert.False(t, el.Style.Visible())

	d.SetHidden("taskbar", false)
	el, _ = d.Element("taskbar")
	assert.True(t, el.Style.Visible())

	d.ClearOverride("taskbar")
	assert.True(t, d.Mounted("taskbar"))
	assert.False(t, d.Mounted("handle"))
}

func TestElementHostsEmbedded(t *testing.T) {
	assert.True(t, Element{Tag: "WEBVIEW"}.HostsEmbedded())
	assert.True(t, Element{Tag: "div", Embedded: true}.HostsEmbedded())
	assert.False(t, Element{Tag: "div"}.HostsEmbedded())
}
