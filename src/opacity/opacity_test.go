package opacity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"click-overlay/src/geometry"
	"click-overlay/src/scene"
)

func region(mut func(*scene.Style)) scene.Element {
	st := scene.DefaultStyle()
	if mut != nil {
		mut(&st)
	}
	return scene.Element{ID: "r", Tag: "div", Interactive: true, Bounds: geometry.Box{Width: 100, Height: 40}, Style: st}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		el   scene.Element
		want bool
	}{
		{"no signal", region(nil), false},
		{"fill at threshold", region(func(s *scene.Style) { s.BackgroundAlpha = 0.5 }), true},
		{"fill just below threshold", region(func(s *scene.Style) { s.BackgroundAlpha = 0.499 }), false},
		{"fill 0.6", region(func(s *scene.Style) { s.BackgroundAlpha = 0.6 }), true},
		{"fill 0.3", region(func(s *scene.Style) { s.BackgroundAlpha = 0.3 }), false},
		{"image fill", region(func(s *scene.Style) { s.BackgroundImage = true }), true},
		{"border with width and alpha", region(func(s *scene.Style) {
			s.Borders[scene.Left] = scene.Border{Width: 1, Alpha: 0.5}
		}), true},
		{"border alpha without width", region(func(s *scene.Style) {
			s.Borders[scene.Left] = scene.Border{Width: 0, Alpha: 1}
		}), false},
		{"width and alpha on different edges", region(func(s *scene.Style) {
			s.Borders[scene.Top] = scene.Border{Width: 2, Alpha: 0.1}
			s.Borders[scene.Bottom] = scene.Border{Width: 0, Alpha: 0.9}
		}), false},
		{"border alpha just below", region(func(s *scene.Style) {
			s.Borders[scene.Right] = scene.Border{Width: 3, Alpha: 0.499}
		}), false},
		{"hidden", region(func(s *scene.Style) { s.Hidden = true; s.BackgroundAlpha = 1 }), false},
		{"not displayed", region(func(s *scene.Style) { s.NotDisplayed = true; s.BackgroundImage = true }), false},
		{"opacity below threshold", region(func(s *scene.Style) { s.Opacity = 0.49; s.BackgroundAlpha = 1 }), false},
		{"opacity at threshold", region(func(s *scene.Style) { s.Opacity = 0.5; s.BackgroundAlpha = 1 }), true},
		{"embedded content", scene.Element{Tag: "webview", Style: scene.DefaultStyle()}, true},
		{"embedded descendant", scene.Element{Tag: "div", Embedded: true, Style: scene.DefaultStyle()}, true},
		{"embedded but faded", scene.Element{Tag: "webview", Style: scene.Style{Opacity: 0.2}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.el).Opaque)
		})
	}
}

func doc(elements ...scene.Element) *scene.Document {
	d := scene.NewDocument()
	d.Replace(scene.Layout{Viewport: geometry.Size{Width: 400, Height: 300}, Elements: elements})
	return d
}

func TestOpaqueAtPointInteractiveFastPath(t *testing.T) {
	faint := region(func(s *scene.Style) { s.BackgroundAlpha = 0.1 })
	d := doc(faint)

	assert.False(t, Classify(faint).Opaque)
	assert.True(t, OpaqueAtPoint(d, geometry.Point{X: 50, Y: 20}))
	assert.True(t, OpaqueAtPoint(d, geometry.Point{X: 100, Y: 40}), "edges are inclusive")
	assert.False(t, OpaqueAtPoint(d, geometry.Point{X: 150, Y: 20}))
}

func TestOpaqueAtPointSkipsUnreachableInteractive(t *testing.T) {
	pointerless := region(func(s *scene.Style) { s.NoPointerEvents = true })
	invisible := region(func(s *scene.Style) { s.Opacity = 0 })
	invisible.ID = "invisible"

	assert.False(t, OpaqueAtPoint(doc(pointerless), geometry.Point{X: 10, Y: 10}))
	assert.False(t, OpaqueAtPoint(doc(invisible), geometry.Point{X: 10, Y: 10}))
}

func TestOpaqueAtPointStackWalk(t *testing.T) {
	root := scene.Element{ID: "body", Root: true, Bounds: geometry.Box{Width: 400, Height: 300},
		Style: scene.Style{Opacity: 1, BackgroundAlpha: 1}}
	card := scene.Element{ID: "card", Bounds: geometry.Box{X: 200, Y: 100, Width: 50, Height: 50},
		Style: scene.Style{Opacity: 1, BackgroundAlpha: 0.8}}
	overlay := scene.Element{ID: "glass", Bounds: geometry.Box{X: 190, Y: 90, Width: 100, Height: 100},
		Style: scene.Style{Opacity: 1, BackgroundAlpha: 0.1}}
	d := doc(root, card, overlay)

	assert.True(t, OpaqueAtPoint(d, geometry.Point{X: 210, Y: 110}), "opaque layer under a glass pane")
	assert.False(t, OpaqueAtPoint(d, geometry.Point{X: 195, Y: 95}), "glass over the root only")
	assert.False(t, OpaqueAtPoint(d, geometry.Point{X: 10, Y: 10}), "root never counts")
}

func TestOpaqueAtPointEmbeddedAnywhereInStack(t *testing.T) {
	viewer := scene.Element{ID: "viewer", Tag: "webview", Bounds: geometry.Box{Width: 100, Height: 100},
		Style: scene.Style{Opacity: 0.1}}
	glass := scene.Element{ID: "glass", Bounds: geometry.Box{Width: 100, Height: 100},
		Style: scene.Style{Opacity: 1}}
	d := doc(viewer, glass)

	assert.True(t, OpaqueAtPoint(d, geometry.Point{X: 50, Y: 50}))
}
