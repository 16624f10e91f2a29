package scene

// Edge indexes the four border edges in CSS order.
type Edge int

const (
	Top Edge = iota
	Right
	Bottom
	Left
)

// Corner indexes the four border radii in CSS order.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomRight
	BottomLeft
)

// Border is one resolved border edge.
type Border struct {
	Width float64 `json:"width"`
	Alpha float64 `json:"alpha"`
}

// Style is the resolved subset of an element's computed style that decides
// whether it is solid enough to take pointer input.
type Style struct {
	Hidden          bool       `json:"hidden"`
	NotDisplayed    bool       `json:"not_displayed"`
	NoPointerEvents bool       `json:"no_pointer_events"`
	Opacity         float64    `json:"opacity"`
	BackgroundAlpha float64    `json:"background_alpha"`
	BackgroundImage bool       `json:"background_image"`
	Borders         [4]Border  `json:"borders"`
	Radii           [4]float64 `json:"radii"`
}

// DefaultStyle is a visible, fully opaque element with no fill or border.
func DefaultStyle() Style {
	return Style{Opacity: 1}
}

// Visible reports whether the element is rendered at all.
func (s Style) Visible() bool { return !s.Hidden && !s.NotDisplayed }

// MaxRadius returns the largest of the four corner radii.
func (s Style) MaxRadius() float64 {
	r := s.Radii[0]
	for _, v := range s.Radii[1:] {
		r = max(r, v)
	}
	return r
}
