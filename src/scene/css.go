package scene

import (
	"strconv"
	"strings"
)

// ParseComputedStyle resolves a computed-style property map (as produced by a
// browser's getComputedStyle) into a Style. Missing properties take their CSS
// initial values.
func ParseComputedStyle(props map[string]string) Style {
	st := DefaultStyle()
	get := func(name string) string { return strings.TrimSpace(strings.ToLower(props[name])) }

	switch get("visibility") {
	case "hidden", "collapse":
		st.Hidden = true
	}
	st.NotDisplayed = get("display") == "none"
	st.NoPointerEvents = get("pointer-events") == "none"
	if v := get("opacity"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64); err == nil {
			if strings.HasSuffix(v, "%") {
				f /= 100
			}
			st.Opacity = clamp01(f)
		}
	}
	st.BackgroundAlpha = ParseAlpha(props["background-color"])
	if img := get("background-image"); img != "" && img != "none" {
		st.BackgroundImage = true
	}

	edges := [4]string{"top", "right", "bottom", "left"}
	for i, e := range edges {
		st.Borders[i] = Border{
			Width: ParseLength(props["border-"+e+"-width"]),
			Alpha: ParseAlpha(props["border-"+e+"-color"]),
		}
	}
	corners := [4]string{"top-left", "top-right", "bottom-right", "bottom-left"}
	for i, c := range corners {
		st.Radii[i] = ParseLength(props["border-"+c+"-radius"])
	}
	return st
}

// ParseAlpha extracts the alpha channel from a CSS color. Colors without an
// alpha component are fully opaque; "transparent", empty and unrecognised
// values count as 0.
func ParseAlpha(color string) float64 {
	c := strings.TrimSpace(strings.ToLower(color))
	switch {
	case c == "" || c == "transparent":
		return 0
	case strings.HasPrefix(c, "#"):
		return hexAlpha(c[1:])
	case strings.HasPrefix(c, "rgb"):
		open := strings.IndexByte(c, '(')
		end := strings.LastIndexByte(c, ')')
		if open < 0 || end <= open {
			return 0
		}
		return functionalAlpha(c[open+1 : end])
	default:
		return 0
	}
}

func functionalAlpha(args string) float64 {
	if slash := strings.IndexByte(args, '/'); slash >= 0 {
		return alphaValue(args[slash+1:])
	}
	var parts []string
	if strings.Contains(args, ",") {
		parts = strings.Split(args, ",")
	} else {
		parts = strings.Fields(args)
	}
	switch len(parts) {
	case 4:
		return alphaValue(parts[3])
	case 3:
		return 1
	default:
		return 0
	}
}

func alphaValue(s string) float64 {
	s = strings.TrimSpace(s)
	pct := strings.HasSuffix(s, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0
	}
	if pct {
		f /= 100
	}
	return clamp01(f)
}

func hexAlpha(h string) float64 {
	if _, err := strconv.ParseUint(h, 16, 32); err != nil {
		return 0
	}
	switch len(h) {
	case 3, 6:
		return 1
	case 4:
		v, _ := strconv.ParseUint(h[3:], 16, 8)
		return float64(v) / 15
	case 8:
		v, _ := strconv.ParseUint(h[6:], 16, 8)
		return float64(v) / 255
	default:
		return 0
	}
}

// ParseLength reads a CSS pixel length such as "12px" or "1.5". Anything that
// is not a plain number of pixels yields 0.
func ParseLength(v string) float64 {
	v = strings.TrimSpace(strings.ToLower(v))
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
