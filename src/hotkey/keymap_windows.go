//go:build windows

package hotkey

// rawcodes maps key names to Windows virtual-key codes.
var rawcodes = buildKeymap(map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"insert":    {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pagedown":  {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}, 'A'-'a', 48, 112)
