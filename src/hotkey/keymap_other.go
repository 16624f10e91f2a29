//go:build !windows

package hotkey

// rawcodes maps key names to X11 keysyms, which the hook reports as rawcodes
// outside Windows.
var rawcodes = buildKeymap(map[string][]uint16{
	"ctrl":  {0xffe3, 0xffe4},
	"alt":   {0xffe9, 0xffea},
	"shift": {0xffe1, 0xffe2},
	"cmd":   {0xffeb, 0xffec},

	"space":     {0x20},
	"enter":     {0xff0d},
	"return":    {0xff0d},
	"esc":       {0xff1b},
	"escape":    {0xff1b},
	"tab":       {0xff09},
	"backspace": {0xff08},
	"delete":    {0xffff},
	"insert":    {0xff63},
	"home":      {0xff50},
	"end":       {0xff57},
	"pageup":    {0xff55},
	"pagedown":  {0xff56},
	"left":      {0xff51},
	"up":        {0xff52},
	"right":     {0xff53},
	"down":      {0xff54},
}, 0, 0x30, 0xffbe)
