package control

const (
	DefaultPortStart = 49600
	DefaultPortEnd   = 49650
)

// PortRange is the inclusive TCP port range the resident may listen on. The
// resident binds only Start; clients scan the whole range.
type PortRange struct {
	Start int
	End   int
}

// DefaultPorts returns the default range.
func DefaultPorts() PortRange { return PortRange{Start: DefaultPortStart, End: DefaultPortEnd} }

// Normalize fills unset bounds with the defaults, clamps to [1024, 65535]
// and orders the bounds.
func (p PortRange) Normalize() PortRange {
	if p.Start == 0 {
		p.Start = DefaultPortStart
	}
	if p.End == 0 {
		p.End = DefaultPortEnd
	}
	if p.Start < 1024 {
		p.Start = 1024
	}
	if p.End > 65535 {
		p.End = 65535
	}
	if p.End < p.Start {
		p.Start, p.End = p.End, p.Start
	}
	return p
}
