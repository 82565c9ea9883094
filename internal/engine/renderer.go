package engine

// RendererMode is the capability-probe result: which renderer variant
// the sink runs with. The choice is made once at construction instead
// of being rediscovered through failure-driven control flow.
type RendererMode int

const (
	// RendererSoftware is the baseline cell-grid renderer.
	RendererSoftware RendererMode = iota

	// RendererAccelerated is the hardware-accelerated variant.
	RendererAccelerated
)

func (m RendererMode) String() string {
	switch m {
	case RendererAccelerated:
		return "accelerated"
	default:
		return "software"
	}
}

// ProbeRenderer runs the capability probe once and returns the variant
// to use. A nil probe or a probe error selects the software renderer.
func ProbeRenderer(probe func() error) RendererMode {
	if probe == nil {
		return RendererSoftware
	}
	if err := probe(); err != nil {
		return RendererSoftware
	}
	return RendererAccelerated
}
