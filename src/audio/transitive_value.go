package audio

// ----- Transitive Value ----- //

// transitiveValue ramps a control value linearly over a duration, used by the
// shell to smooth master-gain changes between render cycles.
type transitiveValue struct {
	transiting   bool
	duration     float64 // ms
	initialValue float64
	targetValue  float64
	value        float64
	pos          int
}

func newTransitiveValue() *transitiveValue {
	return &transitiveValue{}
}

func (tv *transitiveValue) init(value float64) {
	tv.transiting = false
	tv.duration = 0
	tv.initialValue = 0
	tv.targetValue = 0
	tv.value = value
	tv.pos = 0
}

func (tv *transitiveValue) linear(duration float64, targetValue float64) {
	tv.transiting = true
	tv.duration = duration
	tv.pos = 0
	tv.initialValue = tv.value
	tv.targetValue = targetValue
}

func (tv *transitiveValue) step() bool {
	if !tv.transiting {
		return false
	}
	phaseTime := float64(tv.pos) * secPerSample * 1000 // ms
	if phaseTime >= tv.duration {
		tv.end()
		return true
	}
	t := phaseTime / tv.duration
	tv.value = t*tv.targetValue + (1-t)*tv.initialValue
	tv.pos++
	return false
}

func (tv *transitiveValue) end() {
	tv.transiting = false
	tv.value = tv.targetValue
	tv.pos = 0
}
