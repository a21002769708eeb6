package audio

import (
	"math"
)

// ----- AR Envelope ----- //

// Below this level a releasing envelope counts as finished.
const envSilence = 0.001

// envelope is a one-pole attack/release follower. It ramps toward 1 while
// the note is held and toward 0 once startRelease has been called.
type envelope struct {
	state        float64
	attackCoeff  float64
	releaseCoeff float64
	releasing    bool
}

// arCoeff is the standard one-pole charge/discharge coefficient for a time
// constant in milliseconds.
func arCoeff(sampleRate float64, timeMs float64) float64 {
	return math.Exp(-1.0 / (timeMs / 1000.0 * sampleRate))
}

func (e *envelope) setAttackTime(sampleRate float64, timeMs float64) {
	e.attackCoeff = arCoeff(sampleRate, timeMs)
}

func (e *envelope) setReleaseTime(sampleRate float64, timeMs float64) {
	e.releaseCoeff = arCoeff(sampleRate, timeMs)
}

func (e *envelope) reset() {
	e.state = 0
	e.releasing = false
}

// startRelease flips the direction without snapping the current level.
func (e *envelope) startRelease() {
	e.releasing = true
}

func (e *envelope) current() float64 {
	return e.state
}

// isReleasing reports whether the envelope is still audibly ringing out.
func (e *envelope) isReleasing() bool {
	return e.releasing && e.state >= envSilence
}

// nextBlock advances the envelope by len(block) samples, writing the level
// of each step into block.
func (e *envelope) nextBlock(block []float64) {
	for i := range block {
		target, coeff := 1.0, e.attackCoeff
		if e.releasing {
			target, coeff = 0.0, e.releaseCoeff
		}
		e.state = e.state*coeff + target*(1-coeff)
		block[i] = e.state
	}
}
