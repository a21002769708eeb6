package audio

import (
	"math"
)

// ----- Additive Engine ----- //

const maxHarmonics = 512

// Maximum amplitude change per second applied by the slew limiter.
// Found by ear; anything faster clicks.
const slewRate = 12.5

const lowestAudibleFreq = 20.0

// additiveEngine is a bank of maxHarmonics sine partials. Phases wrap at 2.0
// (one full cycle); the 2π multiply happens only at the sine evaluation.
// Target amplitudes are replaced wholesale by submitAmplitudes and approached
// per sample through the slew limiter.
type additiveEngine struct {
	phases     [maxHarmonics]float64
	targetAmpL [maxHarmonics]float64
	targetAmpR [maxHarmonics]float64
	lastAmpL   [maxHarmonics]float64
	lastAmpR   [maxHarmonics]float64
}

func (e *additiveEngine) submitAmplitudes(ampL []float64, ampR []float64) {
	if len(ampL) != maxHarmonics || len(ampR) != maxHarmonics {
		panic("amplitude arrays must have maxHarmonics length")
	}
	copy(e.targetAmpL[:], ampL)
	copy(e.targetAmpR[:], ampR)
}

// resetSlewTracking zeroes the slew memory so the next note does not ramp up
// from a stale residual amplitude.
func (e *additiveEngine) resetSlewTracking() {
	for i := 0; i < maxHarmonics; i++ {
		e.lastAmpL[i] = 0
		e.lastAmpR[i] = 0
	}
}

// generateSamples adds one buffer of the bank's output into outL/outR.
// Callers must pre-zero the buffers if they want the bank's output alone.
// Harmonics outside [lowestAudibleFreq, sampleRate/2] contribute no audio but
// keep their phase running so they re-enter range without a discontinuity.
func (e *additiveEngine) generateSamples(freqs []float64, sampleRate float64, outL []float64, outR []float64, gainMode int, slewEnabled bool) {
	if len(outL) != len(outR) {
		panic("channel output buffers must match length")
	}
	if len(freqs) != maxHarmonics {
		panic("frequency array must have maxHarmonics length")
	}
	slewThreshold := slewRate / sampleRate
	nyquist := sampleRate / 2
	for n := 0; n < len(outL); n++ {
		sampL := 0.0
		sampR := 0.0
		for i := 0; i < maxHarmonics; i++ {
			freq := freqs[i]
			e.phases[i] += freq / sampleRate
			if e.phases[i] > 2.0 {
				e.phases[i] -= 2.0
			}
			if freq < lowestAudibleFreq || freq > nyquist {
				continue
			}
			v := math.Sin(e.phases[i] * 2.0 * math.Pi)
			ampL := e.targetAmpL[i]
			ampR := e.targetAmpR[i]
			if slewEnabled {
				ampL = e.lastAmpL[i] + clamp(ampL-e.lastAmpL[i], -slewThreshold, slewThreshold)
				ampR = e.lastAmpR[i] + clamp(ampR-e.lastAmpR[i], -slewThreshold, slewThreshold)
			}
			e.lastAmpL[i] = ampL
			e.lastAmpR[i] = ampR
			gain := 1.0
			if gainMode == gainSawtooth {
				// compensate the natural 1/i rolloff halfway
				gain = math.Sqrt(1.0 / float64(i+1))
			}
			sampL += v * ampL * gain
			sampR += v * ampR * gain
		}
		outL[n] += sampL
		outR[n] += sampR
	}
}
