package audio

import (
	"math"
)

// ----- Demodulator ----- //

// demodBlockSize is the analysis window in samples (about 42 Hz at 44.1 kHz).
// One harmonic-amplitude snapshot is emitted per full window, which is also
// the latency the shell reports to the outside.
const demodBlockSize = 1050

// demodulator converts the audio-rate modulator signal into one amplitude
// value per harmonic and channel, once per analysis block. Within a block the
// distribution law sweeps the harmonic index from low to high; every input
// sample is rectified and folded into the accumulator of the harmonic the
// sweep currently points at.
type demodulator struct {
	progress     int
	prevHarmonic int
	sampleCount  int
	workingAmpL  [maxHarmonics]float64
	workingAmpR  [maxHarmonics]float64
	snapshotL    [maxHarmonics]float64
	snapshotR    [maxHarmonics]float64
}

func newDemodulator() *demodulator {
	return &demodulator{prevHarmonic: 1}
}

// reset starts a fresh tracking window, e.g. on note-on. The working
// accumulators are deliberately kept: clearing them here would fake a block
// boundary and drop whatever the current window has gathered so far.
func (d *demodulator) reset() {
	d.progress = 0
	d.prevHarmonic = 1
	d.sampleCount = 0
}

// harmonicAt maps block progress to a 1-based harmonic index.
func harmonicAt(distributionMode int, progress int, harmonicCount int) int {
	t := float64(progress) / float64(demodBlockSize)
	switch distributionMode {
	case distributionLinear:
		return int(math.Floor(float64(harmonicCount) * t))
	default: // exponential: front-loads the lows, most of the block resolves the highs
		return int(math.Floor(math.Exp(math.Log(float64(harmonicCount)) * t)))
	}
}

// gateCV treats out-of-range excursions as silence rather than clipping them.
// Values exactly at floor or ceiling pass through.
func gateCV(v float64, floor float64, ceiling float64) float64 {
	if v > ceiling || v < floor {
		return 0
	}
	return v
}

// rectifyCV cubes the value, which emphasizes peaks while keeping the sign.
func rectifyCV(v float64) float64 {
	return v * v * v
}

// submitSamples feeds a chunk of modulator input. When the analysis block
// completes during the chunk it returns the snapshot for all maxHarmonics
// harmonics and true; the returned slices alias internal buffers that stay
// valid until the next block completes. Chunks should not exceed
// demodBlockSize samples; if they do, only the newest snapshot is returned.
func (d *demodulator) submitSamples(inL []float64, inR []float64, distributionMode int, harmonicCount int, harmonicOffset int, floor float64, ceiling float64, bias float64) ([]float64, []float64, bool) {
	if len(inL) != len(inR) {
		panic("channel input buffers must match length")
	}
	emitted := false
	for n := 0; n < len(inL); n++ {
		l := rectifyCV(gateCV(inL[n]+bias, floor, ceiling))
		r := rectifyCV(gateCV(inR[n]+bias, floor, ceiling))

		target := harmonicAt(distributionMode, d.progress, harmonicCount) + harmonicOffset
		if target < 1 {
			target = 1
		}
		if target > maxHarmonics {
			target = maxHarmonics
		}
		first := d.prevHarmonic
		if harmonicOffset > first {
			first = harmonicOffset
		}
		if first < 1 {
			first = 1
		}
		for h := first; h <= target; h++ {
			if h != d.prevHarmonic {
				d.sampleCount = 0
				d.workingAmpL[h-1] = l
				d.workingAmpR[h-1] = r
			} else {
				// incremental moving average; recurs only for low harmonics
				// under the exponential law
				d.workingAmpL[h-1] = (d.workingAmpL[h-1]*float64(d.sampleCount) + l) / float64(d.sampleCount+1)
				d.workingAmpR[h-1] = (d.workingAmpR[h-1]*float64(d.sampleCount) + r) / float64(d.sampleCount+1)
				d.sampleCount++
			}
			d.prevHarmonic = h
		}

		d.progress++
		if d.progress >= demodBlockSize {
			copy(d.snapshotL[:], d.workingAmpL[:])
			copy(d.snapshotR[:], d.workingAmpR[:])
			emitted = true
			d.progress = 0
			d.prevHarmonic = 1
			for i := 0; i < maxHarmonics; i++ {
				d.workingAmpL[i] = 0
				d.workingAmpR[i] = 0
			}
		}
	}
	if !emitted {
		return nil, nil, false
	}
	return d.snapshotL[:], d.snapshotR[:], true
}
