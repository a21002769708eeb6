package audio

import (
	"math"
	"testing"
)

func constantBlock(v float64, length int) []float64 {
	block := make([]float64, length)
	for i := range block {
		block[i] = v
	}
	return block
}

// runs one full analysis block of a constant signal through a fresh
// demodulator with harmonicCount=1 and returns the harmonic 1 amplitude
func demodulateConstant(v float64, floor float64, ceiling float64, bias float64) float64 {
	d := newDemodulator()
	in := constantBlock(v, demodBlockSize)
	ampL, _, ok := d.submitSamples(in, in, distributionLinear, 1, 0, floor, ceiling, bias)
	if !ok {
		panic("expected a snapshot after a full block")
	}
	return ampL[0]
}

func TestDemodulatorConstantInput(t *testing.T) {
	d := newDemodulator()
	inL := constantBlock(0.5, demodBlockSize)
	inR := constantBlock(-0.25, demodBlockSize)
	ampL, ampR, ok := d.submitSamples(inL, inR, distributionLinear, maxHarmonics, 0, -2, 2, 0)
	expectTrue(t, ok, "expected a snapshot after a full block")
	expectEqual(t, ampL[0], 0.125)     // 0.5^3
	expectEqual(t, ampR[0], -0.015625) // (-0.25)^3 keeps the sign
	// the linear sweep tops out at 511, so the last harmonic is never touched
	expectEqual(t, ampL[maxHarmonics-1], 0.0)
}

func TestDemodulatorGating(t *testing.T) {
	expectEqual(t, demodulateConstant(1.0, -1, 1, 0), 1.0) // ceiling itself passes
	expectEqual(t, demodulateConstant(1.0001, -1, 1, 0), 0.0)
	expectEqual(t, demodulateConstant(-1.0, -1, 1, 0), -1.0) // floor itself passes
	expectEqual(t, demodulateConstant(-1.0001, -1, 1, 0), 0.0)
}

func TestDemodulatorBias(t *testing.T) {
	// 0.25 + 0.5 = 0.75, cubed
	expectEqual(t, demodulateConstant(0.25, -1, 1, 0.5), 0.421875)
	// bias can push a value over the ceiling
	expectEqual(t, demodulateConstant(0.75, -1, 1, 0.5), 0.0)
}

func TestDemodulatorHarmonicOffset(t *testing.T) {
	d := newDemodulator()
	in := constantBlock(0.5, demodBlockSize)
	ampL, _, ok := d.submitSamples(in, in, distributionLinear, 1, 4, -2, 2, 0)
	expectTrue(t, ok, "expected a snapshot after a full block")
	expectEqual(t, ampL[3], 0.125)
	expectEqual(t, ampL[0], 0.0)
	expectEqual(t, ampL[4], 0.0)
}

func TestDemodulatorOversizeChunk(t *testing.T) {
	d := newDemodulator()
	in := constantBlock(0.5, demodBlockSize*2)
	ampL, _, ok := d.submitSamples(in, in, distributionLinear, 1, 0, -2, 2, 0)
	expectTrue(t, ok, "expected a snapshot after two full blocks")
	expectEqual(t, ampL[0], 0.125)
}

func TestDemodulatorDeterministicReplay(t *testing.T) {
	in := make([]float64, demodBlockSize)
	for i := range in {
		in[i] = math.Sin(float64(i) * 0.1)
	}
	d1 := newDemodulator()
	ampL1, ampR1, ok := d1.submitSamples(in, in, distributionExponential, maxHarmonics, 0, -2, 2, 0)
	expectTrue(t, ok, "expected a snapshot")
	snapL := append([]float64{}, ampL1...)
	snapR := append([]float64{}, ampR1...)

	// a demodulator that just completed a block and was reset behaves like a
	// fresh one
	d2 := newDemodulator()
	other := constantBlock(0.3, demodBlockSize)
	d2.submitSamples(other, other, distributionExponential, maxHarmonics, 0, -2, 2, 0)
	d2.reset()
	ampL2, ampR2, ok := d2.submitSamples(in, in, distributionExponential, maxHarmonics, 0, -2, 2, 0)
	expectTrue(t, ok, "expected a snapshot")
	for i := 0; i < maxHarmonics; i++ {
		if ampL2[i] != snapL[i] || ampR2[i] != snapR[i] {
			t.Fatalf("replay diverged at harmonic %v: %v vs %v", i+1, ampL2[i], snapL[i])
		}
	}
}

func TestDemodulatorResetKeepsAccumulators(t *testing.T) {
	d := newDemodulator()
	in := constantBlock(0.5, 500)
	_, _, ok := d.submitSamples(in, in, distributionLinear, maxHarmonics, 0, -2, 2, 0)
	expectEqual(t, ok, false)
	d.reset()
	expectEqual(t, d.progress, 0)
	expectEqual(t, d.prevHarmonic, 1)
	expectEqual(t, d.sampleCount, 0)
	expectTrue(t, d.workingAmpL[0] != 0, "reset must not clear the working accumulators")
}

func TestDemodulatorMismatchedInputPanics(t *testing.T) {
	d := newDemodulator()
	expectPanic(t, func() {
		d.submitSamples(make([]float64, 8), make([]float64, 7), distributionLinear, 1, 0, -2, 2, 0)
	})
}

func TestHarmonicAt(t *testing.T) {
	expectEqual(t, harmonicAt(distributionExponential, 0, maxHarmonics), 1)
	expectEqual(t, harmonicAt(distributionLinear, 0, maxHarmonics), 0)
	expectEqual(t, harmonicAt(distributionLinear, demodBlockSize-1, maxHarmonics), 511)
	for _, mode := range []int{distributionExponential, distributionLinear} {
		prev := 0
		for p := 0; p < demodBlockSize; p++ {
			h := harmonicAt(mode, p, maxHarmonics)
			if h < prev {
				t.Fatalf("sweep went backwards at progress %v: %v -> %v", p, prev, h)
			}
			if h > maxHarmonics {
				t.Fatalf("sweep exceeded maxHarmonics at progress %v: %v", p, h)
			}
			prev = h
		}
	}
}

func TestRectifyCV(t *testing.T) {
	expectEqual(t, rectifyCV(0.5), 0.125)
	expectEqual(t, rectifyCV(-0.5), -0.125)
	expectEqual(t, rectifyCV(0.0), 0.0)
}
