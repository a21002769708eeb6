package audio

import (
	"testing"
)

func renderVoice(v *voice, samples int) ([]float64, []float64) {
	outL := make([]float64, samples)
	outR := make([]float64, samples)
	for i := 0; i < samples; i += samplesPerCycle {
		end := i + samplesPerCycle
		if end > samples {
			end = samples
		}
		v.process(sampleRate, outL[i:end], outR[i:end], gainFlat, false)
	}
	return outL, outR
}

func TestVoiceRendersDemodulatedTone(t *testing.T) {
	v := newVoice()
	v.envelope.setAttackTime(sampleRate, 0.5)
	v.envelope.setReleaseTime(sampleRate, 0.5)
	v.noteOn(69)

	d := newDemodulator()
	in := constantBlock(1.0, demodBlockSize)
	ampL, ampR, ok := d.submitSamples(in, in, distributionLinear, 1, 0, -2, 2, 0)
	expectTrue(t, ok, "expected a snapshot after a full block")
	expectEqual(t, ampL[0], 1.0)
	v.engine.submitAmplitudes(ampL, ampR)

	outL, _ := renderVoice(v, fftSize*2)

	// steady state should be a 440 Hz sine: bin 440 * 2048 / 44100 = 20.4
	spectrum := make([]float64, fftSize)
	copy(spectrum, outL[fftSize:])
	Han(spectrum)
	NewFFT(fftSize).CalcAbs(spectrum)
	peak := 1
	for i := 2; i < fftSize/2; i++ {
		if spectrum[i] > spectrum[peak] {
			peak = i
		}
	}
	if peak != 20 && peak != 21 {
		t.Errorf("expected spectral peak around bin 20, but got: %v", peak)
	}
}

func TestVoiceIdleLeavesBuffersUntouched(t *testing.T) {
	v := newVoice()
	outL := constantBlock(123.0, 64)
	outR := constantBlock(123.0, 64)
	v.process(sampleRate, outL, outR, gainFlat, false)
	for i := range outL {
		if outL[i] != 123.0 || outR[i] != 123.0 {
			t.Fatalf("idle voice touched the buffers at %v", i)
		}
	}
}

func TestVoiceReleaseRingsOutThenStops(t *testing.T) {
	v := newVoice()
	v.envelope.setAttackTime(sampleRate, 0.5)
	v.envelope.setReleaseTime(sampleRate, 0.5)
	v.noteOn(69)
	amps := make([]float64, maxHarmonics)
	amps[0] = 1.0
	v.engine.submitAmplitudes(amps, amps)
	renderVoice(v, 2048)

	v.noteOff()
	expectTrue(t, v.envelope.isReleasing(), "noteOff on the last note should start the release")
	outL, _ := renderVoice(v, 2048)
	nonZero := false
	for _, s := range outL {
		if s != 0 {
			nonZero = true
			break
		}
	}
	expectTrue(t, nonZero, "release tail should still produce sound")
	for v.envelope.isReleasing() {
		renderVoice(v, samplesPerCycle)
	}

	// the silence transition staggers the phases for the next onset
	expectEqual(t, v.engine.phases[0], float64(maxHarmonics))
	expectEqual(t, v.engine.phases[1], float64(maxHarmonics)/2)
	expectEqual(t, v.engine.lastAmpL[0], 0.0)

	outL = constantBlock(123.0, 64)
	outR := constantBlock(123.0, 64)
	v.process(sampleRate, outL, outR, gainFlat, false)
	expectEqual(t, outL[0], 123.0)
	expectEqual(t, outR[0], 123.0)
}

func TestVoiceLegato(t *testing.T) {
	v := newVoice()
	v.noteOn(60)
	v.envelope.state = 0.7
	v.noteOn(64)
	expectEqual(t, v.envelope.state, 0.7) // no retrigger while a note is held
	expectEqual(t, v.currentNote, 64)
	v.noteOff()
	expectEqual(t, v.notesOn, 1)
	expectEqual(t, v.envelope.releasing, false)
	v.noteOff()
	expectEqual(t, v.notesOn, 0)
	expectEqual(t, v.envelope.releasing, true)
	v.noteOff() // extra noteOff must not underflow
	expectEqual(t, v.notesOn, 0)
}

func TestVoicePitchBend(t *testing.T) {
	v := newVoice()
	v.envelope.setAttackTime(sampleRate, 0.5)
	v.envelope.setReleaseTime(sampleRate, 0.5)
	v.noteOn(69)
	amps := make([]float64, maxHarmonics)
	v.engine.submitAmplitudes(amps, amps)
	outL := make([]float64, voiceBlockSize)
	outR := make([]float64, voiceBlockSize)

	v.process(sampleRate, outL, outR, gainFlat, false)
	expectNearlyEqual(t, v.freqs[0], 440.0) // center by default
	expectNearlyEqual(t, v.freqs[1], 880.0)

	v.pitchBend(1.0)
	v.process(sampleRate, outL, outR, gainFlat, false)
	expectNearlyEqual(t, v.freqs[0], 880.0) // +12 semitones

	v.pitchBend(0.0)
	v.process(sampleRate, outL, outR, gainFlat, false)
	expectNearlyEqual(t, v.freqs[0], 220.0) // -12 semitones
}

func TestVoiceReset(t *testing.T) {
	v := newVoice()
	v.noteOn(69)
	v.noteOn(69)
	v.reset()
	expectEqual(t, v.notesOn, 0)
	expectEqual(t, v.envelope.current(), 0.0)
	expectEqual(t, v.envelope.isReleasing(), false)
}
