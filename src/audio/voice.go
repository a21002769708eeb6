package audio

import (
	"math"
)

// ----- Voice ----- //

// Pitch bend sweeps ±bendRange semitones across its [0,1] range.
const bendRange = 12.0

// The voice pulls envelope and engine output in fixed sub-blocks.
const voiceBlockSize = 32

// voice ties note lifecycle and fundamental tracking to the engine and the
// envelope. There is exactly one; overlapping notes are absorbed by the
// notesOn counter (legato) rather than by polyphony.
type voice struct {
	engine      *additiveEngine
	envelope    *envelope
	currentNote int
	bendValue   float64
	notesOn     int
	freqs       [maxHarmonics]float64
}

func newVoice() *voice {
	v := &voice{
		engine:    &additiveEngine{},
		envelope:  &envelope{},
		bendValue: 0.5,
	}
	v.resetPhases()
	return v
}

// resetPhases staggers the partials so a fresh onset does not start with all
// of them in sync, which would click.
func (v *voice) resetPhases() {
	for i := 0; i < maxHarmonics; i++ {
		v.engine.phases[i] = float64(maxHarmonics) / float64(i+1)
	}
}

func (v *voice) noteOn(note int) {
	if v.notesOn == 0 {
		v.envelope.reset()
	}
	v.currentNote = note
	v.notesOn++
}

func (v *voice) noteOff() {
	if v.notesOn == 0 {
		return
	}
	v.notesOn--
	if v.notesOn == 0 {
		v.envelope.startRelease()
	}
}

func (v *voice) pitchBend(value float64) {
	v.bendValue = value
}

func (v *voice) reset() {
	v.envelope.reset()
	v.notesOn = 0
	v.engine.resetSlewTracking()
}

// process adds the voice's output into outL/outR. It is a no-op while the
// voice is idle, leaving the buffers untouched.
func (v *voice) process(sampleRate float64, outL []float64, outR []float64, gainMode int, slewEnabled bool) {
	if v.notesOn == 0 && !v.envelope.isReleasing() {
		return
	}
	if len(outL) != len(outR) {
		panic("channel output buffers must match length")
	}

	note := float64(v.currentNote) + (clamp(v.bendValue, 0, 1)*2-1)*bendRange
	fundamental := math.Pow(2, (note-69)/12) * 440.0
	for i := 0; i < maxHarmonics; i++ {
		v.freqs[i] = fundamental * float64(i+1)
	}

	var envBuf, bufL, bufR [voiceBlockSize]float64
	for i := 0; i < len(outL); i += voiceBlockSize {
		blockLen := len(outL) - i
		if blockLen > voiceBlockSize {
			blockLen = voiceBlockSize
		}
		env := envBuf[:blockLen]
		l := bufL[:blockLen]
		r := bufR[:blockLen]
		for n := 0; n < blockLen; n++ {
			l[n] = 0
			r[n] = 0
		}
		v.envelope.nextBlock(env)
		v.engine.generateSamples(v.freqs[:], sampleRate, l, r, gainMode, slewEnabled)
		for n := 0; n < blockLen; n++ {
			outL[i+n] += l[n] * env[n]
			outR[i+n] += r[n] * env[n]
		}
	}

	// fully silent now: stagger the phases and drop slew memory so the next
	// onset starts clean
	if v.notesOn == 0 && !v.envelope.isReleasing() {
		v.resetPhases()
		v.engine.resetSlewTracking()
	}
}
