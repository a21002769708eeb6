package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/hajimehoshi/oto"
)

const (
	sampleRate      = 44100
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	fftSize         = 2048 // multiple of samplesPerCycle
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096
const secPerSample = 1.0 / sampleRate

// ----- Utility ----- //

func now() float64 {
	return float64(time.Now().UnixNano()) / 1000 / 1000 / 1000
}
func clamp(v float64, min float64, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
func clampInt(v int, min int, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}

// ----- MIDI Event ----- //

type midiEvent struct {
	offset float64
	event  interface{}
}

type noteOn struct {
	note int
}
type noteOff struct {
	note int
}
type pitchBend struct {
	value float64 // 0-1
}

// ----- Changes ----- //

// Changes ...
type Changes struct {
	sync.Mutex
	dict map[string]struct{}
}

// Add ...
func (c *Changes) Add(key string) {
	c.Lock()
	c.dict[key] = struct{}{}
	c.Unlock()
}

// Has ...
func (c *Changes) Has(key string) bool {
	c.Lock()
	_, ok := c.dict[key]
	c.Unlock()
	return ok
}

// Delete ...
func (c *Changes) Delete(key string) {
	c.Lock()
	delete(c.dict, key)
	c.Unlock()
}

// ----- State ----- //

type state struct {
	sync.Mutex
	events      [][]*midiEvent // length: samplesPerCycle * 2
	params      *params
	demodulator *demodulator
	voice       *voice
	gain        *transitiveValue
	inL         []float64 // length: samplesPerCycle
	inR         []float64
	outL        []float64 // length: samplesPerCycle
	outR        []float64
	pos         int64
	out         []float64 // length: fftSize, mono mix ring for the analyzer
	lastRead    float64
}

func newState() *state {
	s := &state{
		events:      make([][]*midiEvent, samplesPerCycle*2),
		params:      newParams(),
		demodulator: newDemodulator(),
		voice:       newVoice(),
		gain:        newTransitiveValue(),
		inL:         make([]float64, samplesPerCycle),
		inR:         make([]float64, samplesPerCycle),
		outL:        make([]float64, samplesPerCycle),
		outR:        make([]float64, samplesPerCycle),
		pos:         0,
		out:         make([]float64, fftSize),
	}
	s.gain.init(s.params.volume)
	return s
}

// ----- Audio ----- //

// Audio ...
type Audio struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string
	state      *state
	Changes    *Changes
	capture    *capture
	presets    *presetManager
	fft        *FFT
	fftResult  []float64 // length: fftSize
}

var _ io.Reader = (*Audio)(nil)

func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
		a.state.Lock()
		defer a.state.Unlock()
		timestamp := now()
		bufSamples := len(buf) / bytesPerSample

		outL := a.state.outL[:bufSamples]
		outR := a.state.outR[:bufSamples]
		for i := 0; i < bufSamples; i++ {
			outL[i] = 0
			outR[i] = 0
		}
		a.capture.readCycle(a.state.inL[:bufSamples], a.state.inR[:bufSamples])

		p := a.state.params
		v := a.state.voice
		v.envelope.setAttackTime(sampleRate, p.attack)
		v.envelope.setReleaseTime(sampleRate, p.release)

		// slice the cycle at event timestamps so everything applies
		// sample-accurately
		start := 0
		for i := 0; i <= bufSamples; i++ {
			atEnd := i == bufSamples
			if !atEnd && len(a.state.events[i]) == 0 {
				continue
			}
			if i > start {
				a.renderSpan(start, i)
				start = i
			}
			if atEnd {
				break
			}
			for _, e := range a.state.events[i] {
				switch data := e.event.(type) {
				case *noteOn:
					v.noteOn(data.note)
					a.state.demodulator.reset()
				case *noteOff:
					v.noteOff()
				case *pitchBend:
					v.pitchBend(data.value)
				}
			}
		}

		offset := a.state.pos % fftSize
		for i := 0; i < bufSamples; i++ {
			a.state.gain.step()
			g := a.state.gain.value
			outL[i] *= g
			outR[i] *= g
			a.state.out[offset+int64(i)] = (outL[i] + outR[i]) / 2
		}
		writeBuffer(outL, buf, 0)
		writeBuffer(outR, buf, 1)
		a.state.pos += int64(bufSamples)
		a.state.lastRead = timestamp
		eventLength := len(a.state.events)
		for i := 0; i < eventLength; i++ {
			if i >= eventLength/2 {
				a.state.events[i-eventLength/2] = a.state.events[i]
			}
			a.state.events[i] = nil
		}
		return len(buf), nil
	}
}

// renderSpan runs the pipeline for in/out samples [from:to): demodulate the
// modulator, forward a finished snapshot to the engine, render the voice.
func (a *Audio) renderSpan(from int, to int) {
	s := a.state
	p := s.params
	ampL, ampR, ok := s.demodulator.submitSamples(
		s.inL[from:to], s.inR[from:to],
		p.distributionMode, p.harmonicCount, p.harmonicOffset,
		p.floor, p.ceiling, p.bias,
	)
	if ok {
		s.voice.engine.submitAmplitudes(ampL, ampR)
	}
	s.voice.process(sampleRate, s.outL[from:to], s.outR[from:to], p.gainMode, p.slewEnabled)
}

func writeBuffer(out []float64, buf []byte, ch int) {
	for i, value := range out {
		const max = 32767
		b := int16(clamp(value, -1, 1) * max)
		buf[bytesPerSample*i+2*ch] = byte(b)
		buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
	}
}

// newAudio wires everything except the sound card and the input device.
func newAudio(presetDir string) *Audio {
	return &Audio{
		ctx:       context.Background(),
		CommandCh: make(chan []string, 256),
		state:     newState(),
		Changes: &Changes{
			dict: make(map[string]struct{}),
		},
		capture:   newCapture(),
		presets:   newPresetManager(presetDir),
		fft:       NewFFT(fftSize),
		fftResult: make([]float64, fftSize),
	}
}

// NewAudio ...
func NewAudio(presetDir string) (*Audio, error) {
	audio := newAudio(presetDir)
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, err
	}
	audio.otoContext = otoContext
	if err := audio.capture.start(); err != nil {
		log.Printf("modulator input unavailable, running silent: %v\n", err)
	}
	log.Printf("latency: %v samples\n", audio.Latency())
	go processCommands(audio, audio.CommandCh)
	return audio, nil
}

// Latency returns the fixed number of samples between modulator input and
// the output it shapes, which equals the analysis block size.
func (a *Audio) Latency() int {
	return demodBlockSize
}

func processCommands(audio *Audio, commandCh <-chan []string) {
	for command := range commandCh {
		if err := audio.update(command); err != nil {
			log.Printf("command failed: %v\n", err)
		}
	}
	log.Println("processCommands() ended.")
}

func (a *Audio) update(command []string) error {
	a.state.Lock()
	defer a.state.Unlock()

	switch command[0] {
	case "set":
		if len(command) != 3 {
			return fmt.Errorf("invalid key-value pair %v", command[1:])
		}
		if err := a.state.params.set(command[1], command[2]); err != nil {
			return err
		}
		if command[1] == "volume" {
			a.state.gain.linear(10, a.state.params.volume)
		}
		a.Changes.Add("data")
	case "preset":
		if len(command) != 2 {
			return fmt.Errorf("preset command needs a name")
		}
		if err := a.presets.applyToParams(command[1], a.state.params); err != nil {
			return err
		}
		a.state.gain.linear(10, a.state.params.volume)
		a.Changes.Add("data")
	case "note_on":
		note, err := strconv.ParseInt(command[1], 10, 32)
		if err != nil {
			return err
		}
		a.addMidiEvent(&noteOn{note: int(note)})
	case "note_off":
		note, err := strconv.ParseInt(command[1], 10, 32)
		if err != nil {
			return err
		}
		a.addMidiEvent(&noteOff{note: int(note)})
	case "pitch_bend":
		value, err := strconv.ParseFloat(command[1], 64)
		if err != nil {
			return err
		}
		a.addMidiEvent(&pitchBend{value: clamp(value, 0, 1)})
	case "reset":
		a.state.voice.reset()
		a.state.demodulator.reset()
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.CommandCh)
	if err := a.capture.close(); err != nil {
		log.Printf("error while closing capture: %v\n", err)
	}
	if a.otoContext == nil {
		return nil
	}
	return a.otoContext.Close()
}

// Start ...
func (a *Audio) Start(ctx context.Context) error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	a.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, a, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

// GetFFT returns the magnitude spectrum of the most recent output.
func (a *Audio) GetFFT() []float64 {
	a.state.Lock()
	// out:       | 4 | 1 | 2 | 3 |
	// offset:        ^
	// fftResult: | 1 | 2 | 3 | 4 |
	// return:    |<----->|
	offset := a.state.pos % fftSize
	copy(a.fftResult, a.state.out[offset:])
	copy(a.fftResult[fftSize-offset:], a.state.out[:offset])
	a.state.Unlock()
	Han(a.fftResult)
	a.fft.CalcAbs(a.fftResult)
	for i, value := range a.fftResult {
		a.fftResult[i] = value * 2 / fftSize
	}
	return a.fftResult[:fftSize/2]
}

// PresetNames lists the presets available to the preset command.
func (a *Audio) PresetNames() []string {
	return a.presets.getList()
}

// ToJSON ...
func (a *Audio) ToJSON() []byte {
	a.state.Lock()
	defer a.state.Unlock()
	bytes, err := json.Marshal(a.state.params.toJSON())
	if err != nil {
		panic(err)
	}
	return bytes
}

// ApplyJSON ...
func (a *Audio) ApplyJSON(data []byte) {
	a.state.Lock()
	defer a.state.Unlock()
	a.state.params.applyJSON(data)
	a.state.gain.linear(10, a.state.params.volume)
}

// AddMidiEvent ...
func (a *Audio) AddMidiEvent(data []byte) {
	a.state.Lock()
	defer a.state.Unlock()
	if len(data) < 3 {
		return
	}
	switch data[0] >> 4 {
	case 8:
		a.addMidiEvent(&noteOff{note: int(data[1])})
	case 9:
		if data[2] == 0 {
			a.addMidiEvent(&noteOff{note: int(data[1])})
		} else {
			a.addMidiEvent(&noteOn{note: int(data[1])})
		}
	case 14:
		value := float64(int(data[1])|int(data[2])<<7) / 16383.0
		a.addMidiEvent(&pitchBend{value: value})
	}
}

func (a *Audio) addMidiEvent(event interface{}) {
	offset := now() - a.state.lastRead
	index := int(offset / secPerSample)
	if index < 0 {
		log.Println("[WARN] index < 0")
		index = 0
	}
	if index >= len(a.state.events) {
		log.Println("[WARN] index >= event length")
		index = len(a.state.events) - 1
	}
	a.state.events[index] = append(a.state.events[index], &midiEvent{offset: offset, event: event})
}
