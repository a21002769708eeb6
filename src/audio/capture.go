package audio

import (
	"sync"

	"github.com/gordonklaus/portaudio"
)

// ----- Modulator Capture ----- //

const captureRingSize = samplesPerCycle * 8

// capture feeds the demodulator with the line-in signal. A portaudio callback
// pushes into a ring; the render loop drains exactly one cycle per Read and
// never blocks. Without an input device the ring stays empty and readCycle
// hands out silence.
type capture struct {
	sync.Mutex
	ringL    [captureRingSize]float64
	ringR    [captureRingSize]float64
	readPos  int64
	writePos int64
	stream   *portaudio.Stream
}

func newCapture() *capture {
	return &capture{}
}

func (c *capture) start() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(channelNum, 0, sampleRate, samplesPerCycle, func(in [][]float32) {
		c.push(in[0], in[1])
	})
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}
	c.stream = stream
	return nil
}

func (c *capture) close() error {
	if c.stream == nil {
		return nil
	}
	err := c.stream.Close()
	c.stream = nil
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}

func (c *capture) push(inL []float32, inR []float32) {
	c.Lock()
	defer c.Unlock()
	for i := 0; i < len(inL); i++ {
		if c.writePos-c.readPos >= captureRingSize {
			// overrun: drop the oldest cycle rather than the newest input
			c.readPos += samplesPerCycle
		}
		pos := c.writePos % captureRingSize
		c.ringL[pos] = float64(inL[i])
		c.ringR[pos] = float64(inR[i])
		c.writePos++
	}
}

// readCycle fills outL/outR with captured input, zero-filling on underrun.
func (c *capture) readCycle(outL []float64, outR []float64) {
	c.Lock()
	defer c.Unlock()
	n := 0
	for ; n < len(outL) && c.readPos < c.writePos; n++ {
		pos := c.readPos % captureRingSize
		outL[n] = c.ringL[pos]
		outR[n] = c.ringR[pos]
		c.readPos++
	}
	for ; n < len(outL); n++ {
		outL[n] = 0
		outR[n] = 0
	}
}
