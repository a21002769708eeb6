package audio

import (
	"encoding/json"
	"log"
	"strconv"
)

// ----- Params ----- //

// params is the snapshot of all automatable values. The render loop reads it
// once per cycle under the state lock; nothing here is smoothed (the shell
// smooths its own gain, the core slew-limits amplitudes itself).
type params struct {
	floor            float64 // -2 ~ 2
	ceiling          float64 // -2 ~ 2
	bias             float64 // -1 ~ 1
	attack           float64 // ms, 0 ~ 50
	release          float64 // ms, 0 ~ 50
	harmonicCount    int     // 1 ~ 512
	harmonicOffset   int     // 0 ~ 512
	distributionMode int
	gainMode         int
	slewEnabled      bool
	volume           float64 // 0 ~ 1, shell master gain
}

func newParams() *params {
	return &params{
		floor:            0,
		ceiling:          2,
		bias:             0,
		attack:           0.5,
		release:          0.5,
		harmonicCount:    500,
		harmonicOffset:   0,
		distributionMode: distributionExponential,
		gainMode:         gainFlat,
		slewEnabled:      true,
		volume:           0.5,
	}
}

type paramsJSON struct {
	Floor            float64 `json:"floor"`
	Ceiling          float64 `json:"ceiling"`
	Bias             float64 `json:"bias"`
	Attack           float64 `json:"attack"`
	Release          float64 `json:"release"`
	HarmonicCount    int     `json:"harmonicCount"`
	HarmonicOffset   int     `json:"harmonicOffset"`
	DistributionMode string  `json:"distributionMode"`
	GainMode         string  `json:"gainMode"`
	SlewEnabled      bool    `json:"slewEnabled"`
	Volume           float64 `json:"volume"`
}

func (p *params) applyJSON(data json.RawMessage) {
	var j paramsJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to params")
		return
	}
	p.floor = clamp(j.Floor, -2, 2)
	p.ceiling = clamp(j.Ceiling, -2, 2)
	p.bias = clamp(j.Bias, -1, 1)
	p.attack = clamp(j.Attack, 0, 50)
	p.release = clamp(j.Release, 0, 50)
	p.harmonicCount = clampInt(j.HarmonicCount, 1, maxHarmonics)
	p.harmonicOffset = clampInt(j.HarmonicOffset, 0, maxHarmonics)
	p.distributionMode = distributionModeFromString(j.DistributionMode)
	p.gainMode = gainModeFromString(j.GainMode)
	p.slewEnabled = j.SlewEnabled
	p.volume = clamp(j.Volume, 0, 1)
}
func (p *params) toJSON() json.RawMessage {
	return toRawMessage(&paramsJSON{
		Floor:            p.floor,
		Ceiling:          p.ceiling,
		Bias:             p.bias,
		Attack:           p.attack,
		Release:          p.release,
		HarmonicCount:    p.harmonicCount,
		HarmonicOffset:   p.harmonicOffset,
		DistributionMode: distributionModeToString(p.distributionMode),
		GainMode:         gainModeToString(p.gainMode),
		SlewEnabled:      p.slewEnabled,
		Volume:           p.volume,
	})
}
func (p *params) set(key string, value string) error {
	switch key {
	case "floor":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.floor = clamp(value, -2, 2)
	case "ceiling":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.ceiling = clamp(value, -2, 2)
	case "bias":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.bias = clamp(value, -1, 1)
	case "attack":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.attack = clamp(value, 0, 50)
	case "release":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.release = clamp(value, 0, 50)
	case "harmonic_count":
		value, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		p.harmonicCount = clampInt(int(value), 1, maxHarmonics)
	case "harmonic_offset":
		value, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		p.harmonicOffset = clampInt(int(value), 0, maxHarmonics)
	case "distribution_mode":
		p.distributionMode = distributionModeFromString(value)
	case "gain_mode":
		p.gainMode = gainModeFromString(value)
	case "slew":
		p.slewEnabled = value == "true"
	case "volume":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.volume = clamp(value, 0, 1)
	}
	return nil
}
