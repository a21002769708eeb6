package audio

// ----- Distribution Mode ----- //

const (
	distributionExponential = iota
	distributionLinear
)

func distributionModeFromString(s string) int {
	switch s {
	case "linear":
		return distributionLinear
	default:
		return distributionExponential
	}
}
func distributionModeToString(mode int) string {
	switch mode {
	case distributionLinear:
		return "linear"
	default:
		return "exponential"
	}
}

// ----- Gain Mode ----- //

const (
	gainFlat = iota
	gainSawtooth
)

func gainModeFromString(s string) int {
	switch s {
	case "sawtooth":
		return gainSawtooth
	default:
		return gainFlat
	}
}
func gainModeToString(mode int) string {
	switch mode {
	case gainSawtooth:
		return "sawtooth"
	default:
		return "flat"
	}
}
