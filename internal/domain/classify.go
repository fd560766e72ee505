package domain

import "strings"

const (
	// DetectionThreshold is the distance at or above which trash is detected.
	DetectionThreshold = 1120.0

	// WarningThreshold is the lower edge of the WARNING depth-risk band.
	WarningThreshold = 800.0
)

// ClassifyDetection maps a distance reading to a detection state.
func ClassifyDetection(distance float64) DetectionState {
	if distance >= DetectionThreshold {
		return Detected
	}
	return NotDetected
}

// ClassifyLevel maps a raw level field onto a tier. Keyword matches win over
// numeric codes, HIGH is checked before NORMAL, and LOW is the fallback for
// every unrecognized value including the empty string.
func ClassifyLevel(raw string) LevelTier {
	v := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(v, "HIGH") || v == "3":
		return LevelHigh
	case strings.Contains(v, "NORMAL") || v == "2":
		return LevelNormal
	default:
		return LevelLow
	}
}

// ClassifyStatus maps a raw status field onto an operational status with
// NORMAL as the fallback.
func ClassifyStatus(raw string) OperationalStatus {
	v := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(v, "ALERT") || v == "3":
		return StatusAlert
	case strings.Contains(v, "WARNING") || v == "2":
		return StatusWarning
	default:
		return StatusNormal
	}
}

// ClassifyRisk maps a distance reading onto the depth-history risk band.
func ClassifyRisk(distance float64) RiskBand {
	switch {
	case distance >= DetectionThreshold:
		return RiskHigh
	case distance >= WarningThreshold:
		return RiskWarning
	default:
		return RiskStable
	}
}
