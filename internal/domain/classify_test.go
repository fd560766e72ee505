package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDetection(t *testing.T) {
	tests := []struct {
		distance float64
		expected DetectionState
	}{
		{0, NotDetected},
		{-5, NotDetected},
		{1119.99, NotDetected},
		{1120, Detected},
		{1120.01, Detected},
		{5000, Detected},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifyDetection(tt.distance), "distance %v", tt.distance)
	}
}

func TestClassifyLevel(t *testing.T) {
	tests := []struct {
		raw      string
		expected LevelTier
	}{
		{"HIGH", LevelHigh},
		{"high", LevelHigh},
		{"VERY HIGH", LevelHigh},
		{" 3 ", LevelHigh},
		{"NORMAL", LevelNormal},
		{"abnormal", LevelNormal},
		{"2", LevelNormal},
		{"LOW", LevelLow},
		{"1", LevelLow},
		{"", LevelLow},
		{"33", LevelLow},
		{"flooding", LevelLow},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyLevel(tt.raw))
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		raw      string
		expected OperationalStatus
	}{
		{"ALERT", StatusAlert},
		{"red alert", StatusAlert},
		{"3", StatusAlert},
		{"WARNING", StatusWarning},
		{"warning", StatusWarning},
		{"2", StatusWarning},
		{"NORMAL", StatusNormal},
		{"", StatusNormal},
		{"OFFLINE", StatusNormal},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyStatus(tt.raw))
		})
	}
}

func TestClassifyRisk(t *testing.T) {
	assert.Equal(t, RiskStable, ClassifyRisk(799.9))
	assert.Equal(t, RiskWarning, ClassifyRisk(800))
	assert.Equal(t, RiskWarning, ClassifyRisk(1119))
	assert.Equal(t, RiskHigh, ClassifyRisk(1120))
}

func TestLevelTierCode(t *testing.T) {
	assert.Equal(t, 1, LevelLow.Code())
	assert.Equal(t, 2, LevelNormal.Code())
	assert.Equal(t, 3, LevelHigh.Code())
	assert.Equal(t, 1, LevelTier("").Code())
}
