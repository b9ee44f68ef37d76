package rpn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fmea/internal/model"
)

func TestBand_DefaultThresholds(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		rpn  int
		want Level
	}{
		{0, LevelNone},
		{1, LevelLow},
		{69, LevelLow},
		{70, LevelMedium},
		{99, LevelMedium},
		{100, LevelHigh},
		{126, LevelHigh},
		{149, LevelHigh},
		{150, LevelCritical},
		{1000, LevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Band(tt.rpn, th), "Band(%d)", tt.rpn)
	}
}

func TestBand_CustomThresholds(t *testing.T) {
	th := Thresholds{Critical: 300, High: 200, Medium: 100}
	assert.Equal(t, LevelMedium, Band(160, th))
	assert.Equal(t, LevelCritical, Band(300, th))
}

func TestSeverityBand(t *testing.T) {
	tests := []struct {
		rating int
		want   Level
	}{
		{0, LevelNone},
		{1, LevelLow},
		{3, LevelLow},
		{4, LevelMedium},
		{7, LevelMedium},
		{8, LevelHigh},
		{10, LevelHigh},
		{11, LevelNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityBand(tt.rating), "SeverityBand(%d)", tt.rating)
	}
}

func TestThresholdsFrom(t *testing.T) {
	base := DefaultThresholds()

	assert.Equal(t, base, ThresholdsFrom(nil, base))
	assert.Equal(t,
		Thresholds{Critical: 200, High: 100, Medium: 70},
		ThresholdsFrom(&model.RiskThresholds{Critical: 200}, base),
	)
	assert.Equal(t,
		Thresholds{Critical: 500, High: 250, Medium: 80},
		ThresholdsFrom(&model.RiskThresholds{Critical: 500, High: 250, Medium: 80}, base),
	)
}

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	bad := []Thresholds{
		{Critical: 100, High: 100, Medium: 70},
		{Critical: 150, High: 60, Medium: 70},
		{Critical: 150, High: 100, Medium: 0},
		{Critical: 1001, High: 100, Medium: 70},
	}
	for _, th := range bad {
		assert.ErrorIs(t, th.Validate(), ErrInvalidThresholds, "%+v", th)
	}
}

func TestValidRating(t *testing.T) {
	assert.False(t, ValidRating(0))
	assert.True(t, ValidRating(1))
	assert.True(t, ValidRating(10))
	assert.False(t, ValidRating(11))
}
