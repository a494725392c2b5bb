package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/stock-themes/internal/model"
)

func TestPatentCPCMapping(t *testing.T) {
	e := NewPatentExtractor()
	profile := &model.CompanyProfile{
		Ticker:         "TECH",
		PatentCPCCodes: []string{"G06N3/08", "G06N20/00", "H01M4/62"},
		PatentCount:    100,
	}

	require.True(t, e.Eligible(profile))
	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)

	// AI has 2 of 3 codes (max count), battery 1. Volume bonus 100/500 = 0.2.
	require.Len(t, themes, 2)
	assert.Equal(t, "artificial intelligence", themes[0].Name)
	assert.InDelta(t, 0.85, themes[0].Confidence, 1e-9) // 0.3 + 1.0*0.35 + 0.2
	assert.Equal(t, "2 patents with matching CPC codes (of 100 total)", themes[0].Evidence)

	assert.Equal(t, "battery technology", themes[1].Name)
	assert.InDelta(t, 0.675, themes[1].Confidence, 1e-9) // 0.3 + 0.5*0.35 + 0.2
}

func TestPatentVolumeBonusCapped(t *testing.T) {
	e := NewPatentExtractor()
	profile := &model.CompanyProfile{
		Ticker:         "BIGP",
		PatentCPCCodes: []string{"H01M4/62"},
		PatentCount:    2000,
	}

	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)

	require.Len(t, themes, 1)
	// 0.3 + 0.35 + min(0.2, 4.0) = 0.85, already at the cap.
	assert.InDelta(t, 0.85, themes[0].Confidence, 1e-9)
}

func TestPatentFallsBackToCodeCountForTotal(t *testing.T) {
	e := NewPatentExtractor()
	profile := &model.CompanyProfile{
		Ticker:         "NOCT",
		PatentCPCCodes: []string{"G06N3/08", "G06N20/00"},
	}

	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)

	require.Len(t, themes, 1)
	// total = len(codes) = 2, volume bonus 2/500 = 0.004.
	assert.InDelta(t, 0.654, themes[0].Confidence, 1e-9)
}

func TestPatentUnmappedCodes(t *testing.T) {
	e := NewPatentExtractor()
	profile := &model.CompanyProfile{
		Ticker:         "ODD",
		PatentCPCCodes: []string{"Z99Z"},
	}

	themes, err := e.Extract(context.Background(), profile, nil)
	require.NoError(t, err)
	assert.Empty(t, themes)
}
