package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contracts.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseContractsFile_CSV(t *testing.T) {
	path := writeCSV(t, `notice_id,title,description,buyer_name,value,region,cpv_codes,published_date,closing_date
N-001,Cloud Hosting,Managed hosting services,Leeds City Council,"£1,250,000.50",Yorkshire,72000000;72400000,2026-01-05,2026-02-28
N-002,Road Resurfacing,,Kent County Council,85000,South East,,2026-01-10,
,Missing Notice ID,,Buyer,100,,,,
`)

	contracts, err := ParseContractsFile(path)
	require.NoError(t, err)
	require.Len(t, contracts, 2)

	first := contracts[0]
	assert.Equal(t, "N-001", first.NoticeID)
	assert.Equal(t, "Cloud Hosting", first.Title)
	assert.Equal(t, "Leeds City Council", first.BuyerName)
	assert.InDelta(t, 1250000.50, first.Value, 1e-9)
	assert.Equal(t, "Yorkshire", first.Region)
	assert.Equal(t, []string{"72000000", "72400000"}, first.CPVCodes)
	assert.Equal(t, 2026, first.PublishedDate.Year())

	second := contracts[1]
	assert.Equal(t, "N-002", second.NoticeID)
	assert.Zero(t, second.CPVCodes)
	assert.True(t, second.ClosingDate.IsZero())
}

func TestParseContractsFile_HeaderOnly(t *testing.T) {
	path := writeCSV(t, "notice_id,title\n")
	contracts, err := ParseContractsFile(path)
	require.NoError(t, err)
	assert.Empty(t, contracts)
}

func TestParseContractsFile_UnsupportedFormat(t *testing.T) {
	_, err := ParseContractsFile("contracts.pdf")
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"£1,250,000.50", 1250000.50},
		{"85000", 85000},
		{"€2 500", 2500},
		{"", 0},
		{"not a number", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, parseValue(tt.raw), 1e-9, tt.raw)
	}
}
