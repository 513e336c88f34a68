package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractText_TXT(t *testing.T) {
	path := writeFile(t, "agreement.txt", "  1. Definitions  \n\n   In this Agreement the following terms apply.   \n")
	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "1. Definitions\nIn this Agreement the following terms apply.", text)
}

func TestExtractText_Markdown(t *testing.T) {
	path := writeFile(t, "terms.md", "# SECTION 1 Scope\n\nThe supplier shall deliver the services.\n\n- first item\n- second item\n")
	text, err := ExtractText(path)
	require.NoError(t, err)

	// block boundaries become line breaks so headings stay line-anchored
	assert.Equal(t, "SECTION 1 Scope\nThe supplier shall deliver the services.\nfirst item\nsecond item", text)
}

func TestExtractText_UnsupportedFormat(t *testing.T) {
	_, err := ExtractText("document.pages")
	assert.Error(t, err)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a\nb", cleanText("  a  \n\n\n  b\n"))
	assert.Equal(t, "", cleanText("   \n \n"))
}
