package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrepareFTSQuery_CamelCaseIsQuotedExact(t *testing.T) {
	got := PrepareFTSQuery("USearchError")
	assert.Equal(t, `"USearchError"`, got)
}

func TestPrepareFTSQuery_PlainTermsGetPrefixMatch(t *testing.T) {
	got := PrepareFTSQuery("render frame")
	assert.Equal(t, `"render"* "frame"*`, got)
}

func TestPrepareFTSQuery_ShortTermsDropped(t *testing.T) {
	got := PrepareFTSQuery("a of renderFrame")
	assert.Equal(t, `"renderFrame"`, got)
}

func TestPrepareFTSQuery_StripsMetacharacters(t *testing.T) {
	got := PrepareFTSQuery(`"render"* frame:(x)`)
	assert.Equal(t, `"render"* "frame"*`, got)
}

func TestPrepareFTSQuery_EmptyInputReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", PrepareFTSQuery("   "))
	assert.Equal(t, "", PrepareFTSQuery(""))
}

func TestIsCamelCaseIdentifier(t *testing.T) {
	assert.True(t, isCamelCaseIdentifier("renderFrame"))
	assert.True(t, isCamelCaseIdentifier("USearchError"))
	assert.False(t, isCamelCaseIdentifier("lowercase"))
	assert.False(t, isCamelCaseIdentifier("UPPERCASE"))
	assert.False(t, isCamelCaseIdentifier("ab"))
}
