package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuotedTextList(t *testing.T) {
	assert.Equal(t, "", QuotedTextList(nil, "or"))
	assert.Equal(t, `"a"`, QuotedTextList([]string{"a"}, "or"))
	assert.Equal(t, `"a" or "b"`, QuotedTextList([]string{"a", "b"}, "or"))
	assert.Equal(t, `"a", "b", and "c"`, QuotedTextList([]string{"a", "b", "c"}, "and"))
}

func TestQuotedTextList_DoesNotModifyInput(t *testing.T) {
	items := []string{"a", "b", "c"}
	_ = QuotedTextList(items, "or")
	assert.Equal(t, []string{"a", "b", "c"}, items)
}
