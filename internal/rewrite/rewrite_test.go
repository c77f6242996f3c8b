package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_SingleInsertion(t *testing.T) {
	src := []byte("foo();")
	out := Apply(src, []Insertion{{Offset: 0, Text: "/*#__PURE__*/"}})
	assert.Equal(t, "/*#__PURE__*/foo();", string(out))
}

func TestApply_MultipleInsertionsKeepOffsets(t *testing.T) {
	src := []byte("a();b();")
	out := Apply(src, []Insertion{
		{Offset: 4, Text: "/*#__PURE__*/"},
		{Offset: 0, Text: "/*#__PURE__*/"},
	})
	assert.Equal(t, "/*#__PURE__*/a();/*#__PURE__*/b();", string(out))
}

func TestApply_NoInsertionsReturnsInput(t *testing.T) {
	src := []byte("foo();")
	out := Apply(src, nil)
	assert.Equal(t, src, out)
}

func TestApply_OffsetPastEndClampsToEnd(t *testing.T) {
	src := []byte("x")
	out := Apply(src, []Insertion{{Offset: 99, Text: "!"}})
	assert.Equal(t, "x!", string(out))
}

func TestChanged(t *testing.T) {
	assert.False(t, Changed([]byte("foo();"), []byte("foo();")))
	assert.True(t, Changed([]byte("foo();"), []byte("/*#__PURE__*/foo();")))
	assert.True(t, Changed([]byte("aaaa"), []byte("aaab")))
}

func TestVerifySyntax(t *testing.T) {
	assert.NoError(t, VerifySyntax([]byte("/*#__PURE__*/foo();")))
	assert.Error(t, VerifySyntax([]byte("foo(/*#__PURE__*/;")))
}

func TestParseable(t *testing.T) {
	assert.True(t, Parseable([]byte("var x = foo();")))
	assert.False(t, Parseable([]byte("function ( {")))
}
