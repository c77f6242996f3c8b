package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/puremark/internal/purity"
)

func defaultOpts() Options {
	return Options{Denylist: purity.DefaultDenylist()}
}

func annotateJS(t *testing.T, source string) (string, Stats) {
	t.Helper()
	tr := New()
	out, stats, err := tr.Source("test.js", []byte(source), defaultOpts())
	require.NoError(t, err)
	return string(out), stats
}

func TestSource_TopLevelCall(t *testing.T) {
	out, stats := annotateJS(t, "foo();")
	assert.Equal(t, "/*#__PURE__*/foo();", out)
	assert.Equal(t, 1, stats.Annotated)
}

func TestSource_TopLevelConstructor(t *testing.T) {
	out, stats := annotateJS(t, "new Date();")
	assert.Equal(t, "/*#__PURE__*/new Date();", out)
	assert.Equal(t, 1, stats.Annotated)
}

func TestSource_CallInsideFunctionUnchanged(t *testing.T) {
	source := "function test() { foo(); }"
	out, stats := annotateJS(t, source)
	assert.Equal(t, source, out)
	assert.Equal(t, 1, stats.NotTopLevel)
	assert.Equal(t, 0, stats.Annotated)
}

func TestSource_CallWithArgumentUnchanged(t *testing.T) {
	source := "Object.create({});"
	out, stats := annotateJS(t, source)
	assert.Equal(t, source, out)
	assert.Equal(t, 1, stats.HasArguments)
}

func TestSource_DenylistedHelperUnchanged(t *testing.T) {
	source := "__extends();"
	tr := New()
	opts := Options{Denylist: purity.DefaultDenylist().Extend("__extends")}
	out, stats, err := tr.Source("test.js", []byte(source), opts)
	require.NoError(t, err)
	assert.Equal(t, source, string(out))
	assert.Equal(t, 1, stats.Denylisted)
}

func TestSource_DefaultHelpersUnchanged(t *testing.T) {
	for _, source := range []string{"__importStar();", "__createBinding();", "__importStar$1();"} {
		out, stats := annotateJS(t, source)
		assert.Equal(t, source, out, source)
		assert.Equal(t, 1, stats.Denylisted, source)
	}
}

func TestSource_SecondRunIsNoOp(t *testing.T) {
	first, stats := annotateJS(t, "foo();")
	assert.Equal(t, 1, stats.Annotated)

	second, stats2 := annotateJS(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 0, stats2.Annotated)
	assert.Equal(t, 1, stats2.AlreadyAnnotated)
}

func TestSource_AtFormMarkerBlocksReannotation(t *testing.T) {
	source := "/* @__PURE__ */foo();"
	out, stats := annotateJS(t, source)
	assert.Equal(t, source, out)
	assert.Equal(t, 1, stats.AlreadyAnnotated)
}

func TestSource_MethodBodyNotTopLevel(t *testing.T) {
	source := "class Test { method() { bar(); } }"
	out, stats := annotateJS(t, source)
	assert.Equal(t, source, out)
	assert.Equal(t, 1, stats.NotTopLevel)
}

func TestSource_ArrowBodyNotTopLevel(t *testing.T) {
	source := "const f = () => foo();"
	out, stats := annotateJS(t, source)
	assert.Equal(t, source, out)
	assert.Equal(t, 1, stats.NotTopLevel)
}

func TestSource_NestedEligibleCallInsideArgumentList(t *testing.T) {
	// bar() is itself top level even though it feeds console.log's
	// argument list; console.log(...) has an argument and stays bare.
	out, stats := annotateJS(t, "console.log(bar());")
	assert.Equal(t, "console.log(/*#__PURE__*/bar());", out)
	assert.Equal(t, 1, stats.Annotated)
	assert.Equal(t, 1, stats.HasArguments)
}

func TestSource_MixedProgram(t *testing.T) {
	source := "foo();\nbar(1);\nfunction f() { baz(); }\nnew Thing();\n"
	want := "/*#__PURE__*/foo();\nbar(1);\nfunction f() { baz(); }\n/*#__PURE__*/new Thing();\n"
	out, stats := annotateJS(t, source)
	assert.Equal(t, want, out)
	assert.Equal(t, 2, stats.Annotated)
	assert.Equal(t, 1, stats.HasArguments)
	assert.Equal(t, 1, stats.NotTopLevel)
	assert.Equal(t, 4, stats.Sites)
}

func TestSource_DeterministicAcrossRuns(t *testing.T) {
	source := "a();b();c(1);function f(){d();}"
	first, _ := annotateJS(t, source)
	for i := 0; i < 5; i++ {
		out, _ := annotateJS(t, source)
		assert.Equal(t, first, out)
	}
}

func TestSource_TypeScriptInput(t *testing.T) {
	tr := New()
	out, stats, err := tr.Source("test.ts", []byte("makeStore();"), defaultOpts())
	require.NoError(t, err)
	assert.Equal(t, "/*#__PURE__*/makeStore();", string(out))
	assert.Equal(t, 1, stats.Annotated)
}

func TestSource_VerifyAnnotatedOutput(t *testing.T) {
	tr := New()
	opts := defaultOpts()
	opts.Verify = true
	out, _, err := tr.Source("test.js", []byte("var x = foo();"), opts)
	require.NoError(t, err)
	assert.Equal(t, "var x = /*#__PURE__*/foo();", string(out))
}

func TestSource_UnsupportedExtension(t *testing.T) {
	tr := New()
	_, _, err := tr.Source("test.rb", []byte("foo()"), defaultOpts())
	assert.Error(t, err)
}

func TestInspect_ReportsVerdictsInDocumentOrder(t *testing.T) {
	tr := New()
	source := "foo();\nbar(1);\nfunction f() { baz(); }"
	reports, stats, err := tr.Inspect("test.js", []byte(source), defaultOpts())
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, "foo", reports[0].Callee)
	assert.Equal(t, "eligible", reports[0].Verdict)
	assert.True(t, reports[0].Applied)
	assert.Equal(t, 1, reports[0].Line)

	assert.Equal(t, "bar", reports[1].Callee)
	assert.Equal(t, "has-arguments", reports[1].Verdict)
	assert.Equal(t, 2, reports[1].Line)

	assert.Equal(t, "baz", reports[2].Callee)
	assert.Equal(t, "not-top-level", reports[2].Verdict)
	assert.Equal(t, 3, reports[2].Line)

	assert.Equal(t, 3, stats.Sites)
}

func TestStats_Merge(t *testing.T) {
	a := Stats{Sites: 2, Annotated: 1, NotTopLevel: 1}
	b := Stats{Sites: 3, HasArguments: 2, Denylisted: 1}
	a.Merge(b)
	assert.Equal(t, Stats{Sites: 5, Annotated: 1, NotTopLevel: 1, HasArguments: 2, Denylisted: 1}, a)
}
