package explain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/olehluchkiv/goexplain/internal/config"
	"github.com/olehluchkiv/goexplain/internal/introspect"
	"github.com/olehluchkiv/goexplain/internal/render"
)

func funcReport() *render.Report {
	return &render.Report{
		Target:     "path/filepath.Join",
		Name:       "Join",
		Kind:       "func",
		Type:       "func",
		Signature:  "func Join(elem ...string) string",
		Doc:        "Join joins any number of path elements into a single path.",
		Source:     "func Join(elem ...string) string {\n\treturn join(elem)\n}",
		SourceLine: 240,
	}
}

func packageReport(members int) *render.Report {
	rep := &render.Report{Target: "os", Name: "os", Kind: "package", Type: "package", Container: true}
	for i := range members {
		rep.Members = append(rep.Members, introspect.Member{Name: fmt.Sprintf("M%03d", i), Type: "func()"})
	}
	return rep
}

func TestBuildPrompt_Function(t *testing.T) {
	p := BuildPrompt(funcReport())

	assert.Contains(t, p, "SYMBOL: path/filepath.Join")
	assert.Contains(t, p, "KIND: func")
	assert.Contains(t, p, "SIGNATURE: func Join(elem ...string) string")
	assert.Contains(t, p, "  Join joins any number")
	assert.Contains(t, p, "SOURCE:\nfunc Join")
	assert.NotContains(t, p, "MEMBERS")
}

func TestBuildPrompt_MissingFacts(t *testing.T) {
	p := BuildPrompt(&render.Report{Target: "len", Kind: "builtin", Type: "builtin func"})

	assert.Contains(t, p, "DOC:\n  (none)")
	assert.Contains(t, p, "SOURCE: (not available)")
	assert.NotContains(t, p, "SIGNATURE")
}

func TestBuildPrompt_TruncatesMembers(t *testing.T) {
	p := BuildPrompt(packageReport(maxPromptMembers + 5))

	assert.Contains(t, p, fmt.Sprintf("MEMBERS (%d shown of %d)", maxPromptMembers, maxPromptMembers+5))
	assert.Contains(t, p, fmt.Sprintf("M%03d", maxPromptMembers-1))
	assert.NotContains(t, p, fmt.Sprintf("M%03d", maxPromptMembers))
}

func TestBuildPrompt_TruncatesSource(t *testing.T) {
	rep := funcReport()
	rep.Source = strings.Repeat("x := 1\n", maxPromptSourceLines+10)

	p := BuildPrompt(rep)
	assert.Contains(t, p, fmt.Sprintf("SOURCE (first %d of %d lines)", maxPromptSourceLines, maxPromptSourceLines+11))
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	e, err := New(ctx, config.ExplainConfig{Provider: config.ProviderNone}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, Noop{}, e)

	_, err = New(ctx, config.ExplainConfig{Provider: config.ProviderOpenAI}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.EnvAPIKey)

	e, err = New(ctx, config.ExplainConfig{Provider: config.ProviderOpenAI, APIKey: "k"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, e)

	e, err = New(ctx, config.ExplainConfig{Provider: config.ProviderGemini, APIKey: "k"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &Gemini{}, e)

	_, err = New(ctx, config.ExplainConfig{Provider: "bard", APIKey: "k"}, testLogger())
	require.Error(t, err)
}

type failingExplainer struct{ err error }

func (f failingExplainer) Explain(context.Context, *render.Report) (string, error) { return "", f.err }

type fixedExplainer string

func (f fixedExplainer) Explain(context.Context, *render.Report) (string, error) {
	return string(f), nil
}

func TestAnnotate(t *testing.T) {
	rep := funcReport()
	Annotate(context.Background(), fixedExplainer("  Joins paths.\n"), rep, testLogger())
	assert.Equal(t, "Joins paths.", rep.Explanation)

	rep = funcReport()
	Annotate(context.Background(), failingExplainer{errors.New("quota exceeded")}, rep, testLogger())
	assert.Equal(t, "Explanation unavailable: quota exceeded", rep.Explanation)

	rep = funcReport()
	Annotate(context.Background(), Noop{}, rep, testLogger())
	assert.Empty(t, rep.Explanation)
}

type fakeGenerator struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func TestGemini_Explain(t *testing.T) {
	fake := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText("Joins path elements.", genai.RoleModel)}},
	}}
	g := &Gemini{models: fake, model: "gemini-test", logger: testLogger()}

	got, err := g.Explain(context.Background(), funcReport())
	require.NoError(t, err)
	assert.Equal(t, "Joins path elements.", got)

	assert.Equal(t, "gemini-test", fake.model)
	require.Len(t, fake.contents, 1)
	require.Len(t, fake.contents[0].Parts, 1)
	assert.Contains(t, fake.contents[0].Parts[0].Text, "SYMBOL: path/filepath.Join")
	require.NotNil(t, fake.config.SystemInstruction)
	assert.Equal(t, systemPrompt, fake.config.SystemInstruction.Parts[0].Text)
}

func TestGemini_Errors(t *testing.T) {
	g := &Gemini{models: &fakeGenerator{err: errors.New("429 quota")}, model: "m", logger: testLogger()}
	_, err := g.Explain(context.Background(), funcReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429 quota")

	g = &Gemini{models: &fakeGenerator{resp: &genai.GenerateContentResponse{}}, model: "m", logger: testLogger()}
	_, err = g.Explain(context.Background(), funcReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text")
}
