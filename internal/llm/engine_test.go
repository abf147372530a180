package llm_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
	"github.com/joseph-ayodele/thesis-checker/internal/llm"
)

type fakeCompleter struct {
	mu    sync.Mutex
	reqs  []llm.CompletionRequest
	reply func(req llm.CompletionRequest) (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	return f.reply(req)
}

const validFront = "UNIVERZA V LJUBLJANI\nFAKULTETA ZA DRUŽBENE VEDE\nMagistrska naloga"

func TestEngine_SinglePass(t *testing.T) {
	fc := &fakeCompleter{reply: func(llm.CompletionRequest) (string, error) {
		return `[{"page_number":3,"severity":"MINOR","message":"Figure 1 untitled"},
		         {"page_number":1,"severity":"MAJOR","message":"Abstract exceeds 250 words"}]`, nil
	}}
	e := llm.NewEngine(fc, nil, llm.EngineConfig{Model: "m", MaxTokens: 4000}, nil)

	got := e.Judge(context.Background(), llm.JudgeInput{FullText: "--- PAGE 1 ---\n" + validFront, FrontPage: validFront, Properties: "1 pages, all A4"})

	require.Len(t, fc.reqs, 1)
	req := fc.reqs[0]
	assert.Equal(t, "m", req.Model)
	assert.Equal(t, 4000, req.MaxTokens)
	assert.Contains(t, req.Prompt, "UNIVERZA V LJUBLJANI")
	assert.Contains(t, req.Prompt, "1 pages, all A4")
	assert.Contains(t, req.Prompt, validFront)

	require.Len(t, got, 2)
	assert.Equal(t, constants.SeverityMajor, got[0].Severity)
	assert.Equal(t, constants.SeverityMinor, got[1].Severity)
}

func TestEngine_CallFailureBecomesCriticalFinding(t *testing.T) {
	fc := &fakeCompleter{reply: func(llm.CompletionRequest) (string, error) {
		return "", errors.Join(common.ErrUpstreamJudgment, errors.New("dial tcp: connection refused"))
	}}
	e := llm.NewEngine(fc, nil, llm.EngineConfig{}, nil)

	got := e.Judge(context.Background(), llm.JudgeInput{FullText: "text", FrontPage: validFront})
	require.Len(t, got, 1)
	assert.Equal(t, constants.SeverityCritical, got[0].Severity)
	assert.Equal(t, "system_error", got[0].Category)
	assert.True(t, strings.HasPrefix(got[0].Message, "AI validation failed: "))
	assert.Contains(t, got[0].Message, "connection refused")
}

func TestEngine_IdentityFindingsLeadAndDeduplicate(t *testing.T) {
	front := "University of Ljubljana\nFAKULTETA ZA DRUŽBENE VEDE"
	fc := &fakeCompleter{reply: func(llm.CompletionRequest) (string, error) {
		return `[{"severity":"MINOR","message":"Typo on page 2"},
		         {"severity":"CRITICAL","message":"Missing declaration"},
		         {"severity":"CRITICAL","message":"missing DECLARATION"}]`, nil
	}}
	e := llm.NewEngine(fc, nil, llm.EngineConfig{}, nil)

	got := e.Judge(context.Background(), llm.JudgeInput{FullText: front, FrontPage: front})
	require.Len(t, got, 3)
	assert.Equal(t, constants.SeverityCritical, got[0].Severity)
	assert.Contains(t, got[0].Message, "University name must be 'UNIVERZA V LJUBLJANI'")
	assert.Equal(t, "Missing declaration", got[1].Message)
	assert.Equal(t, constants.SeverityMinor, got[2].Severity)
}

func TestEngine_Sectioned(t *testing.T) {
	text := strings.Repeat("x", 30000)
	var many []string
	for i := 0; i < 12; i++ {
		many = append(many, `{"severity":"MINOR","message":"issue `+string(rune('a'+i))+`"}`)
	}
	fc := &fakeCompleter{reply: func(req llm.CompletionRequest) (string, error) {
		switch req.Purpose {
		case "structure":
			return `[{"severity":"CRITICAL","message":"Missing required section: uvod"},
			         {"severity":"CRITICAL","message":"Missing required section: zaključek"},
			         {"severity":"CRITICAL","message":"Missing required section: viri"},
			         {"severity":"CRITICAL","message":"Missing required section: kazalo"}]`, nil
		case "middle":
			return "", errors.New("timeout")
		default:
			return "[" + strings.Join(many, ",") + "]", nil
		}
	}}
	e := llm.NewEngine(fc, nil, llm.EngineConfig{Mode: common.ModeSectioned}, nil)
	got := e.Judge(context.Background(), llm.JudgeInput{FullText: text, FrontPage: validFront})

	require.Len(t, fc.reqs, 4)
	byPurpose := map[string]llm.CompletionRequest{}
	for _, r := range fc.reqs {
		byPurpose[r.Purpose] = r
	}
	assert.Equal(t, llm.SectionMaxTokens, byPurpose["front"].MaxTokens)
	assert.Equal(t, llm.StructureMaxTokens, byPurpose["structure"].MaxTokens)
	assert.Contains(t, byPurpose["end"].Prompt, "--- END SECTION ---")

	counts := entity.SeverityCounts(got)
	// 3 structure findings + 1 failed section
	assert.Equal(t, 4, counts[constants.SeverityCritical])
	// front and end are each capped at 8, and identical messages collapse into one set
	assert.Equal(t, 8, counts[constants.SeverityMinor])

	var failed []entity.Finding
	for _, f := range got {
		if f.Category == "system_error" {
			failed = append(failed, f)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, "Section validation failed: timeout", failed[0].Message)
}

func TestEngine_SectionedSkipsEmptyWindows(t *testing.T) {
	fc := &fakeCompleter{reply: func(llm.CompletionRequest) (string, error) { return "[]", nil }}
	e := llm.NewEngine(fc, nil, llm.EngineConfig{Mode: common.ModeSectioned}, nil)
	got := e.Judge(context.Background(), llm.JudgeInput{FullText: "short thesis", FrontPage: validFront})

	assert.Empty(t, got)
	require.Len(t, fc.reqs, 2)
}

func TestMerge_OrdersBySeverityStable(t *testing.T) {
	a := entity.NewFinding(0, "MINOR", "m1", "")
	b := entity.NewFinding(0, "CRITICAL", "c1", "")
	c := entity.NewFinding(0, "MINOR", "m2", "")
	d := entity.NewFinding(0, "MAJOR", "j1", "")
	e := entity.NewFinding(0, "CRITICAL", "c2", "")

	got := llm.Merge([]entity.Finding{a, b}, []entity.Finding{c, d, e, b})
	var msgs []string
	for _, f := range got {
		msgs = append(msgs, f.Message)
	}
	assert.Equal(t, []string{"c1", "c2", "j1", "m1", "m2"}, msgs)
}

func TestMerge_KeepsSameMessageOnDifferentPages(t *testing.T) {
	p3 := entity.NewFinding(3, "MINOR", "Page number missing in footer", "formatting")
	p7 := entity.NewFinding(7, "MINOR", "Page number missing in footer", "formatting")
	again := entity.NewFinding(3, "MINOR", "page number missing in footer", "formatting")

	got := llm.Merge([]entity.Finding{p3, p7}, []entity.Finding{again})
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].PageNumber)
	assert.Equal(t, 7, got[1].PageNumber)
}

func TestEngine_SinglePassKeepsRepeatedViolationPerPage(t *testing.T) {
	fc := &fakeCompleter{reply: func(llm.CompletionRequest) (string, error) {
		return `[{"page_number":3,"severity":"MINOR","message":"Page number missing in footer"},
		         {"page_number":7,"severity":"MINOR","message":"Page number missing in footer"}]`, nil
	}}
	e := llm.NewEngine(fc, nil, llm.EngineConfig{}, nil)

	got := e.Judge(context.Background(), llm.JudgeInput{FullText: validFront, FrontPage: validFront})
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []int{3, 7}, []int{got[0].PageNumber, got[1].PageNumber})
}
