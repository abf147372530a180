package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
	"github.com/joseph-ayodele/thesis-checker/internal/rules"
)

// EngineConfig selects the prompt strategy.
type EngineConfig struct {
	Model     string
	Mode      string // common.ModeSingle | common.ModeSectioned
	MaxTokens int    // single-pass output budget
}

// Engine delegates interpretive judgment to a Completer and normalises the answer.
type Engine struct {
	completer Completer
	catalog   *rules.Catalog
	cfg       EngineConfig
	logger    *slog.Logger
}

// NewEngine builds an Engine. A nil catalog means the embedded one.
func NewEngine(completer Completer, catalog *rules.Catalog, cfg EngineConfig, logger *slog.Logger) *Engine {
	if catalog == nil {
		catalog = rules.Default()
	}
	if cfg.Mode == "" {
		cfg.Mode = common.ModeSingle
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{completer: completer, catalog: catalog, cfg: cfg, logger: logger}
}

// Judge returns the ordered findings for one document. It never fails: a failed
// completion call becomes a CRITICAL system finding so the job still completes.
func (e *Engine) Judge(ctx context.Context, in JudgeInput) []entity.Finding {
	rid := uuid.New().String()
	ctx = common.WithRequestID(ctx, rid)
	start := time.Now()
	e.logger.Info("llm.judge.start",
		"req_id", rid,
		"job_id", common.JobIDFromContext(ctx),
		"mode", e.cfg.Mode,
		"model", e.cfg.Model,
		"text_len", len([]rune(in.FullText)),
	)

	local := e.catalog.CheckIdentity(in.FrontPage)

	var judged []entity.Finding
	if e.cfg.Mode == common.ModeSectioned {
		judged = e.sectioned(ctx, rid, in)
	} else {
		judged = e.single(ctx, rid, in)
	}

	out := Merge(local, judged)
	e.logger.Info("llm.judge.done",
		"req_id", rid,
		"local", len(local),
		"judged", len(judged),
		"findings", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

func (e *Engine) single(ctx context.Context, rid string, in JudgeInput) []entity.Finding {
	prompt := BuildSinglePrompt(e.catalog, Sample(in.FullText), in.Properties)
	return e.call(ctx, rid, CompletionRequest{
		Model:     e.cfg.Model,
		Prompt:    prompt,
		MaxTokens: e.cfg.MaxTokens,
		Purpose:   "single",
	}, 0, "AI validation failed")
}

func (e *Engine) sectioned(ctx context.Context, rid string, in JudgeInput) []entity.Finding {
	var reqs []CompletionRequest
	for _, w := range Windows(in.FullText) {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		reqs = append(reqs, CompletionRequest{
			Model:     e.cfg.Model,
			Prompt:    BuildSectionPrompt(e.catalog, w, in.Properties),
			MaxTokens: SectionMaxTokens,
			Purpose:   strings.ToLower(strings.Fields(w.Label)[0]),
		})
	}
	reqs = append(reqs, CompletionRequest{
		Model:     e.cfg.Model,
		Prompt:    BuildStructurePrompt(e.catalog, in.FullText),
		MaxTokens: StructureMaxTokens,
		Purpose:   "structure",
	})

	results := make([][]entity.Finding, len(reqs))
	var g errgroup.Group
	for i, req := range reqs {
		limit, prefix := SectionMaxFindings, "Section validation failed"
		if req.Purpose == "structure" {
			limit, prefix = StructureMaxFindings, "Structure validation failed"
		}
		g.Go(func() error {
			results[i] = e.call(ctx, rid, req, limit, prefix)
			return nil
		})
	}
	_ = g.Wait()

	var out []entity.Finding
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// call runs one completion and parses it; limit > 0 caps the findings kept.
func (e *Engine) call(ctx context.Context, rid string, req CompletionRequest, limit int, failPrefix string) []entity.Finding {
	start := time.Now()
	raw, err := e.completer.Complete(ctx, req)
	if err != nil {
		e.logger.Error("llm.judge.call_error",
			"req_id", rid, "purpose", req.Purpose, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return []entity.Finding{SystemFinding(failPrefix, err)}
	}

	res := Parse(raw)
	if res.Err != nil {
		e.logger.Warn("llm.judge.structured_parse_failed",
			"req_id", rid, "purpose", req.Purpose, "error", res.Err, "raw_len", len(raw))
	}
	if len(res.Dropped) > 0 {
		e.logger.Warn("llm.judge.normalize_sanitize", "req_id", rid, "purpose", req.Purpose, "dropped", res.Dropped)
	}
	findings := res.Findings
	if limit > 0 && len(findings) > limit {
		findings = findings[:limit]
	}
	e.logger.Info("llm.judge.call_ok",
		"req_id", rid, "purpose", req.Purpose, "tier", res.Tier, "findings", len(findings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return findings
}

// SystemFinding reports a failed judgment call as a visible CRITICAL finding.
func SystemFinding(prefix string, err error) entity.Finding {
	return entity.NewFinding(0, string(constants.SeverityCritical),
		fmt.Sprintf("%s: %v", prefix, err), string(constants.CategorySystem))
}

// Merge concatenates finding lists, drops exact repeats (same page, severity, category
// and case-insensitive message) and orders the result CRITICAL, MAJOR, MINOR, stable
// within a level. The same violation on different pages is kept once per page.
func Merge(lists ...[]entity.Finding) []entity.Finding {
	seen := make(map[string]struct{})
	out := make([]entity.Finding, 0)
	for _, list := range lists {
		for _, f := range list {
			key := fmt.Sprintf("%d|%s|%s|%s", f.PageNumber, f.Severity,
				strings.ToLower(f.Category), strings.ToLower(strings.TrimSpace(f.Message)))
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() < out[j].Severity.Rank()
	})
	return out
}
