package llm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/entity"
)

// key synonyms the model is known to produce, mapped onto Finding fields
var recordSynonyms = map[string][]string{
	"page_number":     {"page_number", "page_num", "page"},
	"severity":        {"severity", "level"},
	"message":         {"message", "description", "error"},
	"category":        {"category", "error_type", "type"},
	"fix_instruction": {"fix_instruction", "fix", "how_to_fix"},
}

// sanitizeRecord coerces one decoded record into a Finding. ok is false when the
// record has no usable message; notes describe any lossy coercion.
func sanitizeRecord(m map[string]any) (f entity.Finding, ok bool, notes []string) {
	pick := func(field string) (any, string) {
		for _, k := range recordSynonyms[field] {
			if v, exists := m[k]; exists && v != nil {
				return v, k
			}
		}
		return nil, ""
	}
	str := func(field string) string {
		v, key := pick(field)
		switch t := v.(type) {
		case nil:
			return ""
		case string:
			return strings.TrimSpace(t)
		default:
			notes = append(notes, key+"(non-string)")
			return strings.TrimSpace(fmt.Sprint(t))
		}
	}

	message := str("message")
	if message == "" {
		return entity.Finding{}, false, append(notes, "message(empty)")
	}

	page, key := pick("page_number")
	pageNum := 0
	switch t := page.(type) {
	case nil:
	case float64:
		pageNum = int(math.Max(0, math.Floor(t)))
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil && n > 0 {
			pageNum = n
		} else if strings.TrimSpace(t) != "" {
			notes = append(notes, key+"(unparseable)")
		}
	default:
		notes = append(notes, key+"(type)")
	}

	rawSeverity := str("severity")
	if sev := constants.Severity(strings.ToUpper(rawSeverity)); !sev.Valid() && rawSeverity != "" {
		notes = append(notes, "severity("+rawSeverity+")")
	}

	cat, _ := constants.Canonicalize(str("category"))

	f = entity.NewFinding(pageNum, rawSeverity, message, string(cat))
	f.FixInstruction = str("fix_instruction")
	return f, true, notes
}
