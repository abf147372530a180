package llm

import "context"

// CompletionRequest is what the external text-completion service receives:
// a model name, a single free-form prompt and an output token budget.
type CompletionRequest struct {
	Model     string
	Prompt    string
	MaxTokens int
	Purpose   string // log label only: single, front, middle, end, structure
}

// Completer is the only contract the judgment engine has with a model provider.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// JudgeInput is the extracted document handed to the engine.
type JudgeInput struct {
	FullText   string // pages joined with "--- PAGE n ---" delimiters
	FrontPage  string // text of the first page, for the identity check
	Properties string // one-line structural summary, may be empty
}
