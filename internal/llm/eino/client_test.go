package eino_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/llm"
	"github.com/joseph-ayodele/thesis-checker/internal/llm/eino"
)

type fakeChat struct {
	reply     string
	err       error
	prompt    string
	maxTokens int
}

func (f *fakeChat) Generate(_ context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if len(in) > 0 {
		f.prompt = in[0].Content
	}
	if o := model.GetCommonOptions(nil, opts...); o.MaxTokens != nil {
		f.maxTokens = *o.MaxTokens
	}
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChat) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not used")
}

func TestComplete(t *testing.T) {
	chat := &fakeChat{reply: "  [] \n"}
	c := eino.NewWithModel(chat, "m", nil)

	out, err := c.Complete(context.Background(), llm.CompletionRequest{Model: "m", Prompt: "check", MaxTokens: 1500})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
	assert.Equal(t, "check", chat.prompt)
	assert.Equal(t, 1500, chat.maxTokens)
}

func TestComplete_ErrorIsUpstream(t *testing.T) {
	c := eino.NewWithModel(&fakeChat{err: errors.New("401 unauthorized")}, "m", nil)
	_, err := c.Complete(context.Background(), llm.CompletionRequest{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstreamJudgment)
	assert.Contains(t, err.Error(), "401 unauthorized")
}

func TestNewClient_WithoutKeyFailsPerCall(t *testing.T) {
	c, err := eino.NewClient(context.Background(), eino.Config{Model: "m"}, nil)
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), llm.CompletionRequest{Prompt: "p"})
	assert.ErrorIs(t, err, common.ErrUpstreamJudgment)
}
