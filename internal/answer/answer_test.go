package answer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/tutorkb/internal/knowledge"
	"github.com/dgallion1/tutorkb/internal/llm"
	"github.com/dgallion1/tutorkb/internal/retrieve"
)

type fakeCompleter struct {
	reply string
	err   error
	reqs  []llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.reply, f.err
}

type staticSource struct {
	frags []knowledge.Fragment
	err   error
}

func (s staticSource) Fragments(ctx context.Context) ([]knowledge.Fragment, error) {
	return s.frags, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fruit() []knowledge.Fragment {
	return []knowledge.Fragment{
		{ID: 1, SourceName: "fruit.txt", RawText: "苹果很甜。", Digest: "苹果很甜"},
		{ID: 2, SourceName: "fruit.txt", RawText: "香蕉很甜。", Digest: "香蕉很甜"},
		{ID: 3, SourceName: "veg.txt", RawText: "白菜很便宜。", Digest: "白菜便宜"},
	}
}

func TestRenderContext_RankOrder(t *testing.T) {
	got := RenderContext([]knowledge.Fragment{
		{ID: 9, SourceName: "b.txt", RawText: "second raw", Digest: "second digest"},
		{ID: 2, SourceName: "a.txt", RawText: "first raw", Digest: "first digest"},
	})

	want := "[Fragment 1, source: b.txt]\nText: second raw\nDigest: second digest" +
		"\n\n" +
		"[Fragment 2, source: a.txt]\nText: first raw\nDigest: first digest"
	assert.Equal(t, want, got)
}

func TestCompose_SendsGroundedPrompt(t *testing.T) {
	fc := &fakeCompleter{reply: "  苹果很甜 [1]  "}
	c := NewComposer(fc, -1, 0)

	got, err := c.Compose(context.Background(), "苹果甜吗", fruit()[:1])
	require.NoError(t, err)
	assert.Equal(t, "苹果很甜 [1]", got)

	require.Len(t, fc.reqs, 1)
	req := fc.reqs[0]
	assert.Equal(t, llm.OpAnswer, req.Op)
	assert.InDelta(t, 0.1, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.AnswerPrompt, req.Messages[0].Content)
	assert.Contains(t, req.Messages[1].Content, "Question: 苹果甜吗")
	assert.Contains(t, req.Messages[1].Content, "[Fragment 1, source: fruit.txt]")
}

func TestCompose_ZeroTemperatureIsSent(t *testing.T) {
	fc := &fakeCompleter{reply: "answer"}
	c := NewComposer(fc, 0, time.Second)

	_, err := c.Compose(context.Background(), "q", fruit())
	require.NoError(t, err)
	require.Len(t, fc.reqs, 1)
	assert.Zero(t, fc.reqs[0].Temperature)
}

func TestCompose_FailureIsAnswerGenerationError(t *testing.T) {
	cause := errors.New("status 502")
	c := NewComposer(&fakeCompleter{err: cause}, 0.1, time.Second)

	_, err := c.Compose(context.Background(), "q", fruit())
	var aerr *knowledge.AnswerGenerationError
	require.ErrorAs(t, err, &aerr)
	assert.ErrorIs(t, err, cause)
}

func TestCompose_BlankReplyFails(t *testing.T) {
	c := NewComposer(&fakeCompleter{reply: " \n "}, 0.1, time.Second)

	_, err := c.Compose(context.Background(), "q", fruit())
	var aerr *knowledge.AnswerGenerationError
	assert.ErrorAs(t, err, &aerr)
}

func TestAsk_EmptyStoreMakesNoCall(t *testing.T) {
	fc := &fakeCompleter{reply: "should not be used"}
	a := NewAsker(staticSource{}, NewComposer(fc, 0, 0), retrieve.Options{}, quietLogger())

	res, err := a.Ask(context.Background(), "anything?")
	require.NoError(t, err)
	assert.Equal(t, EmptyKnowledgeBaseMessage, res.Answer)
	assert.Nil(t, res.UsedFragments)
	assert.Empty(t, fc.reqs)
}

func TestAsk_MissingQuestion(t *testing.T) {
	fc := &fakeCompleter{}
	a := NewAsker(staticSource{frags: fruit()}, NewComposer(fc, 0, 0), retrieve.Options{}, quietLogger())

	_, err := a.Ask(context.Background(), "  ")
	var verr *knowledge.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "question", verr.Field)
	assert.Empty(t, fc.reqs)
}

func TestAsk_UsesRankedFragments(t *testing.T) {
	fc := &fakeCompleter{reply: "Apples are sweet."}
	a := NewAsker(staticSource{frags: fruit()}, NewComposer(fc, 0, 0), retrieve.Options{}, quietLogger())

	res, err := a.Ask(context.Background(), "苹果 甜")
	require.NoError(t, err)
	assert.Equal(t, "Apples are sweet.", res.Answer)
	require.NotNil(t, res.UsedFragments)
	assert.Equal(t, 2, *res.UsedFragments)

	prompt := fc.reqs[0].Messages[1].Content
	apple := strings.Index(prompt, "苹果很甜。")
	banana := strings.Index(prompt, "香蕉很甜。")
	require.NotEqual(t, -1, apple)
	require.NotEqual(t, -1, banana)
	assert.Less(t, apple, banana)
	assert.NotContains(t, prompt, "白菜")
}

func TestAsk_NoOverlapFallsBack(t *testing.T) {
	fc := &fakeCompleter{reply: "The material does not determine an answer."}
	a := NewAsker(staticSource{frags: fruit()}, NewComposer(fc, 0, 0), retrieve.Options{FallbackCount: 2}, quietLogger())

	res, err := a.Ask(context.Background(), "quantum")
	require.NoError(t, err)
	require.NotNil(t, res.UsedFragments)
	assert.Equal(t, 2, *res.UsedFragments)
}

func TestAsk_StoreErrorPropagates(t *testing.T) {
	perr := &knowledge.PersistenceError{Op: "query fragments", Err: errors.New("locked")}
	a := NewAsker(staticSource{err: perr}, NewComposer(&fakeCompleter{}, 0, 0), retrieve.Options{}, quietLogger())

	_, err := a.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, perr)
}
