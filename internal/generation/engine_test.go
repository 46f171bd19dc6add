package generation_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/scry-mcq/internal/domain"
	"github.com/phrazzld/scry-mcq/internal/generation"
	"github.com/phrazzld/scry-mcq/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const questionJSON = `{
	"stem": "Which organelle hosts photosynthesis?",
	"options": [
		{"id": "A", "text": "Chloroplast"},
		{"id": "B", "text": "Mitochondrion"},
		{"id": "C", "text": "Ribosome"}
	],
	"correct_answer": "A",
	"reasoning": {
		"bloom_level_analysis": "recall",
		"tactic_analysis": "direct question",
		"answer_justification": "stated in the context",
		"distractor_justification": [
			{"id": "B", "text": "respiration, not photosynthesis"},
			{"id": "C", "text": "protein synthesis"}
		]
	}
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		SourceText:     "Chloroplasts capture light to make sugar.",
		Subject:        "Biology",
		Topic:          "Cells",
		KeyPoints:      "organelles",
		BloomLevel:     domain.BloomRemember,
		ItemCount:      2,
		Model:          "gemini-test",
		MaxIterations:  2,
		MaxConcurrency: 1,
	}
}

func newEngine(t *testing.T, client *mocks.MockClient) *generation.Engine {
	t.Helper()
	e, err := generation.NewEngine(client, testLogger())
	require.NoError(t, err)
	return e
}

func TestNewEngine(t *testing.T) {
	_, err := generation.NewEngine(nil, testLogger())
	assert.ErrorIs(t, err, generation.ErrNilClient)

	_, err = generation.NewEngine(&mocks.MockClient{}, nil)
	assert.ErrorIs(t, err, generation.ErrNilLogger)

	e, err := generation.NewEngine(&mocks.MockClient{}, testLogger())
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestEngine_GenerateContexts(t *testing.T) {
	t.Run("returns non-blank contexts in order", func(t *testing.T) {
		client := &mocks.MockClient{Responses: map[generation.Shape]string{
			generation.ShapeContexts: `{"contexts": [{"context": " first "}, {"context": ""}, {"context": "second"}]}`,
		}}
		e := newEngine(t, client)

		contexts, err := e.GenerateContexts(context.Background(), testRequest())
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, contexts)

		reqs := client.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, generation.ShapeContexts, reqs[0].Shape)
		assert.Equal(t, "gemini-test", reqs[0].Model)
		assert.Contains(t, reqs[0].Instruction, "Chloroplasts capture light to make sugar.")
		assert.Contains(t, reqs[0].Instruction, "remember")
		assert.Contains(t, reqs[0].Instruction, domain.BloomRemember.Guidance())
	})

	t.Run("empty response is invalid", func(t *testing.T) {
		client := &mocks.MockClient{Responses: map[generation.Shape]string{
			generation.ShapeContexts: `{"contexts": []}`,
		}}
		_, err := newEngine(t, client).GenerateContexts(context.Background(), testRequest())
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("client error passes through", func(t *testing.T) {
		boom := errors.New("boom")
		client := &mocks.MockClient{Err: boom}
		_, err := newEngine(t, client).GenerateContexts(context.Background(), testRequest())
		assert.ErrorIs(t, err, boom)
	})
}

func TestEngine_ReviewContext(t *testing.T) {
	client := &mocks.MockClient{Responses: map[generation.Shape]string{
		generation.ShapeReview: `{"evaluation": "mostly fine", "suggestions": ["  ", "name the pigment"]}`,
	}}
	e := newEngine(t, client)

	review, err := e.ReviewContext(context.Background(), testRequest(), "Chloroplasts make sugar.")
	require.NoError(t, err)

	assert.Equal(t, "mostly fine", review.Evaluation)
	assert.Equal(t, []string{"name the pigment"}, review.Suggestions)
	assert.False(t, review.Approved())
	assert.Contains(t, client.Requests()[0].Instruction, "Chloroplasts make sugar.")
}

func TestEngine_ReviewApprovesOnBlankSuggestions(t *testing.T) {
	client := &mocks.MockClient{Responses: map[generation.Shape]string{
		generation.ShapeReview: `{"evaluation": "good", "suggestions": [""]}`,
	}}
	review, err := newEngine(t, client).ReviewContext(context.Background(), testRequest(), "ctx")
	require.NoError(t, err)
	assert.True(t, review.Approved())
}

func TestEngine_RefineContext(t *testing.T) {
	t.Run("sends suggestions as feedback", func(t *testing.T) {
		client := &mocks.MockClient{Responses: map[generation.Shape]string{
			generation.ShapeRefinedContext: `{"context_new": "Chloroplasts use chlorophyll.", "refinement": "named pigment"}`,
		}}
		e := newEngine(t, client)

		item := domain.NewContextItem("Chloroplasts make sugar.").WithReview(domain.Review{
			Evaluation:  "vague",
			Suggestions: []string{"name the pigment", "mention light"},
		})
		refined, err := e.RefineContext(context.Background(), testRequest(), item)
		require.NoError(t, err)
		assert.Equal(t, "Chloroplasts use chlorophyll.", refined)

		instruction := client.Requests()[0].Instruction
		assert.Contains(t, instruction, "- name the pigment\n- mention light")
		assert.Contains(t, instruction, "Chloroplasts make sugar.")
	})

	t.Run("falls back to evaluation without suggestions", func(t *testing.T) {
		client := &mocks.MockClient{Responses: map[generation.Shape]string{
			generation.ShapeRefinedContext: `{"context_new": "new", "refinement": ""}`,
		}}
		e := newEngine(t, client)

		item := domain.NewContextItem("old").WithReviewFailure("review failed: timeout")
		_, err := e.RefineContext(context.Background(), testRequest(), item)
		require.NoError(t, err)
		assert.Contains(t, client.Requests()[0].Instruction, "review failed: timeout")
	})

	t.Run("blank refinement is invalid", func(t *testing.T) {
		client := &mocks.MockClient{Responses: map[generation.Shape]string{
			generation.ShapeRefinedContext: `{"context_new": "  "}`,
		}}
		_, err := newEngine(t, client).RefineContext(context.Background(), testRequest(), domain.NewContextItem("x"))
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})
}

func TestEngine_GenerateQuestion(t *testing.T) {
	t.Run("valid question", func(t *testing.T) {
		client := &mocks.MockClient{Responses: map[generation.Shape]string{
			generation.ShapeQuestion: `{"question": ` + questionJSON + `}`,
		}}
		q, err := newEngine(t, client).GenerateQuestion(context.Background(), testRequest(), "Chloroplasts capture light.")
		require.NoError(t, err)

		assert.Equal(t, "Which organelle hosts photosynthesis?", q.Stem)
		assert.Equal(t, "A", q.CorrectAnswerID)
		require.Len(t, q.Options, 3)
		assert.True(t, q.Options[0].IsCorrect)
		assert.False(t, q.Options[1].IsCorrect)
		assert.Len(t, q.Rationale.DistractorJustifications, 2)
		assert.Equal(t, generation.ShapeQuestion, client.Requests()[0].Shape)
	})

	t.Run("answer not among options is invalid", func(t *testing.T) {
		client := &mocks.MockClient{Responses: map[generation.Shape]string{
			generation.ShapeQuestion: `{"question": {"stem": "?", "options": [{"id": "A", "text": "a"}, {"id": "B", "text": "b"}], "correct_answer": "Z"}}`,
		}}
		_, err := newEngine(t, client).GenerateQuestion(context.Background(), testRequest(), "ctx")
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})
}

func TestEngine_ReviewQuestion(t *testing.T) {
	client := &mocks.MockClient{Responses: map[generation.Shape]string{
		generation.ShapeReview: `{"evaluation": "distractor C is weak", "suggestions": ["replace C"]}`,
	}}
	q := mocks.SampleMCQ("What do chloroplasts make?")

	review, err := newEngine(t, client).ReviewQuestion(context.Background(), testRequest(), "the context", q)
	require.NoError(t, err)
	assert.Equal(t, []string{"replace C"}, review.Suggestions)

	instruction := client.Requests()[0].Instruction
	assert.Contains(t, instruction, "What do chloroplasts make?")
	assert.Contains(t, instruction, `"correct_answer": "A"`)
	assert.Contains(t, instruction, "the context")
}

func TestEngine_RefineQuestion(t *testing.T) {
	client := &mocks.MockClient{Responses: map[generation.Shape]string{
		generation.ShapeRefinedQuestion: `{"mcq_new": ` + questionJSON + `}`,
	}}
	item := domain.NewQuestionItem(0, mocks.SampleMCQ("old stem")).WithReview(domain.Review{
		Evaluation:  "weak",
		Suggestions: []string{"sharpen the stem"},
	})

	q, err := newEngine(t, client).RefineQuestion(context.Background(), testRequest(), "the context", item)
	require.NoError(t, err)
	assert.Equal(t, "Which organelle hosts photosynthesis?", q.Stem)

	instruction := client.Requests()[0].Instruction
	assert.Contains(t, instruction, "old stem")
	assert.Contains(t, instruction, "- sharpen the stem")
	assert.Equal(t, generation.ShapeRefinedQuestion, client.Requests()[0].Shape)
}
