package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/phrazzld/scry-mcq/internal/generation"
)

func TestDecodeResponse(t *testing.T) {
	t.Run("joins text parts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: `{"evaluation": "fine", `},
					{Text: `"suggestions": []}`},
				}},
			}},
		}
		var out generation.ReviewResponse
		require.NoError(t, decodeResponse(resp, &out))
		assert.Equal(t, "fine", out.Evaluation)
		assert.Empty(t, out.Suggestions)
	})

	t.Run("strips a code fence", func(t *testing.T) {
		var out generation.ReviewResponse
		resp := textResponse("```json\n{\"evaluation\": \"fenced\", \"suggestions\": []}\n```")
		require.NoError(t, decodeResponse(resp, &out))
		assert.Equal(t, "fenced", out.Evaluation)
	})

	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		wantErr error
	}{
		{
			name:    "nil response",
			resp:    nil,
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:    "no candidates",
			resp:    &genai.GenerateContentResponse{},
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name: "nil content",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{}},
			},
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:    "empty text",
			resp:    textResponse("   "),
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:    "malformed json",
			resp:    textResponse(`{"evaluation": `),
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name: "safety finish",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			},
			wantErr: generation.ErrContentBlocked,
		},
		{
			name: "blocked prompt",
			resp: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: "SAFETY"},
			},
			wantErr: generation.ErrContentBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out generation.ReviewResponse
			err := decodeResponse(tt.resp, &out)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSchemaFor(t *testing.T) {
	for _, shape := range generation.Shapes() {
		t.Run(string(shape), func(t *testing.T) {
			s, err := schemaFor(shape)
			require.NoError(t, err)
			assert.Equal(t, genai.TypeObject, s.Type)
			assert.NotEmpty(t, s.Required)
			for _, name := range s.Required {
				assert.Contains(t, s.Properties, name)
			}
		})
	}

	_, err := schemaFor("limerick")
	assert.ErrorIs(t, err, generation.ErrUnknownShape)
}
