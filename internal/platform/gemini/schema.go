package gemini

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/phrazzld/scry-mcq/internal/generation"
)

func str() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString}
}

func strList() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: str()}
}

func object(required []string, props map[string]*genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func optionSchema() *genai.Schema {
	return object([]string{"id", "text"}, map[string]*genai.Schema{
		"id":   str(),
		"text": str(),
	})
}

func questionSchema() *genai.Schema {
	return object([]string{"stem", "options", "correct_answer", "reasoning"}, map[string]*genai.Schema{
		"stem":           str(),
		"options":        {Type: genai.TypeArray, Items: optionSchema()},
		"correct_answer": str(),
		"reasoning": object(
			[]string{"bloom_level_analysis", "answer_justification", "distractor_justification"},
			map[string]*genai.Schema{
				"bloom_level_analysis":     str(),
				"tactic_analysis":          str(),
				"answer_justification":     str(),
				"distractor_justification": {Type: genai.TypeArray, Items: optionSchema()},
			}),
	})
}

// schemas mirrors the JSON tags of the generation *Response types.
var schemas = map[generation.Shape]*genai.Schema{
	generation.ShapeContexts: object([]string{"contexts"}, map[string]*genai.Schema{
		"contexts": {
			Type: genai.TypeArray,
			Items: object([]string{"context"}, map[string]*genai.Schema{
				"context": str(),
			}),
		},
	}),
	generation.ShapeReview: object([]string{"evaluation", "suggestions"}, map[string]*genai.Schema{
		"evaluation":  str(),
		"suggestions": strList(),
	}),
	generation.ShapeRefinedContext: object([]string{"context_new"}, map[string]*genai.Schema{
		"context_new": str(),
		"refinement":  str(),
	}),
	generation.ShapeQuestion: object([]string{"question"}, map[string]*genai.Schema{
		"question": questionSchema(),
	}),
	generation.ShapeRefinedQuestion: object([]string{"mcq_new"}, map[string]*genai.Schema{
		"mcq_new": questionSchema(),
	}),
}

// schemaFor returns the response schema for shape.
func schemaFor(shape generation.Shape) (*genai.Schema, error) {
	s, ok := schemas[shape]
	if !ok {
		return nil, fmt.Errorf("%w: %q", generation.ErrUnknownShape, shape)
	}
	return s, nil
}
