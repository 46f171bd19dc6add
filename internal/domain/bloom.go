package domain

import "strings"

// BloomLevel is a target level of Bloom's taxonomy for generated items.
type BloomLevel string

// Supported taxonomy levels, lowest to highest cognitive demand.
const (
	BloomRemember   BloomLevel = "remember"
	BloomUnderstand BloomLevel = "understand"
	BloomApply      BloomLevel = "apply"
	BloomAnalyze    BloomLevel = "analyze"
	BloomEvaluate   BloomLevel = "evaluate"
	BloomCreate     BloomLevel = "create"
)

var bloomGuidance = map[BloomLevel]string{
	BloomRemember: "Recall or recognize facts, terms, sequences, classifications and criteria. " +
		"Ask learners to identify, list, define or name. Avoid inference and complex application. " +
		"Prefer the trickiest terminology confusions over trivial facts.",
	BloomUnderstand: "Interpret meaning, explain, summarize, make simple inferences and convert " +
		"between representations. Ask why, compare and contrast, or select the correct description. " +
		"Prefer common misunderstandings over easy paraphrase.",
	BloomApply: "Use concepts, laws, formulas and procedures in new situations. Prefer realistic " +
		"scenarios and exercises that force the learner to act and produce an outcome. " +
		"Prefer boundary conditions and realistic pitfalls over plug-and-chug cases.",
	BloomAnalyze: "Break material into parts, distinguish relevant from irrelevant information and " +
		"determine how parts relate. Ask learners to differentiate, organize or attribute.",
	BloomEvaluate: "Make judgments against criteria and standards. Ask learners to check, critique, " +
		"or select the best strategy and justify it.",
	BloomCreate: "Put elements together into a coherent new whole. Ask learners to choose the design, " +
		"plan or hypothesis that best satisfies stated constraints.",
}

// ParseBloomLevel normalizes s (case and surrounding space insensitive,
// accepting the gerund forms such as "Understanding") into a BloomLevel.
func ParseBloomLevel(s string) (BloomLevel, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "remembering":
		v = string(BloomRemember)
	case "understanding":
		v = string(BloomUnderstand)
	case "applying":
		v = string(BloomApply)
	case "analyzing", "analysing", "analyse":
		v = string(BloomAnalyze)
	case "evaluating":
		v = string(BloomEvaluate)
	case "creating":
		v = string(BloomCreate)
	}
	level := BloomLevel(v)
	if !level.IsValid() {
		return "", ErrInvalidBloomLevel
	}
	return level, nil
}

// IsValid reports whether b is one of the supported levels.
func (b BloomLevel) IsValid() bool {
	_, ok := bloomGuidance[b]
	return ok
}

// Guidance returns the prompt guidance text for the level.
func (b BloomLevel) Guidance() string {
	return bloomGuidance[b]
}
