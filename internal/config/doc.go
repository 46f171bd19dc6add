// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional YAML file. Environment
// variables use the SCRY_ prefix with dots replaced by underscores, e.g.
// SCRY_LLM_GEMINI_API_KEY for llm.gemini_api_key.
package config
