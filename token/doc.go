// Package token provides token cost estimation and budget-aware content
// truncation for LLM calls.
//
// The Estimator interface has two implementations: a conservative heuristic
// that needs no tokenizer data (the pipeline default), and a tiktoken-backed
// estimator that is exact for OpenAI-family models. The Budgeter truncates
// segmented content to a context window while keeping whole segments wherever
// possible, so positional anchoring of downstream knowledge points stays valid.
package token
