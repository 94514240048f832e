// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the AI services used in Distill.
//
// This package defines interfaces for knowledge extraction, streamed insight
// generation and transcript fluency formatting. It follows the dependency
// inversion principle, allowing the pipeline and services to depend on
// abstractions rather than concrete implementations.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return INTERFACE types to enforce
// abstraction; mock constructors return CONCRETE types so tests can inject
// behavior and assert on call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithExtractModel("gpt-4o-mini"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	candidates, err := provider.KnowledgeExtractor().ExtractKnowledge(ctx, req)
package ai
