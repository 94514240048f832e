// Package mock provides mock implementations of the ai package interfaces
// for testing.
//
// Each mock records call counts and the most recent request, and exposes a
// Func field to inject per-test behavior. Defaults are deterministic so most
// tests need no configuration:
//
//	provider := mock.NewProvider()
//	provider.GetMockExtractor().ExtractKnowledgeFunc = func(ctx context.Context, req *ai.KnowledgeRequest) ([]ai.KnowledgeCandidate, error) {
//	    return nil, ai.ErrEmptyKnowledge
//	}
package mock
