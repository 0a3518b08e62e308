package extract

import (
	"log/slog"

	"gqlmap/internal/engine/graphql"
	"gqlmap/internal/shared/observability"
)

// extractGraphQLFile ingests every definition in a standalone .graphql
// file. A file that fails to parse contributes nothing but a counter
// increment; the run continues.
func (e *Extractor) extractGraphQLFile(path, text string) {
	ops, err := graphql.ParseDocument(text, path)
	if err != nil {
		e.metrics.GraphQLParseFailures.Add(1)
		observability.GraphQLParseFailuresTotal.Inc()
		slog.Debug("dropping malformed graphql file", "path", path, "error", err)
		return
	}

	for _, op := range ops {
		e.registry.Ingest(op)
	}
}
