package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// OwnedBy returns the indices of the provinces the graph links to a country,
// in ascending order.
func (e *Exporter) OwnedBy(ctx context.Context, code string) ([]int, error) {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (p:Province)-[:OWNED_BY]->(:Country {code: $code})
		RETURN p.index AS index
		ORDER BY index
	`, map[string]any{"code": code})
	if err != nil {
		return nil, fmt.Errorf("query owned provinces: %w", err)
	}

	var indices []int
	for result.Next(ctx) {
		record := result.Record()
		if v, ok := record.Get("index"); ok {
			if n, ok := v.(int64); ok {
				indices = append(indices, int(n))
			}
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read owned provinces: %w", err)
	}
	return indices, nil
}
