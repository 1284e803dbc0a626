package graph

import (
	"context"
	"fmt"

	"province-forge/internal/model"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Exporter writes a resolved state into Neo4j as Province, Country and
// Culture nodes joined by OWNED_BY, HAS_CULTURE and IN_GROUP edges.
type Exporter struct {
	driver neo4j.DriverWithContext
}

// NewExporter creates a new exporter.
func NewExporter(driver neo4j.DriverWithContext) *Exporter {
	return &Exporter{driver: driver}
}

// EnsureSchema creates uniqueness constraints for the node keys.
func (e *Exporter) EnsureSchema(ctx context.Context) error {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (p:Province) REQUIRE p.index IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (c:Country) REQUIRE c.code IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (c:Culture) REQUIRE c.name IS UNIQUE",
	}
	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}

	log.Info().Msg("Graph schema ensured")
	return nil
}

// Export merges every entity of state. Ownership edges from earlier exports
// are replaced.
func (e *Exporter) Export(ctx context.Context, state *model.State) error {
	rows := BuildRows(state)

	session := e.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			UNWIND $cultures AS row
			MERGE (c:Culture {name: row.name})
			SET c.group = row.is_group
		`, map[string]any{"cultures": rows.Cultures}); err != nil {
			return nil, fmt.Errorf("merge cultures: %w", err)
		}

		if _, err := tx.Run(ctx, `
			UNWIND $cultures AS row
			WITH row WHERE row.parent <> ''
			MATCH (c:Culture {name: row.name})
			MATCH (g:Culture {name: row.parent})
			MERGE (c)-[:IN_GROUP]->(g)
		`, map[string]any{"cultures": rows.Cultures}); err != nil {
			return nil, fmt.Errorf("link culture groups: %w", err)
		}

		if _, err := tx.Run(ctx, `
			UNWIND $countries AS row
			MERGE (c:Country {code: row.code})
			WITH c, row
			OPTIONAL MATCH (c)-[old:HAS_CULTURE]->()
			DELETE old
			WITH DISTINCT c, row WHERE row.culture <> ''
			MATCH (k:Culture {name: row.culture})
			MERGE (c)-[:HAS_CULTURE]->(k)
		`, map[string]any{"countries": rows.Countries}); err != nil {
			return nil, fmt.Errorf("merge countries: %w", err)
		}

		if _, err := tx.Run(ctx, `
			UNWIND $provinces AS row
			MERGE (p:Province {index: row.index})
			SET p.name = row.name, p.color = row.color, p.visible = row.visible
			WITH p, row
			OPTIONAL MATCH (p)-[old:OWNED_BY]->()
			DELETE old
			WITH DISTINCT p, row WHERE row.owner <> ''
			MATCH (c:Country {code: row.owner})
			MERGE (p)-[:OWNED_BY]->(c)
		`, map[string]any{"provinces": rows.Provinces}); err != nil {
			return nil, fmt.Errorf("merge provinces: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Int("provinces", len(rows.Provinces)).
		Int("countries", len(rows.Countries)).
		Int("cultures", len(rows.Cultures)).
		Msg("Exported state to graph")
	return nil
}
