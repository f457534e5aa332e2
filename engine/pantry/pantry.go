// Package pantry stores ingredient pairing knowledge in Neo4j. Pairings feed
// the trivia-fact prompt; the graph is strictly optional and every lookup
// failure degrades to "no pairings" rather than failing the request.
package pantry

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Pairing says that two ingredients work well together, with an optional
// note on why ("acidity cuts the fat").
type Pairing struct {
	Ingredient string
	PairsWith  string
	Note       string
}

// Graph provides pairing operations over a Neo4j driver.
type Graph struct {
	driver neo4j.DriverWithContext
}

// New creates a Graph over an established driver.
func New(driver neo4j.DriverWithContext) *Graph {
	return &Graph{driver: driver}
}

// SavePairing creates or updates a single pairing edge. Ingredient names are
// normalized to lowercase so lookups are case-insensitive.
func (g *Graph) SavePairing(ctx context.Context, p Pairing) error {
	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := `MERGE (a:Ingredient {name: $a})
		 MERGE (b:Ingredient {name: $b})
		 MERGE (a)-[r:PAIRS_WITH]-(b)
		 SET r.note = $note`
	_, err := sess.Run(ctx, cypher, map[string]any{
		"a":    normalize(p.Ingredient),
		"b":    normalize(p.PairsWith),
		"note": p.Note,
	})
	if err != nil {
		return fmt.Errorf("pantry: save pairing %s/%s: %w", p.Ingredient, p.PairsWith, err)
	}
	return nil
}

// SaveBatch saves multiple pairings in a single transaction.
func (g *Graph) SaveBatch(ctx context.Context, pairings []Pairing) error {
	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		cypher := `MERGE (a:Ingredient {name: $a})
			 MERGE (b:Ingredient {name: $b})
			 MERGE (a)-[r:PAIRS_WITH]-(b)
			 SET r.note = $note`
		for _, p := range pairings {
			if _, err := tx.Run(ctx, cypher, map[string]any{
				"a":    normalize(p.Ingredient),
				"b":    normalize(p.PairsWith),
				"note": p.Note,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("pantry: save batch of %d: %w", len(pairings), err)
	}
	return nil
}

// Pairings returns pairing edges touching any of the given ingredients,
// capped at limit. Unknown ingredients simply contribute no rows.
func (g *Graph) Pairings(ctx context.Context, ingredients []string, limit int) ([]Pairing, error) {
	if len(ingredients) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}
	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	names := make([]string, len(ingredients))
	for i, ing := range ingredients {
		names[i] = normalize(ing)
	}

	cypher := `MATCH (a:Ingredient)-[r:PAIRS_WITH]-(b:Ingredient)
		 WHERE a.name IN $names
		 RETURN a.name AS ingredient, b.name AS pairs_with, coalesce(r.note, '') AS note
		 LIMIT $limit`
	result, err := sess.Run(ctx, cypher, map[string]any{
		"names": names,
		"limit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("pantry: pairings lookup: %w", err)
	}

	var out []Pairing
	for result.Next(ctx) {
		rec := result.Record()
		out = append(out, Pairing{
			Ingredient: recordString(rec, "ingredient"),
			PairsWith:  recordString(rec, "pairs_with"),
			Note:       recordString(rec, "note"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("pantry: pairings iterate: %w", err)
	}
	return out, nil
}

func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
