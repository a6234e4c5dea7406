package driver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/estategraph/estategraph/pkg/types"
)

// Neo4jWriter implements GraphWriter against a Neo4j database.
type Neo4jWriter struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jWriter creates a Neo4j-backed graph writer.
func NewNeo4jWriter(uri, username, password, database string) (*Neo4jWriter, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	return &Neo4jWriter{client: client, database: database}, nil
}

// CreateIndices ensures one uniqueness constraint per node label on its
// natural key field.
func (w *Neo4jWriter) CreateIndices(ctx context.Context) error {
	session := w.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: w.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, label := range types.AllNodeLabels() {
			// Labels and key fields come from the fixed constant set, not
			// user input, so string interpolation is safe here.
			query := fmt.Sprintf(
				"CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
				label, label.KeyField(),
			)
			if _, err := tx.Run(ctx, query, nil); err != nil {
				return nil, fmt.Errorf("failed to create constraint for %s: %w", label, err)
			}
		}
		return nil, nil
	})
	return err
}

// UpsertNodes merges a batch of one label's nodes in a single UNWIND
// query, by natural key.
func (w *Neo4jWriter) UpsertNodes(ctx context.Context, label types.NodeLabel, nodes []*types.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	session := w.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: w.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		nodeData := make([]map[string]any, 0, len(nodes))
		for _, node := range nodes {
			if err := node.Validate(); err != nil {
				return nil, fmt.Errorf("invalid node in %s batch: %w", label, err)
			}
			nodeData = append(nodeData, map[string]any{
				"key":        node.Key,
				"properties": nodeProperties(node),
			})
		}

		query := fmt.Sprintf(`
			UNWIND $nodes AS node_data
			MERGE (n:%s {%s: node_data.key})
			SET n += node_data.properties
			SET n.updated_at = $updated_at
		`, label, label.KeyField())

		_, err := tx.Run(ctx, query, map[string]any{
			"nodes":      nodeData,
			"updated_at": time.Now().Format(time.RFC3339),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to bulk upsert %s nodes: %w", label, err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrWriteFailure, err)
	}
	return nil
}

// UpsertEdges merges relationships of one type. Edges are grouped by
// endpoint label pair so each UNWIND query carries static labels.
func (w *Neo4jWriter) UpsertEdges(ctx context.Context, edgeType types.EdgeType, edges []*types.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	grouped := make(map[string][]*types.Edge)
	for _, edge := range edges {
		key := string(edge.FromLabel) + "|" + string(edge.ToLabel)
		grouped[key] = append(grouped[key], edge)
	}

	session := w.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: w.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, group := range grouped {
			fromLabel := group[0].FromLabel
			toLabel := group[0].ToLabel

			edgeData := make([]map[string]any, 0, len(group))
			for _, edge := range group {
				data := map[string]any{
					"from_key": edge.FromKey,
					"to_key":   edge.ToKey,
				}
				if edge.Score != nil {
					data["score"] = *edge.Score
				}
				edgeData = append(edgeData, data)
			}

			query := fmt.Sprintf(`
				UNWIND $edges AS edge_data
				MATCH (s:%s {%s: edge_data.from_key})
				MATCH (t:%s {%s: edge_data.to_key})
				MERGE (s)-[r:%s]->(t)
				SET r.updated_at = $updated_at
				FOREACH (_ IN CASE WHEN edge_data.score IS NULL THEN [] ELSE [1] END |
					SET r.score = edge_data.score)
			`, fromLabel, fromLabel.KeyField(), toLabel, toLabel.KeyField(), edgeType)

			_, err := tx.Run(ctx, query, map[string]any{
				"edges":      edgeData,
				"updated_at": time.Now().Format(time.RFC3339),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to bulk upsert %s edges: %w", edgeType, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrWriteFailure, err)
	}
	return nil
}

// RemoveNodeProperties strips the named attributes from every node of a
// label.
func (w *Neo4jWriter) RemoveNodeProperties(ctx context.Context, label types.NodeLabel, fields []string) error {
	if len(fields) == 0 {
		return nil
	}

	session := w.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: w.database})
	defer session.Close(ctx)

	removals := make([]string, len(fields))
	for i, field := range fields {
		removals[i] = "n." + field
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := fmt.Sprintf("MATCH (n:%s) REMOVE %s", label, strings.Join(removals, ", "))
		_, err := tx.Run(ctx, query, nil)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("%w: failed to remove properties from %s: %v", types.ErrWriteFailure, label, err)
	}
	return nil
}

// Close shuts down the underlying driver.
func (w *Neo4jWriter) Close(ctx context.Context) error {
	return w.client.Close(ctx)
}

// nodeProperties flattens a node for SET n += $properties, storing the
// natural key under the label's key field as well.
func nodeProperties(node *types.Node) map[string]any {
	props := make(map[string]any, len(node.Props)+1)
	for k, v := range node.Props {
		props[k] = v
	}
	props[node.Label.KeyField()] = node.Key
	return props
}
