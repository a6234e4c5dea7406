// Package estategraph converts flat real-estate tables into a labeled
// property graph.
//
// Three source tables feed a build: property listings, neighborhoods,
// and encyclopedia articles about places. The build materializes typed
// nodes for each entity and for the values embedded in their rows
// (features, property types, price ranges, cities, counties, states,
// zip codes), writes them with merge semantics so re-runs never
// duplicate, then infers relationships: the geographic containment
// chain, classification links, embedding similarity between listings,
// and article-to-neighborhood coverage. Denormalized source fields are
// removed from the graph once the relationships they fed are durable.
//
// The entry point is Client:
//
//	writer, err := driver.NewNeo4jWriter(uri, user, pass, database)
//	if err != nil { ... }
//	client, err := estategraph.NewClient(writer, nil, nil)
//	if err != nil { ... }
//	report, err := client.BuildGraph(ctx, estategraph.Sources{
//		Properties:    properties,
//		Neighborhoods: neighborhoods,
//		Articles:      articles,
//	})
//
// The returned report carries per-type write and skip counts; single
// malformed rows never abort a run.
package estategraph
