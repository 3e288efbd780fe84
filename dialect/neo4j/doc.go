// Package neo4j runs statements against a Neo4j server over Bolt with the
// official Go driver and converts driver nodes, relationships and paths to
// graph records.
//
//	drv, err := neo4j.Open(ctx, neo4j.FromConfig(cfg.Neo4j))
//	if err != nil {
//		return err
//	}
//	defer drv.Close(ctx)
//	s := session.New(reg, drv)
package neo4j
