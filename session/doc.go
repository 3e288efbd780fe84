// Package session is the caller-facing surface of the mapper. A Session
// is one unit of work: it saves object graphs, loads objects by identity
// or by filters, runs raw queries and keeps every object it has seen in an
// identity map.
//
//	s := session.New(reg, drv, session.WithLogger(logger))
//	if err := s.Save(ctx, actor, ogm.Unbounded); err != nil {
//		return err
//	}
//	movies, err := session.LoadAll[Movie](ctx, s,
//		cypher.Filters{cypher.Where("Year", cypher.GreaterThan, 1999)},
//		session.Depth(2),
//	)
package session
