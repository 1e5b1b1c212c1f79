// Package cellulite is an embedded geospatial index mapping integer item
// identifiers to geometries and answering containment and intersection
// queries against arbitrary query polygons.
//
// The index lives in a bbolt environment as four buckets: items (serialized
// geometries), cells (per-cell id sets on the H3 hexagonal grid, with a
// companion "belly" set per cell for items covering it entirely), updates
// (the durable work queue) and metadata (schema version).
//
// Writes are deferred: Add and Delete only touch the items and updates
// buckets. A later Build drains the update queue and reconciles the cell
// hierarchy, splitting cells whose population crosses the configured
// threshold. Queries walk the hierarchy breadth-first and verify ambiguous
// candidates against their exact geometry.
//
//	db, _ := bolt.Open(path, 0o600, nil)
//	var index *cellulite.Index
//	db.Update(func(tx *bolt.Tx) error {
//		index, _ = cellulite.Create(tx, cellulite.Options{})
//		index.Add(tx, 0, geojsonBytes)
//		return index.Build(tx, nil, nil)
//	})
//	db.View(func(tx *bolt.Tx) error {
//		ids, _ := index.InShape(tx, queryPolygon)
//		return nil
//	})
package cellulite
