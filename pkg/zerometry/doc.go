// Package zerometry implements the on-disk geometry encoding used by
// cellulite.
//
// A serialized geometry is an 8-byte-aligned byte slice that can be read in
// place, without decoding: every accessor is a bounded slice read. The
// layout starts with a one-byte type tag padded to 8 bytes, followed by
// type-specific content. Multi-part geometries carry a precomputed bounding
// box and a part count in a fixed 40-byte header so that bounds checks and
// pairwise relation computations never have to walk coordinates they don't
// need.
//
// The package also computes pairwise shape relations (containment,
// strict containment, intersection) directly on the serialized form, which
// is the hot path of both the index builder and the query engine.
package zerometry
