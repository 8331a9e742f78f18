// Package graph provides serialization types for stitch graphs and relaxed
// results.
//
// This package defines the wire format used for JSON files, API responses,
// the cache and the result store.
//
// # Architecture
//
// The package sits at the serialization boundary between the compiler's
// in-memory output and external formats:
//
//   - [StitchGraph], [Result]: serialization types (this package)
//   - hook.InitialGraph: the compiled graph used by the simulation
//
// Use [FromInitialGraph] and [StitchGraph.InitialGraph] to convert between
// them.
//
// # Graph Serialization
//
// Graphs use a node-link JSON format. Every edge points from the newer
// stitch to the older one it was worked into or chained from:
//
//	{
//	  "nodes": [
//	    {"id": 0, "color": "#ff00ff", "parent": -1, "peculiarity": "locked"},
//	    {"id": 1, "color": "#ff00ff", "parent": 0}
//	  ],
//	  "edges": [{"from": 1, "to": 0}],
//	  "round_spans": [[0, 1]],
//	  "part_limits": [0, 2]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("ball.json")     // File → InitialGraph
//	graph.WriteGraphFile(g, "output.json")       // InitialGraph → File
//	graph.WriteGraph(g, os.Stdout)               // InitialGraph → io.Writer
//
// # Results
//
// A [Result] is a relaxed plushie: its graph, final positions, the params it
// was relaxed with and how it went. Results carry bson tags so the MongoDB
// store persists them as they are.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
