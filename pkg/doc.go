// Package pkg holds the libraries behind the plushie command and server.
//
// # Overview
//
// Plushie turns a crochet pattern into a stitch graph and relaxes that graph
// with a small force simulation until it takes the shape of the finished
// toy. The packages are layered:
//
//  1. [pattern] parses the action list DSL into actions
//  2. [hook] walks the actions with a virtual hook and emits stitch edges
//  3. [plushie] simulates the graph (links, stuffing, gravity, centroids)
//  4. [coordinator] steps a plushie on a fixed cadence for a live observer
//  5. [pipeline] runs compile and relax jobs with caching
//
// Supporting packages: [graph] (serializable stitch graphs and results),
// [io] (STL and point cloud export), [render] (Graphviz diagrams),
// [cache] (file and Redis caches), [storage] (saved results in memory or
// MongoDB), [session] (live session registry), [errors] and
// [observability].
//
// # Quick Start
//
//	actions, _ := pattern.Parse("mr(6)\n6*inc\n12*sc\nfo")
//	g, _ := hook.Compile(actions, hook.DefaultParams())
//	p := plushie.FromGraph(g, plushie.DefaultParams())
//	steps, _ := p.Relax(ctx)
//	cloud := p.PointCloud()
//
// [pattern]: github.com/matzehuels/plushie/pkg/pattern
// [hook]: github.com/matzehuels/plushie/pkg/hook
// [plushie]: github.com/matzehuels/plushie/pkg/plushie
// [coordinator]: github.com/matzehuels/plushie/pkg/coordinator
// [pipeline]: github.com/matzehuels/plushie/pkg/pipeline
// [graph]: github.com/matzehuels/plushie/pkg/graph
// [io]: github.com/matzehuels/plushie/pkg/io
// [render]: github.com/matzehuels/plushie/pkg/render
// [cache]: github.com/matzehuels/plushie/pkg/cache
// [storage]: github.com/matzehuels/plushie/pkg/storage
// [session]: github.com/matzehuels/plushie/pkg/session
// [errors]: github.com/matzehuels/plushie/pkg/errors
// [observability]: github.com/matzehuels/plushie/pkg/observability
package pkg
