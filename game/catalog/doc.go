// Package catalog discovers and loads maze maps from a directory.
//
// Every file in the map directory whose extension is recognized (.json, .yaml,
// .yml) is a catalog entry named after the file. Names passed to Load without a
// recognized extension get ".json" appended before lookup, so "sample" and
// "sample.json" address the same map.
//
// Usage:
//
//	maps, err := catalog.NewManager("maps", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	names, err := maps.List()    // ["sample.json"]
//	graph, err := maps.Load("sample")
//
// Loaded graphs are cached and shared. They are immutable, so handing the same
// *maze.RoomGraph to many sessions is safe.
package catalog
