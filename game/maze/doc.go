// Package maze defines the room-graph model shared by the catalog, the session
// store and the traversal engine.
//
// A map is an ordered list of rooms. Each room carries a description and a set
// of named exits ("directions") pointing at other rooms by id. The first room in
// a map file is the entry room where every play-through starts.
//
// Map files:
//
// Maps are stored as JSON (canonical) or YAML documents holding a list of room
// records:
//
//	[
//	  {"id": 0, "text": "You are in a dark hall.", "directions": {"north": 1}},
//	  {"id": 1, "text": "A narrow corridor.", "directions": {"south": 0}}
//	]
//
// Room ids may be written as numbers or strings; both are normalized to RoomID.
//
// Immutability:
//
// A RoomGraph never changes once built. Accessors hand out copies, so a graph
// can be shared by any number of sessions without synchronization.
package maze
