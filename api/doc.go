// Package api serves the maze game over HTTP.
//
// Routes (all GET):
//
//	/                                     create a game: {text, gameid}
//	/map                                  list map names
//	/{gameid}/map/{map}                   bind a map to the game
//	/{gameid}/maze                        enter the start room
//	/{gameid}/maze/{roomId}               show a room without moving
//	/{gameid}/maze/{roomId}/{direction}   move through an exit
//	/api/games                            list live games
//	/api/games/{gameid}                   describe one game
//	/ws?gameid={gameid}                   WebSocket event stream
//
// The "type" query parameter selects the response format: json (default),
// plain, html, csv or zip. The zip format is an archive holding
// response.json. Rooms render as {id, text, directions}; in csv, plain and
// html each exit becomes its own column named after the direction label.
//
// Errors carry {text, hint, code}. A failed move instead returns the room
// the player tried to leave, with text replaced by "Direction not allowed"
// or "Path dont exist", plus hint and code.
//
// Every request is logged with its method, route template, remote address,
// status and duration.
package api
