// Package mcp exposes the maze game to AI agents over the Model Context
// Protocol.
//
// Client registers the tools new_game, list_maps, select_map, enter_maze,
// look_room, move and maze_instructions on a mark3labs/mcp-go server. Each
// tool proxies to the REST API and renders the reply as text, so the MCP
// front end works the same against a local or a remote server.
//
// Transport Modes:
//   - HTTP: Client implements http.Handler for single JSON-RPC messages
//     posted to /mcp.
//   - Stdio: pass GetMCPServer() to server.ServeStdio.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", version, logger)
//	mux.Handle("/mcp", client)
//
//	// or
//	err := server.ServeStdio(client.GetMCPServer())
package mcp
