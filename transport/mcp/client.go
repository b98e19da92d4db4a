package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/JockeTS/mazerunner/game/service"
)

// Client is a thin MCP front end that proxies to the maze REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	logger     *zap.Logger
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL string, version string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}

	c.initMCPServer(version)
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer(version string) {
	c.mcpServer = server.NewMCPServer(
		"Mazerunner",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Mazerunner - MCP Interface

This is a thin client that proxies all requests to the maze REST API.

Explore a maze of rooms. Each room has a text and a set of exits, each exit
labelled with a direction and leading to another room.

AVAILABLE TOOLS:
- new_game: Start a game and get its gameid
- list_maps: List the maps you can play
- select_map: Bind a map to your game (once per game)
- enter_maze: Go to the start room
- look_room: Look at any room by id without moving
- move: Leave a room through one of its exits
- maze_instructions: Full rules`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	gameID := map[string]interface{}{
		"type":        "string",
		"description": "Game ID returned by new_game",
	}

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Start a new maze game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleNewGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_maps",
		Description: "List the available maps",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMaps)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_map",
		Description: "Bind a map to a game. A game plays exactly one map.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"gameid": gameID,
				"map": map[string]interface{}{
					"type":        "string",
					"description": "Map name from list_maps; the .json extension is optional",
				},
			},
			Required: []string{"gameid", "map"},
		},
	}, c.handleSelectMap)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "enter_maze",
		Description: "Enter the start room of the selected map",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"gameid": gameID,
			},
			Required: []string{"gameid"},
		},
	}, c.handleEnterMaze)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "look_room",
		Description: "Show any room by id without moving",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"gameid": gameID,
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room ID",
				},
			},
			Required: []string{"gameid", "room_id"},
		},
	}, c.handleLookRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Leave a room through one of its exits",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"gameid": gameID,
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room you are leaving",
				},
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "Exit label, exactly as listed for the room (case-sensitive)",
				},
			},
			Required: []string{"gameid", "room_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "maze_instructions",
		Description: "Get the rules of the maze game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeHTTP handles single JSON-RPC messages posted to /mcp
func (c *Client) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	response := c.mcpServer.HandleMessage(r.Context(), body)
	if response == nil {
		// notifications have no reply
		w.WriteHeader(http.StatusAccepted)
		return
	}

	data, err := json.Marshal(response)
	if err != nil {
		c.logger.Error("Failed to marshal MCP response", zap.Error(err))
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// APIError is a failed REST call
type APIError struct {
	Status int
	Text   string
	Hint   string
	Code   string

	// Room is set when a move failed; it is the room the player tried to leave.
	Room *service.RoomView
}

func (e *APIError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("API error: %d", e.Status)
	}
	if e.Hint == "" {
		return e.Text
	}
	return fmt.Sprintf("%s (%s)", e.Text, e.Hint)
}

// apiCall performs a GET against the REST API and decodes the JSON reply
func (c *Client) apiCall(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var body struct {
			ID         string            `json:"id"`
			Text       string            `json:"text"`
			Directions map[string]string `json:"directions"`
			Hint       string            `json:"hint"`
			Code       string            `json:"code"`
		}
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Text = body.Text
			apiErr.Hint = body.Hint
			apiErr.Code = body.Code
			if body.ID != "" {
				apiErr.Room = &service.RoomView{ID: body.ID, Text: body.Text, Directions: body.Directions}
			}
		}
		return apiErr
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func (c *Client) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var info service.NewGameInfo
	if err := c.apiCall(ctx, "/", &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\nGame ID: %s\nNext: list_maps, then select_map.", info.Text, info.GameID)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListMaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var maps []string
	if err := c.apiCall(ctx, "/map", &maps); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(maps) == 0 {
		return mcp.NewToolResultText("No maps available."), nil
	}

	var sb strings.Builder
	sb.WriteString("Available maps:\n")
	for _, name := range maps {
		fmt.Fprintf(&sb, "- %s\n", name)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleSelectMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	gameID := stringArg(args, "gameid")
	mapName := stringArg(args, "map")
	if gameID == "" || mapName == "" {
		return mcp.NewToolResultError("gameid and map are required"), nil
	}

	var msg service.Message
	path := fmt.Sprintf("/%s/map/%s", url.PathEscape(gameID), url.PathEscape(mapName))
	if err := c.apiCall(ctx, path, &msg); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(msg.Text + "\nNext: enter_maze."), nil
}

func (c *Client) handleEnterMaze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID := stringArg(request.GetArguments(), "gameid")
	if gameID == "" {
		return mcp.NewToolResultError("gameid is required"), nil
	}

	var room service.RoomView
	if err := c.apiCall(ctx, fmt.Sprintf("/%s/maze", url.PathEscape(gameID)), &room); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoom(&room)), nil
}

func (c *Client) handleLookRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	gameID := stringArg(args, "gameid")
	roomID := stringArg(args, "room_id")
	if gameID == "" || roomID == "" {
		return mcp.NewToolResultError("gameid and room_id are required"), nil
	}

	var room service.RoomView
	path := fmt.Sprintf("/%s/maze/%s", url.PathEscape(gameID), url.PathEscape(roomID))
	if err := c.apiCall(ctx, path, &room); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoom(&room)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	gameID := stringArg(args, "gameid")
	roomID := stringArg(args, "room_id")
	direction := stringArg(args, "direction")
	if gameID == "" || roomID == "" || direction == "" {
		return mcp.NewToolResultError("gameid, room_id and direction are required"), nil
	}

	var room service.RoomView
	path := fmt.Sprintf("/%s/maze/%s/%s",
		url.PathEscape(gameID), url.PathEscape(roomID), url.PathEscape(direction))
	if err := c.apiCall(ctx, path, &room); err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.Room != nil {
			return mcp.NewToolResultError(formatFailedMove(apiErr)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoom(&room)), nil
}

func (c *Client) handleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Mazerunner - Instructions

GAME FLOW:
1. new_game returns a gameid. Keep it; every other tool needs it.
2. list_maps shows the maps on the server.
3. select_map binds one map to the game. It can only be done once; start a
   new game to play another map.
4. enter_maze puts you in the start room.
5. move leaves a room through an exit and puts you in the room it leads to.

ROOMS:
Each room has an id, a text and exits. An exit is a direction label (for
example "north" or "down the stairs") and the id of the room it leads to.
Labels are case-sensitive; use them exactly as listed.

FAILED MOVES:
- "Direction not allowed": the room has no exit with that label.
- "Path dont exist": the exit leads to a room missing from the map.
A failed move changes nothing and shows the room you tried to leave.

TIPS:
- look_room shows any room by id without moving, useful for planning.
- Keep a list of visited rooms and their exits to avoid walking in circles.`

func stringArg(args map[string]interface{}, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func formatRoom(room *service.RoomView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Room %s\n%s\n", room.ID, room.Text)
	sb.WriteString(formatExits(room.Directions))
	return sb.String()
}

func formatExits(directions map[string]string) string {
	if len(directions) == 0 {
		return "Exits: none\n"
	}

	labels := make([]string, 0, len(directions))
	for label := range directions {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("%s -> %s", label, directions[label]))
	}
	return "Exits: " + strings.Join(parts, ", ") + "\n"
}

func formatFailedMove(err *APIError) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s. Move from room %s not taken.\n", err.Text, err.Room.ID)
	sb.WriteString(formatExits(err.Room.Directions))
	if err.Hint != "" {
		fmt.Fprintf(&sb, "Hint: %s\n", err.Hint)
	}
	return sb.String()
}
