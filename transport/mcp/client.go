package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/genial/game/engine"
	"github.com/wricardo/genial/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Genial",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Genial - MCP Interface

Read-mostly view of the Genial game server. Moves are played over WebSocket;
these tools inspect games and set up new ones.

AVAILABLE TOOLS:
- list_games: List games, optionally filtered by status
- get_game: Lobby view of one game with its players
- create_game: Create a new game (board size 6-8, 2-4 players)
- get_board: Placed cells of a game rendered as a hex map
- player_info: Public view of a player
- game_rules: How scoring and turns work`),
	)

	c.registerTools()
}

func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List games on the server",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"status": map[string]interface{}{
					"type":        "string",
					"description": "Only games with this status",
					"enum":        []string{"created", "in_progress", "finished"},
				},
			},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_game",
		Description: "Get a game with its lobby players",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGetGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a new game lobby",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Game name",
				},
				"board_size": map[string]interface{}{
					"type":        "number",
					"description": "Board radius, 6 to 8",
				},
				"player_count": map[string]interface{}{
					"type":        "number",
					"description": "Number of players, 2 to 4",
				},
				"show_progress": map[string]interface{}{
					"type":        "boolean",
					"description": "Whether players see each other's progress",
				},
				"preset": map[string]interface{}{
					"type":        "string",
					"description": "Preset supplying defaults (classic, trio, full)",
				},
				"admin_id": map[string]interface{}{
					"type":        "string",
					"description": "Player ID of the game admin (optional)",
				},
			},
			Required: []string{"name"},
		},
	}, c.handleCreateGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_board",
		Description: "Get the board of a game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGetBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "player_info",
		Description: "Get the public view of a player",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player_id": map[string]interface{}{
					"type":        "string",
					"description": "Player ID (UUID)",
				},
			},
			Required: []string{"player_id"},
		},
	}, c.handlePlayerInfo)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Explain the rules of Genial",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func requiredString(args map[string]interface{}, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// Tool handlers

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path := "/api/games"
	if status, _ := args["status"].(string); status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var response struct {
		Count int                `json:"count"`
		Games []service.GameInfo `json:"games"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Games (%d):\n\n", response.Count)
	for _, g := range response.Games {
		fmt.Fprintf(&b, "- %s %q [%s] board %d, %d/%d players\n",
			g.ID, g.Name, g.Status, g.BoardSize, len(g.Players), g.PlayerCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := requiredString(arguments(request), "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var game service.LobbyGame
	if err := c.apiCall(ctx, "GET", "/api/games/"+url.PathEscape(gameID), nil, &game); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGame(&game)), nil
}

func (c *Client) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	name, err := requiredString(args, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := service.CreateGameRequest{Name: name}
	if v, ok := args["board_size"].(float64); ok {
		req.BoardSize = int(v)
	}
	if v, ok := args["player_count"].(float64); ok {
		req.PlayerCount = int(v)
	}
	if v, ok := args["show_progress"].(bool); ok {
		req.ShowProgress = &v
	}
	req.Preset, _ = args["preset"].(string)
	req.AdminID, _ = args["admin_id"].(string)

	var game service.GameInfo
	if err := c.apiCall(ctx, "POST", "/api/games", req, &game); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created game: %s\nName: %s\nBoard size: %d\nPlayers: %d\n",
		game.ID, game.Name, game.BoardSize, game.PlayerCount)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := requiredString(arguments(request), "game_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var board service.BoardInfo
	if err := c.apiCall(ctx, "GET", "/api/games/"+url.PathEscape(gameID)+"/board", nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBoard(&board)), nil
}

func (c *Client) handlePlayerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	playerID, err := requiredString(arguments(request), "player_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var player service.PlayerInfo
	if err := c.apiCall(ctx, "GET", "/api/players/"+url.PathEscape(playerID), nil, &player); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatPlayer(&player)), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameRules), nil
}

const gameRules = `Genial - Rules

BOARD:
A hexagonal board of radius 6, 7 or 8. The six corners hold one fixed hex
of each color: red, blue, green, orange, yellow, violet.

TURNS:
Every player holds up to six hex pairs. On a turn the mover places one pair
on two empty cells. A corner cell only accepts a hex of its own color.

SCORING:
For each placed hex, walk outward in all six directions and count the
consecutive hexes of the same color that were already on the board,
corners included. Progress per color is capped at 18; reaching 18 makes
that color genial and grants one extra move.

END:
The game ends when a player has all six colors genial, when nobody holds a
hex pair, or when every player has left. The winner is the player whose
lowest color is highest, ties broken by the next lowest.`

func formatGame(game *service.LobbyGame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Game: %s (%s)\n", game.Name, game.ID)
	fmt.Fprintf(&b, "Status: %s\n", game.Status)
	fmt.Fprintf(&b, "Board size: %d\n", game.BoardSize)
	fmt.Fprintf(&b, "Players: %d/%d\n", len(game.Players), game.PlayerCount)
	for _, p := range game.LobbyPlayers {
		ready := " "
		if p.Ready {
			ready = "x"
		}
		fmt.Fprintf(&b, "  [%s] %s (%s)\n", ready, p.Name, p.ID)
	}
	if game.CurrentMover != "" {
		fmt.Fprintf(&b, "Current mover: %s\n", game.CurrentMover)
	}
	if game.Status != "created" {
		fmt.Fprintf(&b, "Pool remaining: %d\n", game.PoolRemaining)
	}
	if game.Winner != "" {
		fmt.Fprintf(&b, "Winner: %s\n", game.Winner)
	}
	return b.String()
}

func formatPlayer(p *service.PlayerInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Player: %s (%s)\n", p.Name, p.ID)
	if p.GameID == "" {
		b.WriteString("Not in a game\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Game: %s\n", p.GameID)
	fmt.Fprintf(&b, "Ready: %t\n", p.Ready)
	fmt.Fprintf(&b, "Hex pairs in hand: %d\n", p.HandSize)
	fmt.Fprintf(&b, "Moves remaining: %d\n", p.MovesRemaining)
	if p.Progress != nil {
		b.WriteString("Progress:")
		for _, color := range engine.Colors {
			fmt.Fprintf(&b, " %s=%d", color, p.Progress.Get(color))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// colorChar returns the map letter of a color: upper case for corners
func colorChar(c engine.Color, corner bool) string {
	ch := string(c)[:1]
	if corner {
		return strings.ToUpper(ch)
	}
	return ch
}

// formatBoard renders the board one row per line, each row indented so
// neighbouring rows interleave like the hex grid
func formatBoard(board *service.BoardInfo) string {
	radius := board.BoardSize
	cells := make(map[engine.Point]string, len(board.Cells)+len(board.Corners))
	for _, c := range board.Corners {
		cells[c.Point()] = colorChar(c.Color, true)
	}
	for _, c := range board.Cells {
		cells[c.Point()] = colorChar(c.Color, false)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Board of %s (radius %d, %d placed)\n", board.GameID, radius, len(board.Cells))
	for y := -radius; y <= radius; y++ {
		first, last := engine.RowRange(y, radius)
		b.WriteString(strings.Repeat(" ", abs(y)))
		for x := first; x <= last; x++ {
			ch, ok := cells[engine.Point{X: x, Y: y}]
			if !ok {
				ch = "."
			}
			b.WriteString(ch)
			if x < last {
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("Legend: R/B/G/O/Y/V corners, lower case placed, . empty\n")
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
