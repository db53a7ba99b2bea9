// Package mcp exposes Genial to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool calls the REST API and formats the
// response as text.
//
// MCP Tools:
//   - list_games: games on the server, optionally filtered by status
//   - get_game: lobby view of one game
//   - create_game: create a lobby from explicit options or a preset
//   - get_board: placed cells rendered as a hex map
//   - player_info: public player view (never the hand)
//   - game_rules: rules summary
//
// Moves are not exposed here; they are played over WebSocket.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	router.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
//		body, _ := io.ReadAll(r.Body)
//		resp := client.GetMCPServer().HandleMessage(r.Context(), body)
//		json.NewEncoder(w).Encode(resp)
//	}).Methods("POST")
package mcp
