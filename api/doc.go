// Package api provides the HTTP REST handlers for Genial.
//
// Endpoints:
//
// Games:
//   - GET /api/games - List games (optional ?status=created|in_progress|finished and ?limit=N)
//   - POST /api/games - Create a game
//   - GET /api/games/{id} - Game with its lobby players
//   - GET /api/games/{id}/board - Placed cells and corner hexes
//
// Players:
//   - GET /api/players/{id} - Public player view (never the hand)
//   - POST /api/players/{id} - Create or rename a player
//
// Presets:
//   - GET /api/presets - List presets
//   - POST /api/presets - Save a preset
//
// Other:
//   - GET /api/health - Liveness and connection counts
//   - GET /ws/{player_id} - WebSocket upgrade; player_id must be a UUID
//
// Create a game with:
//
//	{
//	  "name": "Friday night",
//	  "admin_id": "5b0c...",
//	  "board_size": 6,
//	  "player_count": 2,
//	  "show_progress": true,
//	  "preset": "classic"
//	}
//
// Error Handling:
//
// Errors are returned as JSON with the HTTP status code repeated in the body:
//
//	{
//	  "error": "game not found",
//	  "code": 404
//	}
//
// Rule violations map to 409, invalid requests to 400 and unknown games or
// players to 404.
package api
