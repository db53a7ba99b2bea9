// Package websocket provides the WebSocket transport for Genial.
//
// The Hub is a connection registry and room broadcaster. Each connection
// is identified by the player id from the /ws/{player_id} path; each room
// is a game id. Re-registering an id supersedes the old connection.
//
// Message Protocol:
//
// Inbound frames are JSON envelopes:
//
//	{"type": "join_game", "payload": {"player_id": "...", "game_id": "..."}}
//
// Accepted types are join_game, leave_game, ready_change, place_hex_pair
// and ping. A payload acting for another player than the connection's own
// is answered with a private "rejected" message. Malformed frames are
// dropped.
//
// Outbound frames are {"type": ..., "data": ...}, one JSON document per
// frame. Besides game events the hub sends "system" notices when a
// connection joins or leaves a room.
//
// Liveness:
//
// The write pump pings every heartbeat interval. Any inbound frame or pong
// refreshes the connection's activity; a connection idle past the client
// timeout is dropped by the read deadline or by the periodic Sweep.
//
// Usage:
//
//	hub := websocket.NewHub(websocket.WithHeartbeat(5*time.Second, 10*time.Second))
//	hub.SetHandler(gameService)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws/{player_id}", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, mux.Vars(r)["player_id"])
//	})
//
// Concurrency:
//
// Registry and rooms are guarded by one RWMutex. Broadcasts never block: a
// member whose mailbox is full misses the message.
package websocket
