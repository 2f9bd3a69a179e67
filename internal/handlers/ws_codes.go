package handlers

// Custom WebSocket close codes used by the scoreboard stream.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
)
