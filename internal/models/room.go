// internal/models/room.go
package models

// RoomDirectoryEntry is the durable projection of a room used for discovery.
// It mirrors a subset of the live session; a restart loses the live engines
// and only this listing survives.
type RoomDirectoryEntry struct {
	RoomCode   string `json:"roomCode"`
	NumPlayers int    `json:"numPlayers"`
	MaxPlayers int    `json:"maxPlayers"`
	RoomName   string `json:"roomName"`
	RoomOwner  string `json:"roomOwner"`
	GameDesc   string `json:"gameDesc"`
}
