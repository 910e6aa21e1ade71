package relay

type MessageType string

const (
	TypeAuthorization MessageType = "authorization"
	TypePlayerOnline  MessageType = "playerOnline"
	TypePlayerOffline MessageType = "playerOffline"
	TypeGameCreated   MessageType = "gameCreated"
	TypeGameActive    MessageType = "gameActive"
	TypeGameInactive  MessageType = "gameInactive"
	TypeGameUpdated   MessageType = "gameUpdated"
)

// Message is the JSON envelope exchanged over the realtime channel.
type Message struct {
	Type       MessageType `json:"type"`
	Token      string      `json:"token,omitempty"`
	Authorized *bool       `json:"authorized,omitempty"`
	Player     string      `json:"player,omitempty"`
	ID         string      `json:"id,omitempty"`
}

// Kind tells the dispatcher which activity cache effect a targeted message has on its sender.
type Kind int

const (
	KindNotice Kind = iota
	KindGameActive
	KindGameInactive
)

func AuthorizationMessage(authorized bool) Message {
	return Message{Type: TypeAuthorization, Authorized: &authorized}
}

func PlayerOnlineMessage(player string) Message {
	return Message{Type: TypePlayerOnline, Player: player}
}

func PlayerOfflineMessage(player string) Message {
	return Message{Type: TypePlayerOffline, Player: player}
}

func GameCreatedMessage(player string) Message {
	return Message{Type: TypeGameCreated, Player: player}
}

func GameActiveMessage(player, gameID string) Message {
	return Message{Type: TypeGameActive, Player: player, ID: gameID}
}

func GameInactiveMessage(player, gameID string) Message {
	return Message{Type: TypeGameInactive, Player: player, ID: gameID}
}

func GameUpdatedMessage() Message {
	return Message{Type: TypeGameUpdated}
}
