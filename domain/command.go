package domain

type Command interface {
	RoomID() RoomCode
}

type PostMessageCommand struct {
	Room    RoomCode
	Sender  string
	Content string
}

func (p PostMessageCommand) RoomID() RoomCode {
	return p.Room
}

type GetMessagesCommand struct {
	Room   RoomCode
	Cursor *string
}

func (p GetMessagesCommand) RoomID() RoomCode {
	return p.Room
}
