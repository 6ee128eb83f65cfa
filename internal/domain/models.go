package domain

// RoomStatus tracks where a room is in its lifecycle.
type RoomStatus string

const (
	RoomWaiting    RoomStatus = "waiting"
	RoomStarting   RoomStatus = "starting"
	RoomInProgress RoomStatus = "in_progress"
	RoomFinished   RoomStatus = "finished"
)

// Player represents one participant in a room. ID is the stable per-device
// identity, so the server can recognize a client that reconnects.
type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	Score       int    `json:"score"`
	IsHost      bool   `json:"isHost"`
	Ready       bool   `json:"ready"`
	HasAnswered bool   `json:"hasAnswered"`
	JoinOrder   int    `json:"joinOrder"`
}

// QuizSettings selects the question bank for a game. Immutable once the
// room leaves the waiting state.
type QuizSettings struct {
	Category      string `json:"category"`
	Subject       string `json:"subject"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"questionCount"`
}

// Room is the client-visible view of a server-tracked game session.
// At most one player holds IsHost at any time.
type Room struct {
	Code     string       `json:"code"`
	HostID   string       `json:"hostId"`
	Settings QuizSettings `json:"settings"`
	Players  []Player     `json:"players"`
	Status   RoomStatus   `json:"status"`
}

// Question is a four-option MCQ with exactly one correct option.
type Question struct {
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Explanation        string   `json:"explanation"`
}

// GameState exists only while a room is starting or in progress.
// CurrentQuestionIndex only advances forward and never exceeds len(Questions).
type GameState struct {
	CurrentQuestionIndex int        `json:"currentQuestionIndex"`
	Questions            []Question `json:"questions"`
	TimePerQuestion      int        `json:"timePerQuestion"`
	Players              []Player   `json:"players"`
}

// QuestionBank is a loadable set of questions for one settings tuple.
type QuestionBank struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// BankID derives the storage key for a settings tuple.
func BankID(s QuizSettings) string {
	return s.Category + ":" + s.Subject + ":" + s.Difficulty
}

// FindPlayer returns the player with the given id, if present.
func (r *Room) FindPlayer(id string) (*Player, bool) {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i], true
		}
	}
	return nil, false
}
