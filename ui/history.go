package ui

// Message roles shown in the transcript
const (
	roleUser      = "user"
	roleAssistant = "assistant"
	roleSystem    = "system"
)

type chatMessage struct {
	role    string
	content string
}

// chatHistory holds the transcript and the input recall buffer
type chatHistory struct {
	messages   []chatMessage
	input      []string
	currentPos int
}

func (ch *chatHistory) addMessage(role, content string) {
	ch.messages = append(ch.messages, chatMessage{role: role, content: content})
}

func (ch *chatHistory) addInput(input string) {
	ch.input = append(ch.input, input)
	ch.currentPos = len(ch.input)
}

// navigateHistory moves through earlier inputs. Moving past the newest
// input returns an empty line.
func (ch *chatHistory) navigateHistory(direction int) string {
	if len(ch.input) == 0 {
		return ""
	}

	ch.currentPos += direction

	if ch.currentPos < 0 {
		ch.currentPos = 0
	} else if ch.currentPos >= len(ch.input) {
		ch.currentPos = len(ch.input)
		return ""
	}

	return ch.input[ch.currentPos]
}

func (ch *chatHistory) clear() {
	ch.messages = nil
	ch.input = nil
	ch.currentPos = 0
}
