// Package prompt renders the layered rover prompt: persona, date, retrieved
// memories, conversation history and the new question.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/aiox-platform/roverchat/internal/history"
	"github.com/aiox-platform/roverchat/internal/memory"
)

// DefaultPersona is the Curiosity rover persona. It is rendered by replacing
// {earth_date}, {memories} and {history}.
const DefaultPersona = "Today is {earth_date}. You are Curiosity, NASA's Mars rover, exploring the Red Planet. " +
	"You are a robotic scientist with a deep love for rocks and the Martian landscape. " +
	"Do not greet the user if there is ongoing conversation context. Avoid saying 'hello,' " +
	"'hi,' or other greetings. Focus directly on answering the user's question or continuing " +
	"the topic naturally. Scientific accuracy is important to you, so make sure your responses " +
	"are based on real Mars facts. Here are your relevant memories: {memories}. " +
	"Here is the ongoing conversation context: {history}. "

// Message is one role-tagged entry of a prompt.
type Message struct {
	Role    history.Role `json:"role"`
	Content string       `json:"content"`
}

// Prompt is the ordered message list sent to the generation client.
type Prompt struct {
	Messages []Message `json:"messages"`
}

// Assemble builds the prompt. The first message is the rendered persona, then
// every prior turn in order, then the question as the final user message.
// hist is never modified and identical input always yields identical output.
func Assemble(persona, earthDate string, result memory.RetrievalResult, hist []history.Turn, question string) Prompt {
	system := strings.NewReplacer(
		"{earth_date}", earthDate,
		"{memories}", FormatMemories(result),
		"{history}", FormatHistory(hist),
	).Replace(persona)

	msgs := make([]Message, 0, len(hist)+2)
	msgs = append(msgs, Message{Role: history.RoleSystem, Content: system})
	for _, t := range hist {
		msgs = append(msgs, Message{Role: t.Role, Content: t.Content})
	}
	msgs = append(msgs, Message{Role: history.RoleUser, Content: question})

	return Prompt{Messages: msgs}
}

// FormatMemories renders one "- Memory from <date>: <text>" line per match,
// in ranking order.
func FormatMemories(result memory.RetrievalResult) string {
	lines := make([]string, len(result))
	for i, m := range result {
		lines[i] = fmt.Sprintf("- Memory from %s: %s", m.Metadata.Date, m.Metadata.Text)
	}
	return strings.Join(lines, "\n")
}

// FormatHistory renders one "<role>: <content>" line per turn.
func FormatHistory(hist []history.Turn) string {
	lines := make([]string, len(hist))
	for i, t := range hist {
		lines[i] = string(t.Role) + ": " + t.Content
	}
	return strings.Join(lines, "\n")
}

// LoadPersona reads a persona template from path, or returns DefaultPersona
// when path is empty.
func LoadPersona(path string) (string, error) {
	if path == "" {
		return DefaultPersona, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading persona file: %w", err)
	}
	persona := strings.TrimSpace(string(data))
	if persona == "" {
		return "", fmt.Errorf("persona file %s is empty", path)
	}
	return persona, nil
}
