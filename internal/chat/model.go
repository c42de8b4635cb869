package chat

// Request is the inbound chat payload. All fields are required and must not
// be blank.
type Request struct {
	UserPrompt     string `json:"user_prompt" validate:"required,notblank"`
	ConversationID string `json:"conversation_id" validate:"required,notblank"`
	EarthDate      string `json:"earth_date" validate:"required,notblank"`
}
