package brevo

// Recipient is a single to-address with an optional display name.
type Recipient struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name,omitempty"`
}

// Sender is the fixed identity digest emails are sent from.
type Sender struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name,omitempty"`
}

// Email is the payload of POST /v3/smtp/email.
type Email struct {
	To          []Recipient    `json:"to" validate:"required,min=1,dive"`
	Sender      Sender         `json:"sender" validate:"required"`
	Subject     string         `json:"subject" validate:"required"`
	HTMLContent string         `json:"htmlContent" validate:"required"`
	TextContent string         `json:"textContent,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
}
