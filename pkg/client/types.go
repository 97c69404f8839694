package client

// ChatRequest is the body of /chat and /chat_stream. The backend expects
// capitalized field names.
type ChatRequest struct {
	ID       string `json:"Id"`
	Question string `json:"Question"`
}

// ChatResponse is the body of a successful /chat call.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// AIOpsRequest is the body of /ai_ops and /ai_ops_stream.
type AIOpsRequest struct {
	Problem string `json:"problem"`
}

// AIOpsResponse is the body of a successful /ai_ops call.
type AIOpsResponse struct {
	Report string `json:"report"`
}

// UploadResponse is the body of a successful /upload call.
type UploadResponse struct {
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
	Status   string `json:"status"`
}

// SessionResult is the body of DELETE /chat/clear/{id}.
type SessionResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SessionList is the body of GET /chat/sessions.
type SessionList struct {
	Status   string   `json:"status"`
	Count    int      `json:"count"`
	Sessions []string `json:"sessions"`
	Message  string   `json:"message,omitempty"`
}

// Backend status values.
const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// DefaultProblem is sent when an analysis is requested without a problem
// description.
const DefaultProblem = "Analyze the current system alerts"
