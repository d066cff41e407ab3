package chatkit

// SessionRequest is the payload for creating a ChatKit session.
type SessionRequest struct {
	Workflow      WorkflowParam        `json:"workflow"`
	User          string               `json:"user"`
	Configuration SessionConfiguration `json:"chatkit_configuration"`
}

// WorkflowParam selects the workflow the session runs against.
type WorkflowParam struct {
	ID string `json:"id"`
}

// SessionConfiguration carries per-session feature toggles.
type SessionConfiguration struct {
	FileUpload FileUploadParam `json:"file_upload"`
}

// FileUploadParam toggles attachment support for the session.
type FileUploadParam struct {
	Enabled bool `json:"enabled"`
}

// SessionResponse is a successful session-creation response.
//
// ExpiresAfter is passed through as received; the API reports seconds but
// clients normalize defensively (see the sessionclient package).
type SessionResponse struct {
	ClientSecret string  `json:"client_secret"`
	ExpiresAfter float64 `json:"expires_after"`
}
