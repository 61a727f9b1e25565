package client

import "fmt"

// ExecuteRequest asks the backend to drive a browser session.
type ExecuteRequest struct {
	URL         string `json:"url"`
	Instruction string `json:"instruction"`
	CookiesPath string `json:"cookies_path,omitempty"`
}

// ExecuteResult is the outcome of a browser session.
type ExecuteResult struct {
	Success      bool   `json:"success"`
	FinalMessage string `json:"final_message,omitempty"`
	Error        string `json:"error,omitempty"`
}

// RecordingRequest asks the backend to drive a browser session while
// recording traffic to HarPath on the backend host.
type RecordingRequest struct {
	URL         string `json:"url"`
	Instruction string `json:"instruction"`
	HarPath     string `json:"har_path"`
	CookiesPath string `json:"cookies_path,omitempty"`
}

// RecordingResult is the outcome of a recorded browser session.
type RecordingResult struct {
	Success      bool   `json:"success"`
	FinalMessage string `json:"final_message,omitempty"`
	HarPath      string `json:"har_path,omitempty"`
	Error        string `json:"error,omitempty"`
}

// APIError represents an error response from the capture backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("capture backend error %d: %s", e.StatusCode, e.Message)
}

// errorResponse is the JSON structure for backend errors.
type errorResponse struct {
	Error string `json:"error"`
}
