package dto

// RegisterRequest is the request body for subname registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,subname"`
	Address  string `json:"address" binding:"required,eth_addr"`
}

// AvailabilityQuery is the query string of GET /available.
type AvailabilityQuery struct {
	Username string `form:"username" binding:"required"`
}

// AddCreditsQuery is the query string of POST /credits/:address/add.
// Amount stays a string so a malformed value maps to ErrInvalidAmount.
type AddCreditsQuery struct {
	Amount string `form:"amount" binding:"required"`
}

// DependencyStatus reports one dependency in the health response.
type DependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
}
