package request

// JoinRequest is the request body for starting a session
type JoinRequest struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// YieldRequest is the request body for a resource break
type YieldRequest struct {
	Resource string `json:"resource"`
	Location string `json:"location,omitempty"`
}

// GrantRequest is the request body for an operator experience grant
type GrantRequest struct {
	Amount float64 `json:"amount"`
}
