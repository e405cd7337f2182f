package dto

// CreateStatusRequest payload.
type CreateStatusRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CreatePriorityRequest payload.
type CreatePriorityRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Value int    `json:"value"`
}

// StatusResponse lookup row.
type StatusResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// PriorityResponse lookup row.
type PriorityResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Value int    `json:"value"`
}
