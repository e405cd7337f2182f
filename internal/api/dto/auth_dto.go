package dto

// AgentLoginRequest payload.
type AgentLoginRequest struct {
	Email     string `json:"email"`
	AccessKey string `json:"access_key"`
}

// AgentLoginResponse carries the issued bearer token.
type AgentLoginResponse struct {
	Token       string `json:"token"`
	AgentID     string `json:"agent_id"`
	WorkspaceID string `json:"workspace_id"`
	DisplayName string `json:"display_name"`
}
