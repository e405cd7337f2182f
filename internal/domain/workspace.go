package domain

import "time"

// Workspace groups tickets, agents and integrations.
type Workspace struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Agent is a human or automated operator that can be assigned tickets.
type Agent struct {
	ID            string
	WorkspaceID   string
	Email         string
	DisplayName   string
	AccessKeyHash string
	IsActive      bool
	CreatedAt     time.Time
}

// Workflow is an automation target that tickets can be routed to.
type Workflow struct {
	ID          string
	WorkspaceID string
	Name        string
	IsActive    bool
	CreatedAt   time.Time
}
