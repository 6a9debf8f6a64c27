package dto

import "time"

// AssignRequest triggers an assignment round for a question. DueDate is the
// deadline for completing the issued grading tasks; when omitted the
// configured grading window is applied.
type AssignRequest struct {
	DueDate time.Time `json:"due_date"`
}

// AssignResponse summarizes an assignment round.
type AssignResponse struct {
	AssignedCount   int    `json:"assigned_count"`
	UnassignedCount int    `json:"unassigned_count"`
	TasksCreated    int    `json:"tasks_created"`
	Unassigned      []uint `json:"unassigned,omitempty"`
}
