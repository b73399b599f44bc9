package request

type AssignSolverRequest struct {
	SolverID string `json:"solver_id"`
}

type ResolveDisputeRequest struct {
	Ruling string `json:"ruling"`
}
