package request

type EnsureUserRequest struct {
	Username string `json:"username"`
	Language string `json:"language"`
}

type SetFlagRequest struct {
	Value bool `json:"value"`
}
