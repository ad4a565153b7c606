package greeting

// GetInput is the query input for fetching a greeting.
type GetInput struct {
	Name string `query:"name" doc:"Name to greet; defaults to the caller's display name" example:"World" maxLength:"100"`
}

// CreateInput is the request body for creating a greeting.
type CreateInput struct {
	Body struct {
		Name string `json:"name" doc:"Name to greet" example:"World" minLength:"1" maxLength:"100"`
	}
}
