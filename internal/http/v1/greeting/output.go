package greeting

// GetOutput for GET /greeting
type GetOutput struct {
	Body Data
}

// CreateOutput for POST /greeting (201 Created)
type CreateOutput struct {
	Body Data
}
