package greeting

// Data models a greeting response.
type Data struct {
	ID        int64  `json:"id"        doc:"Sequential ID, unique within this process" example:"1"`
	Content   string `json:"content"   doc:"Greeting message"                          example:"Hello, World!"`
	Framework string `json:"framework" doc:"Web framework version serving the request" example:"huma v2.32.1"`
}
