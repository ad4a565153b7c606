package token

// IntrospectionData models the introspection response for the caller's
// own token, shaped after RFC 7662 with the Entra-specific claims kept
// under their wire names. Active is always true: tokens that fail
// validation are rejected with 401 before reaching the handler.
type IntrospectionData struct {
	Active            bool           `json:"active"                       doc:"Whether the presented token is valid"          example:"true"`
	Subject           string         `json:"sub,omitempty"                doc:"Pairwise subject identifier"`
	Scope             string         `json:"scope,omitempty"              doc:"Space-separated granted scopes"                example:"Greeting.Read Greeting.Write"`
	Roles             []string       `json:"roles,omitempty"              doc:"Granted application roles"`
	ObjectID          string         `json:"oid,omitempty"                doc:"Directory object ID of the caller"`
	TenantID          string         `json:"tid,omitempty"                doc:"Issuing tenant ID"`
	Name              string         `json:"name,omitempty"               doc:"Display name"`
	PreferredUsername string         `json:"preferred_username,omitempty" doc:"Preferred username, usually a UPN or email"`
	AppID             string         `json:"azp,omitempty"                doc:"Client application the token was issued to"`
	TokenVersion      string         `json:"ver,omitempty"                doc:"Access token format version"                   example:"2.0"`
	Issuer            string         `json:"iss,omitempty"                doc:"Token issuer"`
	ExpiresAt         int64          `json:"exp,omitempty"                doc:"Expiry as Unix seconds"`
	IssuedAt          int64          `json:"iat,omitempty"                doc:"Issue time as Unix seconds"`
	Claims            map[string]any `json:"claims,omitempty"             doc:"Full validated claims map"`
}
