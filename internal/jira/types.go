package jira

// ServerInfo is the subset of the serverInfo response the client uses.
type ServerInfo struct {
	BaseURL        string `json:"baseUrl"`
	Version        string `json:"version"`
	ServerTitle    string `json:"serverTitle"`
	BuildNumber    int    `json:"buildNumber"`
	ScmInfo        string `json:"scmInfo"`
	ServerTime     string `json:"serverTime"`
	DeploymentType string `json:"deploymentType"`
}

// CreatedIssue is the response to an issue creation.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// NamedRef references a remote entity by name.
type NamedRef struct {
	Name string `json:"name"`
}

// KeyRef references an issue by key.
type KeyRef struct {
	Key string `json:"key"`
}

// CommentBody is the body of a comment attached to a link or issue.
type CommentBody struct {
	Body string `json:"body"`
}

// IssueLinkRequest is the payload for creating a link between two issues.
type IssueLinkRequest struct {
	Type         NamedRef     `json:"type"`
	InwardIssue  KeyRef       `json:"inwardIssue"`
	OutwardIssue KeyRef       `json:"outwardIssue"`
	Comment      *CommentBody `json:"comment,omitempty"`
}

// NamedItem is the {id, name} shape shared by priorities, resolutions,
// versions, components and issue types in list responses.
type NamedItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectInfo is the subset of a project response used to seed the project
// lookup table.
type ProjectInfo struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// CreateMeta is the response shape of the issue createmeta endpoint.
type CreateMeta struct {
	Projects []struct {
		ID         string      `json:"id"`
		Key        string      `json:"key"`
		IssueTypes []NamedItem `json:"issuetypes"`
	} `json:"projects"`
}
