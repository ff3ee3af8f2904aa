package models

// WorkspaceSnapshot is the summary of the workspace handed to the intent
// extractor and used to validate project references before staging.
type WorkspaceSnapshot struct {
	Text     string
	Projects []string
}

// HasProject reports whether a project with the given name exists.
func (s *WorkspaceSnapshot) HasProject(name string) bool {
	for _, p := range s.Projects {
		if p == name {
			return true
		}
	}
	return false
}
