package azdo

import "strings"

// FilterProjects returns the projects whose name contains query, matched
// case-insensitively. An empty query keeps the full list.
func FilterProjects(projects []Project, query string) []Project {
	if query == "" {
		return projects
	}
	q := strings.ToLower(query)

	var matches []Project
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Name), q) {
			matches = append(matches, p)
		}
	}
	return matches
}
