package azdo

import "time"

// workItemFields is the field list requested in batch reads. Requesting an
// explicit list keeps the payload small on large backlogs.
var workItemFields = []string{
	"System.Id",
	"System.Title",
	"System.WorkItemType",
	"System.State",
	"System.AssignedTo",
	"System.TeamProject",
	"System.AreaPath",
	"System.IterationPath",
	"System.CreatedDate",
	"System.ChangedDate",
	"Microsoft.VSTS.Scheduling.OriginalEstimate",
	"Microsoft.VSTS.Scheduling.StartDate",
	"Microsoft.VSTS.Scheduling.TargetDate",
	"Microsoft.VSTS.Common.ClosedDate",
}

// Project is a single entry from the organization project list.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	State       string `json:"state"`
}

// WorkItemDTO is a work item as returned by the batch read API. Azure DevOps
// flattens fields into a map keyed by reference name, which maps cleanly onto
// dotted JSON tags.
type WorkItemDTO struct {
	ID     int       `json:"id"`
	Rev    int       `json:"rev"`
	Fields FieldsDTO `json:"fields"`
}

// FieldsDTO contains the specific field reference names we request.
type FieldsDTO struct {
	Title            string      `json:"System.Title"`
	WorkItemType     string      `json:"System.WorkItemType"`
	State            string      `json:"System.State"`
	AssignedTo       IdentityDTO `json:"System.AssignedTo"`
	TeamProject      string      `json:"System.TeamProject"`
	AreaPath         string      `json:"System.AreaPath"`
	IterationPath    string      `json:"System.IterationPath"`
	CreatedDate      string      `json:"System.CreatedDate"`
	ChangedDate      string      `json:"System.ChangedDate"`
	OriginalEstimate float64     `json:"Microsoft.VSTS.Scheduling.OriginalEstimate"`
	StartDate        string      `json:"Microsoft.VSTS.Scheduling.StartDate"`
	TargetDate       string      `json:"Microsoft.VSTS.Scheduling.TargetDate"`
	ClosedDate       string      `json:"Microsoft.VSTS.Common.ClosedDate"`
}

// IdentityDTO is an Azure DevOps identity reference.
type IdentityDTO struct {
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName,omitempty"`
}

// UpdateDTO is a single revision from the work item updates API. Only
// revisions that touch a field we care about carry an entry for it in Fields.
type UpdateDTO struct {
	ID          int                       `json:"id"`
	Rev         int                       `json:"rev"`
	RevisedBy   IdentityDTO               `json:"revisedBy"`
	RevisedDate string                    `json:"revisedDate"`
	Fields      map[string]FieldUpdateDTO `json:"fields,omitempty"`
}

// FieldUpdateDTO is an old/new value pair for one field in one revision.
// Values are untyped because the same shape carries strings, numbers and
// identity objects.
type FieldUpdateDTO struct {
	OldValue interface{} `json:"oldValue,omitempty"`
	NewValue interface{} `json:"newValue,omitempty"`
}

// NewString returns the new value as a string, or "" when absent or not
// a string.
func (f FieldUpdateDTO) NewString() string {
	s, _ := f.NewValue.(string)
	return s
}

// ParseTime parses the RFC 3339 timestamps Azure DevOps emits.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
