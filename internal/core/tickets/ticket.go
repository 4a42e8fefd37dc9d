package tickets

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Ticket is a normalized Jira issue
type Ticket struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Assignee    string `json:"assignee"`
	Reporter    string `json:"reporter"`
	Created     string `json:"created"`
	Updated     string `json:"updated"`
	Priority    string `json:"priority"`
	IssueType   string `json:"issueType"`
}

// TicketsResult is the outward shape of ListTickets: exactly one of Tickets
// or Error is set.
type TicketsResult struct {
	Error   *string  `json:"error"`
	Tickets []Ticket `json:"tickets"`
}

type named struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type rawIssue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary     string          `json:"summary"`
		Description json.RawMessage `json:"description"`
		Status      *named          `json:"status"`
		Assignee    *named          `json:"assignee"`
		Reporter    *named          `json:"reporter"`
		Priority    *named          `json:"priority"`
		IssueType   *named          `json:"issuetype"`
		Created     string          `json:"created"`
		Updated     string          `json:"updated"`
	} `json:"fields"`
}

type searchResponse struct {
	Issues *[]rawIssue `json:"issues"`
}

// adfNode is the subset of Atlassian Document Format read when flattening
type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text"`
	Content []adfNode `json:"content"`
}

// ParseError reports a search response that could not be turned into tickets
type ParseError struct {
	Err    error
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jira response %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("jira response %s: %s", e.Field, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseSearchResponse decodes a Jira search body into tickets
func ParseSearchResponse(body []byte) ([]Ticket, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{Field: "body", Reason: "invalid json", Err: err}
	}
	if resp.Issues == nil {
		return nil, &ParseError{Field: "issues", Reason: "missing"}
	}

	tickets := make([]Ticket, 0, len(*resp.Issues))
	for _, issue := range *resp.Issues {
		f := issue.Fields
		tickets = append(tickets, Ticket{
			ID:          issue.ID,
			Key:         issue.Key,
			Summary:     f.Summary,
			Description: FlattenDescription(f.Description),
			Status:      nameOr(f.Status, false, "Unknown"),
			Assignee:    nameOr(f.Assignee, true, "Unassigned"),
			Reporter:    nameOr(f.Reporter, true, "Unknown"),
			Created:     f.Created,
			Updated:     f.Updated,
			Priority:    nameOr(f.Priority, false, "None"),
			IssueType:   nameOr(f.IssueType, false, "Unknown"),
		})
	}
	return tickets, nil
}

func nameOr(n *named, display bool, fallback string) string {
	if n == nil {
		return fallback
	}
	v := n.Name
	if display {
		v = n.DisplayName
	}
	if v == "" {
		return fallback
	}
	return v
}

// FlattenDescription turns an issue description into plain text.
// A JSON string is returned as is. An ADF document yields one line per
// top-level block: paragraphs contribute their inline text, anything else an
// empty line.
func FlattenDescription(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var doc adfNode
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Content == nil {
		return ""
	}

	lines := make([]string, 0, len(doc.Content))
	for _, block := range doc.Content {
		if block.Type != "paragraph" || block.Content == nil {
			lines = append(lines, "")
			continue
		}
		var b strings.Builder
		for _, inline := range block.Content {
			b.WriteString(inline.Text)
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}
