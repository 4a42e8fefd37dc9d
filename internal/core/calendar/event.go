package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event is a normalized Google Calendar event
type Event struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

// EventsResult is the outward shape of ListEvents: exactly one of Events or
// Error is set.
type EventsResult struct {
	Error  *string `json:"error"`
	Events []Event `json:"events"`
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

// value prefers dateTime and falls back to date for all-day events
func (t eventTime) value() string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

type rawEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	EventType   string    `json:"eventType"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

type eventsResponse struct {
	Items *[]rawEvent `json:"items"`
}

// ParseError reports a calendar response that could not be turned into events
type ParseError struct {
	Err    error
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calendar response %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("calendar response %s: %s", e.Field, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseEventsResponse decodes an events.list body.
// Working-location entries and recurring-instance ids (containing '_') are
// dropped.
func ParseEventsResponse(body []byte) ([]Event, error) {
	var resp eventsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{Field: "body", Reason: "invalid json", Err: err}
	}
	if resp.Items == nil {
		return nil, &ParseError{Field: "items", Reason: "missing"}
	}

	events := make([]Event, 0, len(*resp.Items))
	for _, item := range *resp.Items {
		if item.EventType == "workingLocation" || strings.Contains(item.ID, "_") {
			continue
		}
		events = append(events, Event{
			ID:          item.ID,
			Summary:     item.Summary,
			Description: item.Description,
			StartTime:   item.Start.value(),
			EndTime:     item.End.value(),
		})
	}
	return events, nil
}
