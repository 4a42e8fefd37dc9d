package tickets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"Tether/internal/api/middleware"
	"Tether/internal/core/tickets"
	"Tether/internal/core/users"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ListTickets(ctx context.Context, userID string, maxResults int) (*tickets.TicketsResult, error) {
	args := m.Called(ctx, userID, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tickets.TicketsResult), args.Error(1)
}

func request(userID, rawQuery string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/tickets?"+rawQuery, nil)
	if userID == "" {
		return req
	}
	return req.WithContext(middleware.SetTestUserID(req.Context(), userID))
}

func TestHandleList_DefaultMaxResults(t *testing.T) {
	svc := new(mockService)
	svc.On("ListTickets", mock.Anything, "u1", 0).Return(&tickets.TicketsResult{
		Tickets: []tickets.Ticket{{ID: "10001", Key: "OPS-1", Summary: "Fix login", Assignee: "Unassigned"}},
	}, nil)
	h := NewListHandler(svc, nil)

	w := httptest.NewRecorder()
	h.HandleList(w, request("u1", ""))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"key":"OPS-1"`)
	assert.Contains(t, w.Body.String(), `"error":null`)
	svc.AssertExpectations(t)
}

func TestHandleList_PassesMaxResults(t *testing.T) {
	msg := "No Jira site linked to account"
	svc := new(mockService)
	svc.On("ListTickets", mock.Anything, "u1", 10).Return(&tickets.TicketsResult{Error: &msg}, nil)
	h := NewListHandler(svc, nil)

	w := httptest.NewRecorder()
	h.HandleList(w, request("u1", "maxResults=10"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"error":"No Jira site linked to account","tickets":null}`, w.Body.String())
}

func TestHandleList_Errors(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		query      string
		serviceErr error
		wantStatus int
	}{
		{name: "anonymous", wantStatus: http.StatusUnauthorized},
		{name: "non numeric", userID: "u1", query: "maxResults=ten", wantStatus: http.StatusBadRequest},
		{name: "zero", userID: "u1", query: "maxResults=0", wantStatus: http.StatusBadRequest},
		{name: "unknown user", userID: "ghost", serviceErr: users.ErrUserNotFound, wantStatus: http.StatusNotFound},
		{name: "store failure", userID: "u1", serviceErr: assert.AnError, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			if tt.serviceErr != nil {
				svc.On("ListTickets", mock.Anything, tt.userID, 0).Return(nil, tt.serviceErr)
			}
			h := NewListHandler(svc, nil)

			w := httptest.NewRecorder()
			h.HandleList(w, request(tt.userID, tt.query))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
