package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	coachdomain "mindbody-backend/internal/coach/domain"
	coachdto "mindbody-backend/internal/coach/dto"
	"mindbody-backend/internal/coach/usecase"
	journalusecase "mindbody-backend/internal/journal/usecase"
	"mindbody-backend/pkg/ai"
	"mindbody-backend/pkg/recordstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type echoGenerator struct{}

func (echoGenerator) Generate(context.Context, string, ai.GenerateOptions) (string, error) {
	return "Take a breath.", nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *recordstore.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := recordstore.New(t.TempDir())
	journal, err := journalusecase.NewJournalUsecase(store)
	require.NoError(t, err)
	coach := usecase.NewCoachUsecase(store, journal, echoGenerator{}, coachdomain.Persona{Name: "Aria"})
	h := NewCoachHandler(coach)

	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		if u := c.GetHeader("X-Test-User"); u != "" {
			c.Set("userID", u)
		}
		c.Next()
	})
	api.POST("/coach/messages", h.SendMessage)
	api.GET("/coach/messages", h.History)
	api.DELETE("/coach/messages", h.ResetHistory)
	api.GET("/coach/weekly", h.Weekly)
	return r, store
}

func do(r *gin.Engine, method, path, user string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSendMessageAndHistory(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/coach/messages", "alice", map[string]string{"message": "Mi sento triste"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp coachdto.MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, coachdomain.ModuleMind, resp.Reply.Module)
	require.Equal(t, "Take a breath.", resp.Reply.Text)

	w = do(r, http.MethodGet, "/api/coach/messages", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history coachdto.HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Equal(t, "Aria", history.Persona)
	require.Len(t, history.Messages, 2)

	w = do(r, http.MethodDelete, "/api/coach/messages", "alice", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, http.MethodGet, "/api/coach/messages", "alice", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Empty(t, history.Messages)
}

func TestSendMessageRejectsBadInput(t *testing.T) {
	r, _ := newTestRouter(t)

	require.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/coach/messages", "alice", map[string]string{}).Code)
	require.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/api/coach/messages", "alice", map[string]string{"message": "   "}).Code)
	require.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/api/coach/messages", "", map[string]string{"message": "hi"}).Code)
}

func TestWeeklyEndpoint(t *testing.T) {
	r, store := newTestRouter(t)
	ctx := context.Background()

	w := do(r, http.MethodGet, "/api/coach/weekly", "bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp coachdto.WeeklyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Nil(t, resp.Report)
	require.Equal(t, coachdomain.ErrNotEnoughData.Error(), resp.Message)

	yesterday := time.Now().Add(-24 * time.Hour).Format(recordstore.TimestampLayout)
	_, err := store.Append(ctx, "bob", "workouts", []recordstore.Record{
		{"date": yesterday, "sport": "running", "duration_min": "30"},
	}, "manual")
	require.NoError(t, err)

	w = do(r, http.MethodGet, "/api/coach/weekly", "bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = coachdto.WeeklyResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Report)
	require.Equal(t, 1, resp.Report.Summary.Workouts)
	require.Contains(t, resp.Report.Text, "Take a breath.")

	_, err = store.Append(ctx, "carl", "workouts", []recordstore.Record{
		{"date": yesterday, "sport": "running", "length": "30"},
	}, "manual")
	require.NoError(t, err)
	w = do(r, http.MethodGet, "/api/coach/weekly", "carl", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), "length")
}
