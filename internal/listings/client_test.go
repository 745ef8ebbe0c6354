package listings

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chachabrian/kwikliner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorded struct {
	method, path, auth, key, body string
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			key:    r.Header.Get("Idempotency-Key"),
			body:   string(body),
		})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", 5*time.Second, zap.NewNop()), &calls
}

var driver = models.Driver{ID: "D1", Token: "tok"}

func TestClientListsJobs(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/jobs/available":
			json.NewEncoder(w).Encode([]map[string]any{
				{"id": "L1", "status": "Bidding Open", "bidder_ids": []string{"D2"}, "bids_count": 1, "price": "MWK 1,000"},
			})
		case "/api/drivers/D1/trips":
			json.NewEncoder(w).Encode([]map[string]any{
				{"id": "L2", "status": "In Transit", "assigned_driver_id": "D1"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	available, err := c.AvailableJobs(context.Background(), driver)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, models.Load{ID: "L1", Status: models.LoadStatusBiddingOpen, BidderIDs: []string{"D2"}, BidsCount: 1, Price: "MWK 1,000"}, available[0])

	trips, err := c.DriverTrips(context.Background(), driver)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "D1", trips[0].AssignedDriverID)
	assert.Equal(t, models.LoadStatusInTransit, trips[0].Status)

	assert.Equal(t, "Bearer tok", (*calls)[0].auth)
	assert.Empty(t, (*calls)[0].key)
}

func TestClientMutations(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"ok"}`))
	})
	ctx := context.Background()

	require.NoError(t, c.SubmitBid(ctx, driver, "L9", "MWK 120000", "k1"))
	require.NoError(t, c.DriverCommit(ctx, driver, "L9", models.DecisionDecline, "Too far", "k2"))
	require.NoError(t, c.DriverCommit(ctx, driver, "L9", models.DecisionCommit, "", "k3"))
	require.NoError(t, c.UpdateStatus(ctx, driver, "L9", models.LoadStatusInTransit, "k4"))

	require.Len(t, *calls, 4)
	assert.Equal(t, recorded{http.MethodPost, "/api/jobs/L9/bids", "Bearer tok", "k1", `{"amount":"MWK 120000"}`}, (*calls)[0])
	assert.Equal(t, recorded{http.MethodPost, "/api/jobs/L9/driver-commit", "Bearer tok", "k2", `{"decision":"DECLINE","reason":"Too far"}`}, (*calls)[1])
	assert.Equal(t, `{"decision":"COMMIT"}`, (*calls)[2].body)
	assert.Equal(t, recorded{http.MethodPatch, "/api/jobs/L9/status", "Bearer tok", "k4", `{"status":"In Transit"}`}, (*calls)[3])
}

func TestClientStatusError(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"load withdrawn"}`))
	})

	err := c.SubmitBid(context.Background(), driver, "L1", "MWK 5", "k")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.StatusCode)
	assert.Equal(t, "load withdrawn", se.Message)
}

func TestClientBadJSON(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := c.AvailableJobs(context.Background(), driver)
	assert.Error(t, err)
}
