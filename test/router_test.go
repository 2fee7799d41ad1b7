package test

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kesher/internal/connection"
	connectionhandler "kesher/internal/connection/handler"
	"kesher/internal/identity"
	"kesher/internal/notification"
	"kesher/internal/platform/metrics"
	"kesher/internal/profileedit"
	profileedithandler "kesher/internal/profileedit/handler"
	"kesher/internal/shadchan"
	shadchanhandler "kesher/internal/shadchan/handler"
	"kesher/internal/suppression"
	suppressionhandler "kesher/internal/suppression/handler"
	httptransport "kesher/internal/transport/http"
	"kesher/internal/user"
	"kesher/internal/visibility"
	visibilityhandler "kesher/internal/visibility/handler"
	id "kesher/pkg/domain"
	"kesher/pkg/platform/tx"
	"kesher/pkg/testutil"
)

// testStack wires the full router over in-memory stores, the same shape
// main builds in production minus Postgres, Redis, and Kafka.
type testStack struct {
	router http.Handler
	users  *user.InMemoryStore
	jwt    *identity.JWTService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	m := metrics.NewForTest()
	users := user.NewInMemoryStore()
	recorder := notification.NewRecorder()
	connections := connection.NewInMemoryStore()

	connectionSvc := connection.NewService(connections, users, recorder, m, logger)
	visibilitySvc := visibility.NewService(visibility.NewInMemoryStore(), visibility.NoopCache{}, users, recorder, m, logger)
	profileEditSvc := profileedit.NewService(profileedit.NewInMemoryStore(), users, tx.Passthrough{}, recorder, m, logger)
	suppressionSvc := suppression.NewService(suppression.NewInMemoryStore(), logger)
	shadchanSvc := shadchan.NewService(connections, users, m, logger)

	router := httptransport.NewRouter(httptransport.Deps{
		Connections:  connectionhandler.New(connectionSvc, logger),
		Visibility:   visibilityhandler.New(visibilitySvc, logger),
		ProfileEdits: profileedithandler.New(profileEditSvc, logger),
		Suppressions: suppressionhandler.New(suppressionSvc, logger),
		Shadchan:     shadchanhandler.New(shadchanSvc, logger),

		JWTValidator: identity.NewJWTService("router-test-key"),
		Logger:       logger,
		Metrics:      m,
	})

	return &testStack{
		router: router,
		users:  users,
		jwt:    identity.NewJWTService("router-test-key"),
	}
}

func (s *testStack) seedUser(t *testing.T) id.UserID {
	t.Helper()
	u := &user.User{ID: id.NewUserID(), IsApproved: true}
	require.NoError(t, s.users.Save(context.Background(), u))
	return u.ID
}

func (s *testStack) token(t *testing.T, userID id.UserID, admin bool) string {
	t.Helper()
	token, err := s.jwt.GenerateAccessToken(userID, admin, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouterOperationalEndpoints(t *testing.T) {
	stack := newTestStack(t)

	testutil.Given(t, "the assembled HTTP router", func(t *testing.T) {
		testutil.When(t, "calling GET /healthz", func(t *testing.T) {
			rr := testutil.DoRequest(stack.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

			testutil.Then(t, "it reports healthy", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				testutil.AssertJSONContains(t, rr, "status", "ok")
			})
		})

		testutil.When(t, "calling GET /metrics", func(t *testing.T) {
			rr := testutil.DoRequest(stack.router, testutil.NewRequest(t, http.MethodGet, "/metrics"))

			testutil.Then(t, "it serves the Prometheus registry", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
			})
		})

		testutil.When(t, "calling a user route without a token", func(t *testing.T) {
			rr := testutil.DoRequest(stack.router, testutil.NewJSONRequest(t, http.MethodGet, "/connections", nil))

			testutil.Then(t, "it rejects the request", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusUnauthorized)
			})
		})

		testutil.When(t, "a non-admin calls a shadchan route", func(t *testing.T) {
			userID := stack.seedUser(t)
			req := testutil.NewRequest(t, http.MethodGet, "/shadchan/cases")
			req.Header.Set("Authorization", stack.token(t, userID, false))
			rr := testutil.DoRequest(stack.router, req)

			testutil.Then(t, "it rejects the request", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusForbidden)
			})
		})
	})
}

// TestRouterMatchFlow drives a full match through the real middleware chain:
// request, mutual approval, both final approvals, then the shadchan queue.
func TestRouterMatchFlow(t *testing.T) {
	stack := newTestStack(t)

	sender := stack.seedUser(t)
	receiver := stack.seedUser(t)
	admin := stack.seedUser(t)

	var connectionID string

	do := func(req *http.Request, as id.UserID, isAdmin bool) *connResponse {
		req.Header.Set("Authorization", stack.token(t, as, isAdmin))
		rr := testutil.DoRequest(stack.router, req)
		require.Less(t, rr.Code, 300, "unexpected status %d: %s", rr.Code, rr.Body.String())
		if rr.Body.Len() == 0 {
			return nil
		}
		return testutil.UnmarshalResponse[connResponse](t, rr)
	}

	created := do(testutil.NewJSONRequest(t, http.MethodPost, "/connections",
		map[string]string{"target_id": receiver.String()}), sender, false)
	require.Equal(t, "pending", created.Status)
	connectionID = created.ID

	approved := do(testutil.NewJSONRequest(t, http.MethodPost, "/connections/"+connectionID+"/respond",
		map[string]string{"decision": "approve"}), receiver, false)
	require.Equal(t, "mutual_interest", approved.Status)

	do(testutil.NewJSONRequest(t, http.MethodPost, "/connections/"+connectionID+"/final-approval", nil), sender, false)
	matched := do(testutil.NewJSONRequest(t, http.MethodPost, "/connections/"+connectionID+"/final-approval", nil), receiver, false)
	require.Equal(t, "waiting_for_shadchan", matched.Status)

	type caseList struct {
		Cases []map[string]any `json:"cases"`
	}

	casesReq := testutil.NewRequest(t, http.MethodGet, "/shadchan/cases")
	casesReq.Header.Set("Authorization", stack.token(t, admin, true))
	rr := testutil.DoRequest(stack.router, casesReq)
	testutil.AssertStatusOK(t, rr)
	cases := testutil.UnmarshalResponse[caseList](t, rr)
	require.Len(t, cases.Cases, 1)
	require.Equal(t, connectionID, cases.Cases[0]["connection_id"])

	handledReq := testutil.NewJSONRequest(t, http.MethodPost, "/shadchan/cases/"+connectionID+"/handled", nil)
	handledReq.Header.Set("Authorization", stack.token(t, admin, true))
	testutil.AssertStatusOK(t, testutil.DoRequest(stack.router, handledReq))

	casesReq = testutil.NewRequest(t, http.MethodGet, "/shadchan/cases")
	casesReq.Header.Set("Authorization", stack.token(t, admin, true))
	rr = testutil.DoRequest(stack.router, casesReq)
	testutil.AssertStatusOK(t, rr)
	require.Empty(t, testutil.UnmarshalResponse[caseList](t, rr).Cases)
}

type connResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
