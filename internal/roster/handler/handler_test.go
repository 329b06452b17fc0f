package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster/internal/roster/models"
	"roster/internal/roster/service"
	"roster/internal/roster/store/memory"
	"roster/pkg/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	svc := service.New(memory.New(), service.WithLogger(logger))
	h := New(svc, logger, nil, 5*time.Second)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func createPerson(t *testing.T, router http.Handler, name string) models.Person {
	t.Helper()
	rr := testutil.DoRequest(router,
		testutil.NewJSONRequest(t, http.MethodPost, "/people", map[string]string{"name": name}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return *testutil.UnmarshalResponse[models.Person](t, rr)
}

func insertDuty(t *testing.T, router http.Handler, person, rank, title, start string) string {
	t.Helper()
	rr := testutil.DoRequest(router,
		testutil.NewJSONRequest(t, http.MethodPost, "/people/"+url.PathEscape(person)+"/duties", map[string]string{
			"rank":       rank,
			"title":      title,
			"start_date": start,
		}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[map[string]string](t, rr)
	return (*resp)["segment_id"]
}

func TestCreatePerson(t *testing.T) {
	router := newTestRouter(t)

	t.Run("creates and returns the person", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPost, "/people", map[string]string{"name": "John Young"}))

		testutil.AssertStatus(t, rr, http.StatusCreated)
		person := testutil.UnmarshalResponse[models.Person](t, rr)
		assert.Equal(t, "John Young", person.Name)
		assert.NotEmpty(t, person.ID)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPost, "/people", map[string]string{"name": "john young"}))

		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})

	t.Run("rejects missing name", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPost, "/people", map[string]string{}))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewRequestWithBody(t, http.MethodPost, "/people", "{not json"))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestListPeople(t *testing.T) {
	router := newTestRouter(t)

	t.Run("empty roster returns empty list", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/people"))

		testutil.AssertStatusOK(t, rr)
		assert.JSONEq(t, "[]", string(testutil.ReadBody(t, rr)))
	})

	t.Run("lists people with snapshots", func(t *testing.T) {
		createPerson(t, router, "John Young")
		insertDuty(t, router, "John Young", "LT", "Pilot", "2020-01-10")

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/people"))

		testutil.AssertStatusOK(t, rr)
		people := testutil.UnmarshalResponse[[]models.PersonStatus](t, rr)
		require.Len(t, *people, 1)
		require.NotNil(t, (*people)[0].Snapshot)
		assert.Equal(t, "Pilot", *(*people)[0].Snapshot.CurrentTitle)
	})
}

func TestGetPerson(t *testing.T) {
	router := newTestRouter(t)
	createPerson(t, router, "John Young")

	t.Run("returns person with nil snapshot before first duty", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/people/John%20Young"))

		testutil.AssertStatusOK(t, rr)
		status := testutil.UnmarshalResponse[models.PersonStatus](t, rr)
		assert.Equal(t, "John Young", status.Person.Name)
		assert.Nil(t, status.Snapshot)
	})

	t.Run("unknown person is 404", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/people/Nobody"))

		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}

func TestRenamePerson(t *testing.T) {
	router := newTestRouter(t)
	person := createPerson(t, router, "John Young")

	t.Run("renames", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPut, "/people/"+person.ID.String(),
				map[string]string{"name": "John W. Young"}))

		testutil.AssertStatusOK(t, rr)

		rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/people/John%20W.%20Young"))
		testutil.AssertStatusOK(t, rr)
	})

	t.Run("invalid id is 400", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPut, "/people/not-a-uuid",
				map[string]string{"name": "X"}))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestInsertDuty(t *testing.T) {
	router := newTestRouter(t)
	createPerson(t, router, "John Young")

	t.Run("inserts and returns the segment id", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPost, "/people/John%20Young/duties", map[string]string{
				"rank":       "LT",
				"title":      "Pilot",
				"start_date": "2020-01-10",
			}))

		testutil.AssertStatus(t, rr, http.StatusCreated)
		testutil.AssertJSONHasKey(t, rr, "segment_id")
	})

	t.Run("unknown person is 404", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPost, "/people/Nobody/duties", map[string]string{
				"rank":       "LT",
				"title":      "Pilot",
				"start_date": "2020-01-10",
			}))

		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("duplicate duty is 409", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPost, "/people/John%20Young/duties", map[string]string{
				"rank":       "CAPT",
				"title":      "pilot",
				"start_date": "2020-01-10",
			}))

		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})

	t.Run("bad date is 400", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPost, "/people/John%20Young/duties", map[string]string{
				"rank":       "LT",
				"title":      "Pilot",
				"start_date": "10/01/2020",
			}))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})

	t.Run("missing fields are 400", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPost, "/people/John%20Young/duties", map[string]string{
				"title": "Pilot",
			}))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})
}

func TestListDuties(t *testing.T) {
	router := newTestRouter(t)
	createPerson(t, router, "John Young")
	insertDuty(t, router, "John Young", "LT", "Pilot", "2020-01-10")
	insertDuty(t, router, "John Young", "CAPT", "Commander", "2020-06-01")

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/people/John%20Young/duties"))

	testutil.AssertStatusOK(t, rr)
	duties := testutil.UnmarshalResponse[[]models.DutySegment](t, rr)
	require.Len(t, *duties, 2)
	assert.Equal(t, "Pilot", (*duties)[0].Title)
	assert.NotNil(t, (*duties)[0].End)
	assert.Nil(t, (*duties)[1].End)
}

func TestUpdateDuty(t *testing.T) {
	router := newTestRouter(t)
	createPerson(t, router, "John Young")
	segID := insertDuty(t, router, "John Young", "LT", "Pilot", "2020-01-10")

	t.Run("updates the segment", func(t *testing.T) {
		end := "2020-12-31"
		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPut, "/duties/"+segID, map[string]any{
				"rank":       "CAPT",
				"title":      "Pilot",
				"start_date": "2020-01-10",
				"end_date":   end,
			}))

		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})

	t.Run("end before start is 400", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewJSONRequest(t, http.MethodPut, "/duties/"+segID, map[string]any{
				"rank":       "CAPT",
				"title":      "Pilot",
				"start_date": "2020-01-10",
				"end_date":   "2019-01-01",
			}))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})
}

func TestRemoveDuty(t *testing.T) {
	router := newTestRouter(t)
	createPerson(t, router, "John Young")
	segID := insertDuty(t, router, "John Young", "LT", "Pilot", "2020-01-10")

	t.Run("deleting the only duty of a tracked person is 422", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewRequest(t, http.MethodDelete, "/duties/"+segID))

		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "invariant_violation")
	})

	t.Run("deleting one of several duties succeeds", func(t *testing.T) {
		insertDuty(t, router, "John Young", "CAPT", "Commander", "2020-06-01")

		rr := testutil.DoRequest(router,
			testutil.NewRequest(t, http.MethodDelete, "/duties/"+segID))

		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})

	t.Run("unknown segment is 404", func(t *testing.T) {
		rr := testutil.DoRequest(router,
			testutil.NewRequest(t, http.MethodDelete,
				fmt.Sprintf("/duties/%s", "00000000-0000-0000-0000-000000000001")))

		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	router := newTestRouter(t)

	req := testutil.NewRequest(t, http.MethodGet, "/people")
	req.Header.Set("X-Request-ID", "test-request-id")
	rr := testutil.DoRequest(router, req)

	assert.Equal(t, "test-request-id", rr.Header().Get("X-Request-ID"))
}
