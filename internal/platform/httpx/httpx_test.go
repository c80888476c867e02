package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/shared"
)

func TestProblemResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	Problem(rec, http.StatusConflict, "Conflict", "already filed")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ProblemDetail{Type: "about:blank", Title: "Conflict", Status: 409, Detail: "already filed"}, body)
}

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("x: %w", shared.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", shared.ErrConflict), http.StatusConflict},
		{fmt.Errorf("x: %w", shared.ErrInvalidInput), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("secret dsn"))
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestDecodeJSON(t *testing.T) {
	type input struct {
		Rate string `json:"rate"`
	}
	decode := func(body string) (input, error) {
		var in input
		req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
		return in, DecodeJSON(req, &in)
	}

	in, err := decode(`{"rate":"0.25"}`)
	require.NoError(t, err)
	assert.Equal(t, "0.25", in.Rate)

	_, err = decode(`{"rate":"0.25","extra":1}`)
	assert.Error(t, err)
	_, err = decode(`{"rate":"0.25"}{"rate":"0.3"}`)
	assert.Error(t, err)
	_, err = decode(`not json`)
	assert.Error(t, err)
}

func TestParams(t *testing.T) {
	r := chi.NewRouter()
	var (
		id     int64
		year   int
		hasY   bool
		strict bool
		errs   []error
	)
	r.Get("/c/{companyID}", func(w http.ResponseWriter, req *http.Request) {
		var err error
		id, err = PathInt64(req, "companyID")
		errs = append(errs, err)
		year, hasY, err = QueryInt(req, "year")
		errs = append(errs, err)
		strict, err = QueryBool(req, "strict")
		errs = append(errs, err)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/c/12?year=2024&strict=true", nil))
	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(12), id)
	assert.Equal(t, 2024, year)
	assert.True(t, hasY)
	assert.True(t, strict)

	errs = nil
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/c/0?year=x&strict=maybe", nil))
	require.Len(t, errs, 3)
	for _, err := range errs {
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	}
}
