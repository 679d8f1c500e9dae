package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{fmt.Errorf("product 9: %w", ErrNotFound), http.StatusNotFound, ""},
		{fmt.Errorf("need 3, have 1: %w", ErrInsufficientStock), http.StatusBadRequest, "insufficient-stock"},
		{fmt.Errorf("inactive: %w", ErrInvalidState), http.StatusBadRequest, "invalid-state"},
		{fmt.Errorf("qty: %w", ErrBadRequest), http.StatusBadRequest, ""},
		{fmt.Errorf("name taken: %w", ErrDuplicate), http.StatusConflict, ""},
		{fmt.Errorf("serialization: %w", ErrConflict), http.StatusConflict, "conflict"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code, tc.err.Error())

		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.status, body.Status)
		assert.Equal(t, tc.kind, body.Type)
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("pq: password authentication failed"))
	require.NotContains(t, rec.Body.String(), "password")
}

type sample struct {
	Name string `json:"name" validate:"required,max=5"`
	Qty  int    `json:"qty" validate:"gte=1"`
}

func TestBindReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"toolong","qty":0}`))
	var s sample
	err := Bind(req, validator.New(), &s)
	require.ErrorIs(t, err, ErrValidation)

	rec := httptest.NewRecorder()
	RespondError(rec, err)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "max", body.Fields["Name"])
	assert.Equal(t, "gte", body.Fields["Qty"])
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	var s sample
	require.ErrorIs(t, DecodeJSON(req, &s), ErrBadRequest)
}
