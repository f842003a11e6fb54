package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:    server.URL,
		ProjectID:  "fc-1",
		PublicKey:  "pk-test",
		MaxRetries: 2,
		HTTPClient: server.Client(),
		Backoff:    gax.Backoff{Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 1},
	})
	require.NoError(t, err)
	return client
}

func TestFetchRecordsSendsQueryAndDecodesData(t *testing.T) {
	var gotBody FetchParams
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/projects/fc-1/tables/product_c/records/fetch", r.URL.Path)
		assert.Equal(t, "fc-1", r.Header.Get(projectHeader))
		assert.Equal(t, "pk-test", r.Header.Get(keyHeader))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"success":true,"data":[{"Id":2},{"Id":1}]}`)
	})

	records, err := client.FetchRecords(context.Background(), "product_c", FetchParams{
		Fields:     Fields("Name", "price_c"),
		OrderBy:    []OrderBy{{FieldName: "Id", SortType: "DESC"}},
		PagingInfo: &PagingInfo{Limit: 100},
	})

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.JSONEq(t, `{"Id":2}`, string(records[0]))
	require.Len(t, gotBody.Fields, 2)
	assert.Equal(t, "price_c", gotBody.Fields[1].Field.Name)
}

func TestFetchRecordsUnsuccessfulEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"message":"table locked"}`)
	})

	_, err := client.FetchRecords(context.Background(), "category_c", FetchParams{})

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "table locked", failure.Message)
	assert.Equal(t, "category_c", failure.Table)
}

func TestFetchRecordsRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"data":[]}`)
	})

	records, err := client.FetchRecords(context.Background(), "promo_banner_c", FetchParams{})

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCreateRecordIsNotRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.CreateRecord(context.Background(), "product_c", map[string]any{"Name": "Kale"})

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, http.StatusServiceUnavailable, failure.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCreateRecordReturnsFirstSuccessfulResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string][]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Kale", body["records"][0]["Name"])
		_, _ = io.WriteString(w, `{"success":true,"results":[{"success":true,"data":{"Id":9,"Name":"Kale"}}]}`)
	})

	record, err := client.CreateRecord(context.Background(), "product_c", map[string]any{"Name": "Kale"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"Id":9,"Name":"Kale"}`, string(record))
}

func TestDeleteRecordFailedResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		_, _ = io.WriteString(w, `{"success":true,"results":[{"success":false,"message":"record is referenced"}]}`)
	})

	err := client.DeleteRecord(context.Background(), "category_c", 3)

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Contains(t, failure.Error(), "record is referenced")
}

func TestGetRecordByIDNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/projects/fc-1/tables/product_c/records/42", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"success":false,"message":"missing"}`)
	})

	_, err := client.GetRecordByID(context.Background(), "product_c", 42, nil)

	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.True(t, failure.NotFound())
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{ProjectID: "p"})
	assert.Error(t, err)
	_, err = NewClient(Config{BaseURL: "https://records.example.com"})
	assert.Error(t, err)
}
