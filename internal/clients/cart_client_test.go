package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartClientAddItem(t *testing.T) {
	var got CartItem
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/carts/cart-9/items", r.URL.Path)
		assert.Equal(t, "tenant-1", r.Header.Get("X-Tenant-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"itemCount":1}}`))
	}))
	defer server.Close()

	client := NewCartClient(server.URL + "/")
	resp, err := client.AddItem(context.Background(), "tenant-1", "cart-9", CartItem{
		ProductID: "p-1",
		Size:      "M",
		Color:     "black",
		Quantity:  2,
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `{"itemCount":1}`, string(resp.Data))
	assert.Equal(t, "M", got.Size)
	assert.Equal(t, 2, got.Quantity)
}

func TestCartClientAddItemErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cart locked", http.StatusConflict)
	}))
	defer server.Close()

	client := NewCartClient(server.URL)

	_, err := client.AddItem(context.Background(), "tenant-1", "cart-9", CartItem{ProductID: "p-1", Quantity: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "cart locked")

	_, err = client.AddItem(context.Background(), "tenant-1", "", CartItem{ProductID: "p-1", Quantity: 1})
	assert.EqualError(t, err, "cart id is required")
}

func TestCartClientEscapesCartID(t *testing.T) {
	var rawPath, rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawPath = r.URL.EscapedPath()
		rawQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := NewCartClient(server.URL)
	_, err := client.AddItem(context.Background(), "tenant-1", "other-cart/items?x=", CartItem{ProductID: "p-1", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/carts/other-cart%2Fitems%3Fx=/items", rawPath)
	assert.Empty(t, rawQuery)

	for _, id := range []string{".", ".."} {
		_, err = client.AddItem(context.Background(), "tenant-1", id, CartItem{ProductID: "p-1", Quantity: 1})
		assert.Error(t, err, id)
	}
}

func TestCartClientAddItemEmptyReply(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewCartClient(server.URL)
	resp, err := client.AddItem(context.Background(), "tenant-1", "cart-9", CartItem{ProductID: "p-1", Quantity: 1})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, hits)
}
