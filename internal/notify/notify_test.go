package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrevoSender_PostsTransactionalEmail(t *testing.T) {
	var got brevoRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-123", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<abc>"}`))
	}))
	defer srv.Close()

	s := NewBrevoSender(BrevoConfig{APIKey: "key-123", APIURL: srv.URL, SenderEmail: "no@x.com", SenderName: "Saturn"})
	err := s.SendEmail(context.Background(), Email{To: "u@x.com", Subject: "Hi", HTML: "<p>hi</p>"})
	require.NoError(t, err)

	assert.Equal(t, "no@x.com", got.Sender.Email)
	require.Len(t, got.To, 1)
	assert.Equal(t, "u@x.com", got.To[0].Email)
	assert.Equal(t, "Hi", got.Subject)
}

func TestBrevoSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthorized"}`))
	}))
	defer srv.Close()

	s := NewBrevoSender(BrevoConfig{APIKey: "bad", APIURL: srv.URL})
	err := s.SendEmail(context.Background(), Email{To: "u@x.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestBrevoSender_RespectsContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := NewBrevoSender(BrevoConfig{APIURL: srv.URL})
	err := s.SendEmail(ctx, Email{To: "u@x.com"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFCMSender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key=server", r.Header.Get("Authorization"))
		var req fcmRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.To == "bad-token" {
			_, _ = w.Write([]byte(`{"success":0,"failure":1,"results":[{"error":"InvalidRegistration"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":1,"failure":0}`))
	}))
	defer srv.Close()

	s := NewFCMSender("server", srv.URL)
	require.NoError(t, s.SendPush(context.Background(), Push{Token: "good", Title: "t", Body: "b"}))

	err := s.SendPush(context.Background(), Push{Token: "bad-token"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidRegistration")
}

func TestUnconfigured(t *testing.T) {
	assert.ErrorIs(t, Unconfigured{}.SendPush(context.Background(), Push{}), ErrNotConfigured)
	assert.NoError(t, LogSender{}.SendEmail(context.Background(), Email{}))
}
