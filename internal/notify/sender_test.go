package notify

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"stokpanel-backend/internal/models"

	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent    []Message
	failFor models.CommMethod
}

func (s *recordingSender) Send(msg Message) error {
	s.sent = append(s.sent, msg)
	if s.failFor != "" && msg.Method == s.failFor {
		return errors.New("kanal kapalı")
	}
	return nil
}

func TestDispatchSendsToAllChannels(t *testing.T) {
	sender := &recordingSender{}
	prev := Default
	Default = sender
	defer func() { Default = prev }()

	supplier := models.Supplier{
		Name:     "Anadolu Gıda",
		Email:    "siparis@anadolu.example",
		Phone:    "+905551112233",
		WhatsApp: "+905551112233",
	}
	status := Dispatch(supplier, []models.CommMethod{
		models.CommMethodEmail, models.CommMethodSMS, models.CommMethodWhatsApp,
	}, "50 koli zeytinyağı")

	require.Equal(t, models.RequestSendSent, status)
	require.Len(t, sender.sent, 3)
	require.Equal(t, "siparis@anadolu.example", sender.sent[0].Contact)
	require.Equal(t, "+905551112233", sender.sent[1].Contact)
	require.NotEmpty(t, sender.sent[0].ID)
	require.NotEqual(t, sender.sent[0].ID, sender.sent[1].ID)
}

func TestDispatchMissingContactIsFailed(t *testing.T) {
	sender := &recordingSender{}
	prev := Default
	Default = sender
	defer func() { Default = prev }()

	supplier := models.Supplier{Name: "Anadolu Gıda", Email: "siparis@anadolu.example"}
	status := Dispatch(supplier, []models.CommMethod{
		models.CommMethodEmail, models.CommMethodSMS,
	}, "test")

	// SMS için telefon yok: sonuç failed, e-posta yine de gönderilir
	require.Equal(t, models.RequestSendFailed, status)
	require.Len(t, sender.sent, 1)
	require.Equal(t, models.CommMethodEmail, sender.sent[0].Method)
}

func TestDispatchPartialFailureIsFailed(t *testing.T) {
	sender := &recordingSender{failFor: models.CommMethodSMS}
	prev := Default
	Default = sender
	defer func() { Default = prev }()

	supplier := models.Supplier{
		Name: "Anadolu Gıda", Email: "siparis@anadolu.example", Phone: "+905551112233",
	}
	status := Dispatch(supplier, []models.CommMethod{
		models.CommMethodEmail, models.CommMethodSMS,
	}, "test")

	require.Equal(t, models.RequestSendFailed, status)
	require.Len(t, sender.sent, 2)
}

func TestWebhookSenderPostsJSON(t *testing.T) {
	var received Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := &WebhookSender{URL: server.URL, Client: server.Client()}
	err := sender.Send(Message{
		ID: "msg-1", Method: models.CommMethodEmail,
		Contact: "siparis@anadolu.example", Supplier: "Anadolu Gıda", Body: "test",
	})
	require.NoError(t, err)
	require.Equal(t, "msg-1", received.ID)
	require.Equal(t, "Anadolu Gıda", received.Supplier)
}

func TestWebhookSenderRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sender := &WebhookSender{URL: server.URL, Client: server.Client()}
	err := sender.Send(Message{ID: "msg-1", Method: models.CommMethodEmail})
	require.Error(t, err)
}
