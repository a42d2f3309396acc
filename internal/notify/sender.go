package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"stokpanel-backend/internal/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Message: Tedarikçiye gönderilecek bildirim.
type Message struct {
	ID       string            `json:"id"` // izleme için benzersiz mesaj kimliği
	Method   models.CommMethod `json:"method"`
	Contact  string            `json:"contact"` // e-posta adresi veya telefon numarası
	Supplier string            `json:"supplier"`
	Body     string            `json:"body"`
}

// Sender: Bildirim collaborator'ı. Gönderim başarısı/başarısızlığı çağırana döner,
// içeride retry yapılmaz; tekrar denemek UI'ın kararıdır.
type Sender interface {
	Send(msg Message) error
}

// Default: Uygulama genelinde kullanılan gönderici. Testler kendi sahte
// göndericilerini buraya takar.
var Default Sender = &LogSender{}

// Configure: Webhook URL tanımlıysa webhook göndericiyi, değilse log göndericiyi kurar.
func Configure(webhookURL string) {
	if webhookURL == "" {
		Default = &LogSender{}
		log.Info("Bildirim webhook'u tanımlı değil, gönderimler sadece loglanacak")
		return
	}
	Default = &WebhookSender{
		URL:    webhookURL,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Dispatch: Talep için seçilen tüm kanallara gönderim yapar. Herhangi bir kanal
// başarısız olursa sonuç failed'dır; kısmi başarı ayrıca loglanır.
func Dispatch(supplier models.Supplier, methods []models.CommMethod, body string) models.RequestSendStatus {
	status := models.RequestSendSent
	for _, method := range methods {
		contact := contactFor(supplier, method)
		if contact == "" {
			log.Warnf("Tedarikçi %q için %s kanalında iletişim bilgisi yok", supplier.Name, method)
			status = models.RequestSendFailed
			continue
		}

		msg := Message{
			ID:       uuid.NewString(),
			Method:   method,
			Contact:  contact,
			Supplier: supplier.Name,
			Body:     body,
		}
		if err := Default.Send(msg); err != nil {
			log.Warnf("Bildirim gönderilemedi (%s, %s): %v", supplier.Name, method, err)
			status = models.RequestSendFailed
		}
	}
	return status
}

func contactFor(supplier models.Supplier, method models.CommMethod) string {
	switch method {
	case models.CommMethodEmail:
		return supplier.Email
	case models.CommMethodSMS:
		return supplier.Phone
	case models.CommMethodWhatsApp:
		return supplier.WhatsApp
	}
	return ""
}

// LogSender: Geliştirme ortamı için gönderici; mesajı sadece loglar.
type LogSender struct{}

func (s *LogSender) Send(msg Message) error {
	log.WithFields(log.Fields{
		"message_id": msg.ID,
		"method":     msg.Method,
		"contact":    msg.Contact,
		"supplier":   msg.Supplier,
	}).Info("Bildirim gönderildi (log sender)")
	return nil
}

// WebhookSender: Bildirimi dış servise HTTP POST ile iletir.
type WebhookSender struct {
	URL    string
	Client *http.Client
}

func (s *WebhookSender) Send(msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("bildirim serileştirilemedi: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTP isteği oluşturulamadı: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP isteği başarısız: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("bildirim servisi hata döndü: %d", resp.StatusCode)
	}
	return nil
}
