package notify

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/baxromumarov/job-alerts/internal/posting"
)

const DefaultVoiceMessage = "This is your job poller. A new position was just published matching your interests. Check your inbox!"

type VoiceConfig struct {
	AccountSID  string
	AuthToken   string
	From        string
	To          string
	CallbackURL string
}

// callCreator is satisfied by *twilioApi.ApiService.
type callCreator interface {
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
}

// Voice places one phone call per source and cycle, so a burst of postings
// rings the phone once. Twilio fetches CallbackURL for the spoken message.
type Voice struct {
	cfg    VoiceConfig
	calls  callCreator
	logger *slog.Logger
}

func NewVoice(cfg VoiceConfig, logger *slog.Logger) (*Voice, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" || cfg.To == "" || cfg.CallbackURL == "" {
		return nil, fmt.Errorf("voice: account sid, auth token, from, to and callback url are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &Voice{cfg: cfg, calls: client.Api, logger: logger}, nil
}

func (v *Voice) Alert(ctx context.Context, sourceID string, notified []posting.Posting) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &twilioApi.CreateCallParams{}
	params.SetTo(v.cfg.To)
	params.SetFrom(v.cfg.From)
	params.SetUrl(v.cfg.CallbackURL)
	params.SetMachineDetection("Enable")

	call, err := v.calls.CreateCall(params)
	if err != nil {
		return fmt.Errorf("voice call for %s: %w", sourceID, err)
	}
	sid := ""
	if call != nil && call.Sid != nil {
		sid = *call.Sid
	}
	v.logger.Info("voice alert placed", "source", sourceID, "postings", len(notified), "call_sid", sid)
	return nil
}

type twimlResponse struct {
	XMLName xml.Name  `xml:"Response"`
	Say     string    `xml:"Say"`
	Hangup  *struct{} `xml:"Hangup"`
}

// TwiMLHandler answers Twilio's callback with a spoken message and a hangup.
func TwiMLHandler(message string) http.HandlerFunc {
	if message == "" {
		message = DefaultVoiceMessage
	}
	body, _ := xml.Marshal(twimlResponse{Say: message, Hangup: &struct{}{}})
	body = append([]byte(xml.Header), body...)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}
