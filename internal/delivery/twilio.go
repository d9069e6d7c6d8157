package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const whatsappPrefix = "whatsapp:"

type TwilioConfig struct {
	AccountSid     string
	AuthToken      string
	PhoneNumber    string
	WhatsappNumber string
}

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender sends a push as an SMS, or as a WhatsApp message when the
// token carries the "whatsapp:" prefix.
type TwilioSender struct {
	api            messageCreator
	phoneNumber    string
	whatsappNumber string
}

func NewTwilioSender(cfg TwilioConfig) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSid,
		Password: cfg.AuthToken,
	})

	return &TwilioSender{
		api:            client.Api,
		phoneNumber:    cfg.PhoneNumber,
		whatsappNumber: cfg.WhatsappNumber,
	}
}

func formatText(msg Message) string {
	text := msg.Notification.Title
	if msg.Notification.Body != "" {
		text += "\n" + msg.Notification.Body
	}

	return text
}

func (s *TwilioSender) Send(ctx context.Context, token string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(token)
	params.SetBody(formatText(msg))
	if strings.HasPrefix(token, whatsappPrefix) {
		if s.whatsappNumber == "" {
			return fmt.Errorf("no whatsapp sender number configured")
		}
		params.SetFrom(whatsappPrefix + s.whatsappNumber)
	} else {
		params.SetFrom(s.phoneNumber)
	}

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	if resp.ErrorMessage != nil {
		return fmt.Errorf("twilio: %s", *resp.ErrorMessage)
	}

	return nil
}
