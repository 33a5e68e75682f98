package sms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/tacofish-app/tacofish-backend/internal/logger"
	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
)

// Код ошибки Twilio для невалидного номера получателя.
const twilioErrInvalidToNumber = 21211

// TwilioDispatcher отправляет SMS через Twilio Messaging API.
type TwilioDispatcher struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioDispatcher создаёт диспетчер. Таймаут ограничивает внешний вызов:
// зависший Twilio превращается в ошибку «попробуй позже», а не в вечное ожидание.
func NewTwilioDispatcher(accountSID, authToken, from string, timeout time.Duration) *TwilioDispatcher {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	if timeout > 0 {
		client.Client.SetTimeout(timeout)
	}

	return &TwilioDispatcher{client: client, from: from}
}

// Send отправляет сообщение. Невалидный номер и временные сбои
// различаются в ответе клиенту.
func (d *TwilioDispatcher) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeSmsDelivery, apperror.ErrSmsTryLater.Message)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(d.from)
	params.SetBody(body)

	_, err := d.client.Api.CreateMessage(params)
	if err == nil {
		return nil
	}

	logger.WithComponent("sms").WithError(err).Errorf("no se pudo enviar SMS a %s", to)

	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) && restErr.Code == twilioErrInvalidToNumber {
		return apperror.Wrap(err, apperror.ErrCodeSmsDelivery, apperror.ErrSmsInvalidNumber.Message)
	}

	return apperror.Wrap(fmt.Errorf("twilio: %w", err), apperror.ErrCodeSmsDelivery, apperror.ErrSmsTryLater.Message)
}
