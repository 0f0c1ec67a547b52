package ses

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/dealer-transfers-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	last          *ses.SendEmailInput
}

func (m *mockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.last = params
	return m.SendEmailFunc(ctx, params, optFns...)
}

func TestSendEmail_BuildsInput(t *testing.T) {
	m := &mockSESService{SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return &ses.SendEmailOutput{MessageId: aws.String("ses-123")}, nil
	}}
	s := &Sender{client: m, from: "noreply@dealer.com"}

	id, err := s.SendEmail(context.Background(), domain.EmailMessage{
		To: "a@x.com", Subject: "Transfer approved", HTML: "<b>ok</b>", Text: "ok",
	})
	require.NoError(t, err)
	assert.Equal(t, "ses-123", id)

	require.NotNil(t, m.last)
	assert.Equal(t, "noreply@dealer.com", aws.ToString(m.last.Source))
	assert.Equal(t, []string{"a@x.com"}, m.last.Destination.ToAddresses)
	assert.Equal(t, "Transfer approved", aws.ToString(m.last.Message.Subject.Data))
	assert.Equal(t, "<b>ok</b>", aws.ToString(m.last.Message.Body.Html.Data))
	assert.Equal(t, "ok", aws.ToString(m.last.Message.Body.Text.Data))
}

func TestSendEmail_TextOnlyOmitsHTML(t *testing.T) {
	m := &mockSESService{SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return &ses.SendEmailOutput{MessageId: aws.String("id")}, nil
	}}
	s := &Sender{client: m, from: "noreply@dealer.com"}

	_, err := s.SendEmail(context.Background(), domain.EmailMessage{To: "a@x.com", Subject: "s", Text: "plain"})
	require.NoError(t, err)
	assert.Nil(t, m.last.Message.Body.Html)
}

func TestSendEmail_ProviderError(t *testing.T) {
	m := &mockSESService{SendEmailFunc: func(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return nil, errors.New("MessageRejected: Email address is not verified")
	}}
	s := &Sender{client: m, from: "noreply@dealer.com"}

	_, err := s.SendEmail(context.Background(), domain.EmailMessage{To: "a@x.com"})
	assert.ErrorContains(t, err, "not verified")
}
