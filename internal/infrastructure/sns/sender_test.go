package sns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

func TestSendSMS_PublishesToPhone(t *testing.T) {
	m := &mockPublisher{}
	m.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		attr, ok := in.MessageAttributes["AWS.SNS.SMS.SMSType"]
		return aws.ToString(in.PhoneNumber) == "+15550001111" &&
			aws.ToString(in.Message) == "Transfer tr-1 approved" &&
			ok && aws.ToString(attr.StringValue) == "Transactional"
	})).Return(&sns.PublishOutput{MessageId: aws.String("sns-1")}, nil)

	s := &Sender{client: m}
	id, err := s.SendSMS(context.Background(), "+15550001111", "Transfer tr-1 approved")

	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	m.AssertExpectations(t)
}

func TestSendSMS_Error(t *testing.T) {
	m := &mockPublisher{}
	m.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	_, err := (&Sender{client: m}).SendSMS(context.Background(), "+15550001111", "x")
	assert.ErrorContains(t, err, "throttled")
}
