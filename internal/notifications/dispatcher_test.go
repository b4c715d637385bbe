package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingChannel collects every notice it is asked to send
type recordingChannel struct {
	mu      sync.Mutex
	notices []Notice
	err     error
}

func (c *recordingChannel) Name() string { return "recording" }

func (c *recordingChannel) Send(_ context.Context, notice Notice) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, notice)
	return c.err
}

// MockSES is a mock implementation of SESAPI
type MockSES struct {
	mock.Mock
}

func (m *MockSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sesv2.SendEmailOutput), args.Error(1)
}

// MockSNS is a mock implementation of SNSAPI
type MockSNS struct {
	mock.Mock
}

func (m *MockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

func testNotice() Notice {
	return Notice{
		Recipient:      "owner@example.org",
		ProjectID:      "proj-1",
		ProjectName:    "Sundarbans Restoration",
		VerificationID: "VER-1",
		Decision:       "requires_review",
		Category:       "acceptable",
		Score:          61.25,
	}
}

func TestDispatcher_DeliversQueuedNotices(t *testing.T) {
	channel := &recordingChannel{}
	d := NewDispatcher(channel, zap.NewNop(), 10)
	d.Start(context.Background())

	assert.True(t, d.Enqueue(testNotice()))
	assert.True(t, d.Enqueue(testNotice()))
	d.Close()

	assert.Len(t, channel.notices, 2)
	assert.False(t, d.Enqueue(testNotice()), "closed dispatcher must reject notices")
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(&recordingChannel{}, zap.NewNop(), 1)

	// not started, so the single slot stays occupied
	assert.True(t, d.Enqueue(testNotice()))
	assert.False(t, d.Enqueue(testNotice()))
}

func TestDispatcher_SendFailureDoesNotStopLoop(t *testing.T) {
	channel := &recordingChannel{err: errors.New("provider down")}
	d := NewDispatcher(channel, zap.NewNop(), 10)
	d.Start(context.Background())

	d.Enqueue(testNotice())
	d.Enqueue(testNotice())
	d.Close()

	assert.Len(t, channel.notices, 2)
}

func TestNotice_Rendering(t *testing.T) {
	n := testNotice()

	assert.Equal(t, "Verification result for Sundarbans Restoration: Requires review", n.Subject())
	body := n.Body()
	assert.Contains(t, body, "VER-1")
	assert.Contains(t, body, "61.25/100 (acceptable)")
	assert.Contains(t, body, "A reviewer will examine")

	n.ProjectName = ""
	n.Decision = ""
	assert.Equal(t, "Verification result for your project: Pending", n.Subject())
}

func TestSESChannel_Send(t *testing.T) {
	client := new(MockSES)
	client.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *sesv2.SendEmailInput) bool {
		return *in.FromEmailAddress == "noreply@example.org" &&
			in.Destination.ToAddresses[0] == "owner@example.org" &&
			*in.Content.Simple.Subject.Data == testNotice().Subject()
	})).Return(&sesv2.SendEmailOutput{}, nil)

	ch := NewSESChannel(client, "noreply@example.org")
	require.NoError(t, ch.Send(context.Background(), testNotice()))
	client.AssertExpectations(t)

	n := testNotice()
	n.Recipient = ""
	assert.Error(t, ch.Send(context.Background(), n))
}

func TestSNSChannel_Send(t *testing.T) {
	client := new(MockSNS)
	client.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return *in.TopicArn == "arn:aws:sns:ap-south-1:123456789012:verifications"
	})).Return(nil, errors.New("throttled"))

	ch := NewSNSChannel(client, "arn:aws:sns:ap-south-1:123456789012:verifications")
	err := ch.Send(context.Background(), testNotice())
	assert.ErrorContains(t, err, "throttled")
	client.AssertExpectations(t)
}

func TestNewChannel_LogAndUnknown(t *testing.T) {
	ch, err := NewChannel(context.Background(), ChannelConfig{Provider: "log"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "log", ch.Name())

	_, err = NewChannel(context.Background(), ChannelConfig{Provider: "pigeon"}, zap.NewNop())
	assert.Error(t, err)
}
