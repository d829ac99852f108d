package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/erendikmenn/erenailab-blog/internal/config"
)

type fakeAPI struct {
	params []*twilioApi.CreateMessageParams
	err    error
}

func (f *fakeAPI) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestNewSelectsNotifier(t *testing.T) {
	assert.IsType(t, LogNotifier{}, New(config.TwilioConfig{}))
	assert.IsType(t, &TwilioNotifier{}, New(config.TwilioConfig{
		AccountSID: "AC123", AuthToken: "token", From: "+10000000000", To: "+10000000001",
	}))
}

func TestTwilioNotifierSendsMessage(t *testing.T) {
	api := &fakeAPI{}
	n := NewTwilioNotifier(api, "+100", "+200")

	require.NoError(t, n.Notify(context.Background(), "New contact message", "Ada: hello"))

	require.Len(t, api.params, 1)
	p := api.params[0]
	assert.Equal(t, "+100", *p.From)
	assert.Equal(t, "+200", *p.To)
	assert.Equal(t, "New contact message: Ada: hello", *p.Body)
}

func TestTwilioNotifierTruncatesBody(t *testing.T) {
	api := &fakeAPI{}
	n := NewTwilioNotifier(api, "+100", "+200")

	require.NoError(t, n.Notify(context.Background(), "Long", strings.Repeat("ğ", 1000)))
	assert.Equal(t, maxSMSBody, utf8.RuneCountInString(*api.params[0].Body))
}

func TestTwilioNotifierWrapsErrors(t *testing.T) {
	api := &fakeAPI{err: errors.New("unauthorized")}
	err := NewTwilioNotifier(api, "+100", "+200").Notify(context.Background(), "s", "b")
	assert.ErrorContains(t, err, "send sms")
}

type recordingNotifier struct {
	done chan string
}

func (r recordingNotifier) Notify(_ context.Context, subject, _ string) error {
	r.done <- subject
	return nil
}

func TestAsyncSurvivesCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := recordingNotifier{done: make(chan string, 1)}
	Async(ctx, r, "subject", "body")
	assert.Equal(t, "subject", <-r.done)
}
