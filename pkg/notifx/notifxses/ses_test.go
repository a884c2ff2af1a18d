package notifxses_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/notifx"
	"github.com/Abraxas-365/rewardwallet/pkg/notifx/notifxses"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

type fakeSES struct {
	in  *ses.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.in = in
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, f.err
}

func TestSendEmail_BuildsInput(t *testing.T) {
	api := &fakeSES{}
	p := notifxses.NewSESProvider(api, "alerts@example.com")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{
		To:       []string{"ops@example.com"},
		Subject:  "reconcile",
		TextBody: "bank leg done",
	}, notifx.WithTag("alert", "manual_reconciliation"))
	if err != nil {
		t.Fatal(err)
	}

	if aws.ToString(api.in.Source) != "alerts@example.com" {
		t.Fatalf("expected default sender, got %s", aws.ToString(api.in.Source))
	}
	if aws.ToString(api.in.Message.Body.Text.Data) != "bank leg done" || api.in.Message.Body.Html != nil {
		t.Fatalf("unexpected body: %+v", api.in.Message.Body)
	}
	if len(api.in.Tags) != 1 || aws.ToString(api.in.Tags[0].Value) != "manual_reconciliation" {
		t.Fatalf("expected alert tag, got %+v", api.in.Tags)
	}
}

func TestSendEmail_WrapsProviderError(t *testing.T) {
	p := notifxses.NewSESProvider(&fakeSES{err: errors.New("throttled")}, "a@example.com")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"b@example.com"}, Subject: "s"})
	if !errx.HasCode(err, notifxses.ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed, got %v", err)
	}
}
