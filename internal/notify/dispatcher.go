package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"workhub/office-portal/office-portal-backend/internal/users"
)

// Event describes a completed workflow transition. Dispatch happens at the
// call site after the transition commits, never inside the workflow core.
type Event struct {
	DocumentID         uuid.UUID
	NewStatus          string
	AffectedApproverID uuid.UUID
}

// Dispatcher is fire-and-forget; delivery failures are the dispatcher's
// problem, not the workflow's.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

type sesDispatcher struct {
	client    *sesv2.Client
	directory users.Directory
	sender    string
	logger    *zap.Logger
}

func NewSESDispatcher(ctx context.Context, region, sender string, directory users.Directory, logger *zap.Logger) (Dispatcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &sesDispatcher{
		client:    sesv2.NewFromConfig(cfg),
		directory: directory,
		sender:    sender,
		logger:    logger.With(zap.String("service", "notify")),
	}, nil
}

func (d *sesDispatcher) Dispatch(ctx context.Context, event Event) error {
	if event.AffectedApproverID == uuid.Nil {
		return nil
	}

	user, err := d.directory.FindByID(ctx, event.AffectedApproverID)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("[Approval] Document %s is now %s", event.DocumentID, event.NewStatus)
	body := fmt.Sprintf("Document %s changed to %s. Please check your task list.", event.DocumentID, event.NewStatus)

	_, err = d.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(d.sender),
		Destination: &types.Destination{
			ToAddresses: []string{user.Email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		d.logger.Warn("failed to send approval notification",
			zap.String("document_id", event.DocumentID.String()),
			zap.String("recipient", user.Email),
			zap.Error(err))
		return err
	}
	return nil
}

// NopDispatcher is used when notifications are disabled.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(ctx context.Context, event Event) error {
	return nil
}
