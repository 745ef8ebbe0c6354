package services

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/chachabrian/kwikliner/internal/models"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// InitFirebase returns a Cloud Messaging client, or nil when no service
// account is configured.
func InitFirebase(ctx context.Context, serviceAccountPath string, logger *zap.Logger) (*messaging.Client, error) {
	if serviceAccountPath == "" {
		logger.Warn("FIREBASE_SERVICE_ACCOUNT_PATH not set, push notifications disabled")
		return nil, nil
	}

	opt := option.WithCredentialsFile(serviceAccountPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %v", err)
	}

	logger.Info("Firebase Cloud Messaging initialized")
	return client, nil
}

// MulticastSender is the part of *messaging.Client the notifier uses.
type MulticastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// TokenStore resolves a driver's registered devices.
type TokenStore interface {
	Tokens(ctx context.Context, driverID string) ([]string, error)
	Remove(ctx context.Context, token string) error
}

// PushNotifier sends negotiation notices to a driver's phones.
type PushNotifier struct {
	sender MulticastSender
	tokens TokenStore
	logger *zap.Logger
}

func NewPushNotifier(sender MulticastSender, tokens TokenStore, logger *zap.Logger) *PushNotifier {
	return &PushNotifier{sender: sender, tokens: tokens, logger: logger}
}

func (p *PushNotifier) Notify(ctx context.Context, driverID string, notice models.Notice) error {
	tokens, err := p.tokens.Tokens(ctx, driverID)
	if err != nil {
		return fmt.Errorf("lookup device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	message := noticeMessage(notice, tokens)
	response, err := p.sender.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast message: %v", err)
	}

	if response.FailureCount > 0 {
		for idx, resp := range response.Responses {
			if resp.Success {
				continue
			}
			if messaging.IsUnregistered(resp.Error) {
				if err := p.tokens.Remove(ctx, tokens[idx]); err != nil {
					p.logger.Warn("remove stale device token", zap.String("driverId", driverID), zap.Error(err))
				}
				continue
			}
			p.logger.Warn("push notification failed", zap.String("driverId", driverID), zap.Error(resp.Error))
		}
	}

	p.logger.Debug("push notification sent",
		zap.String("driverId", driverID),
		zap.Int("success", response.SuccessCount),
		zap.Int("failure", response.FailureCount))
	return nil
}

func noticeMessage(notice models.Notice, tokens []string) *messaging.MulticastMessage {
	data := map[string]string{
		"type": "negotiation_notice",
		"kind": notice.Kind,
	}
	if notice.LoadID != "" {
		data["loadId"] = notice.LoadID
	}

	priority := messaging.PriorityDefault
	if notice.Kind == models.NoticeError {
		priority = messaging.PriorityHigh
	}

	return &messaging.MulticastMessage{
		Notification: &messaging.Notification{
			Title: notice.Title,
			Body:  notice.Message,
		},
		Data:   data,
		Tokens: tokens,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID:    "kwikliner_loads",
				Priority:     priority,
				DefaultSound: true,
				Tag:          notice.LoadID,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound:          "default",
					MutableContent: true,
				},
			},
		},
	}
}
