package notify

import (
	"context"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// MessageSender is the part of the Firebase messaging client FCM uses.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCM publishes each event to a per-user Firebase Cloud Messaging topic so
// every device the user registered receives it.
type FCM struct {
	sender      MessageSender
	topicPrefix string
}

// NewFCM builds a Firebase messaging client from a service account file.
func NewFCM(ctx context.Context, credentialsFile, topicPrefix string) (*FCM, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("%w: fcm credentials file is required", ErrNotConfigured)
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}
	return NewFCMWithSender(client, topicPrefix), nil
}

// NewFCMWithSender wraps an existing sender.
func NewFCMWithSender(sender MessageSender, topicPrefix string) *FCM {
	if topicPrefix == "" {
		topicPrefix = "shelf-user-"
	}
	return &FCM{sender: sender, topicPrefix: topicPrefix}
}

func (f *FCM) Name() string { return "fcm" }

// Topic returns the topic for userID.
func (f *FCM) Topic(userID string) string {
	return f.topicPrefix + userID
}

func (f *FCM) Notify(ctx context.Context, e Event) error {
	b := e.Badge
	msg := &messaging.Message{
		Topic: f.Topic(e.UserID),
		Notification: &messaging.Notification{
			Title: "Badge earned: " + b.Title,
			Body:  b.Description,
		},
		Data: map[string]string{
			"badgeId":      b.ID,
			"metric":       string(b.Metric),
			"tier":         b.Tier.String(),
			"tierColor":    b.TierColor,
			"triggerValue": strconv.FormatInt(b.TriggerValue, 10),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
				Color: b.TierColor,
			},
		},
	}
	if _, err := f.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send fcm message: %w", err)
	}
	return nil
}
