package mattermost

import (
	"context"

	"bal-board/internal/i18n"
)

const noticeColor = "#1f6feb"

// Notifier posts localized board notices to one channel.
type Notifier struct {
	client    *Client
	channelID string
}

func NewNotifier(client *Client, channelID string) *Notifier {
	return &Notifier{client: client, channelID: channelID}
}

func (n *Notifier) Notify(ctx context.Context, messageID string, data map[string]any) error {
	_, err := n.client.CreatePost(ctx, &Post{
		ChannelID: n.channelID,
		Props: Props{
			Attachments: []Attachment{{
				Text:  i18n.T(ctx, messageID, data),
				Color: noticeColor,
			}},
		},
	})
	return err
}
