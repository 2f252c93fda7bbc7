package realtime

import (
	"context"
	"fmt"

	pubnub "github.com/pubnub/go"
)

// PubNubClient 只用到发布能力，方便测试替换
type PubNubClient interface {
	PublishMessage(channel string, message any) error
}

type pubnubClient struct {
	pn *pubnub.PubNub
}

func NewPubNubClient(publishKey, subscribeKey, secretKey string) PubNubClient {
	cfg := pubnub.NewConfig()
	cfg.PublishKey = publishKey
	cfg.SubscribeKey = subscribeKey
	cfg.SecretKey = secretKey
	return &pubnubClient{pn: pubnub.NewPubNub(cfg)}
}

func (c *pubnubClient) PublishMessage(channel string, message any) error {
	_, _, err := c.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	if err != nil {
		return fmt.Errorf("pubnub publish %s: %w", channel, err)
	}
	return nil
}

// PubNubPublisher 每个用户一个频道 user-<id>
type PubNubPublisher struct {
	client PubNubClient
}

func NewPubNubPublisher(client PubNubClient) *PubNubPublisher {
	return &PubNubPublisher{client: client}
}

func UserChannel(identity string) string {
	return "user-" + identity
}

func (p *PubNubPublisher) Publish(ctx context.Context, identity string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.client.PublishMessage(UserChannel(identity), map[string]any{
		"type": msg.Event,
		"data": msg.Data,
	})
}
