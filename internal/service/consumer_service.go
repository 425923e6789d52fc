package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// AgentEventDelivery pushes agent responses out to connected transports. The
// websocket hub implements it.
type AgentEventDelivery interface {
	Send(clientId string, event string, data interface{})
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process agent response topic and forwards
// each response to the websocket connection that owns the conversation. This
// is what lets REST-initiated agent messages show up on an open socket.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	delivery  AgentEventDelivery
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	delivery AgentEventDelivery,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		delivery:  delivery,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload AgentEventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal agent event: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.delivery.Send(payload.ClientId, "message_response", payload.Message)
	msg.Ack()
}
