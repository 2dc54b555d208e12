// Package gochannel provides an in-process event channel for single binary
// deployments and tests.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// DefaultBuffer is the output buffer of each subscription.
const DefaultBuffer = 1000

// CreateChannel returns one GoChannel acting as both publisher and
// subscriber. Messages published before anyone subscribes are lost.
func CreateChannel(logger watermill.LoggerAdapter, buffer int64) (*gochannel.GoChannel, *gochannel.GoChannel) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            buffer,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)

	return pubSub, pubSub
}

// CreateTestChannel blocks publishers until the subscriber acks, so tests
// observe handler effects right after Publish returns.
func CreateTestChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel) {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            10,
			Persistent:                     true,
			BlockPublishUntilSubscriberAck: true,
		},
		logger,
	)

	return pubSub, pubSub
}
