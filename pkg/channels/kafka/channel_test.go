package kafka_test

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/instaflow/pkg/channels/kafka"
	"github.com/stretchr/testify/assert"
)

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, kafka.ParseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, kafka.ParseBrokers(""))
}

func TestCreateChannel_RequiresBrokers(t *testing.T) {
	_, _, err := kafka.CreateChannel(watermill.NopLogger{}, nil, "instaflow")

	assert.ErrorIs(t, err, kafka.ErrNoBrokers)
}
