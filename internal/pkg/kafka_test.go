package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKafkaProducer(t *testing.T) {
	_, err := NewKafkaProducer(KafkaConfig{Topic: "yatube.follow"})
	assert.Error(t, err)
	_, err = NewKafkaProducer(KafkaConfig{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	// 创建 writer 不会连接 broker
	p, err := NewKafkaProducer(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "yatube.follow"})
	require.NoError(t, err)
	assert.Equal(t, "yatube.follow", p.Topic())
	assert.NoError(t, p.Close())

	var nilProducer *KafkaProducer
	assert.NoError(t, nilProducer.Close())
}

func TestMakeKeyFromID(t *testing.T) {
	assert.Equal(t, "0", MakeKeyFromID(0))
	assert.Equal(t, "18446744073709551615", MakeKeyFromID(^uint64(0)))
}
