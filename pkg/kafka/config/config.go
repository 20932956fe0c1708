package kafka_config

import (
	"fmt"
	"time"
)

const (
	DefaultClientID       = "portfolio"
	DefaultCompression    = "snappy"
	DefaultRequireAcks    = -1
	DefaultMaxAttempts    = 3
	DefaultBatchTimeout   = 10 * time.Millisecond
	DefaultWriteTimeout   = 5 * time.Second
	DefaultProducerAsync  = false
	DefaultPublishTimeout = 3 * time.Second
)

// Config holds producer settings. Brokers come from the service config;
// the remaining fields have fixed defaults suited to low-volume event streams.
type Config struct {
	Brokers              []string
	ClientID             string
	ProducerCompression  string
	ProducerRequireAcks  int
	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerWriteTimeout time.Duration
	ProducerAsync        bool
	PublishTimeout       time.Duration
}

func New(brokers []string, clientID string) *Config {
	if clientID == "" {
		clientID = DefaultClientID
	}
	return &Config{
		Brokers:              brokers,
		ClientID:             clientID,
		ProducerCompression:  DefaultCompression,
		ProducerRequireAcks:  DefaultRequireAcks,
		ProducerMaxAttempts:  DefaultMaxAttempts,
		ProducerBatchTimeout: DefaultBatchTimeout,
		ProducerWriteTimeout: DefaultWriteTimeout,
		ProducerAsync:        DefaultProducerAsync,
		PublishTimeout:       DefaultPublishTimeout,
	}
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("at least one broker is required")
	}
	for i, broker := range c.Brokers {
		if broker == "" {
			return fmt.Errorf("broker %d cannot be empty", i)
		}
	}
	if c.ProducerMaxAttempts < 1 {
		return fmt.Errorf("producer max attempts must be at least 1")
	}
	return nil
}
