package rmq

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"text2phenotype.com/kg/logger"
)

type Config struct {
	Enabled   bool   `envconfig:"KG_RMQ_ENABLED" default:"false"`
	Host      string `envconfig:"KG_RMQ_HOST" default:"localhost"`
	Port      string `envconfig:"KG_RMQ_PORT" default:"5672"`
	Username  string `envconfig:"KG_RMQ_USERNAME" default:"guest"`
	Password  string `envconfig:"KG_RMQ_PASSWORD" default:"guest"`
	Exchange  string `envconfig:"KG_RMQ_EXCHANGE" default:""`
	RunsQueue string `envconfig:"KG_RMQ_RUNS_QUEUE" default:"kg-runs"`
}

func ReadConfig() (Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	return config, err
}

// Client publishes run notifications to a durable queue.
type Client struct {
	ChanErrors <-chan *amqp.Error
	config     Config
	conn       *amqp.Connection
	channel    *amqp.Channel
	fdlLogger  *zerolog.Logger
}

func NewClient(config Config) (*Client, error) {
	fdlLogger := logger.NewLogger("RMQ client")

	conn, channel, err := setup(getURL(config))
	if err != nil {
		return nil, fmt.Errorf("failed connection: %s", err)
	}

	if _, err := channel.QueueDeclare(
		config.RunsQueue, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", config.RunsQueue, err)
	}
	if config.Exchange != "" {
		if err := channel.QueueBind(
			config.RunsQueue,
			config.RunsQueue,
			config.Exchange,
			false,
			nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("bind queue %s: %w", config.RunsQueue, err)
		}
	}

	fdlLogger.Info().
		Str("queue", config.RunsQueue).
		Str("exchange", config.Exchange).
		Msg("Connected to RabbitMQ")
	return &Client{
		ChanErrors: channel.NotifyClose(make(chan *amqp.Error, 1)),
		config:     config,
		conn:       conn,
		channel:    channel,
		fdlLogger:  &fdlLogger,
	}, nil
}

func (c *Client) Publish(msg amqp.Publishing) error {
	return c.channel.Publish(
		c.config.Exchange,
		c.config.RunsQueue,
		false,
		false,
		msg)
}

func (c *Client) Close() {
	if err := c.conn.Close(); err != nil {
		c.fdlLogger.Warn().Err(err).Msg("Failed to close connection")
	}
}

func getURL(config Config) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s", config.Username, config.Password, config.Host, config.Port)
}

func setup(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
