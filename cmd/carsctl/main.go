package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"github.com/carqueue/carqueue/internal/cars"
	"github.com/carqueue/carqueue/internal/config"
	"github.com/carqueue/carqueue/internal/fixture"
	"github.com/carqueue/carqueue/internal/logging"
	"github.com/carqueue/carqueue/internal/queue"
	"github.com/carqueue/carqueue/internal/scenario"
)

func main() {
	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

var root = &cli.Command{
	Name:  "carsctl",
	Usage: "Run the cars queue scenario and act on the cars queue",
	Commands: []*cli.Command{
		run,
		send,
		receive,
		purge,
	},
}

var defaultFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "queue-name",
		Usage: "The queue name (CARQUEUE_QUEUE_NAME)",
	},
	&cli.StringFlag{
		Name:  "endpoint",
		Usage: "The queue service endpoint (CARQUEUE_ENDPOINT)",
	},
	&cli.StringFlag{
		Name:  "region",
		Usage: "The aws region to configure the client with (CARQUEUE_REGION)",
	},
	&cli.StringFlag{
		Name:  "log-level",
		Usage: "The log level (CARQUEUE_LOG_LEVEL)",
	},
	&cli.StringFlag{
		Name:  "log-format",
		Usage: "The log format, json or text (CARQUEUE_LOG_FORMAT)",
	},
	&cli.StringFlag{
		Name:  "fixture",
		Usage: "The cars fixture path, the bundled fixture if unset (CARQUEUE_FIXTURE_PATH)",
	},
}

// loadSettings reads CARQUEUE_* settings then overlays any flags that were set.
func loadSettings(c *cli.Command) (*config.Settings, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, err
	}
	for name, dst := range map[string]*string{
		"queue-name": &cfg.QueueName,
		"endpoint":   &cfg.Endpoint,
		"region":     &cfg.Region,
		"log-level":  &cfg.LogLevel,
		"log-format": &cfg.LogFormat,
		"fixture":    &cfg.FixturePath,
	} {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	if c.IsSet("mock-aws") {
		cfg.MockAWS = c.Bool("mock-aws")
	}
	if c.IsSet("log-dir") {
		cfg.LogDir = c.String("log-dir")
	}
	if c.IsSet("wait") {
		cfg.WaitTimeSeconds = int32(c.Duration("wait") / time.Second)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// connect builds a queue client for an already running service and resolves the queue.
func connect(ctx context.Context, cfg *config.Settings) (*queue.Client, error) {
	log, err := logging.New(logging.Options{
		Format: cfg.LogFormat,
		Level:  cfg.Level,
		Output: os.Stderr,
	})
	if err != nil {
		return nil, err
	}
	client, err := queue.NewClient(ctx, queue.Options{
		Endpoint:            cfg.Endpoint,
		Region:              cfg.Region,
		Logger:              log.Logger,
		MaxNumberOfMessages: aws.Int32(cfg.MaxNumberOfMessages),
		WaitTimeSeconds:     aws.Int32(cfg.WaitTimeSeconds),
	})
	if err != nil {
		return nil, err
	}
	if _, err = client.ResolveQueueURL(ctx, cfg.QueueName); err != nil {
		if queue.IsNotFound(err) {
			return nil, fmt.Errorf("queue %q does not exist at %s", cfg.QueueName, cfg.Endpoint)
		}
		return nil, err
	}
	return client, nil
}

var run = &cli.Command{
	Name:  "run",
	Usage: "Run the cars stream processing scenario end to end",
	Flags: append(defaultFlags,
		&cli.BoolFlag{
			Name:  "mock-aws",
			Usage: "Use the in process simulated backend instead of localstack (CARQUEUE_MOCK_AWS)",
			Value: true,
		},
		&cli.StringFlag{
			Name:  "log-dir",
			Usage: "A directory a debug level log file is written to (CARQUEUE_LOG_DIR)",
		},
		&cli.DurationFlag{
			Name:  "wait",
			Usage: "The receive long poll wait (CARQUEUE_WAIT_TIME_SECONDS)",
		},
	),
	Action: func(ctx context.Context, c *cli.Command) (err error) {
		cfg, err := loadSettings(c)
		if err != nil {
			return err
		}
		env, err := fixture.Setup(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, env.Teardown(context.WithoutCancel(ctx)))
		}()
		if err = scenario.Run(ctx, env); err != nil {
			return err
		}
		fmt.Println("PASS")
		return nil
	},
}

var send = &cli.Command{
	Name:  "send",
	Usage: "Send the cars fixture to a running queue service",
	Flags: append(defaultFlags,
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "The minimum time between sends",
		},
	),
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, err := loadSettings(c)
		if err != nil {
			return err
		}
		client, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		records, err := cars.Load(cfg.FixturePath)
		if err != nil {
			return err
		}
		limiter := rate.NewLimiter(rate.Inf, 1)
		if interval := c.Duration("interval"); interval > 0 {
			limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
		for _, car := range records {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			messageID, err := client.Send(ctx, car.Detail)
			if err != nil {
				return err
			}
			fmt.Println(messageID)
		}
		return nil
	},
}

var receive = &cli.Command{
	Name:  "receive",
	Usage: "Receive messages from a running queue service and print them as json",
	Flags: append(defaultFlags,
		&cli.BoolFlag{
			Name:  "delete",
			Usage: "Delete each message once printed",
		},
		&cli.DurationFlag{
			Name:  "wait",
			Usage: "The receive long poll wait (CARQUEUE_WAIT_TIME_SECONDS)",
		},
	),
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, err := loadSettings(c)
		if err != nil {
			return err
		}
		client, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		messages, err := client.Receive(ctx)
		if err != nil {
			return err
		}
		for _, message := range messages {
			if err := printMessage(os.Stdout, aws.ToString(message.MessageId), aws.ToString(message.Body)); err != nil {
				return err
			}
			if c.Bool("delete") {
				if err := client.Delete(ctx, aws.ToString(message.ReceiptHandle)); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

var purge = &cli.Command{
	Name:  "purge",
	Usage: "Purge every message from the queue",
	Flags: defaultFlags,
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, err := loadSettings(c)
		if err != nil {
			return err
		}
		client, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		return client.Purge(ctx)
	},
}

func printMessage(w io.Writer, messageID, body string) error {
	record := cars.Car{ID: messageID}
	if err := json.Unmarshal([]byte(body), &record.Detail); err != nil {
		_, err = fmt.Fprintf(w, "%s\t%s\n", messageID, body)
		return err
	}
	return json.NewEncoder(w).Encode(record)
}
