// mqttwatch - MQTT Event Logging and Flood Detection
// Copyright 2026 blwfish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/blwfish/mqttwatch

// Package mqtt runs the broker subscription. The subscriber is a
// supervised service: broker outages are ridden out by the client's
// auto-reconnect, a failed subscribe restarts just this service, and an
// unusable event store terminates the whole process so the operator sees
// it immediately.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/thejerf/suture/v4"

	"github.com/blwfish/mqttwatch/internal/config"
	"github.com/blwfish/mqttwatch/internal/logging"
	"github.com/blwfish/mqttwatch/internal/metrics"
	"github.com/blwfish/mqttwatch/internal/pipeline"
)

// disconnectQuiesceMs is how long Disconnect waits for in-flight work.
const disconnectQuiesceMs = 250

// Subscriber connects to the broker, subscribes to the configured
// topic filter, and feeds every message to the pipeline. It implements
// suture.Service.
type Subscriber struct {
	cfg      *config.BrokerConfig
	pipeline *pipeline.Pipeline
}

// NewSubscriber creates a subscriber over the given pipeline.
func NewSubscriber(cfg *config.BrokerConfig, p *pipeline.Pipeline) *Subscriber {
	return &Subscriber{
		cfg:      cfg,
		pipeline: p,
	}
}

// messageHandler feeds messages to the pipeline in publish order on the
// client's single goroutine, which is what keeps store row IDs aligned
// with arrival. A pipeline error means the store is unusable: it goes to
// fatal joined with suture.ErrTerminateSupervisorTree, because restarting
// the subscriber cannot fix a full disk.
func (s *Subscriber) messageHandler(ctx context.Context, fatal chan<- error) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, m pahomqtt.Message) {
		// One bad message must not take down the subscription; the
		// handler runs on the client's goroutine where a panic would.
		defer func() {
			if r := recover(); r != nil {
				logging.Error().Interface("panic", r).Str("topic", m.Topic()).Msg("panic handling message")
			}
		}()

		err := s.pipeline.Handle(ctx, pipeline.Message{
			Topic:    m.Topic(),
			Payload:  m.Payload(),
			QoS:      m.Qos(),
			Retained: m.Retained(),
		})
		if err != nil {
			select {
			case fatal <- errors.Join(err, suture.ErrTerminateSupervisorTree):
			default:
			}
		}
	}
}

// connectHandler subscribes after every (re)connect. Clean sessions lose
// subscriptions across reconnects, so the subscribe cannot run just once.
//
// A subscribe failure is reported as a plain error: it is usually the
// connection dropping while the SUBACK was in flight, and a supervised
// restart (or the next reconnect) retries it. It never takes down the
// tree.
func (s *Subscriber) connectHandler(handler pahomqtt.MessageHandler, fatal chan<- error) pahomqtt.OnConnectHandler {
	return func(c pahomqtt.Client) {
		metrics.BrokerConnects.Inc()
		logging.Info().
			Str("broker", s.cfg.Host).
			Int("port", s.cfg.Port).
			Str("filter", s.cfg.TopicFilter).
			Msg("connected to broker, subscribing")

		token := c.Subscribe(s.cfg.TopicFilter, byte(s.cfg.QoS), handler)
		token.Wait()
		if err := token.Error(); err != nil {
			logging.Error().Err(err).Str("filter", s.cfg.TopicFilter).Msg("subscribe failed")
			select {
			case fatal <- fmt.Errorf("subscribe to %q failed: %w", s.cfg.TopicFilter, err):
			default:
			}
		}
	}
}

// Serve connects and blocks until ctx is canceled or an error arrives
// from the handlers. Store failures carry
// suture.ErrTerminateSupervisorTree and bring the tree down; everything
// else is returned plain so the supervisor restarts just the subscriber.
func (s *Subscriber) Serve(ctx context.Context) error {
	fatalCh := make(chan error, 1)

	opts := pahomqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", s.cfg.Host, s.cfg.Port)).
		SetClientID(s.cfg.ClientID).
		SetKeepAlive(s.cfg.KeepAlive).
		SetConnectTimeout(s.cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(s.cfg.MaxReconnectInterval).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetCleanSession(true).
		SetOrderMatters(true)

	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}

	handler := s.messageHandler(ctx, fatalCh)
	opts.SetOnConnectHandler(s.connectHandler(handler, fatalCh))

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		metrics.BrokerDisconnects.Inc()
		logging.Warn().Err(err).Msg("broker connection lost, reconnecting")
	})

	client := pahomqtt.NewClient(opts)

	token := client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("broker connect failed: %w", err)
		}
	case <-ctx.Done():
		client.Disconnect(disconnectQuiesceMs)
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		client.Disconnect(disconnectQuiesceMs)
		logging.Info().Msg("subscriber stopped")
		return ctx.Err()

	case err := <-fatalCh:
		client.Disconnect(disconnectQuiesceMs)
		return err
	}
}

// String identifies the service in supervisor logs.
func (s *Subscriber) String() string {
	return "mqtt-subscriber"
}
