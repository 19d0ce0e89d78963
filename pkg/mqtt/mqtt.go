// Package mqtt publishes camera events to an MQTT broker.
package mqtt

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// TopicPrefix roots every topic the bridge publishes.
const TopicPrefix = "nipca"

const publishTimeout = 5 * time.Second

// Publisher is what the camera hub needs from a broker connection.
type Publisher interface {
	Publish(topic string, payload []byte, retain bool) error
}

// Client is a paho connection used for publishing.
type Client struct {
	cli paho.Client
}

// New connects to brokerURL (mqtt://, tcp://, ssl://, tls://, ws:// or
// wss://, optionally with user:password).
func New(brokerURL, clientID string) (*Client, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("parse broker url: %w", err)
	}
	server, err := serverURL(u)
	if err != nil {
		return nil, err
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(server)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.OnConnect = func(paho.Client) {
		log.Info().Str("broker", server).Msg("MQTT connected")
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Warn().Err(err).Str("broker", server).Msg("MQTT connection lost")
	}
	if u.User != nil {
		pw, _ := u.User.Password()
		opts.SetUsername(u.User.Username())
		opts.SetPassword(pw)
	}

	cli := paho.NewClient(opts)
	if t := cli.Connect(); t.Wait() && t.Error() != nil {
		return nil, fmt.Errorf("connect to %s: %w", server, t.Error())
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Publish(topic string, payload []byte, retain bool) error {
	t := c.cli.Publish(topic, 0, retain, payload)
	if !t.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	return t.Error()
}

// Close disconnects after letting in-flight messages drain.
func (c *Client) Close() {
	c.cli.Disconnect(250)
}

// EventTopic is the topic an event stream key of a camera is published on.
func EventTopic(cameraID, key string) string {
	return strings.Join([]string{TopicPrefix, cameraID, key}, "/")
}

func serverURL(u *url.URL) (string, error) {
	switch u.Scheme {
	case "mqtt", "tcp":
		return "tcp://" + u.Host, nil
	case "ssl", "tls", "mqtts":
		return "ssl://" + u.Host, nil
	case "ws", "wss":
		return u.Scheme + "://" + u.Host + u.Path, nil
	default:
		return "", fmt.Errorf("unsupported broker scheme %q", u.Scheme)
	}
}
