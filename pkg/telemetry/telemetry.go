// Package telemetry retrieves the CO2 concentration shown on the dashboard
// from an external monitor.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/envdash/pkg/comm/mqtt"
)

// DefaultTimeout bounds one HTTP fetch.
const DefaultTimeout = 3 * time.Second

// ErrNoValue indicates no reading has been received yet.
var ErrNoValue = errors.New("telemetry: no value")

// Source provides the CO2 concentration in ppm.
type Source interface {
	Co2(ctx context.Context) (uint16, error)
}

// Co2OrZero reads src and substitutes 0 on failure.
func Co2OrZero(ctx context.Context, src Source) uint16 {
	if src == nil {
		return 0
	}
	ppm, err := src.Co2(ctx)
	if err != nil {
		glog.Warningf("telemetry: %v", err)
		return 0
	}
	return ppm
}

// Document is the JSON served by the monitor. Other fields are ignored.
type Document struct {
	Co2 struct {
		Value uint16 `json:"value"`
	} `json:"co2"`
}

// ParseDocument decodes the CO2 value from a monitor document.
func ParseDocument(r io.Reader) (uint16, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return 0, fmt.Errorf("telemetry: decode: %w", err)
	}
	return doc.Co2.Value, nil
}

// HTTPSource polls the monitor over HTTP.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource creates an HTTPSource with DefaultTimeout.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{URL: url, Client: &http.Client{Timeout: DefaultTimeout}}
}

// Co2 implements Source.
func (s *HTTPSource) Co2(ctx context.Context) (uint16, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("telemetry: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("telemetry: GET: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("telemetry: GET %s: %s", s.URL, resp.Status)
	}
	return ParseDocument(resp.Body)
}

// MQTTSource keeps the latest document published on a topic.
type MQTTSource struct {
	Queue *mqtt.Queue
	Topic string

	lock  sync.RWMutex
	value uint16
	valid bool
}

// NewMQTTSource creates an MQTTSource from a broker URL such as
// mqtt://host:1883/sensors/ and a topic under its prefix.
func NewMQTTSource(brokerURL, topic string) (*MQTTSource, error) {
	opts, prefix, err := mqtt.ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &MQTTSource{Queue: mqtt.NewQueue(opts, prefix), Topic: topic}, nil
}

// Name implements Named.
func (s *MQTTSource) Name() string {
	return "co2:" + s.Topic
}

// Run implements Runnable.
func (s *MQTTSource) Run(ctx context.Context) error {
	s.Queue.Connect()
	sub := s.Queue.Sub(s.Topic, mqtt.Handler(func(_ string, payload []byte) {
		s.update(payload)
	}))
	<-ctx.Done()
	sub.Close()
	s.Queue.Close()
	return ctx.Err()
}

func (s *MQTTSource) update(payload []byte) {
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		glog.Warningf("telemetry: bad document on %s: %v", s.Topic, err)
		return
	}
	s.lock.Lock()
	s.value, s.valid = doc.Co2.Value, true
	s.lock.Unlock()
}

// Co2 implements Source.
func (s *MQTTSource) Co2(context.Context) (uint16, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if !s.valid {
		return 0, ErrNoValue
	}
	return s.value, nil
}
