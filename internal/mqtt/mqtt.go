package mqtt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	paho "github.com/eclipse/paho.mqtt.golang"

	"energy_simulator/internal/config"
	"energy_simulator/internal/model"
	"energy_simulator/internal/simulator"
	"energy_simulator/internal/util"
)

// Timeout bounds connecting and waiting for publish acknowledgements.
const Timeout = 10 * time.Second

// RetryOptions are used when connecting to the broker.
var RetryOptions = []retry.Option{retry.Attempts(3), retry.Delay(time.Second), retry.LastErrorOnly(true)}

// Client is the part of the paho client used for publishing.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Connect creates a paho client and connects it to the configured broker.
func Connect(cfg config.MQTT) (paho.Client, error) {
	log := util.NewLogger("mqtt")
	log.Redact(cfg.User, cfg.Password)

	broker := brokerURL(cfg.Broker)
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.User).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(Timeout).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.WARN.Printf("connection lost: %v", err)
		})

	client := paho.NewClient(opts)

	err := retry.Do(func() error {
		token := client.Connect()
		if !token.WaitTimeout(Timeout) {
			return errors.New("connect timeout")
		}
		return token.Error()
	}, append(RetryOptions, retry.OnRetry(func(n uint, err error) {
		log.WARN.Printf("connecting to %s (attempt %d): %v", broker, n+1, err)
	}))...)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", broker, err)
	}

	log.INFO.Printf("connected to %s", broker)
	return client, nil
}

// brokerURL adds the tcp scheme and default port where missing.
func brokerURL(broker string) string {
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	if host := broker[strings.Index(broker, "://")+3:]; !strings.Contains(host, ":") {
		broker += ":1883"
	}
	return broker
}

// Publisher implements simulator.Callback and publishes retained device states.
type Publisher struct {
	log    *util.Logger
	client Client
	root   string
}

func NewPublisher(client Client, root string) *Publisher {
	return &Publisher{
		log:    util.NewLogger("mqtt"),
		client: client,
		root:   strings.TrimSuffix(root, "/"),
	}
}

// Topic joins the parts below the root topic.
func (p *Publisher) Topic(parts ...string) string {
	return strings.Join(append([]string{p.root}, parts...), "/")
}

func (p *Publisher) OnState(s simulator.State) {
	p.publish(p.Topic("sim", "running"), s.Running)
	p.publish(p.Topic("sim", "interval"), s.Interval.Seconds())
	p.publish(p.Topic("sim", "ticks"), s.Ticks)
}

func (p *Publisher) OnDevice(d model.Device) {
	p.publishDevice(d)
}

func (p *Publisher) OnMeter(m model.SmartMeter) {
	p.publishDevice(m)
}

func (p *Publisher) OnBalance(_ time.Time, b simulator.Balance) {
	p.publish(p.Topic("grid", "power"), b.Total())
	p.publish(p.Topic("grid", "production"), b.TotalProduction())
	p.publish(p.Topic("grid", "consumption"), b.TotalConsumption())
}

func (p *Publisher) publishDevice(d model.Device) {
	for state, val := range d.States() {
		p.publish(p.Topic(string(d.Class()), d.DeviceID().String(), state), val)
	}
}

func (p *Publisher) publish(topic string, val any) {
	payload := encode(val)
	p.log.TRACE.Printf("send %s: '%s'", topic, payload)

	token := p.client.Publish(topic, 0, true, payload)
	go p.wait(topic, token)
}

func (p *Publisher) wait(topic string, token paho.Token) {
	if !token.WaitTimeout(Timeout) {
		p.log.WARN.Printf("%s: publish timeout", topic)
		return
	}
	if err := token.Error(); err != nil {
		p.log.ERROR.Printf("%s: %v", topic, err)
	}
}

func encode(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
