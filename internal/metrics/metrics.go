package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"energy_simulator/internal/model"
	"energy_simulator/internal/simulator"
)

const namespace = "energysim"

// Collector implements simulator.Callback and exports device state as Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	meterPower     *prometheus.GaugeVec
	meterConsumed  *prometheus.GaugeVec
	meterProduced  *prometheus.GaugeVec
	devicePower    *prometheus.GaugeVec
	carBattery     *prometheus.GaugeVec
	gridPower      prometheus.Gauge
	ticks          prometheus.Counter
	running        prometheus.Gauge
	intervalSecond prometheus.Gauge
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		meterPower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "meter_power_watts",
			Help:      "Smart meter power per phase, negative when feeding in.",
		}, []string{"meter", "phase"}),
		meterConsumed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "meter_energy_consumed_kwh",
			Help:      "Smart meter total consumed energy.",
		}, []string{"meter"}),
		meterProduced: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "meter_energy_produced_kwh",
			Help:      "Smart meter total produced energy.",
		}, []string{"meter"}),
		devicePower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "device_power_watts",
			Help:      "Current power of producing and consuming devices.",
		}, []string{"device", "class"}),
		carBattery: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "car_battery_level_percent",
			Help:      "Car battery level.",
		}, []string{"car"}),
		gridPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_power_watts",
			Help:      "Net household power of the last tick.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of simulation ticks.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "running",
			Help:      "1 while the simulation loop is running.",
		}),
		intervalSecond: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "interval_seconds",
			Help:      "Tick interval.",
		}),
	}

	c.registry.MustRegister(
		c.meterPower, c.meterConsumed, c.meterProduced,
		c.devicePower, c.carBattery, c.gridPower,
		c.ticks, c.running, c.intervalSecond,
	)

	return c
}

// Registry returns the registry holding all simulator metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) OnState(s simulator.State) {
	running := 0.0
	if s.Running {
		running = 1
	}
	c.running.Set(running)
	c.intervalSecond.Set(s.Interval.Seconds())
}

func (c *Collector) OnDevice(d model.Device) {
	name := d.DeviceName()

	switch v := d.(type) {
	case model.Producer:
		c.devicePower.WithLabelValues(name, string(d.Class())).Set(v.CurrentPower())
	case model.Consumer:
		c.devicePower.WithLabelValues(name, string(d.Class())).Set(v.CurrentPower())
	case model.Car:
		c.carBattery.WithLabelValues(name).Set(float64(v.BatteryLevel))
	}
}

func (c *Collector) OnMeter(m model.SmartMeter) {
	phases := map[model.Phase]float64{
		model.PhaseA: m.PowerPhaseAW,
		model.PhaseB: m.PowerPhaseBW,
		model.PhaseC: m.PowerPhaseCW,
	}
	for p, w := range phases {
		c.meterPower.WithLabelValues(m.Name, string(p)).Set(w)
	}
	c.meterConsumed.WithLabelValues(m.Name).Set(m.TotalEnergyConsumedKWh)
	c.meterProduced.WithLabelValues(m.Name).Set(m.TotalEnergyProducedKWh)
}

func (c *Collector) OnBalance(_ time.Time, b simulator.Balance) {
	c.ticks.Inc()
	c.gridPower.Set(b.Total())
}
