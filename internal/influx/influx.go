package influx

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"energy_simulator/internal/config"
	"energy_simulator/internal/model"
	"energy_simulator/internal/simulator"
	"energy_simulator/internal/util"
)

// Writer is the part of the non-blocking influx write api used here.
type Writer interface {
	WritePoint(point *write.Point)
}

// Database implements simulator.Callback and writes device and meter series.
// Device and meter points are held until the tick's balance arrives so that
// all points of a tick share its timestamp.
type Database struct {
	log    *util.Logger
	writer Writer
	clock  clock.Clock

	mu      sync.Mutex
	pending []point
	index   map[uuid.UUID]int
}

type point struct {
	measurement string
	tags        map[string]string
	fields      map[string]interface{}
}

// New connects the write api of the configured bucket. The returned close
// function flushes pending points.
func New(cfg config.Influx, clk clock.Clock) (*Database, func()) {
	log := util.NewLogger("influx")
	log.Redact(cfg.Token)

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	writer := client.WriteAPI(cfg.Org, cfg.Bucket)

	go func() {
		for err := range writer.Errors() {
			log.ERROR.Println(err)
		}
	}()

	log.INFO.Printf("writing to %s bucket %s", cfg.URL, cfg.Bucket)

	db := NewDatabase(writer, clk)
	return db, func() {
		db.Flush()
		writer.Flush()
		client.Close()
	}
}

func NewDatabase(w Writer, clk clock.Clock) *Database {
	return &Database{
		log:    util.NewLogger("influx"),
		writer: w,
		clock:  clk,
		index:  make(map[uuid.UUID]int),
	}
}

// OnState is not recorded.
func (db *Database) OnState(simulator.State) {}

func (db *Database) OnDevice(d model.Device) {
	tags := map[string]string{
		"device": d.DeviceName(),
		"class":  string(d.Class()),
		"id":     d.DeviceID().String(),
	}

	fields := map[string]interface{}{}
	switch v := d.(type) {
	case model.Producer:
		fields["power"] = v.CurrentPower()
	case model.Consumer:
		fields["power"] = v.CurrentPower()
		if s, ok := d.(model.Stove); ok {
			fields["energy"] = s.TotalEnergyConsumedKWh
		}
	case model.Car:
		fields["batteryLevel"] = v.BatteryLevel
		fields["pluggedIn"] = v.PluggedIn
	case model.Wallbox:
		fields["maxChargingCurrent"] = v.MaxChargingCurrentA
		fields["pluggedIn"] = v.PluggedIn
	default:
		return
	}

	db.queue(d.DeviceID(), point{"device", tags, fields})
}

func (db *Database) OnMeter(m model.SmartMeter) {
	tags := map[string]string{
		"meter": m.Name,
		"id":    m.ID.String(),
	}
	fields := map[string]interface{}{
		"powerPhaseA": m.PowerPhaseAW,
		"powerPhaseB": m.PowerPhaseBW,
		"powerPhaseC": m.PowerPhaseCW,
		"power":       m.TotalPowerW,
		"consumed":    m.TotalEnergyConsumedKWh,
		"produced":    m.TotalEnergyProducedKWh,
	}
	db.queue(m.ID, point{"meter", tags, fields})
}

func (db *Database) OnBalance(at time.Time, b simulator.Balance) {
	fields := map[string]interface{}{
		"power":       b.Total(),
		"production":  b.TotalProduction(),
		"consumption": b.TotalConsumption(),
	}

	for _, p := range db.take() {
		db.write(p.measurement, p.tags, p.fields, at)
	}
	db.write("grid", nil, fields, at)
}

// queue keeps the latest point per device until the next balance.
func (db *Database) queue(id uuid.UUID, p point) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if i, ok := db.index[id]; ok {
		db.pending[i] = p
		return
	}
	db.index[id] = len(db.pending)
	db.pending = append(db.pending, p)
}

func (db *Database) take() []point {
	db.mu.Lock()
	defer db.mu.Unlock()

	pending := db.pending
	db.pending = nil
	clear(db.index)
	return pending
}

// Flush writes queued points stamped with the current time.
func (db *Database) Flush() {
	now := db.clock.Now()
	for _, p := range db.take() {
		db.write(p.measurement, p.tags, p.fields, now)
	}
}

func (db *Database) write(measurement string, tags map[string]string, fields map[string]interface{}, ts time.Time) {
	db.log.TRACE.Printf("write %s %v %v", measurement, tags, fields)
	db.writer.WritePoint(influxdb2.NewPoint(measurement, tags, fields, ts))
}
