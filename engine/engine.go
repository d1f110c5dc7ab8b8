// Package engine wires the label, device, ledger and shift components into
// one object the terminal UI talks to.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/frstier/Marijany-Sticker-Print-sub001/config"
	"github.com/frstier/Marijany-Sticker-Print-sub001/device"
	"github.com/frstier/Marijany-Sticker-Print-sub001/dispatch"
	"github.com/frstier/Marijany-Sticker-Print-sub001/imaging"
	"github.com/frstier/Marijany-Sticker-Print-sub001/label"
	"github.com/frstier/Marijany-Sticker-Print-sub001/ledger"
	"github.com/frstier/Marijany-Sticker-Print-sub001/logger"
	"github.com/frstier/Marijany-Sticker-Print-sub001/shift"
)

// Engine is the assembled print engine for one terminal
type Engine struct {
	Config     *config.EngineConfig
	Log        *logger.Logger
	Images     *imaging.Cache
	Compiler   *label.Compiler
	Directory  *device.Directory
	Dispatcher *dispatch.Dispatcher
	Store      *ledger.Store
	Ledger     *ledger.Ledger
	Shifts     *shift.Aggregator

	feed ledger.Feed
}

// New assembles an engine from configuration. origin identifies this
// terminal on the ledger change feed; pass the empty string to generate one.
func New(cfg *config.EngineConfig, log *logger.Logger, origin string) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.New(logger.LevelFromString(cfg.Logging.Level), "", 500)
	}
	if origin == "" {
		origin = uuid.NewString()
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dataDir, err := config.DataDirectory()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(dataDir, "ledger.db")
	}

	store, err := ledger.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("ledger store: %w", err)
	}

	led, err := ledger.NewLedger(store, cfg.Printing.InitialSerial, origin, log)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("ledger: %w", err)
	}

	eng := &Engine{
		Config: cfg,
		Log:    log,
		Images: imaging.NewCache(),
		Store:  store,
		Ledger: led,
		Shifts: shift.NewAggregator(store, log),
	}
	eng.Compiler = label.NewCompiler(eng.Images, log)

	if err := eng.attachFeed(origin); err != nil {
		led.Close()
		store.Close()
		return nil, err
	}

	eng.Directory = device.NewDirectory(buildTransports(cfg, log), log)
	eng.Directory.DefaultUID = cfg.Printing.DefaultDeviceUID
	eng.Directory.ReadyTimeout = time.Duration(cfg.Discovery.ReadyTimeoutMs) * time.Millisecond
	eng.Directory.ReadyPoll = time.Duration(cfg.Discovery.ReadyPollMs) * time.Millisecond

	eng.Dispatcher = dispatch.NewDispatcher(eng.Directory, log)
	eng.Dispatcher.SerialBaudRate = cfg.Discovery.SerialBaudRate

	return eng, nil
}

func (e *Engine) attachFeed(origin string) error {
	switch e.Config.Feed.Mode {
	case "none", "":
		return nil
	case "file":
		path := e.Config.Feed.Path
		if path == "" {
			dataDir, err := config.DataDirectory()
			if err != nil {
				return err
			}
			path = filepath.Join(dataDir, "counters.json")
		}
		feed, err := ledger.NewFileFeed(path, origin, e.Log)
		if err != nil {
			return fmt.Errorf("file feed: %w", err)
		}
		e.feed = feed
	case "ws":
		e.feed = ledger.NewWSFeed(e.Config.Feed.HubURL, origin, e.Log)
	default:
		return fmt.Errorf("unknown feed mode %q", e.Config.Feed.Mode)
	}
	e.Ledger.AttachFeed(e.feed)
	return nil
}

func buildTransports(cfg *config.EngineConfig, log *logger.Logger) []device.Transport {
	probeTimeout := time.Duration(cfg.Discovery.ProbeTimeoutMs) * time.Millisecond

	transports := []device.Transport{
		device.NewNetworkTransport(cfg.Discovery.Hosts, probeTimeout, cfg.Discovery.SNMPCommunity, log),
	}
	if cfg.Discovery.MDNSEnabled {
		transports = append(transports, device.NewMDNSTransport(probeTimeout, log))
	}
	if cfg.Discovery.SerialEnabled {
		transports = append(transports, device.NewSerialTransport(log))
	}
	return transports
}

// BarcodePayload renders the configured barcode pattern for one label
func (e *Engine) BarcodePayload(f label.Fields) string {
	pattern := e.Config.Printing.BarcodePattern
	if pattern == "" {
		pattern = label.DefaultBarcodePattern
	}
	return label.FormatBarcode(pattern, f)
}

// PrintResult reports one PrintLabel call
type PrintResult struct {
	Record    ledger.PrintRecord
	Accepted  bool
	Duplicate *ledger.PrintRecord
}

// PrintLabel compiles the template, fills in the live fields, allocates a
// serial number when the caller did not supply one, dispatches the job and
// records the outcome. A duplicate serial is reported in the result as an
// advisory, never blocks the print.
func (e *Engine) PrintLabel(ctx context.Context, tpl label.Template, f label.Fields, dev device.Device) (PrintResult, error) {
	if f.SerialNumber == 0 {
		serial, err := e.Ledger.Allocate(ctx, f.SKU)
		if err != nil {
			return PrintResult{}, fmt.Errorf("serial allocation: %w", err)
		}
		f.SerialNumber = serial
	}

	result := PrintResult{}
	dup, err := e.Ledger.FindDuplicate(ctx, f.SerialNumber, f.ProductName, f.Date)
	if err != nil {
		e.Log.Warn("Duplicate check failed", "error", err)
	} else if dup != nil {
		e.Log.Warn("Serial already printed for this product and date",
			"serial", f.SerialNumber, "product", f.ProductName, "date", f.Date)
		result.Duplicate = dup
	}

	stream := label.Substitute(e.Compiler.Compile(tpl), f)
	if f.Quantity > 1 {
		stream = label.WithCopies(stream, f.Quantity)
	}

	accepted := e.Dispatcher.Dispatch(ctx, dev, stream)

	record := ledger.PrintRecord{
		ProductID:    f.SKU,
		ProductName:  f.ProductName,
		SerialNumber: f.SerialNumber,
		Weight:       f.Weight,
		Date:         f.Date,
		Status:       ledger.StatusOK,
		CreatedAt:    time.Now().UTC(),
	}
	if !accepted {
		record.Status = ledger.StatusError
	}
	if sh, ok := e.Shifts.Current(); ok {
		record.ShiftID = sh.ID
	}

	e.Shifts.AddPrint(record)
	if id, err := e.Ledger.Record(ctx, record); err != nil {
		e.Log.Error("Failed to record print", "error", err)
	} else {
		record.ID = id
	}

	result.Record = record
	result.Accepted = accepted
	return result, nil
}

// Close releases the feed, ledger and store
func (e *Engine) Close() error {
	if e.feed != nil {
		e.feed.Close()
	}
	e.Ledger.Close()
	return e.Store.Close()
}
