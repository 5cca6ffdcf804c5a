package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"golang.org/x/time/rate"
	yml "gopkg.in/yaml.v2"

	"github.jpl.nasa.gov/bdube/ltcdac/comm"
	"github.jpl.nasa.gov/bdube/ltcdac/generichttp/dac"
	"github.jpl.nasa.gov/bdube/ltcdac/ltc2666"
	"github.jpl.nasa.gov/bdube/ltcdac/server/middleware/locker"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "dacsrv.yml"
	k              = koanf.New(".")
)

// Config holds the server and controller setup parameters.  The zero, pos
// and neg codes are the offset-binary references of the configured span.
type Config struct {
	// Addr is the address of the transfer bridge, e.g. /dev/ttyUSB0 or
	// 192.168.100.123:2006
	Addr string `koanf:"addr" yaml:"Addr"`

	// Serial selects RS232 (true) or TCP (false) for the bridge
	Serial bool `koanf:"serial" yaml:"Serial"`

	// Sim replaces the bridge with an in-memory loopback engine
	Sim bool `koanf:"sim" yaml:"Sim"`

	// Bind is the host:port the HTTP interface listens on
	Bind string `koanf:"bind" yaml:"Bind"`

	// TickHz is the controller tick rate
	TickHz int `koanf:"tickhz" yaml:"TickHz"`

	// FrameBits is the transfer width, 24 or 32
	FrameBits int `koanf:"framebits" yaml:"FrameBits"`

	// Span is the soft-span as "<low>,<high>" volts, e.g. "-2.5,2.5"
	Span string `koanf:"span" yaml:"Span"`

	// SpanMV and AllowedMV configure the run-time window
	SpanMV    int `koanf:"spanmv" yaml:"SpanMV"`
	AllowedMV int `koanf:"allowedmv" yaml:"AllowedMV"`

	// ResetPulseTicks is the reset pulse width
	ResetPulseTicks int `koanf:"resetpulseticks" yaml:"ResetPulseTicks"`

	// InitRetries bounds the init retry loop, 0 retries forever
	InitRetries int `koanf:"initretries" yaml:"InitRetries"`

	// ZeroCode, PosFullScale, NegFullScale are the offset-binary
	// reference codes
	ZeroCode     uint16 `koanf:"zerocode" yaml:"ZeroCode"`
	PosFullScale uint16 `koanf:"posfullscale" yaml:"PosFullScale"`
	NegFullScale uint16 `koanf:"negfullscale" yaml:"NegFullScale"`
}

func defaults() Config {
	o := ltc2666.DefaultOptions()
	return Config{
		Addr:            "/dev/ttyUSB0",
		Serial:          true,
		Bind:            ":8000",
		TickHz:          10000,
		FrameBits:       o.FrameBits,
		Span:            ltc2666.FormatSpan(o.SpanCode),
		SpanMV:          o.SpanMillivolts,
		AllowedMV:       o.AllowedMillivolts,
		ResetPulseTicks: o.ResetPulseTicks,
		InitRetries:     o.InitRetries,
		ZeroCode:        o.ZeroCode,
		PosFullScale:    o.PosFullScale,
		NegFullScale:    o.NegFullScale,
	}
}

func setupconfig() {
	k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

// options converts the file-level config to controller options, validating
// the fields a zero value would wedge
func options(c Config) (ltc2666.Options, error) {
	span, err := ltc2666.ValidateSpan(c.Span)
	if err != nil {
		return ltc2666.Options{}, err
	}
	if c.TickHz <= 0 {
		// rate.Limit(0) would block the tick loop forever
		return ltc2666.Options{}, fmt.Errorf("TickHz must be positive, got %d", c.TickHz)
	}
	return ltc2666.Options{
		FrameBits:         c.FrameBits,
		VerifyEcho:        true,
		AppendFlush:       true,
		ResetPulseTicks:   c.ResetPulseTicks,
		InitRetries:       c.InitRetries,
		SpanCode:          span,
		SpanMillivolts:    c.SpanMV,
		AllowedMillivolts: c.AllowedMV,
		ZeroCode:          c.ZeroCode,
		PosFullScale:      c.PosFullScale,
		NegFullScale:      c.NegFullScale,
	}, nil
}

// lockedController serializes HTTP access with the tick loop.  The
// controller itself is single threaded; this is the only lock in the system.
type lockedController struct {
	sync.Mutex

	ctl *ltc2666.AutoController
}

func (l *lockedController) Tick() {
	l.Lock()
	defer l.Unlock()
	l.ctl.Tick()
}

func (l *lockedController) Write(ch int, code uint16) bool {
	l.Lock()
	defer l.Unlock()
	return l.ctl.Write(ch, code)
}

func (l *lockedController) ClearErrors() {
	l.Lock()
	defer l.Unlock()
	l.ctl.ClearErrors()
}

func (l *lockedController) RequestResetPulse() {
	l.Lock()
	defer l.Unlock()
	l.ctl.RequestResetPulse()
}

func (l *lockedController) RequestReinit() {
	l.Lock()
	defer l.Unlock()
	l.ctl.RequestReinit()
}

func (l *lockedController) InitOK() bool {
	l.Lock()
	defer l.Unlock()
	return l.ctl.InitOK()
}

func (l *lockedController) EchoMismatch() bool {
	l.Lock()
	defer l.Unlock()
	return l.ctl.EchoMismatch()
}

func (l *lockedController) SetAlarmInput(level bool) {
	l.Lock()
	defer l.Unlock()
	l.ctl.SetAlarmInput(level)
}

func (l *lockedController) LastTxWord() uint32 {
	l.Lock()
	defer l.Unlock()
	return l.ctl.LastTxWord()
}

func (l *lockedController) LastRxWord() uint32 {
	l.Lock()
	defer l.Unlock()
	return l.ctl.LastRxWord()
}

func (l *lockedController) Status() ltc2666.Status {
	l.Lock()
	defer l.Unlock()
	return l.ctl.Status()
}

func root() {
	str := `dacsrv drives an LTC2666-class DAC through a serial transfer bridge
and exposes an HTTP interface to it.  The controller initializes the device
(configuration + per-channel output spans) after every reset, verifies every
frame against the device's echo, and range guards run-time codes.

Usage:
	dacsrv <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `dacsrv is amenable to configuration via its .yaml file.  For a primer on YAML, see
https://yaml.org/start.html

Run "dacsrv mkconf" to write a default config file, edit it, then "dacsrv run".

Sim: true replaces the hardware bridge with an in-memory loopback engine,
which is useful for exercising clients without a device attached.`
	fmt.Println(str)
}

func mkconf() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := Config{}
	k.Unmarshal("", &c)
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("dacsrv version %v\n", Version)
}

func run() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	opts, err := options(c)
	if err != nil {
		log.Fatal(err)
	}

	var eng ltc2666.TransferEngine
	var bridge *comm.Bridge
	if c.Sim {
		log.Println("sim mode, using in-memory loopback transfer engine")
		eng = &comm.Loopback{Latency: 1}
	} else {
		bridge = comm.NewBridge(c.Addr, c.Serial, opts.FrameBits/8)
		err = bridge.Open()
		if err != nil {
			log.Fatal(err)
		}
		eng = bridge
	}

	lc := &lockedController{ctl: ltc2666.NewAutoController(eng, opts)}

	// the tick loop; everything in the controller advances here and only here
	limiter := rate.NewLimiter(rate.Limit(c.TickHz), 1)
	go func() {
		for {
			if err := limiter.Wait(context.Background()); err != nil {
				log.Fatalf("tick pacing failed: %v", err)
			}
			lc.Tick()
		}
	}()

	httpD := dac.NewHTTPDAC(lc, opts)
	lock := locker.New()
	locker.Inject(httpD, lock)
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(lock.Check)
	httpD.RouteTable.Bind(r)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGABRT, syscall.SIGTERM)
	go func() {
		<-ch
		if bridge != nil {
			bridge.Close()
		}
		os.Exit(0)
	}()

	log.Println("now listening for requests at ", c.Bind)
	log.Fatal(http.ListenAndServe(c.Bind, r))
}

func main() {
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	switch strings.ToLower(args[1]) {
	case "help":
		help()
	case "mkconf":
		mkconf()
	case "conf":
		printconf()
	case "run":
		run()
	case "version":
		pversion()
	default:
		log.Fatal("unknown command")
	}
}
