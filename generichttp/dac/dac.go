// Package dac provides an HTTP interface to the ltc2666 integrated
// controller
//
// This is not the last word in speed, due to HTTP having reasonable latency
// in most client languages, but it is the last word in ease of use.
package dac

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.jpl.nasa.gov/bdube/ltcdac/generichttp"
	"github.jpl.nasa.gov/bdube/ltcdac/ltc2666"
)

// Controller is a model of the integrated DAC controller.  Writes are range
// guarded and staged through a single-entry slot; a false return from Write
// means the slot was occupied and the write dropped.
type Controller interface {
	// Write stages a code for a channel
	Write(int, uint16) bool

	// ClearErrors drops every sticky fault latch
	ClearErrors()

	// RequestResetPulse pulses the device reset line and re-runs init
	RequestResetPulse()

	// RequestReinit re-runs init without touching the reset line
	RequestReinit()

	// InitOK is true once initialization has verified cleanly
	InitOK() bool

	// EchoMismatch is the sticky verification flag
	EchoMismatch() bool

	// SetAlarmInput supplies the alarm line level
	SetAlarmInput(bool)

	// LastTxWord is the most recently transmitted frame word
	LastTxWord() uint32

	// LastRxWord is the most recently received word
	LastRxWord() uint32

	// Status snapshots all status outputs
	Status() ltc2666.Status
}

type channelDN struct {
	Channel int `json:"channel"`

	DN uint16 `json:"dn"`
}

type channelMV struct {
	Channel int `json:"channel"`

	MV float64 `json:"mv"`
}

// Write returns an HTTP handlerfunc that stages a data number for a channel.
// 409 is returned when the pending slot is occupied.
func Write(c Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input channelDN
		err := json.NewDecoder(r.Body).Decode(&input)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !c.Write(input.Channel, input.DN) {
			http.Error(w, "pending slot occupied, write dropped", http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// WriteMV is Write with the code given in millivolts on the configured span
func WriteMV(c Controller, opts ltc2666.Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input channelMV
		err := json.NewDecoder(r.Body).Decode(&input)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		code, err := opts.CodeForMillivolts(input.MV)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if !c.Write(input.Channel, code) {
			http.Error(w, "pending slot occupied, write dropped", http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// Status returns an HTTP handlerfunc that responds with the full status
// snapshot as JSON
func Status(c Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(c.Status())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// trigger wraps a niladic action in a POST handler
func trigger(fcn func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fcn()
		w.WriteHeader(http.StatusOK)
	}
}

// HTTPDAC wraps a Controller in an HTTP route table
type HTTPDAC struct {
	// C is the controller being exposed
	C Controller

	// RouteTable maps method+path pairs to handlers
	RouteTable generichttp.RouteTable
}

// NewHTTPDAC wraps a controller.  opts must be the options the controller
// was built with; they supply the millivolt conversion.
func NewHTTPDAC(c Controller, opts ltc2666.Options) HTTPDAC {
	w := HTTPDAC{C: c}
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodGet, Path: "/status"}:        Status(c),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/write"}:        Write(c),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/write-mv"}:     WriteMV(c, opts),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/clear-errors"}: trigger(c.ClearErrors),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/reset-pulse"}:  trigger(c.RequestResetPulse),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/reinit"}:       trigger(c.RequestReinit),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/init-ok"}: generichttp.GetBool(func() (bool, error) {
			return c.InitOK(), nil
		}),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/echo-mismatch"}: generichttp.GetBool(func() (bool, error) {
			return c.EchoMismatch(), nil
		}),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/span"}: generichttp.GetString(func() (string, error) {
			return ltc2666.FormatSpan(opts.SpanCode), nil
		}),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/window-mv"}: generichttp.GetFloat(func() (float64, error) {
			return float64(opts.AllowedMillivolts), nil
		}),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/last-tx"}: generichttp.GetUint32(func() (uint32, error) {
			return c.LastTxWord(), nil
		}),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/last-rx"}: generichttp.GetUint32(func() (uint32, error) {
			return c.LastRxWord(), nil
		}),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/alarm-input"}: generichttp.SetBool(func(level bool) error {
			c.SetAlarmInput(level)
			return nil
		}),
	}
	for ch := 0; ch < ltc2666.NumChannels; ch++ {
		ch := ch
		mp := generichttp.MethodPath{
			Method: http.MethodPost,
			Path:   fmt.Sprintf("/channel/%d/voltage-mv", ch)}
		rt[mp] = generichttp.SetFloat(func(mv float64) error {
			code, err := opts.CodeForMillivolts(mv)
			if err != nil {
				return err
			}
			if !c.Write(ch, code) {
				return errors.New("pending slot occupied, write dropped")
			}
			return nil
		})
	}
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/endpoints"}] = Endpoints(rt)
	w.RouteTable = rt
	return w
}

// Endpoints responds with the method+path pairs the table serves, so clients
// can discover the surface
func Endpoints(rt generichttp.RouteTable) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(rt.Endpoints())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// RT satisfies generichttp.HTTPer
func (h HTTPDAC) RT() generichttp.RouteTable {
	return h.RouteTable
}
