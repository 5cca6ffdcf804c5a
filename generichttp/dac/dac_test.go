package dac_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"

	"github.jpl.nasa.gov/bdube/ltcdac/generichttp"
	"github.jpl.nasa.gov/bdube/ltcdac/generichttp/dac"
	"github.jpl.nasa.gov/bdube/ltcdac/ltc2666"
)

// fakeController records the calls the HTTP layer makes
type fakeController struct {
	writeOK   bool
	wroteCh   int
	wroteCode uint16
	alarm     bool
	lastTx    uint32
	lastRx    uint32
	status    ltc2666.Status
}

func (f *fakeController) Write(ch int, code uint16) bool {
	if !f.writeOK {
		return false
	}
	f.wroteCh = ch
	f.wroteCode = code
	return true
}

func (f *fakeController) ClearErrors()             {}
func (f *fakeController) RequestResetPulse()       {}
func (f *fakeController) RequestReinit()           {}
func (f *fakeController) InitOK() bool             { return true }
func (f *fakeController) EchoMismatch() bool       { return false }
func (f *fakeController) SetAlarmInput(level bool) { f.alarm = level }
func (f *fakeController) LastTxWord() uint32       { return f.lastTx }
func (f *fakeController) LastRxWord() uint32       { return f.lastRx }
func (f *fakeController) Status() ltc2666.Status   { return f.status }

func setup(writeOK bool) (*fakeController, chi.Router) {
	f := &fakeController{writeOK: writeOK, lastTx: 0xF00000, lastRx: 0x308000}
	h := dac.NewHTTPDAC(f, ltc2666.DefaultOptions())
	r := chi.NewRouter()
	h.RT().Bind(r)
	return f, r
}

func do(t *testing.T, r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("{}")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSpanAndWindowRoutes(t *testing.T) {
	_, r := setup(true)
	w := do(t, r, http.MethodGet, "/span", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /span returned %d", w.Code)
	}
	var s struct {
		Str string `json:"str"`
	}
	json.NewDecoder(w.Body).Decode(&s)
	if s.Str != "-2.5,2.5" {
		t.Errorf("expected the default span string, got %q", s.Str)
	}

	w = do(t, r, http.MethodGet, "/window-mv", "")
	var f struct {
		F64 float64 `json:"f64"`
	}
	json.NewDecoder(w.Body).Decode(&f)
	if f.F64 != 1500 {
		t.Errorf("expected the default window half-width, got %f", f.F64)
	}
}

func TestLastWordRoutes(t *testing.T) {
	_, r := setup(true)
	for path, want := range map[string]uint32{"/last-tx": 0xF00000, "/last-rx": 0x308000} {
		w := do(t, r, http.MethodGet, path, "")
		var u struct {
			Uint uint32 `json:"uint"`
		}
		json.NewDecoder(w.Body).Decode(&u)
		if u.Uint != want {
			t.Errorf("GET %s: expected %06X got %06X", path, want, u.Uint)
		}
	}
}

func TestAlarmInputRoute(t *testing.T) {
	f, r := setup(true)
	f.alarm = true
	w := do(t, r, http.MethodPost, "/alarm-input", `{"bool": false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /alarm-input returned %d", w.Code)
	}
	if f.alarm {
		t.Error("the alarm level was not forwarded")
	}
}

func TestVoltageWritePerChannel(t *testing.T) {
	f, r := setup(true)
	w := do(t, r, http.MethodPost, "/channel/3/voltage-mv", `{"f64": 0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("POST voltage returned %d: %s", w.Code, w.Body.String())
	}
	if f.wroteCh != 3 || f.wroteCode != 0x8000 {
		t.Errorf("expected mid-scale on channel 3, got %d / %04X", f.wroteCh, f.wroteCode)
	}

	w = do(t, r, http.MethodPost, "/channel/0/voltage-mv", `{"f64": 9000}`)
	if w.Code == http.StatusOK {
		t.Error("a voltage outside the span must not succeed")
	}
}

func TestWriteConflictWhenSlotOccupied(t *testing.T) {
	_, r := setup(false)
	w := do(t, r, http.MethodPost, "/write", `{"channel": 0, "dn": 32768}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for an occupied slot, got %d", w.Code)
	}
}

func TestEndpointsRoute(t *testing.T) {
	_, r := setup(true)
	w := do(t, r, http.MethodGet, "/endpoints", "")
	var eps []generichttp.MethodPath
	if err := json.NewDecoder(w.Body).Decode(&eps); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, mp := range eps {
		if mp.Method == http.MethodGet && mp.Path == "/status" {
			found = true
		}
	}
	if !found {
		t.Error("the endpoint listing must include the status route")
	}
}
