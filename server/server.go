// Package server contains misc server utilities.
package server

import (
	"encoding/json"
	"fmt"
	"go/types"
	"log"
	"net/http"
)

// FloatT is a struct holding a single float64 for JSON transport
type FloatT struct {
	F64 float64 `json:"f64"`
}

// IntT is a struct holding a single int for JSON transport
type IntT struct {
	Int int `json:"int"`
}

// UintT is a struct holding a single unsigned int for JSON transport
type UintT struct {
	Uint uint32 `json:"uint"`
}

// BoolT is a struct holding a single bool for JSON transport
type BoolT struct {
	Bool bool `json:"bool"`
}

// StrT is a struct holding a single string for JSON transport
type StrT struct {
	Str string `json:"str"`
}

// HumanPayload is a struct that enables nice looking single-value JSON
// responses.  T describes which of the value fields is populated.
type HumanPayload struct {
	// T is the type of data held by the payload
	T types.BasicKind

	// Bool holds a bool, if T == types.Bool
	Bool bool

	// Int holds an int, if T == types.Int
	Int int

	// Uint holds a uint32, if T == types.Uint32
	Uint uint32

	// Float holds a float64, if T == types.Float64
	Float float64

	// String holds a string, if T == types.String
	String string
}

// EncodeAndRespond writes the payload to w as JSON with the appropriate
// single-key wrapper object
func (hp HumanPayload) EncodeAndRespond(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var err error
	switch hp.T {
	case types.Bool:
		err = json.NewEncoder(w).Encode(BoolT{Bool: hp.Bool})
	case types.Int:
		err = json.NewEncoder(w).Encode(IntT{Int: hp.Int})
	case types.Uint32:
		err = json.NewEncoder(w).Encode(UintT{Uint: hp.Uint})
	case types.Float64:
		err = json.NewEncoder(w).Encode(FloatT{F64: hp.Float})
	case types.String:
		err = json.NewEncoder(w).Encode(StrT{Str: hp.String})
	default:
		err = fmt.Errorf("unknown payload type %v", hp.T)
	}
	if err != nil {
		fstr := fmt.Sprintf("error encoding payload to json %q", err)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusInternalServerError)
	}
}
