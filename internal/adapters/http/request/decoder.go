// Package request
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const DefaultMaxBytes = 1 << 20

var (
	ErrInvalidBody  = errors.New("invalid request body")
	ErrBodyTooLarge = errors.New("request body too large")
)

type RequestDecoder interface {
	Decode(r *http.Request, req any) error
}

// JSONDecoder decodes request bodies of at most MaxBytes. Strict
// decoders reject unknown fields; webhook payloads carry far more than
// we read, so those use a lenient one.
type JSONDecoder struct {
	MaxBytes int64
	Strict   bool
}

func NewJSONDecoder() RequestDecoder {
	return &JSONDecoder{MaxBytes: DefaultMaxBytes, Strict: true}
}

func NewLenientJSONDecoder() *JSONDecoder {
	return &JSONDecoder{MaxBytes: DefaultMaxBytes}
}

func (d *JSONDecoder) Decode(r *http.Request, req any) error {
	defer r.Body.Close()

	data, err := d.ReadBody(r)
	if err != nil {
		return err
	}

	return d.DecodeBytes(data, req)
}

// ReadBody reads the raw body, for callers that must inspect the bytes
// before decoding.
func (d *JSONDecoder) ReadBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, d.MaxBytes+1))
	if err != nil {
		return nil, ErrInvalidBody
	}
	if int64(len(data)) > d.MaxBytes {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

func (d *JSONDecoder) DecodeBytes(data []byte, req any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if d.Strict {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(req); err != nil {
		return ErrInvalidBody
	}

	return nil
}
