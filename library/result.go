package library

import (
	jsoniter "github.com/json-iterator/go"
)

// Result is the envelope a transport returns for one operation.
// Kind and Message are empty on success, Payload is empty on failure.
type Result struct {
	OK      bool      `json:"ok"`
	Kind    ErrorKind `json:"kind,omitempty"`
	Message string    `json:"message,omitempty"`
	Payload any       `json:"payload,omitempty"`
}

// ResultFrom builds a Result from the return values of a store operation.
// Infrastructure failures are reported with a generic message so SQL details do not leak to clients.
func ResultFrom(payload any, err error) Result {
	if err == nil {
		return Result{OK: true, Payload: payload}
	}

	kind := KindOf(err)
	message := err.Error()

	if kind == KindInternal {
		message = "internal error"
	}

	return Result{OK: false, Kind: kind, Message: message}
}

// MarshalJSON encodes r with json-iterator.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result

	return jsoniter.ConfigFastest.Marshal(plain(r))
}

// DecodeResult decodes a JSON-encoded Result. The payload is decoded into payload if it is non-nil.
func DecodeResult(data []byte, payload any) (Result, error) {
	var envelope struct {
		OK      bool                `json:"ok"`
		Kind    ErrorKind           `json:"kind"`
		Message string              `json:"message"`
		Payload jsoniter.RawMessage `json:"payload"`
	}

	if err := jsoniter.ConfigFastest.Unmarshal(data, &envelope); err != nil {
		return Result{}, err
	}

	result := Result{OK: envelope.OK, Kind: envelope.Kind, Message: envelope.Message}

	if payload != nil && len(envelope.Payload) > 0 {
		if err := jsoniter.ConfigFastest.Unmarshal(envelope.Payload, payload); err != nil {
			return Result{}, err
		}

		result.Payload = payload
	}

	return result, nil
}
