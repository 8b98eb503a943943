package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/x-msgpack"
)

// writeResponse encodes v as JSON, or as MessagePack when the request carries
// format=msgpack. MessagePack field names follow the json tags.
func writeResponse(w http.ResponseWriter, r *http.Request, status int, v any) error {
	if r.URL.Query().Get("format") == "msgpack" {
		w.Header().Set("Content-Type", contentTypeMsgpack)
		w.WriteHeader(status)
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return enc.Encode(v)
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}
