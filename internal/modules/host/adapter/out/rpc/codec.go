package rpc

import (
	"encoding/json"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey  = "hostbridge"
	jsonCodecName = "json"

	// RequestIDKey is the metadata key carrying per-call correlation ids.
	RequestIDKey = "x-hostbridge-request-id"
	// HeadIDKey is the metadata key naming the session a call is scoped to.
	HeadIDKey = "x-hostbridge-head-id"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "HOSTBRIDGE_PLUGIN",
	MagicCookieValue: "hostbridge",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
