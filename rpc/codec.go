// Package rpc defines the wire-level gRPC transport for the plugin
// service: a hand-registered codec plus a hand-built grpc.ServiceDesc.
//
// spec.md §1 places both "the wire serialization library (any
// protobuf-like codec suffices)" and "the network transport (any
// HTTP/2-style bidi-stream RPC suffices)" out of scope as external
// collaborators. No .proto file or protoc-generated code was retrieved
// for this spec (see DESIGN.md), so rather than fabricate a protoc
// toolchain invocation this package uses google.golang.org/grpc's own
// documented low-level extension points — a custom encoding.Codec and
// a hand-built grpc.ServiceDesc — to carry the wire.* message types
// over a real gRPC connection. The RPC transport itself (the thing
// actually in scope per spec.md §6) stays on the genuine
// google.golang.org/grpc library.
package rpc

import (
	"bytes"
	"encoding/gob"

	"google.golang.org/grpc/encoding"
)

// codecName is the gRPC content-subtype this codec registers under.
const codecName = "clap-rci"

type gobCodec struct{}

func (gobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (gobCodec) Name() string {
	return codecName
}

func init() {
	encoding.RegisterCodec(gobCodec{})
}
