// Package ledgergrpc carries the shell protocol over gRPC.
//
// Messages are the ledger/types values themselves, encoded with
// cramberry; there is no protobuf schema. The codec is registered under
// its own name and forced on both ends, so a peer using the default
// proto codec fails at the first call rather than misreading bytes.
package ledgergrpc

import (
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype of shell messages.
const CodecName = "ledger-cramberry"

// MaxMessageSize bounds a single encoded message. A FinalizeBlock
// request is the largest message on the wire.
const MaxMessageSize = 16 << 20

// Codec encodes shell messages with cramberry.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	data, err := cramberry.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	if len(data) > MaxMessageSize {
		return nil, fmt.Errorf("encode %T: %d bytes exceeds limit of %d", v, len(data), MaxMessageSize)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) > MaxMessageSize {
		return fmt.Errorf("decode %T: %d bytes exceeds limit of %d", v, len(data), MaxMessageSize)
	}
	if err := cramberry.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

func (Codec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(Codec{})
}
