package proto

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName 傳輸格式的 content-subtype (application/grpc+json)
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec 讓 gRPC 以 JSON 傳遞本套件的訊息，不需要 protoc 產生程式碼
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}
