// Package payload encodes error reports in the form the intake accepts: JSON, compressed with zlib
// and sent as Content-Encoding: deflate.
package payload

import (
	"bytes"
	"compress/zlib"
	"io/ioutil"

	jsoniter "github.com/json-iterator/go"
)

var jsonConfig = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

// Encode serializes v as JSON and compresses it.
func Encode(v interface{}) ([]byte, error) {
	raw, err := marshalJson(v)
	if err != nil {
		return nil, err
	}
	return compress(raw)
}

// Decode is the inverse of Encode.
func Decode(body []byte, v interface{}) error {
	r, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return err
	}
	raw, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}
	if err = r.Close(); err != nil {
		return err
	}
	return jsonConfig.Unmarshal(raw, v)
}

func compress(raw []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	compressor, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}

	_, _ = compressor.Write(raw) // error is propagated through Close
	err = compressor.Close()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func marshalJson(data interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}
	stream := jsonConfig.BorrowStream(buf)
	defer jsonConfig.ReturnStream(stream)
	stream.WriteVal(data)
	if stream.Error != nil {
		return nil, stream.Error
	}
	if err := stream.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
