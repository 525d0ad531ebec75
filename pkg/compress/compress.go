package compress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

type CompressType = int8

const (
	CompressTypeNone CompressType = 0
	CompressTypeGzip CompressType = 1
	CompressTypeZstd CompressType = 2
	CompressTypeBr   CompressType = 3
)

var CompressLockupMap map[string]CompressType = map[string]CompressType{
	"":         CompressTypeNone,
	"identity": CompressTypeNone,
	"gzip":     CompressTypeGzip,
	"zstd":     CompressTypeZstd,
	"br":       CompressTypeBr,
}

// ContentEncoding returns the header value for a compress type.
func ContentEncoding(compressType CompressType) string {
	switch compressType {
	case CompressTypeGzip:
		return "gzip"
	case CompressTypeZstd:
		return "zstd"
	case CompressTypeBr:
		return "br"
	default:
		return "identity"
	}
}

// Negotiate picks the best supported encoding from an Accept-Encoding header.
// Preference order: zstd, br, gzip, identity.
func Negotiate(acceptEncoding string) CompressType {
	offered := map[string]bool{}
	for _, part := range strings.Split(acceptEncoding, ",") {
		name := strings.TrimSpace(part)
		if i := strings.IndexByte(name, ';'); i >= 0 {
			name = name[:i]
		}
		offered[name] = true
	}
	switch {
	case offered["zstd"]:
		return CompressTypeZstd
	case offered["br"]:
		return CompressTypeBr
	case offered["gzip"]:
		return CompressTypeGzip
	default:
		return CompressTypeNone
	}
}

var (
	gzipWriterPool = sync.Pool{
		New: func() interface{} {
			return gzip.NewWriter(io.Discard)
		},
	}
	brotliWriterPool = sync.Pool{
		New: func() interface{} {
			return brotli.NewWriter(io.Discard)
		},
	}
	zstdEncoderPool = sync.Pool{
		New: func() interface{} {
			w, err := zstd.NewWriter(io.Discard)
			if err != nil {
				panic(err)
			}
			return w
		},
	}
)

func Compress(data []byte, compressType CompressType) ([]byte, error) {
	var buf bytes.Buffer
	switch compressType {
	case CompressTypeGzip:
		z := gzipWriterPool.Get().(*gzip.Writer)
		defer gzipWriterPool.Put(z)

		z.Reset(&buf)
		_, err := z.Write(data)
		if err != nil {
			return nil, err
		}
		err = z.Close()
		if err != nil {
			return nil, err
		}
	case CompressTypeZstd:
		w := zstdEncoderPool.Get().(*zstd.Encoder)
		defer zstdEncoderPool.Put(w)

		buf.Write(w.EncodeAll(data, nil))
	case CompressTypeBr:
		w := brotliWriterPool.Get().(*brotli.Writer)
		defer brotliWriterPool.Put(w)

		w.Reset(&buf)
		_, err := w.Write(data)
		if err != nil {
			return nil, err
		}
		err = w.Close()
		if err != nil {
			return nil, err
		}
	case CompressTypeNone:
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

func Decompress(data []byte, compressType CompressType) ([]byte, error) {
	switch compressType {
	case CompressTypeGzip:
		z, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = z.Close() }()
		return io.ReadAll(z)
	case CompressTypeZstd:
		r, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r.IOReadCloser())
	case CompressTypeBr:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	default:
		return nil, fmt.Errorf("unsupported compression type: %v", compressType)
	}
}

func DecompressWithContentEncodeStr(data []byte, contentEncoding string) ([]byte, error) {
	compressType, ok := CompressLockupMap[contentEncoding]
	if !ok {
		return nil, fmt.Errorf("%s encoding not supported", contentEncoding)
	}

	return Decompress(data, compressType)
}
