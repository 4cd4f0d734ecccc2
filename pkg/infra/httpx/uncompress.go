package httpx

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// DecodeChain decodes an HTTP response body according to its Content-Encoding
// header value. Chained encodings (e.g. "gzip, br") are unwrapped in reverse
// order. Supported algorithms: br, gzip, zstd, deflate (zlib-wrapped per RFC,
// with a raw-DEFLATE fallback). Returns the decoded body and whether it
// changed.
func DecodeChain(contentEncoding string, body []byte) ([]byte, bool, error) {
	if contentEncoding == "" {
		return body, false, nil
	}
	encodings := strings.Split(contentEncoding, ",")
	changed := false
	for i := len(encodings) - 1; i >= 0; i-- {
		switch strings.TrimSpace(strings.ToLower(encodings[i])) {
		case "br":
			out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
			if err != nil {
				return nil, false, err
			}
			body = out
			changed = true
		case "gzip":
			gr, err := gzip.NewReader(bytes.NewReader(body))
			if err != nil {
				return nil, false, err
			}
			out, err := io.ReadAll(gr)
			if cerr := gr.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return nil, false, err
			}
			body = out
			changed = true
		case "zstd":
			dec, err := zstd.NewReader(bytes.NewReader(body))
			if err != nil {
				return nil, false, err
			}
			out, err := io.ReadAll(dec)
			dec.Close()
			if err != nil {
				return nil, false, err
			}
			body = out
			changed = true
		case "deflate":
			out, err := decodeDeflate(body)
			if err != nil {
				return nil, false, err
			}
			body = out
			changed = true
		case "compress", "identity", "":
			// no transformation
		default:
			return nil, false, fmt.Errorf("unsupported content-encoding: %q", encodings[i])
		}
	}
	return body, changed, nil
}

func decodeDeflate(body []byte) ([]byte, error) {
	if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
		out, err := io.ReadAll(zr)
		if cerr := zr.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	fr := flate.NewReader(bytes.NewReader(body))
	out, err := io.ReadAll(fr)
	if cerr := fr.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
