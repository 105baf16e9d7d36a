package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zstd"

	"stockledger/pkg/logger"
)

var encoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil
		}
		return enc
	},
}

// zstdWriter routes the body through the encoder; headers go straight through.
type zstdWriter struct {
	gin.ResponseWriter
	enc   *zstd.Encoder
	wrote bool
}

func (w *zstdWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.enc.Write(b)
}

func (w *zstdWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Written reports buffered output too, so later middleware does not write a second body.
func (w *zstdWriter) Written() bool {
	return w.wrote || w.ResponseWriter.Written()
}

// Compress encodes response bodies with zstd when the client accepts it.
// Report payloads are large and highly repetitive.
func Compress() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !acceptsZstd(c.GetHeader("Accept-Encoding")) || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		enc, _ := encoderPool.Get().(*zstd.Encoder)
		if enc == nil {
			c.Next()
			return
		}

		original := c.Writer
		enc.Reset(original)
		c.Writer = &zstdWriter{ResponseWriter: original, enc: enc}
		c.Header("Content-Encoding", "zstd")
		c.Header("Vary", "Accept-Encoding")

		defer func() {
			if p := recover(); p != nil {
				// Drop the encoder; Recovery answers on the plain writer.
				c.Writer = original
				c.Header("Content-Encoding", "")
				c.Header("Vary", "")
				panic(p)
			}
			c.Header("Content-Length", "")
			if err := enc.Close(); err != nil {
				logger.Warn(c.Request.Context(), "zstd close failed", "error", err)
			}
			c.Writer = original
			encoderPool.Put(enc)
		}()

		c.Next()
	}
}

func acceptsZstd(header string) bool {
	for _, part := range strings.Split(header, ",") {
		enc, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(enc), "zstd") {
			continue
		}
		return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
	}
	return false
}
