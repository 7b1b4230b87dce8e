package downloader

import (
	"errors"
	"io"
)

// copyCounting copies src to dst and calls onChunk with the size of every
// chunk written.
func copyCounting(dst io.Writer, src io.Reader, onChunk func(n int64)) (int64, error) {
	buf := make([]byte, 32*1024)
	var total int64

	for {
		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[:nr])
			if nw > 0 {
				total += int64(nw)
				if onChunk != nil {
					onChunk(int64(nw))
				}
			}
			if ew != nil {
				return total, ew
			}
			if nr != nw {
				return total, io.ErrShortWrite
			}
		}

		if er != nil {
			if errors.Is(er, io.EOF) {
				return total, nil
			}
			return total, er
		}
	}
}
