package tcp

import (
	"bufio"
	"fmt"
	"io"

	"github.com/multiformats/go-varint"
	"go.uber.org/multierr"

	pkgif "github.com/dep2p/go-outbound/pkg/interfaces"
)

// ============================================================================
//                              出站：帧写入
// ============================================================================

// frameSink 以 uvarint 长度前缀写帧
//
// 由通道的写 goroutine 串行调用。
type frameSink struct {
	w       *bufio.Writer
	closers []io.Closer
}

func newFrameSink(w io.Writer, closers ...io.Closer) *frameSink {
	return &frameSink{
		w:       bufio.NewWriter(w),
		closers: closers,
	}
}

func (s *frameSink) WriteFrame(p []byte) error {
	if _, err := s.w.Write(varint.ToUvarint(uint64(len(p)))); err != nil {
		return err
	}
	_, err := s.w.Write(p)
	return err
}

func (s *frameSink) Flush() error {
	return s.w.Flush()
}

// Close 依次关闭流、会话、连接
func (s *frameSink) Close() error {
	var err error
	for _, c := range s.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// ============================================================================
//                              入站：帧读取
// ============================================================================

// readFrames 读取帧并交给 handler，直到出错
//
// 正常断开返回 io.EOF。
func readFrames(r io.Reader, from string, maxSize int, handler pkgif.InboundHandler) error {
	br := bufio.NewReader(r)
	for {
		n, err := varint.ReadUvarint(br)
		if err != nil {
			return err
		}
		if maxSize > 0 && n > uint64(maxSize) {
			return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, maxSize)
		}

		payload := make([]byte, n)
		if _, err := io.ReadFull(br, payload); err != nil {
			return err
		}
		if handler != nil {
			handler(from, payload)
		}
	}
}

// watchClosed 读取出站连接直到出错，用于感知对端断开
//
// 监听方从不回写，因此任何读结果都意味着连接结束。
func watchClosed(r io.Reader, closeWithError func(error) error) {
	buf := make([]byte, 1)
	for {
		if _, err := r.Read(buf); err != nil {
			_ = closeWithError(err)
			return
		}
	}
}
