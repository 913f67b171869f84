// Package midi frames a raw MIDI byte stream into complete messages.
package midi

// maxSysEx bounds a SysEx message. The Launchpad never sends more than a
// few dozen bytes; anything longer is line noise and is discarded.
const maxSysEx = 4096

const (
	sysExStart byte = 0xf0
	sysExEnd   byte = 0xf7
	realTime   byte = 0xf8
)

// Parser assembles messages from a byte stream. It keeps running status
// for channel messages, drops system real-time bytes wherever they appear
// and accepts SysEx split across any number of Feed calls.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	status  byte
	need    int
	buf     []byte
	inSysEx bool
}

// dataLen returns the number of data bytes that follow status.
func dataLen(status byte) int {
	switch status & 0xf0 {
	case 0xc0, 0xd0:
		return 1
	case 0xf0:
		switch status {
		case 0xf1, 0xf3:
			return 1
		case 0xf2:
			return 2
		default:
			return 0
		}
	default:
		return 2
	}
}

// Feed consumes data and returns the messages it completed. Returned
// slices are owned by the caller.
func (p *Parser) Feed(data []byte) [][]byte {
	var out [][]byte
	for _, b := range data {
		switch {
		case b >= realTime:
			continue

		case b == sysExStart:
			p.status = 0
			p.inSysEx = true
			p.buf = append(p.buf[:0], b)

		case b == sysExEnd:
			if p.inSysEx {
				p.buf = append(p.buf, b)
				out = append(out, p.take())
				p.inSysEx = false
			}

		case b&0x80 != 0:
			// Any other status byte ends an unterminated SysEx.
			p.inSysEx = false
			p.status = b
			p.need = dataLen(b)
			p.buf = append(p.buf[:0], b)
			if p.need == 0 {
				out = append(out, p.take())
				p.status = 0
			}

		case p.inSysEx:
			if len(p.buf) >= maxSysEx {
				p.inSysEx = false
				p.buf = p.buf[:0]
				continue
			}
			p.buf = append(p.buf, b)

		case p.status != 0:
			if len(p.buf) == 0 {
				p.buf = append(p.buf, p.status)
			}
			p.buf = append(p.buf, b)
			if len(p.buf)-1 == p.need {
				out = append(out, p.take())
				// System common messages do not establish running status.
				if p.status >= 0xf0 {
					p.status = 0
				}
			}
		}
	}
	return out
}

// Reset discards any partial message and running status.
func (p *Parser) Reset() {
	p.status = 0
	p.need = 0
	p.inSysEx = false
	p.buf = p.buf[:0]
}

func (p *Parser) take() []byte {
	msg := make([]byte, len(p.buf))
	copy(msg, p.buf)
	p.buf = p.buf[:0]
	return msg
}
