package compliance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pontoweb/ponto-backend-go/internal/domain/compliance"
)

// AFD is the fixed-width source-of-truth file produced by physical time
// clocks. Only three record types matter to the engine: the header (device
// identification), type 3 (one punch per line) and the trailer (counts).
const (
	afdTimeLayout = "2006-01-02T15:04:05-0700"

	afdHeaderNSR  = "000000000"
	afdTrailerNSR = "999999999"

	afdHeaderLen  = 215
	afdPunchLen   = 50
	afdTrailerLen = 19

	// Device serial position inside the header record.
	afdSerialOffset = 175
	afdSerialLen    = 17
)

type afdHeader struct {
	EmployerIDType string
	EmployerID     string
	EmployerName   string
	DeviceSerial   string
	From, To       time.Time
}

type afdPunchRecord struct {
	NSR int64
	At  time.Time
	CPF string
}

func (h afdHeader) marshal() string {
	var b strings.Builder
	b.WriteString(afdHeaderNSR)
	b.WriteString("1")
	b.WriteString(padNum(h.EmployerIDType, 1))
	b.WriteString(padNum(h.EmployerID, 14))
	b.WriteString(padText(h.EmployerName, 150))
	b.WriteString(padText(h.DeviceSerial, afdSerialLen))
	b.WriteString(h.From.Format("2006-01-02"))
	b.WriteString(h.To.Format("2006-01-02"))
	b.WriteString("003")
	return b.String()
}

func parseAfdHeader(line string) (afdHeader, error) {
	if len(line) != afdHeaderLen || !strings.HasPrefix(line, afdHeaderNSR+"1") {
		return afdHeader{}, fmt.Errorf("%w: invalid header record", compliance.ErrMalformedRecord)
	}
	serial := strings.TrimSpace(line[afdSerialOffset : afdSerialOffset+afdSerialLen])
	if serial == "" {
		return afdHeader{}, fmt.Errorf("%w: header has no device serial", compliance.ErrMalformedRecord)
	}
	return afdHeader{
		EmployerIDType: line[10:11],
		EmployerID:     line[11:25],
		EmployerName:   strings.TrimSpace(line[25:175]),
		DeviceSerial:   serial,
	}, nil
}

// marshal renders the 50-char type 3 record: NSR, type, timestamp, CPF and
// a CRC-16/ARC over the preceding 46 characters.
func (r afdPunchRecord) marshal() string {
	body := fmt.Sprintf("%09d3%s%012s", r.NSR, r.At.Format(afdTimeLayout), r.CPF)
	return fmt.Sprintf("%s%04X", body, crc16([]byte(body)))
}

func parseAfdPunchRecord(line string) (afdPunchRecord, error) {
	if len(line) != afdPunchLen {
		return afdPunchRecord{}, fmt.Errorf("%w: punch record must be %d characters, got %d",
			compliance.ErrMalformedRecord, afdPunchLen, len(line))
	}
	if line[9] != '3' {
		return afdPunchRecord{}, fmt.Errorf("%w: not a punch record", compliance.ErrMalformedRecord)
	}

	nsr, err := strconv.ParseInt(line[:9], 10, 64)
	if err != nil {
		return afdPunchRecord{}, fmt.Errorf("%w: invalid NSR", compliance.ErrMalformedRecord)
	}

	at, err := time.Parse(afdTimeLayout, line[10:34])
	if err != nil {
		return afdPunchRecord{}, fmt.Errorf("%w: invalid timestamp", compliance.ErrMalformedRecord)
	}

	// The CPF field is 12 wide holding an 11-digit CPF; the first character
	// is always padding. CPFs may legitimately start with zeros.
	cpf := line[35:46]
	if line[34] != '0' || !allDigits(cpf) {
		return afdPunchRecord{}, fmt.Errorf("%w: invalid CPF field", compliance.ErrMalformedRecord)
	}

	want, err := strconv.ParseUint(line[46:], 16, 16)
	if err != nil || crc16([]byte(line[:46])) != uint16(want) {
		return afdPunchRecord{}, fmt.Errorf("%w: checksum mismatch", compliance.ErrMalformedRecord)
	}

	return afdPunchRecord{NSR: nsr, At: at, CPF: cpf}, nil
}

func marshalAfdTrailer(punchCount int) string {
	return fmt.Sprintf("%s9%09d", afdTrailerNSR, punchCount)
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func padText(s string, width int) string {
	if len(s) > width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}

func padNum(s string, width int) string {
	if len(s) > width {
		return s[len(s)-width:]
	}
	return strings.Repeat("0", width-len(s)) + s
}
