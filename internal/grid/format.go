package grid

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/imgajeed76/pgrid/internal/util"
)

// Formatter turns cell values into single-line display text.
type Formatter struct {
	NullText   string
	DateFormat string
}

// DefaultFormatter returns the formatter used when no config is loaded.
func DefaultFormatter() *Formatter {
	return &Formatter{NullText: "NULL", DateFormat: "2006-01-02 15:04:05"}
}

// Format formats one value.
func (f *Formatter) Format(v any) string {
	if v == nil {
		return f.NullText
	}

	switch val := v.(type) {
	case string:
		return util.EscapeControl(util.ToValidUTF8(val))
	case []byte:
		if len(val) == 0 {
			return ""
		}
		for _, b := range val {
			if b < 32 && b != '\n' && b != '\r' && b != '\t' {
				return fmt.Sprintf("[%d bytes]", len(val))
			}
		}
		return util.EscapeControl(util.ToValidUTF8(string(val)))
	case time.Time:
		return val.Format(f.DateFormat)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case [16]byte:
		return formatUUID(val)
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		if inner == nil {
			return f.NullText
		}
		return f.Format(inner)
	case fmt.Stringer:
		return util.EscapeControl(val.String())
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatUUID(b [16]byte) string {
	var buf [36]byte
	hex.Encode(buf[0:8], b[0:4])
	buf[8] = '-'
	hex.Encode(buf[9:13], b[4:6])
	buf[13] = '-'
	hex.Encode(buf[14:18], b[6:8])
	buf[18] = '-'
	hex.Encode(buf[19:23], b[8:10])
	buf[23] = '-'
	hex.Encode(buf[24:], b[10:])
	return string(buf[:])
}
