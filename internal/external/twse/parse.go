package twse

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// symbolPattern matches common-stock codes (ETF/warrant codes are longer)
var symbolPattern = regexp.MustCompile(`^\d{4}$`)

// IsCommonStock reports whether symbol is a 4-digit TWSE common-stock code
func IsCommonStock(symbol string) bool {
	return symbolPattern.MatchString(symbol)
}

// ParseNumber converts an exchange cell into a float
// 쉼표 제거, "" / "--" / 파싱 불가 / 비유한값은 0
func ParseNumber(v interface{}) float64 {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		f = val
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		n, err := val.Float64()
		if err != nil {
			return 0
		}
		f = n
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(val, ",", ""))
		if s == "" || s == "--" {
			return 0
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = n
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// text renders a cell as trimmed text
func text(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// cell returns row[i] or nil when the row is short
func cell(row []interface{}, i int) interface{} {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// pickFirst returns the value of the first present key
func pickFirst(obj map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v
		}
	}
	return nil
}
