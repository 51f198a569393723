package encoding

import (
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ABI = `[
	{"name":"transfer","type":"function","inputs":[
		{"name":"to","type":"address"},
		{"name":"amount","type":"uint256"}]},
	{"name":"approve","type":"function","inputs":[
		{"name":"spender","type":"address"},
		{"name":"amount","type":"uint256"}]}
]`

func mustParse(t *testing.T, abiJSON string) abi.ABI {
	t.Helper()
	parsed, err := ParseABI(abiJSON)
	if err != nil {
		t.Fatalf("ParseABI failed: %v", err)
	}
	return parsed
}

func TestParseABIRejectsGarbage(t *testing.T) {
	if _, err := ParseABI("not json"); err == nil {
		t.Error("expected parse failure")
	}
}

func TestGenerateEncodingTransfer(t *testing.T) {
	parsed := mustParse(t, erc20ABI)

	data, err := GenerateEncoding(parsed, "transfer", []interface{}{
		"0x1122334455667788990011223344556677889900",
		"1000000000000000000",
	})
	if err != nil {
		t.Fatalf("GenerateEncoding failed: %v", err)
	}
	if len(data) != 4+32+32 {
		t.Fatalf("encoded length = %d, want 68", len(data))
	}
	// transfer(address,uint256)的标准选择器
	if got := hex.EncodeToString(data[:4]); got != "a9059cbb" {
		t.Errorf("selector = %s, want a9059cbb", got)
	}
	if got := hex.EncodeToString(data[4:36]); got != "0000000000000000000000001122334455667788990011223344556677889900" {
		t.Errorf("address word = %s", got)
	}
	if got := hex.EncodeToString(data[36:]); got != "0000000000000000000000000000000000000000000000000de0b6b3a7640000" {
		t.Errorf("amount word = %s", got)
	}
}

func TestGenerateEncodingAcceptsHexAndNumbers(t *testing.T) {
	parsed := mustParse(t, erc20ABI)

	// 十六进制字符串与JSON数字表示同一个值时编码一致
	fromHex, err := GenerateEncoding(parsed, "approve", []interface{}{
		"0x1122334455667788990011223344556677889900", "0xff",
	})
	if err != nil {
		t.Fatalf("hex arg failed: %v", err)
	}
	fromNum, err := GenerateEncoding(parsed, "approve", []interface{}{
		"0x1122334455667788990011223344556677889900", float64(255),
	})
	if err != nil {
		t.Fatalf("numeric arg failed: %v", err)
	}
	if hex.EncodeToString(fromHex) != hex.EncodeToString(fromNum) {
		t.Error("hex and numeric representations encoded differently")
	}
}

func TestGenerateEncodingErrors(t *testing.T) {
	parsed := mustParse(t, erc20ABI)
	addr := "0x1122334455667788990011223344556677889900"

	tests := []struct {
		name   string
		method string
		args   []interface{}
	}{
		{"unknown method", "mint", []interface{}{addr, "1"}},
		{"wrong arity", "transfer", []interface{}{addr}},
		{"bad address", "transfer", []interface{}{"0x123", "1"}},
		{"bad integer", "transfer", []interface{}{addr, "not-a-number"}},
		{"fractional number", "transfer", []interface{}{addr, 1.5}},
		{"negative for uint", "transfer", []interface{}{addr, "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GenerateEncoding(parsed, tt.method, tt.args); err == nil {
				t.Error("expected encoding failure")
			}
		})
	}
}

func TestSizedIntNarrowing(t *testing.T) {
	const abiJSON = `[{"name":"setDeadline","type":"function","inputs":[
		{"name":"ts","type":"uint64"}]}]`
	parsed := mustParse(t, abiJSON)

	data, err := GenerateEncoding(parsed, "setDeadline", []interface{}{"1700000000"})
	if err != nil {
		t.Fatalf("GenerateEncoding failed: %v", err)
	}
	if len(data) != 4+32 {
		t.Errorf("encoded length = %d, want 36", len(data))
	}
}
