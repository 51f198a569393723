package encoding

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseABI 解析合约ABI定义
func ParseABI(abiJSON string) (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("ABI解析失败: %w", err)
	}
	return parsed, nil
}

// GenerateEncoding 按方法签名与参数生成调用数据。
// 参数以JSON反序列化后的原始形式传入，这里按ABI类型逐个转换。
func GenerateEncoding(parsed abi.ABI, method string, args []interface{}) ([]byte, error) {
	m, ok := parsed.Methods[method]
	if !ok {
		return nil, fmt.Errorf("方法%s不存在", method)
	}
	if len(args) != len(m.Inputs) {
		return nil, fmt.Errorf("方法%s需要%d个参数，收到%d个", method, len(m.Inputs), len(args))
	}

	converted := make([]interface{}, len(args))
	for i, input := range m.Inputs {
		v, err := convertArg(input.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("参数%d (%s): %w", i, input.Type.String(), err)
		}
		converted[i] = v
	}

	return parsed.Pack(method, converted...)
}

// convertArg 将JSON原始值转换为ABI打包所需的Go类型
func convertArg(t abi.Type, raw interface{}) (interface{}, error) {
	switch t.T {
	case abi.AddressTy:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("地址参数必须是字符串")
		}
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("非法地址: %q", s)
		}
		return common.HexToAddress(s), nil

	case abi.UintTy, abi.IntTy:
		switch v := raw.(type) {
		case string:
			n, ok := new(big.Int).SetString(v, 10)
			if !ok {
				n, ok = new(big.Int).SetString(strings.TrimPrefix(v, "0x"), 16)
			}
			if !ok {
				return nil, fmt.Errorf("非法整数: %q", v)
			}
			return sizedInt(t, n)
		case float64:
			if v != float64(int64(v)) {
				return nil, fmt.Errorf("整数参数不能有小数部分: %v", v)
			}
			return sizedInt(t, big.NewInt(int64(v)))
		default:
			return nil, fmt.Errorf("整数参数必须是字符串或数字")
		}

	case abi.BoolTy:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("布尔参数必须是true/false")
		}
		return b, nil

	case abi.StringTy:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("字符串参数类型错误")
		}
		return s, nil

	case abi.BytesTy:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("bytes参数必须是0x前缀的十六进制字符串")
		}
		return hexutil.Decode(s)

	case abi.FixedBytesTy:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("bytes%d参数必须是十六进制字符串", t.Size)
		}
		decoded, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(decoded) > t.Size {
			return nil, fmt.Errorf("长度超过bytes%d", t.Size)
		}
		if t.Size == 32 {
			var out [32]byte
			copy(out[:], decoded)
			return out, nil
		}
		return nil, fmt.Errorf("不支持的定长字节宽度bytes%d", t.Size)

	default:
		return nil, fmt.Errorf("不支持的参数类型%s", t.String())
	}
}

// sizedInt 按ABI声明宽度收窄整数类型，go-ethereum的Pack要求
// 小于256位的整数使用对应的原生类型
func sizedInt(t abi.Type, n *big.Int) (interface{}, error) {
	if t.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("无符号参数不能为负: %s", n.String())
	}
	switch t.Size {
	case 8:
		if t.T == abi.UintTy {
			return uint8(n.Uint64()), nil
		}
		return int8(n.Int64()), nil
	case 16:
		if t.T == abi.UintTy {
			return uint16(n.Uint64()), nil
		}
		return int16(n.Int64()), nil
	case 32:
		if t.T == abi.UintTy {
			return uint32(n.Uint64()), nil
		}
		return int32(n.Int64()), nil
	case 64:
		if t.T == abi.UintTy {
			return n.Uint64(), nil
		}
		return n.Int64(), nil
	default:
		return n, nil
	}
}
