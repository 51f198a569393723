package handler

import (
	"net/http"

	"github.com/blues/exposure/internal/encoding"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

type EncodeHandler struct{}

func NewEncodeHandler() *EncodeHandler {
	return &EncodeHandler{}
}

// Encode 按ABI与方法签名生成调用数据，供组装批次使用
func (h *EncodeHandler) Encode(c *gin.Context) {
	var req EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	parsed, err := encoding.ParseABI(req.ABI)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	data, err := encoding.GenerateEncoding(parsed, req.Method, req.Args)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": hexutil.Encode(data),
	})
}
